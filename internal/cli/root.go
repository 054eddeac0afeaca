package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lms-service",
		Short: "Quiz submission and grading service",
	}

	cmd.AddCommand(NewServerCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}
