package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnit-lms/lms-service/internal/config"
	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/pkg"
)

// NewMigrateCmd builds the CLI subcommand to run schema migrations.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}

			if err := db.AutoMigrate(
				&models.User{},
				&models.Course{},
				&models.Quiz{},
				&models.Question{},
				&models.QuizAttempt{},
			); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println("migrations applied")
			return nil
		},
	}
}
