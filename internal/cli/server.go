package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vnit-lms/lms-service/internal/cache"
	"github.com/vnit-lms/lms-service/internal/config"
	"github.com/vnit-lms/lms-service/internal/handlers"
	"github.com/vnit-lms/lms-service/internal/middleware"
	"github.com/vnit-lms/lms-service/internal/repositories/postgres"
	"github.com/vnit-lms/lms-service/internal/services"
	"github.com/vnit-lms/lms-service/internal/utils"
	"github.com/vnit-lms/lms-service/pkg"
)

// NewServerCmd builds the CLI subcommand to start the HTTP server.
func NewServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		return err
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	validator := utils.NewValidator()
	cacheService := cache.NewRedisCache(redisClient, utils.ToSlogLogger(logger))

	quizService := services.NewQuizService(repo, logger, validator, publisher)
	gradingService := services.NewGradingService(repo, logger, validator, publisher, cacheService)
	attemptService := services.NewAttemptService(repo, logger)
	leaderboardService := services.NewLeaderboardService(repo, logger, cacheService, cfg.LeaderboardTTL)

	middleware.InitAuth(cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(quizService, gradingService, attemptService, leaderboardService, logger)
	handlerManager.SetupRoutes(router, middleware.AuthRequired(repo.User(), logger))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("Shutting down server")
	case <-ctx.Done():
		logger.Info("Context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
