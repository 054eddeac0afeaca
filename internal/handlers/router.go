package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnit-lms/lms-service/internal/services"
	"github.com/vnit-lms/lms-service/internal/utils"
)

type HandlerManager struct {
	quizHandler        *QuizHandler
	attemptHandler     *AttemptHandler
	leaderboardHandler *LeaderboardHandler
}

func NewHandlerManager(
	quizService services.QuizService,
	gradingService services.GradingService,
	attemptService services.AttemptService,
	leaderboardService services.LeaderboardService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:        NewQuizHandler(quizService, logger),
		attemptHandler:     NewAttemptHandler(gradingService, attemptService, logger),
		leaderboardHandler: NewLeaderboardHandler(leaderboardService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware)
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", hm.quizHandler.PublishQuiz)
			quizzes.GET("/:id/export", hm.attemptHandler.ExportResults)
			quizzes.GET("/:id/leaderboard", hm.leaderboardHandler.GetLeaderboard)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/submit", hm.attemptHandler.SubmitQuiz)
			attempts.GET("", hm.attemptHandler.ListAttempts)
		}
	}
}
