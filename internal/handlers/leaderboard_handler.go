package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnit-lms/lms-service/internal/services"
	"github.com/vnit-lms/lms-service/internal/utils"
)

type LeaderboardHandler struct {
	BaseHandler
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService, logger utils.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler:        NewBaseHandler(logger),
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard returns the ranked graded attempts of a quiz
// @Summary Quiz leaderboard
// @Description Ranked graded attempts; visible to enrolled students and course staff
// @Tags leaderboard
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.LeaderboardResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	leaderboard, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}
