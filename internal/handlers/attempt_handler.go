package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnit-lms/lms-service/internal/services"
	"github.com/vnit-lms/lms-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	gradingService services.GradingService
	attemptService services.AttemptService
}

func NewAttemptHandler(gradingService services.GradingService, attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		attemptService: attemptService,
	}
}

// SubmitQuiz submits and grades a quiz attempt
// @Summary Submit quiz
// @Description Grades the submitted answers and records the attempt; one attempt per student per quiz
// @Tags attempts
// @Accept json
// @Produce json
// @Param submission body services.SubmitQuizRequest true "Submitted answers"
// @Success 201 {object} services.SubmitQuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/submit [post]
func (h *AttemptHandler) SubmitQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting quiz", "quiz_id", req.QuizID)

	result, err := h.gradingService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListAttempts lists all attempts for a quiz
// @Summary List quiz attempts
// @Description Lists every attempt for a quiz; course staff only
// @Tags attempts
// @Produce json
// @Param quiz_id query uint true "Quiz ID"
// @Success 200 {object} services.AttemptListResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := h.parseUintQuery(c, "quiz_id")
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListByQuiz(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// ExportResults exports graded attempts as an xlsx workbook
// @Summary Export quiz results
// @Description Downloads the graded attempts of a quiz as an Excel file; course staff only
// @Tags attempts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Quiz ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/export [get]
func (h *AttemptHandler) ExportResults(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID)

	data, err := h.attemptService.ExportResults(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_results.xlsx", quizID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
