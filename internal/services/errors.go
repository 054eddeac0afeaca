package services

import (
	"errors"

	apperrors "github.com/vnit-lms/lms-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrUnauthorized = errors.New("unauthorized access")

	// Course specific errors
	ErrCourseNotFound      = errors.New("course not found")
	ErrNotEnrolled         = errors.New("you are not enrolled in this course")
	ErrNotCourseProfessor  = errors.New("only the course professor can manage quizzes")
	ErrLeaderboardDenied   = errors.New("only enrolled students or course staff can view the leaderboard")
	ErrAttemptsViewDenied  = errors.New("only the course professor can view quiz attempts")
	ErrResultsExportDenied = errors.New("only the course professor can export quiz results")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPublished = errors.New("quiz is not published yet")

	// Attempt specific errors
	ErrAttemptAlreadySubmitted = errors.New("quiz has already been submitted")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrCourseNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" or "forbidden" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrNotCourseProfessor) ||
		errors.Is(err, ErrLeaderboardDenied) ||
		errors.Is(err, ErrAttemptsViewDenied) ||
		errors.Is(err, ErrResultsExportDenied) ||
		errors.Is(err, ErrQuizNotPublished)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptAlreadySubmitted)
}
