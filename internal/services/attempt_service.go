package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

// AttemptView is one attempt row in the course-staff listing.
type AttemptView struct {
	ID           uint                        `json:"id"`
	QuizID       uint                        `json:"quizId"`
	StudentID    string                      `json:"studentId"`
	StudentName  string                      `json:"studentName"`
	StudentEmail string                      `json:"studentEmail"`
	Answers      models.AnsweredQuestionList `json:"answers"`
	TotalScore   float64                     `json:"totalScore"`
	Percentage   float64                     `json:"percentage"`
	TimeSpent    int                         `json:"timeSpent"`
	SubmittedAt  *time.Time                  `json:"submittedAt"`
	IsGraded     bool                        `json:"isGraded"`
}

type AttemptListResponse struct {
	QuizTitle   string        `json:"quizTitle"`
	TotalPoints float64       `json:"totalPoints"`
	Attempts    []AttemptView `json:"attempts"`
}

type AttemptService interface {
	ListByQuiz(ctx context.Context, quizID uint, userID string) (*AttemptListResponse, error)
	ExportResults(ctx context.Context, quizID uint, userID string) ([]byte, error)
}

type attemptService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewAttemptService(repo repositories.Repository, logger utils.Logger) AttemptService {
	return &attemptService{
		repo:   repo,
		logger: logger,
	}
}

func (s *attemptService) ListByQuiz(ctx context.Context, quizID uint, userID string) (*AttemptListResponse, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, userID, ErrAttemptsViewDenied)
	if err != nil {
		return nil, err
	}

	attempts, err := s.repo.Attempt().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	views := make([]AttemptView, len(attempts))
	for i, attempt := range attempts {
		views[i] = AttemptView{
			ID:           attempt.ID,
			QuizID:       attempt.QuizID,
			StudentID:    attempt.StudentID,
			StudentName:  attempt.Student.Name,
			StudentEmail: attempt.Student.Email,
			Answers:      attempt.Answers,
			TotalScore:   attempt.TotalScore,
			Percentage:   attempt.Percentage,
			TimeSpent:    attempt.TimeSpent,
			SubmittedAt:  attempt.SubmittedAt,
			IsGraded:     attempt.IsGraded,
		}
	}

	return &AttemptListResponse{
		QuizTitle:   quiz.Title,
		TotalPoints: quiz.TotalPoints,
		Attempts:    views,
	}, nil
}

// ExportResults renders the graded attempts of a quiz as an xlsx workbook.
func (s *attemptService) ExportResults(ctx context.Context, quizID uint, userID string) ([]byte, error) {
	quiz, err := s.ownedQuiz(ctx, quizID, userID, ErrResultsExportDenied)
	if err != nil {
		return nil, err
	}

	attempts, err := s.repo.Attempt().GetGradedByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Student ID", "Student Name", "Student Email",
		"Total Score", "Total Points", "Percentage", "Time Spent (minutes)", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.StudentID,
			attempt.Student.Name,
			attempt.Student.Email,
			attempt.TotalScore,
			quiz.TotalPoints,
			attempt.Percentage,
			attempt.TimeSpent / 60,
		}
		if attempt.SubmittedAt != nil {
			row = append(row, attempt.SubmittedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported quiz results", "quiz_id", quizID, "attempts", len(attempts))
	return buf.Bytes(), nil
}

// ownedQuiz loads the quiz and verifies the caller owns its course.
func (s *attemptService) ownedQuiz(ctx context.Context, quizID uint, userID string, denied error) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	course, err := s.repo.Course().GetByID(ctx, quiz.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !course.IsOwnedBy(userID, user.Role) {
		return nil, denied
	}
	return quiz, nil
}
