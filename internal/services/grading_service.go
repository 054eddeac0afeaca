package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/vnit-lms/lms-service/internal/cache"
	"github.com/vnit-lms/lms-service/internal/events"
	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

// NumericalTolerance is the absolute tolerance applied when comparing a
// submitted numerical answer against the answer key.
const NumericalTolerance = 0.01

// ===== REQUEST / RESPONSE TYPES =====

type SubmittedAnswer struct {
	QuestionIndex int             `json:"questionIndex"`
	Answer        json.RawMessage `json:"answer"`
}

type SubmitQuizRequest struct {
	QuizID    uint              `json:"quizId" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"required"`
	TimeSpent int               `json:"timeSpent" validate:"omitempty,min=0"`
}

// GradedQuestionView is one question in the post-submission review payload:
// the full question including its answer key, annotated with what the
// student answered and what it earned.
type GradedQuestionView struct {
	QuestionView
	StudentAnswer json.RawMessage `json:"studentAnswer,omitempty"`
	IsCorrect     bool            `json:"isCorrect"`
	PointsEarned  float64         `json:"pointsEarned"`
}

type SubmitQuizResponse struct {
	AttemptID   uint                 `json:"attemptId"`
	QuizID      uint                 `json:"quizId"`
	Questions   []GradedQuestionView `json:"questions"`
	TotalScore  float64              `json:"totalScore"`
	TotalPoints float64              `json:"totalPoints"`
	Percentage  float64              `json:"percentage"`
	TimeSpent   int                  `json:"timeSpent"`
	SubmittedAt time.Time            `json:"submittedAt"`
}

// ===== SERVICE =====

type GradingService interface {
	Submit(ctx context.Context, req *SubmitQuizRequest, studentID string) (*SubmitQuizResponse, error)
}

type gradingService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewGradingService(repo repositories.Repository, logger utils.Logger, validator *utils.Validator, publisher events.EventPublisher, cacheService cache.CacheService) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheService,
	}
}

func (s *gradingService) Submit(ctx context.Context, req *SubmitQuizRequest, studentID string) (*SubmitQuizResponse, error) {
	s.logger.Info("Submitting quiz", "quiz_id", req.QuizID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}

	enrolled, err := s.repo.Course().IsEnrolled(ctx, quiz.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	existing, err := s.repo.Attempt().GetByQuizAndStudent(ctx, req.QuizID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing attempt: %w", err)
	}
	if existing != nil && existing.IsGraded {
		return nil, ErrAttemptAlreadySubmitted
	}

	answers, totalScore := gradeAnswers(quiz.Questions, req.Answers)

	percentage := 0.0
	if quiz.TotalPoints > 0 {
		percentage = totalScore / quiz.TotalPoints * 100
	}

	now := time.Now()
	attempt := &models.QuizAttempt{
		QuizID:      req.QuizID,
		StudentID:   studentID,
		Answers:     answers,
		TotalScore:  totalScore,
		Percentage:  percentage,
		TimeSpent:   req.TimeSpent,
		SubmittedAt: &now,
		IsGraded:    true,
	}

	if existing != nil {
		// An ungraded draft exists; finish it in place.
		attempt.ID = existing.ID
		attempt.CreatedAt = existing.CreatedAt
		err = s.repo.Attempt().Update(ctx, attempt)
	} else {
		err = s.repo.Attempt().Create(ctx, attempt)
	}
	if err != nil {
		// Two first submissions can race past the existence check; the unique
		// (quiz_id, student_id) index turns the loser into a duplicate insert.
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	s.logger.Info("Quiz graded",
		"quiz_id", req.QuizID,
		"student_id", studentID,
		"total_score", totalScore,
		"percentage", percentage)

	s.invalidateLeaderboard(ctx, req.QuizID)
	s.publishGradedEvent(ctx, quiz, attempt)

	return buildSubmitResponse(quiz, attempt), nil
}

// gradeAnswers scores each submitted answer against the question list.
// Answers pointing at indexes outside the list are dropped.
func gradeAnswers(questions []models.Question, submitted []SubmittedAnswer) (models.AnsweredQuestionList, float64) {
	byIndex := make(map[int]*models.Question, len(questions))
	for i := range questions {
		byIndex[questions[i].QuestionIndex] = &questions[i]
	}

	answers := make(models.AnsweredQuestionList, 0, len(submitted))
	totalScore := 0.0

	for _, sub := range submitted {
		question, ok := byIndex[sub.QuestionIndex]
		if !ok {
			continue
		}

		correct := isAnswerCorrect(question, sub.Answer)
		points := 0.0
		if correct {
			points = question.Points
			totalScore += points
		}

		answers = append(answers, models.AnsweredQuestion{
			QuestionIndex: sub.QuestionIndex,
			Answer:        sub.Answer,
			IsCorrect:     correct,
			PointsEarned:  points,
		})
	}

	return answers, totalScore
}

func isAnswerCorrect(question *models.Question, answer json.RawMessage) bool {
	switch question.QuestionType {
	case models.QuestionMCQSingle:
		key, ok := question.CorrectAnswerString()
		if !ok {
			return false
		}
		var submitted string
		if err := json.Unmarshal(answer, &submitted); err != nil {
			return false
		}
		return submitted == key

	case models.QuestionMCQMultiple:
		key := question.CorrectAnswersList()
		if key == nil {
			return false
		}
		submitted, ok := decodeStringSet(answer)
		if !ok {
			return false
		}
		return matchesAnswerSet(submitted, key)

	case models.QuestionNumerical:
		key, ok := question.CorrectAnswerNumber()
		if !ok {
			return false
		}
		value, ok := decodeNumber(answer)
		if !ok {
			return false
		}
		return math.Abs(value-key) <= NumericalTolerance

	default:
		return false
	}
}

// decodeStringSet accepts a string array or a bare string; a single selection
// submitted as a scalar counts as a one-element set.
func decodeStringSet(raw json.RawMessage) ([]string, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, true
	}
	return nil, false
}

// decodeNumber accepts a JSON number or a numeric string such as "4.5".
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// matchesAnswerSet compares a submitted selection against the answer key:
// order does not matter, but the raw lengths must match first, so a
// duplicate-padded submission never passes.
func matchesAnswerSet(submitted, key []string) bool {
	if len(submitted) != len(key) {
		return false
	}
	for _, want := range key {
		if !contains(submitted, want) {
			return false
		}
	}
	return true
}

func buildSubmitResponse(quiz *models.Quiz, attempt *models.QuizAttempt) *SubmitQuizResponse {
	answered := make(map[int]*models.AnsweredQuestion, len(attempt.Answers))
	for i := range attempt.Answers {
		answered[attempt.Answers[i].QuestionIndex] = &attempt.Answers[i]
	}

	questions := make([]GradedQuestionView, len(quiz.Questions))
	for i := range quiz.Questions {
		view := GradedQuestionView{
			QuestionView: ProjectQuestion(&quiz.Questions[i], true),
		}
		if ans, ok := answered[quiz.Questions[i].QuestionIndex]; ok {
			view.StudentAnswer = ans.Answer
			view.IsCorrect = ans.IsCorrect
			view.PointsEarned = ans.PointsEarned
		}
		questions[i] = view
	}

	submittedAt := time.Now()
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}

	return &SubmitQuizResponse{
		AttemptID:   attempt.ID,
		QuizID:      quiz.ID,
		Questions:   questions,
		TotalScore:  attempt.TotalScore,
		TotalPoints: quiz.TotalPoints,
		Percentage:  attempt.Percentage,
		TimeSpent:   attempt.TimeSpent,
		SubmittedAt: submittedAt,
	}
}

func (s *gradingService) invalidateLeaderboard(ctx context.Context, quizID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, leaderboardCacheKey(quizID)); err != nil {
		s.logger.Warn("Failed to invalidate leaderboard cache", "quiz_id", quizID, "error", err)
	}
}

func (s *gradingService) publishGradedEvent(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) {
	event := events.NewNotificationEvent(events.EventAttemptGraded, events.AttemptGradedEvent{
		AttemptID:  attempt.ID,
		QuizID:     quiz.ID,
		QuizTitle:  quiz.Title,
		StudentID:  attempt.StudentID,
		TotalScore: attempt.TotalScore,
		Percentage: attempt.Percentage,
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish graded event", "attempt_id", attempt.ID)
	}
}
