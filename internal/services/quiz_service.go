package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vnit-lms/lms-service/internal/events"
	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

// ===== REQUEST / RESPONSE TYPES =====

type QuestionRequest struct {
	QuestionText   string              `json:"questionText"`
	QuestionType   models.QuestionType `json:"questionType"`
	Options        []string            `json:"options"`
	CorrectAnswer  json.RawMessage     `json:"correctAnswer"`
	CorrectAnswers []string            `json:"correctAnswers"`
	Points         float64             `json:"points"`
	Explanation    string              `json:"explanation"`
}

type CreateQuizRequest struct {
	CourseID     uint              `json:"courseId" validate:"required"`
	Title        string            `json:"title" validate:"required,min=1,max=200"`
	Description  string            `json:"description"`
	Instructions string            `json:"instructions"`
	Questions    []QuestionRequest `json:"questions" validate:"required,min=1"`
	TimeLimit    *int              `json:"timeLimit" validate:"omitempty,min=1"`
	ShowResults  *bool             `json:"showResults"`
}

type UpdateQuizRequest struct {
	Title        string            `json:"title" validate:"required,min=1,max=200"`
	Description  string            `json:"description"`
	Instructions string            `json:"instructions"`
	Questions    []QuestionRequest `json:"questions" validate:"required,min=1"`
	TimeLimit    *int              `json:"timeLimit" validate:"omitempty,min=1"`
	ShowResults  *bool             `json:"showResults"`
}

// AttemptSummary is the per-quiz attempt digest embedded in student-facing
// quiz payloads.
type AttemptSummary struct {
	ID          uint       `json:"id"`
	TotalScore  float64    `json:"totalScore"`
	Percentage  float64    `json:"percentage"`
	SubmittedAt *time.Time `json:"submittedAt"`
	IsGraded    bool       `json:"isGraded"`
}

type QuizResponse struct {
	*QuizView
	Attempt *AttemptSummary `json:"attempt"`
}

// ===== SERVICE =====

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, userID string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	SetPublished(ctx context.Context, id uint, isPublished bool, userID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, userID string, includeAnswers bool) (*QuizResponse, error)
	ListByCourse(ctx context.Context, courseID uint, userID string) ([]*QuizResponse, error)
}

type quizService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, logger utils.Logger, validator *utils.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "course_id", req.CourseID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	course, user, err := s.getCourseAndUser(ctx, req.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !course.IsOwnedBy(userID, user.Role) {
		return nil, ErrNotCourseProfessor
	}

	showResults := true
	if req.ShowResults != nil {
		showResults = *req.ShowResults
	}

	quiz := &models.Quiz{
		CourseID:     req.CourseID,
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		Questions:    questions,
		TimeLimit:    req.TimeLimit,
		IsPublished:  false,
		ShowResults:  showResults,
		CreatedBy:    userID,
	}
	quiz.ReindexQuestions()
	quiz.RecalculateTotalPoints()

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "total_points", quiz.TotalPoints)

	return &QuizResponse{QuizView: ProjectQuiz(quiz, true)}, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Updating quiz", "quiz_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	course, user, err := s.getCourseAndUser(ctx, quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !course.IsOwnedBy(userID, user.Role) {
		return nil, ErrNotCourseProfessor
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.Instructions = req.Instructions
	quiz.Questions = questions
	quiz.TimeLimit = req.TimeLimit
	if req.ShowResults != nil {
		quiz.ShowResults = *req.ShowResults
	}
	quiz.ReindexQuestions()
	quiz.RecalculateTotalPoints()

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	return &QuizResponse{QuizView: ProjectQuiz(quiz, true)}, nil
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return err
	}

	course, user, err := s.getCourseAndUser(ctx, quiz.CourseID, userID)
	if err != nil {
		return err
	}
	if !course.IsOwnedBy(userID, user.Role) {
		return ErrNotCourseProfessor
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id, "user_id", userID)
	return nil
}

func (s *quizService) SetPublished(ctx context.Context, id uint, isPublished bool, userID string) (*QuizResponse, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	course, user, err := s.getCourseAndUser(ctx, quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !course.IsOwnedBy(userID, user.Role) {
		return nil, ErrNotCourseProfessor
	}

	if err := s.repo.Quiz().UpdatePublished(ctx, id, isPublished); err != nil {
		return nil, fmt.Errorf("failed to update publish state: %w", err)
	}
	quiz.IsPublished = isPublished

	s.publishQuizStateEvent(ctx, quiz, course, isPublished)

	return &QuizResponse{QuizView: ProjectQuiz(quiz, true)}, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID string, includeAnswers bool) (*QuizResponse, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	course, user, err := s.getCourseAndUser(ctx, quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCourseAccess(ctx, course, user); err != nil {
		return nil, err
	}

	var attempt *models.QuizAttempt
	if user.Role == models.RoleStudent {
		attempt, err = s.repo.Attempt().GetByQuizAndStudent(ctx, id, userID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get attempt: %w", err)
		}
	}

	vis := AnswerVisibility{
		Role:             user.Role,
		QuizPublished:    quiz.IsPublished,
		HasGradedAttempt: attempt != nil && attempt.IsGraded,
		AnswersRequested: includeAnswers && user.Role.IsPrivileged(),
	}
	if !vis.CanViewQuiz() {
		return nil, ErrQuizNotPublished
	}

	return &QuizResponse{
		QuizView: ProjectQuiz(quiz, vis.ShowCorrectAnswers()),
		Attempt:  attemptSummary(attempt),
	}, nil
}

func (s *quizService) ListByCourse(ctx context.Context, courseID uint, userID string) ([]*QuizResponse, error) {
	course, user, err := s.getCourseAndUser(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCourseAccess(ctx, course, user); err != nil {
		return nil, err
	}

	publishedOnly := user.Role == models.RoleStudent
	quizzes, err := s.repo.Quiz().ListByCourse(ctx, courseID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	attemptsByQuiz := map[uint]*models.QuizAttempt{}
	if user.Role == models.RoleStudent && len(quizzes) > 0 {
		quizIDs := make([]uint, len(quizzes))
		for i, q := range quizzes {
			quizIDs[i] = q.ID
		}
		attempts, err := s.repo.Attempt().GetByQuizzesAndStudent(ctx, quizIDs, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load attempts: %w", err)
		}
		for _, a := range attempts {
			attemptsByQuiz[a.QuizID] = a
		}
	}

	responses := make([]*QuizResponse, len(quizzes))
	for i, quiz := range quizzes {
		responses[i] = &QuizResponse{
			QuizView: ProjectQuiz(quiz, false),
			Attempt:  attemptSummary(attemptsByQuiz[quiz.ID]),
		}
	}
	return responses, nil
}

// ===== HELPERS =====

func (s *quizService) getQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) getCourseAndUser(ctx context.Context, courseID uint, userID string) (*models.Course, *models.User, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	return course, user, nil
}

func (s *quizService) checkCourseAccess(ctx context.Context, course *models.Course, user *models.User) error {
	if course.IsOwnedBy(user.ID, user.Role) {
		return nil
	}
	if user.Role == models.RoleStudent {
		enrolled, err := s.repo.Course().IsEnrolled(ctx, course.ID, user.ID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if enrolled {
			return nil
		}
	}
	return ErrNotEnrolled
}

func (s *quizService) publishQuizStateEvent(ctx context.Context, quiz *models.Quiz, course *models.Course, isPublished bool) {
	eventType := events.EventQuizUnpublished
	var studentIDs []string
	if isPublished {
		eventType = events.EventQuizPublished
		ids, err := s.repo.Course().GetEnrolledStudentIDs(ctx, course.ID)
		if err != nil {
			s.logger.LogError(err, "Failed to load enrolled students for event", "quiz_id", quiz.ID)
		}
		studentIDs = ids
	}

	event := events.NewNotificationEvent(eventType, events.QuizPublishedEvent{
		QuizID:     quiz.ID,
		QuizTitle:  quiz.Title,
		CourseID:   course.ID,
		StudentIDs: studentIDs,
		CreatedBy:  quiz.CreatedBy,
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		// Notifications are best-effort; the publish state change stands.
		s.logger.LogError(err, "Failed to publish quiz state event", "quiz_id", quiz.ID)
	}
}

func attemptSummary(attempt *models.QuizAttempt) *AttemptSummary {
	if attempt == nil {
		return nil
	}
	return &AttemptSummary{
		ID:          attempt.ID,
		TotalScore:  attempt.TotalScore,
		Percentage:  attempt.Percentage,
		SubmittedAt: attempt.SubmittedAt,
		IsGraded:    attempt.IsGraded,
	}
}

// buildQuestions validates the authored question list and maps it onto model
// rows. Each failure names the offending field so the caller can fix it.
func buildQuestions(reqs []QuestionRequest) ([]models.Question, error) {
	var errs ValidationErrors
	questions := make([]models.Question, 0, len(reqs))

	for i, q := range reqs {
		field := func(name string) string {
			return fmt.Sprintf("questions[%d].%s", i, name)
		}

		if q.QuestionText == "" {
			errs = append(errs, *NewValidationError(field("questionText"), "is required", q.QuestionText))
			continue
		}

		question := models.Question{
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Points:       q.Points,
			Explanation:  q.Explanation,
		}
		if question.Points == 0 {
			question.Points = 1
		}
		if question.Points < 0 {
			errs = append(errs, *NewValidationError(field("points"), "must be greater than 0", q.Points))
			continue
		}

		switch q.QuestionType {
		case models.QuestionMCQSingle, models.QuestionMCQMultiple:
			if !validOptions(q.Options) {
				errs = append(errs, *NewValidationError(field("options"), "at least 2 non-empty options are required for MCQ", q.Options))
				continue
			}
			question.Options = mustJSON(q.Options)

			if q.QuestionType == models.QuestionMCQSingle {
				var answer string
				if len(q.CorrectAnswer) == 0 || json.Unmarshal(q.CorrectAnswer, &answer) != nil || !contains(q.Options, answer) {
					errs = append(errs, *NewValidationError(field("correctAnswer"), "must be one of the options", string(q.CorrectAnswer)))
					continue
				}
				question.CorrectAnswer = mustJSON(answer)
			} else {
				if len(q.CorrectAnswers) == 0 {
					errs = append(errs, *NewValidationError(field("correctAnswers"), "at least one correct answer is required for multiple choice", q.CorrectAnswers))
					continue
				}
				allInOptions := true
				for _, ans := range q.CorrectAnswers {
					if !contains(q.Options, ans) {
						allInOptions = false
						break
					}
				}
				if !allInOptions {
					errs = append(errs, *NewValidationError(field("correctAnswers"), "all correct answers must be in options", q.CorrectAnswers))
					continue
				}
				question.CorrectAnswers = mustJSON(q.CorrectAnswers)
			}

		case models.QuestionNumerical:
			var answer float64
			// A quoted numeric string is not a number; the answer key must be
			// a JSON number.
			if len(q.CorrectAnswer) == 0 || json.Unmarshal(q.CorrectAnswer, &answer) != nil {
				errs = append(errs, *NewValidationError(field("correctAnswer"), "must be a number for numerical question", string(q.CorrectAnswer)))
				continue
			}
			question.CorrectAnswer = mustJSON(answer)

		default:
			errs = append(errs, *NewValidationError(field("questionType"), "must be a valid question type (mcq_single, mcq_multiple, numerical)", q.QuestionType))
			continue
		}

		questions = append(questions, question)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return questions, nil
}

func validOptions(options []string) bool {
	if len(options) < 2 {
		return false
	}
	for _, opt := range options {
		if opt == "" {
			return false
		}
	}
	return true
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err) // only called with marshalable values
	}
	return data
}
