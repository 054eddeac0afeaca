package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/vnit-lms/lms-service/internal/events"
	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

func jsonb(s string) datatypes.JSON {
	return datatypes.JSON([]byte(s))
}

func answer(s string) json.RawMessage {
	return json.RawMessage(s)
}

// gradingQuiz has one question of each type: 1 + 2 + 3 = 6 points.
func gradingQuiz() *models.Quiz {
	return &models.Quiz{
		ID:          1,
		CourseID:    10,
		Title:       "Networking Basics",
		IsPublished: true,
		TotalPoints: 6,
		Questions: []models.Question{
			{
				QuizID:        1,
				QuestionIndex: 0,
				QuestionText:  "Capital of France?",
				QuestionType:  models.QuestionMCQSingle,
				Options:       jsonb(`["Paris","London","Berlin"]`),
				CorrectAnswer: jsonb(`"Paris"`),
				Points:        1,
			},
			{
				QuizID:         1,
				QuestionIndex:  1,
				QuestionText:   "Which are TCP features?",
				QuestionType:   models.QuestionMCQMultiple,
				Options:        jsonb(`["A","B","C"]`),
				CorrectAnswers: jsonb(`["A","C"]`),
				Points:         2,
			},
			{
				QuizID:        1,
				QuestionIndex: 2,
				QuestionText:  "What is 2 + 2?",
				QuestionType:  models.QuestionNumerical,
				CorrectAnswer: jsonb(`4`),
				Points:        3,
			},
		},
	}
}

func newGradingService(repo *MockRepository) GradingService {
	logger := utils.NewDevelopmentLogger()
	publisher := events.NewMockEventPublisher(utils.ToSlogLogger(logger))
	return NewGradingService(repo, logger, utils.NewValidator(), publisher, nil)
}

// expectSubmission sets up the happy-path guards: quiz found, student
// enrolled, no prior attempt, and a successful insert.
func expectSubmission(repo *MockRepository, quiz *models.Quiz) {
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	repo.course.On("IsEnrolled", mock.Anything, quiz.CourseID, "student-1").Return(true, nil)
	repo.attempt.On("GetByQuizAndStudent", mock.Anything, quiz.ID, "student-1").Return(nil, repositories.ErrNotFound)
	repo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
}

func TestSubmitGradesAllTypes(t *testing.T) {
	repo := NewMockRepository()
	expectSubmission(repo, gradingQuiz())
	svc := newGradingService(repo)

	result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID: 1,
		Answers: []SubmittedAnswer{
			{QuestionIndex: 0, Answer: answer(`"Paris"`)},
			{QuestionIndex: 1, Answer: answer(`["C","A"]`)},
			{QuestionIndex: 2, Answer: answer(`4.009`)},
		},
		TimeSpent: 120,
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, 6.0, result.TotalScore)
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, 6.0, result.TotalPoints)
	assert.Len(t, result.Questions, 3)
	for _, q := range result.Questions {
		assert.True(t, q.IsCorrect)
	}
}

func TestSubmitSingleChoiceWrongAnswer(t *testing.T) {
	repo := NewMockRepository()
	expectSubmission(repo, gradingQuiz())
	svc := newGradingService(repo)

	result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID: 1,
		Answers: []SubmittedAnswer{
			{QuestionIndex: 0, Answer: answer(`"London"`)},
		},
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.False(t, result.Questions[0].IsCorrect)
	assert.Equal(t, 0.0, result.Questions[0].PointsEarned)
}

func TestSubmitMultipleChoiceSetSemantics(t *testing.T) {
	cases := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"exact set in different order", `["C","A"]`, true},
		{"subset is wrong", `["A"]`, false},
		{"superset is wrong", `["A","B","C"]`, false},
		{"duplicate padding is wrong", `["A","A","C"]`, false},
		{"duplicate replacing a key element is wrong", `["A","A"]`, false},
		{"scalar counts as one-element set", `"A"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewMockRepository()
			expectSubmission(repo, gradingQuiz())
			svc := newGradingService(repo)

			result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
				QuizID: 1,
				Answers: []SubmittedAnswer{
					{QuestionIndex: 1, Answer: answer(tc.answer)},
				},
			}, "student-1")

			require.NoError(t, err)
			assert.Equal(t, tc.correct, result.Questions[1].IsCorrect)
		})
	}
}

func TestSubmitNumericalTolerance(t *testing.T) {
	cases := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"exact", `4`, true},
		{"within tolerance", `4.009`, true},
		{"at tolerance boundary", `4.01`, true},
		{"outside tolerance", `4.02`, false},
		{"numeric string accepted", `"3.995"`, true},
		{"non-numeric string wrong", `"four"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewMockRepository()
			expectSubmission(repo, gradingQuiz())
			svc := newGradingService(repo)

			result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
				QuizID: 1,
				Answers: []SubmittedAnswer{
					{QuestionIndex: 2, Answer: answer(tc.answer)},
				},
			}, "student-1")

			require.NoError(t, err)
			assert.Equal(t, tc.correct, result.Questions[2].IsCorrect)
		})
	}
}

func TestSubmitIgnoresOutOfRangeIndex(t *testing.T) {
	repo := NewMockRepository()
	expectSubmission(repo, gradingQuiz())
	svc := newGradingService(repo)

	result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID: 1,
		Answers: []SubmittedAnswer{
			{QuestionIndex: 99, Answer: answer(`"Paris"`)},
			{QuestionIndex: 0, Answer: answer(`"Paris"`)},
		},
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, 1.0, result.TotalScore)
}

func TestSubmitQuizNotFound(t *testing.T) {
	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(nil, repositories.ErrNotFound)
	svc := newGradingService(repo)

	_, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID:  1,
		Answers: []SubmittedAnswer{},
	}, "student-1")

	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitUnpublishedQuiz(t *testing.T) {
	quiz := gradingQuiz()
	quiz.IsPublished = false

	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	svc := newGradingService(repo)

	_, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID:  1,
		Answers: []SubmittedAnswer{},
	}, "student-1")

	assert.ErrorIs(t, err, ErrQuizNotPublished)
}

func TestSubmitNotEnrolled(t *testing.T) {
	quiz := gradingQuiz()

	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	repo.course.On("IsEnrolled", mock.Anything, quiz.CourseID, "student-1").Return(false, nil)
	svc := newGradingService(repo)

	_, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID:  1,
		Answers: []SubmittedAnswer{},
	}, "student-1")

	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestSubmitAlreadyGraded(t *testing.T) {
	quiz := gradingQuiz()

	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	repo.course.On("IsEnrolled", mock.Anything, quiz.CourseID, "student-1").Return(true, nil)
	repo.attempt.On("GetByQuizAndStudent", mock.Anything, quiz.ID, "student-1").
		Return(&models.QuizAttempt{ID: 7, QuizID: quiz.ID, StudentID: "student-1", IsGraded: true}, nil)
	svc := newGradingService(repo)

	_, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID:  1,
		Answers: []SubmittedAnswer{},
	}, "student-1")

	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestSubmitDuplicateInsertRace(t *testing.T) {
	quiz := gradingQuiz()

	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	repo.course.On("IsEnrolled", mock.Anything, quiz.CourseID, "student-1").Return(true, nil)
	repo.attempt.On("GetByQuizAndStudent", mock.Anything, quiz.ID, "student-1").Return(nil, repositories.ErrNotFound)
	repo.attempt.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateKey)
	svc := newGradingService(repo)

	_, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID:  1,
		Answers: []SubmittedAnswer{},
	}, "student-1")

	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestSubmitCompletesUngradedDraft(t *testing.T) {
	quiz := gradingQuiz()
	draft := &models.QuizAttempt{ID: 5, QuizID: quiz.ID, StudentID: "student-1", IsGraded: false}

	repo := NewMockRepository()
	repo.quiz.On("GetByIDWithQuestions", mock.Anything, quiz.ID).Return(quiz, nil)
	repo.course.On("IsEnrolled", mock.Anything, quiz.CourseID, "student-1").Return(true, nil)
	repo.attempt.On("GetByQuizAndStudent", mock.Anything, quiz.ID, "student-1").Return(draft, nil)
	repo.attempt.On("Update", mock.Anything, mock.MatchedBy(func(a *models.QuizAttempt) bool {
		return a.ID == 5 && a.IsGraded
	})).Return(nil)
	svc := newGradingService(repo)

	result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID: 1,
		Answers: []SubmittedAnswer{
			{QuestionIndex: 0, Answer: answer(`"Paris"`)},
		},
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, uint(5), result.AttemptID)
	repo.attempt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitZeroPointQuizPercentage(t *testing.T) {
	quiz := gradingQuiz()
	quiz.TotalPoints = 0
	for i := range quiz.Questions {
		quiz.Questions[i].Points = 0
	}

	repo := NewMockRepository()
	expectSubmission(repo, quiz)
	svc := newGradingService(repo)

	result, err := svc.Submit(context.Background(), &SubmitQuizRequest{
		QuizID: 1,
		Answers: []SubmittedAnswer{
			{QuestionIndex: 0, Answer: answer(`"Paris"`)},
		},
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Percentage)
}
