package services

import (
	"encoding/json"
	"time"

	"github.com/vnit-lms/lms-service/internal/models"
)

// AnswerVisibility is the single place deciding which answer-key fields a
// viewer may see. It is a pure value so the rule table can be tested without
// any request or persistence machinery.
type AnswerVisibility struct {
	Role             models.UserRole
	QuizPublished    bool
	HasGradedAttempt bool
	AnswersRequested bool
}

// CanViewQuiz reports whether the viewer may see the quiz at all.
// Students never see unpublished quizzes; they get an authorization error,
// not a quiz payload with stripped fields.
func (v AnswerVisibility) CanViewQuiz() bool {
	if v.Role == models.RoleStudent && !v.QuizPublished {
		return false
	}
	return true
}

// ShowCorrectAnswers reports whether correctAnswer/correctAnswers stay in the
// payload. Students earn the answer key only by completing a graded attempt;
// professors and admins must ask for it explicitly even on their own quizzes.
func (v AnswerVisibility) ShowCorrectAnswers() bool {
	switch v.Role {
	case models.RoleStudent:
		return v.QuizPublished && v.HasGradedAttempt
	case models.RoleProfessor, models.RoleAdmin:
		return v.AnswersRequested
	default:
		return false
	}
}

// QuestionView is the outward shape of a question. Answer-key fields are
// omitted entirely when stripped, never sent as empty values.
type QuestionView struct {
	QuestionIndex  int                 `json:"questionIndex"`
	QuestionText   string              `json:"questionText"`
	QuestionType   models.QuestionType `json:"questionType"`
	Options        []string            `json:"options,omitempty"`
	CorrectAnswer  json.RawMessage     `json:"correctAnswer,omitempty"`
	CorrectAnswers json.RawMessage     `json:"correctAnswers,omitempty"`
	Points         float64             `json:"points"`
	Explanation    string              `json:"explanation,omitempty"`
}

// QuizView is the outward shape of a quiz after visibility filtering.
type QuizView struct {
	ID           uint           `json:"id"`
	CourseID     uint           `json:"courseId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Instructions string         `json:"instructions"`
	Questions    []QuestionView `json:"questions"`
	TotalPoints  float64        `json:"totalPoints"`
	TimeLimit    *int           `json:"timeLimit"`
	IsPublished  bool           `json:"isPublished"`
	ShowResults  bool           `json:"showResults"`
	CreatedBy    string         `json:"createdBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ProjectQuestion maps a stored question to its outward shape.
func ProjectQuestion(q *models.Question, showAnswers bool) QuestionView {
	view := QuestionView{
		QuestionIndex: q.QuestionIndex,
		QuestionText:  q.QuestionText,
		QuestionType:  q.QuestionType,
		Options:       q.OptionsList(),
		Points:        q.Points,
		Explanation:   q.Explanation,
	}
	if showAnswers {
		view.CorrectAnswer = json.RawMessage(q.CorrectAnswer)
		view.CorrectAnswers = json.RawMessage(q.CorrectAnswers)
	}
	return view
}

// ProjectQuiz maps a stored quiz to its outward shape, stripping answer keys
// unless the visibility policy allows them.
func ProjectQuiz(quiz *models.Quiz, showAnswers bool) *QuizView {
	questions := make([]QuestionView, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[i] = ProjectQuestion(&quiz.Questions[i], showAnswers)
	}

	return &QuizView{
		ID:           quiz.ID,
		CourseID:     quiz.CourseID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		Instructions: quiz.Instructions,
		Questions:    questions,
		TotalPoints:  quiz.TotalPoints,
		TimeLimit:    quiz.TimeLimit,
		IsPublished:  quiz.IsPublished,
		ShowResults:  quiz.ShowResults,
		CreatedBy:    quiz.CreatedBy,
		CreatedAt:    quiz.CreatedAt,
		UpdatedAt:    quiz.UpdatedAt,
	}
}
