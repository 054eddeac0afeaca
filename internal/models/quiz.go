package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMCQSingle   QuestionType = "mcq_single"
	QuestionMCQMultiple QuestionType = "mcq_multiple"
	QuestionNumerical   QuestionType = "numerical"
)

// Question is a child row of a quiz. Submitted answers address questions by
// position, so (quiz_id, question_index) is the stable key; the index is
// assigned contiguously from 0 whenever the question list is written.
//
// The answer-key columns are jsonb: CorrectAnswer holds a string for
// mcq_single and a number for numerical, CorrectAnswers holds a string array
// for mcq_multiple. Exactly one of the two is populated per type.
type Question struct {
	ID            uint         `json:"-" gorm:"primaryKey"`
	QuizID        uint         `json:"-" gorm:"not null;uniqueIndex:idx_questions_quiz_index,priority:1"`
	QuestionIndex int          `json:"questionIndex" gorm:"not null;uniqueIndex:idx_questions_quiz_index,priority:2"`
	QuestionText  string       `json:"questionText" gorm:"not null;type:text" validate:"required"`
	QuestionType  QuestionType `json:"questionType" gorm:"not null;size:20" validate:"required,question_type"`

	Options        datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectAnswer  datatypes.JSON `json:"correctAnswer,omitempty" gorm:"type:jsonb"`
	CorrectAnswers datatypes.JSON `json:"correctAnswers,omitempty" gorm:"type:jsonb"`

	Points      float64 `json:"points" gorm:"not null;default:1" validate:"omitempty,gt=0"`
	Explanation string  `json:"explanation" gorm:"type:text"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// OptionsList decodes the jsonb options column. A missing or malformed
// column decodes to nil.
func (q *Question) OptionsList() []string {
	var opts []string
	if len(q.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// CorrectAnswerString returns the answer key for mcq_single questions.
func (q *Question) CorrectAnswerString() (string, bool) {
	if len(q.CorrectAnswer) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(q.CorrectAnswer, &s); err != nil {
		return "", false
	}
	return s, true
}

// CorrectAnswerNumber returns the answer key for numerical questions.
func (q *Question) CorrectAnswerNumber() (float64, bool) {
	if len(q.CorrectAnswer) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(q.CorrectAnswer, &n); err != nil {
		return 0, false
	}
	return n, true
}

// CorrectAnswersList returns the answer-key set for mcq_multiple questions.
func (q *Question) CorrectAnswersList() []string {
	var answers []string
	if len(q.CorrectAnswers) == 0 {
		return nil
	}
	if err := json.Unmarshal(q.CorrectAnswers, &answers); err != nil {
		return nil
	}
	return answers
}

// Quiz owns an ordered question list. TotalPoints is derived; it is never
// written directly by callers, only through RecalculateTotalPoints at every
// mutation site.
type Quiz struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"courseId" gorm:"not null;index" validate:"required"`
	Course   Course `json:"-" gorm:"foreignKey:CourseID"`

	Title        string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description  string `json:"description" gorm:"type:text"`
	Instructions string `json:"instructions" gorm:"type:text"`

	Questions []Question `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`

	TotalPoints float64 `json:"totalPoints" gorm:"not null;default:0"`
	TimeLimit   *int    `json:"timeLimit" gorm:"default:null"` // minutes, nil = no limit
	IsPublished bool    `json:"isPublished" gorm:"default:false;index"`
	ShowResults bool    `json:"showResults" gorm:"default:true"`

	CreatedBy string `json:"createdBy" gorm:"not null;size:255;index"`
	Creator   User   `json:"creator" gorm:"foreignKey:CreatedBy"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// RecalculateTotalPoints re-derives TotalPoints from the question list.
// Invariant: TotalPoints == sum(questions[i].Points) after any mutation.
func (q *Quiz) RecalculateTotalPoints() {
	total := 0.0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	q.TotalPoints = total
}

// ReindexQuestions assigns contiguous question indexes in list order.
func (q *Quiz) ReindexQuestions() {
	for i := range q.Questions {
		q.Questions[i].QuestionIndex = i
	}
}
