package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AnsweredQuestion is one graded answer inside an attempt. Answer keeps the
// raw submitted value (string, string array, or number depending on the
// question type) so the review payload echoes exactly what was sent.
type AnsweredQuestion struct {
	QuestionIndex int             `json:"questionIndex"`
	Answer        json.RawMessage `json:"answer"`
	IsCorrect     bool            `json:"isCorrect"`
	PointsEarned  float64         `json:"pointsEarned"`
}

// AnsweredQuestionList is stored as a single jsonb column so the attempt row
// is written atomically; the unique (quiz_id, student_id) index is then the
// only guard needed against concurrent first submissions.
type AnsweredQuestionList []AnsweredQuestion

func (l AnsweredQuestionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *AnsweredQuestionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for AnsweredQuestionList")
	}
	return json.Unmarshal(data, l)
}

// QuizAttempt records one student's graded submission for one quiz.
// At most one row exists per (quiz, student); re-submission after grading is
// rejected at the service layer, and the composite unique index catches the
// concurrent-insert race.
type QuizAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	QuizID    uint   `json:"quizId" gorm:"not null;uniqueIndex:idx_attempts_quiz_student,priority:1"`
	StudentID string `json:"studentId" gorm:"not null;size:255;uniqueIndex:idx_attempts_quiz_student,priority:2"`

	Answers AnsweredQuestionList `json:"answers" gorm:"type:jsonb"`

	TotalScore  float64    `json:"totalScore" gorm:"not null;default:0"`
	Percentage  float64    `json:"percentage" gorm:"not null;default:0"`
	TimeSpent   int        `json:"timeSpent" gorm:"not null;default:0"` // seconds
	SubmittedAt *time.Time `json:"submittedAt"`
	IsGraded    bool       `json:"isGraded" gorm:"default:false;index"`

	Quiz    Quiz `json:"-" gorm:"foreignKey:QuizID"`
	Student User `json:"student" gorm:"foreignKey:StudentID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
