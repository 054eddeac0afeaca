package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	EventQuizPublished   EventType = "quiz.published"
	EventQuizUnpublished EventType = "quiz.unpublished"
	EventAttemptGraded   EventType = "attempt.graded"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewNotificationEvent builds an event envelope with a fresh ID
func NewNotificationEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "lms-service",
		Version:   "1.0",
		Data:      data,
	}
}

// QuizPublishedEvent notifies enrolled students that a quiz became available
type QuizPublishedEvent struct {
	QuizID     uint     `json:"quiz_id"`
	QuizTitle  string   `json:"quiz_title"`
	CourseID   uint     `json:"course_id"`
	StudentIDs []string `json:"student_ids"`
	CreatedBy  string   `json:"created_by"`
}

// AttemptGradedEvent notifies a student that their submission was graded
type AttemptGradedEvent struct {
	AttemptID  uint    `json:"attempt_id"`
	QuizID     uint    `json:"quiz_id"`
	QuizTitle  string  `json:"quiz_title"`
	StudentID  string  `json:"student_id"`
	TotalScore float64 `json:"total_score"`
	Percentage float64 `json:"percentage"`
}
