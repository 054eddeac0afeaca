package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is the collaborator surface the quiz module depends on: quiz
// authoring checks ownership against ProfessorID, submission and leaderboard
// access check enrollment against the course_students join table.
type Course struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CourseName string `json:"courseName" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	CourseCode string `json:"courseCode" gorm:"uniqueIndex;not null;size:20" validate:"required,min=2,max=20"`

	ProfessorID string `json:"professorId" gorm:"not null;size:255;index"`
	Professor   User   `json:"professor" gorm:"foreignKey:ProfessorID"`

	Students []User `json:"students,omitempty" gorm:"many2many:course_students"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Course) TableName() string {
	return "courses"
}

// IsOwnedBy reports whether userID may administer this course's quizzes.
func (c *Course) IsOwnedBy(userID string, role UserRole) bool {
	return c.ProfessorID == userID || role == RoleAdmin
}
