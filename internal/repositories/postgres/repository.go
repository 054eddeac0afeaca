package postgres

import (
	"github.com/vnit-lms/lms-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	quiz    repositories.QuizRepository
	attempt repositories.AttemptRepository
	course  repositories.CourseRepository
	user    repositories.UserRepository
}

// NewRepository wires the gorm-backed repositories into one manager.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		quiz:    NewQuizPostgreSQL(db),
		attempt: NewAttemptPostgreSQL(db),
		course:  NewCoursePostgreSQL(db),
		user:    NewUserPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *repository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

func (r *repository) Course() repositories.CourseRepository {
	return r.course
}

func (r *repository) User() repositories.UserRepository {
	return r.user
}
