package repositories

import (
	"context"

	"github.com/vnit-lms/lms-service/internal/models"
)

// Repository bundles the per-aggregate repositories behind one dependency.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Course() CourseRepository
	User() UserRepository
}

// QuizRepository persists quizzes together with their ordered question rows.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	// Update rewrites the quiz row and replaces its question list in one
	// transaction, keeping (quiz_id, question_index) addressing stable.
	Update(ctx context.Context, quiz *models.Quiz) error
	UpdatePublished(ctx context.Context, id uint, isPublished bool) error
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint, publishedOnly bool) ([]*models.Quiz, error)
}

type AttemptRepository interface {
	// Create inserts a new attempt; a concurrent duplicate for the same
	// (quiz, student) pair is reported as ErrDuplicateKey.
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	Update(ctx context.Context, attempt *models.QuizAttempt) error
	GetByQuizAndStudent(ctx context.Context, quizID uint, studentID string) (*models.QuizAttempt, error)
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error)
	GetGradedByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error)
	GetByQuizzesAndStudent(ctx context.Context, quizIDs []uint, studentID string) ([]*models.QuizAttempt, error)
}

type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID uint, studentID string) (bool, error)
	GetEnrolledStudentIDs(ctx context.Context, courseID uint) ([]string, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
