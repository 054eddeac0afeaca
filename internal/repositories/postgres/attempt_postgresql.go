package postgres

import (
	"context"
	"errors"

	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (r *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		// Two concurrent first submissions both pass the existence check;
		// the unique (quiz_id, student_id) index decides the loser here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *AttemptPostgreSQL) GetByQuizAndStudent(ctx context.Context, quizID uint, studentID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) GetByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Student").
		Order("submitted_at DESC, created_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *AttemptPostgreSQL) GetGradedByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND is_graded = ?", quizID, true).
		Preload("Student").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *AttemptPostgreSQL) GetByQuizzesAndStudent(ctx context.Context, quizIDs []uint, studentID string) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if len(quizIDs) == 0 {
		return attempts, nil
	}
	if err := r.db.WithContext(ctx).
		Where("quiz_id IN ? AND student_id = ?", quizIDs, studentID).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
