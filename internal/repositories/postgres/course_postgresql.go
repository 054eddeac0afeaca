package postgres

import (
	"context"
	"errors"

	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CoursePostgreSQL) IsEnrolled(ctx context.Context, courseID uint, studentID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("course_students").
		Where("course_id = ? AND user_id = ?", courseID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CoursePostgreSQL) GetEnrolledStudentIDs(ctx context.Context, courseID uint) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Table("course_students").
		Where("course_id = ?", courseID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
