package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/models"
)

type CourseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) *CourseRepo {
	return &CourseRepo{db}
}

// FindAll returns all courses ordered by code, optionally limited to one discipline
func (r *CourseRepo) FindAll(ctx context.Context, discipline models.Discipline) ([]*models.Course, error) {
	q := r.db.WithContext(ctx).Order("code ASC")
	if discipline != "" {
		q = q.Where("discipline = ?", discipline)
	}
	var courses []*models.Course
	err := q.Find(&courses).Error
	return courses, err
}

// FindByID returns a course by its ID
func (r *CourseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Add inserts a new course into the database
func (r *CourseRepo) Add(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// AddAll inserts courses in batches
func (r *CourseRepo) AddAll(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(courses, 100).Error
}

// Update updates an existing course in the database
func (r *CourseRepo) Update(ctx context.Context, course *models.Course) error {
	res := r.db.WithContext(ctx).Model(course).Select("code", "name", "discipline").Updates(course)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a course from the database by id
func (r *CourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
