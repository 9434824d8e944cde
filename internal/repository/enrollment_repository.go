package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, enrolled_at, created_at, updated_at, deleted_at`

// EnrollmentRepository handles course enrollment persistence.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CourseIDsByStudent returns the course ids the student is enrolled in.
func (r *EnrollmentRepository) CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	query := fmt.Sprintf("SELECT course_id FROM course_enrollments WHERE student_id = $1%s", notDeleted(ctx, ""))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrolled course ids: %w", err)
	}
	return ids, nil
}

// StudentIDsByCourse returns the student ids enrolled in the course.
func (r *EnrollmentRepository) StudentIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	query := fmt.Sprintf("SELECT student_id FROM course_enrollments WHERE course_id = $1%s", notDeleted(ctx, ""))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrolled student ids: %w", err)
	}
	return ids, nil
}

// ListByCourseIDs bulk-loads enrollments for a set of courses.
func (r *EnrollmentRepository) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.CourseEnrollment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM course_enrollments WHERE course_id IN (?)%s", enrollmentColumns, notDeleted(ctx, "")), courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}
	var enrollments []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch enrollments: %w", err)
	}
	return enrollments, nil
}

// Find returns the enrollment linking a student and course.
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID string) (*models.CourseEnrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM course_enrollments WHERE student_id = $1 AND course_id = $2%s", enrollmentColumns, notDeleted(ctx, ""))
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	const query = `INSERT INTO course_enrollments (id, student_id, course_id, enrolled_at, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :enrolled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
