package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const courseColumns = `id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at, deleted_at`

// CourseRepository handles course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter together with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	where := "WHERE 1=1" + notDeleted(ctx, "")
	var args []interface{}
	if filter.Semester != "" {
		where += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (course_code ILIKE $%d OR course_name ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	query := fmt.Sprintf("SELECT %s FROM courses %s ORDER BY course_code LIMIT %d OFFSET %d",
		courseColumns, where, pageSize, (page-1)*pageSize)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns one course by internal id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1%s", courseColumns, notDeleted(ctx, ""))
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode returns one course by its natural key.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_code = $1%s", courseColumns, notDeleted(ctx, ""))
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDs bulk-loads courses by internal ids.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM courses WHERE id IN (?)%s", courseColumns, notDeleted(ctx, "")), ids)
	if err != nil {
		return nil, fmt.Errorf("build course id query: %w", err)
	}
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}
	return courses, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at)
        VALUES (:id, :course_code, :course_name, :semester, :credits, :hours_per_week, :periods_per_week, :evaluation_rules, :absence_penalty, :teaching_schedule, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites mutable fields of an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_code = :course_code, course_name = :course_name, semester = :semester,
        credits = :credits, hours_per_week = :hours_per_week, periods_per_week = :periods_per_week,
        evaluation_rules = :evaluation_rules, absence_penalty = :absence_penalty, teaching_schedule = :teaching_schedule, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SoftDelete marks a course deleted.
func (r *CourseRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, "UPDATE courses SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL", now, id); err != nil {
		return fmt.Errorf("soft delete course: %w", err)
	}
	return nil
}
