package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const gradeColumns = `id, student_id, course_id, assignment_name, category, grade, max_grade, weight, date_assigned, date_submitted, created_at, updated_at, deleted_at`

// GradeRepository handles grade persistence for the analytics engine.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListByStudentAndCourse returns the student's grades for one course.
func (r *GradeRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE student_id = $1 AND course_id = $2%s ORDER BY date_submitted NULLS FIRST, id",
		gradeColumns, notDeleted(ctx, ""))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FetchByStudentAndCourses bulk-loads the student's grades across a course
// set, keyed by course id. Used by the summary aggregator to stay within
// its bounded query budget.
func (r *GradeRepository) FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.Grade, error) {
	if len(courseIDs) == 0 {
		return map[string][]models.Grade{}, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM grades WHERE student_id = ? AND course_id IN (?)%s", gradeColumns, notDeleted(ctx, "")),
		studentID, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build grade query: %w", err)
	}
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch grades: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Grade, len(courseIDs))
	for rows.Next() {
		var grade models.Grade
		if err := rows.StructScan(&grade); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		result[grade.CourseID] = append(result[grade.CourseID], grade)
	}
	return result, rows.Err()
}

// ListByCourse returns all live grades of a course whose students are live,
// excluding soft-deleted parents regardless of who asks.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.course_id, g.assignment_name, g.category, g.grade, g.max_grade, g.weight,
        g.date_assigned, g.date_submitted, g.created_at, g.updated_at, g.deleted_at
        FROM grades g
        JOIN students s ON s.id = g.student_id
        WHERE g.course_id = $1%s AND s.deleted_at IS NULL`, notDeleted(ctx, "g"))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}

// ListByStudentSince returns grades submitted on or after the cutoff,
// restricted to live parent courses.
func (r *GradeRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.course_id, g.assignment_name, g.category, g.grade, g.max_grade, g.weight,
        g.date_assigned, g.date_submitted, g.created_at, g.updated_at, g.deleted_at
        FROM grades g
        JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = $1 AND g.date_submitted >= $2%s AND c.deleted_at IS NULL
        ORDER BY g.date_submitted DESC`, notDeleted(ctx, "g"))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, since); err != nil {
		return nil, fmt.Errorf("list grades since: %w", err)
	}
	return grades, nil
}

// ListRecentByStudent returns the most recent grades ordered by submission
// date descending, restricted to live parent courses.
func (r *GradeRepository) ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.Grade, error) {
	if limit < 1 {
		limit = 30
	}
	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.course_id, g.assignment_name, g.category, g.grade, g.max_grade, g.weight,
        g.date_assigned, g.date_submitted, g.created_at, g.updated_at, g.deleted_at
        FROM grades g
        JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = $1%s AND c.deleted_at IS NULL
        ORDER BY g.date_submitted DESC NULLS LAST, g.id DESC
        LIMIT %d`, notDeleted(ctx, "g"), limit)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list recent grades: %w", err)
	}
	return grades, nil
}

// DistinctCourseIDsByStudent returns the distinct course ids the student has
// grades in. Part of the enrollment fallback of the summary aggregator.
func (r *GradeRepository) DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT course_id FROM grades WHERE student_id = $1%s", notDeleted(ctx, ""))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("distinct grade course ids: %w", err)
	}
	return ids, nil
}
