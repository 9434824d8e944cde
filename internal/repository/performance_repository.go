package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const performanceColumns = `id, student_id, course_id, date, category, score, max_score, notes, created_at, updated_at, deleted_at`

// PerformanceRepository handles daily performance persistence.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository creates a new daily performance repository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// ListByStudentAndCourse returns the student's daily performance rows for
// one course.
func (r *PerformanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.DailyPerformance, error) {
	query := fmt.Sprintf("SELECT %s FROM daily_performances WHERE student_id = $1 AND course_id = $2%s ORDER BY date",
		performanceColumns, notDeleted(ctx, ""))
	var rows []models.DailyPerformance
	if err := r.db.SelectContext(ctx, &rows, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list daily performance: %w", err)
	}
	return rows, nil
}

// FetchByStudentAndCourses bulk-loads daily performance rows across a course
// set, keyed by course id.
func (r *PerformanceRepository) FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.DailyPerformance, error) {
	if len(courseIDs) == 0 {
		return map[string][]models.DailyPerformance{}, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM daily_performances WHERE student_id = ? AND course_id IN (?)%s", performanceColumns, notDeleted(ctx, "")),
		studentID, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build daily performance query: %w", err)
	}
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch daily performance: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.DailyPerformance, len(courseIDs))
	for rows.Next() {
		var row models.DailyPerformance
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan daily performance: %w", err)
		}
		result[row.CourseID] = append(result[row.CourseID], row)
	}
	return result, rows.Err()
}

// DistinctCourseIDsByStudent returns the distinct course ids the student has
// daily performance in.
func (r *PerformanceRepository) DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT course_id FROM daily_performances WHERE student_id = $1%s", notDeleted(ctx, ""))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("distinct daily performance course ids: %w", err)
	}
	return ids, nil
}
