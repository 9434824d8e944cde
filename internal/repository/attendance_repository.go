package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

const attendanceColumns = `id, student_id, course_id, date, period_number, status, notes, created_at, updated_at, deleted_at`

// AttendanceRepository handles attendance persistence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudentAndCourse returns the student's attendance rows for one course.
func (r *AttendanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE student_id = $1 AND course_id = $2%s ORDER BY date, period_number",
		attendanceColumns, notDeleted(ctx, ""))
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// FetchByStudentAndCourses bulk-loads attendance rows across a course set,
// keyed by course id.
func (r *AttendanceRepository) FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.Attendance, error) {
	if len(courseIDs) == 0 {
		return map[string][]models.Attendance{}, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM attendances WHERE student_id = ? AND course_id IN (?)%s", attendanceColumns, notDeleted(ctx, "")),
		studentID, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch attendance: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Attendance, len(courseIDs))
	for rows.Next() {
		var row models.Attendance
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		result[row.CourseID] = append(result[row.CourseID], row)
	}
	return result, rows.Err()
}

// DistinctCourseIDsByStudent returns the distinct course ids the student has
// attendance in.
func (r *AttendanceRepository) DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT course_id FROM attendances WHERE student_id = $1%s", notDeleted(ctx, ""))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("distinct attendance course ids: %w", err)
	}
	return ids, nil
}
