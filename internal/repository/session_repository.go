package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openscholia/sms-api/internal/models"
)

// SessionRepository owns the bulk queries behind semester export, the
// transactional apply behind import, and the full-store snapshots behind
// backups.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CoursesBySemester returns every live course taught in the semester.
func (r *SessionRepository) CoursesBySemester(ctx context.Context, semester string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE semester = $1%s ORDER BY course_code", courseColumns, notDeleted(ctx, ""))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, semester); err != nil {
		return nil, fmt.Errorf("list semester courses: %w", err)
	}
	return courses, nil
}

// EnrollmentsByCourseIDs bulk-loads enrollments for the semester's courses.
func (r *SessionRepository) EnrollmentsByCourseIDs(ctx context.Context, courseIDs []string) ([]models.CourseEnrollment, error) {
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

// StudentsByIDs bulk-loads students by internal id.
func (r *SessionRepository) StudentsByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM students WHERE id IN (?)%s ORDER BY student_id", studentColumns, notDeleted(ctx, "")), ids)
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch students: %w", err)
	}
	return students, nil
}

// GradesByStudentsAndCourses bulk-loads grades crossing the student and
// course sets of one semester package.
func (r *SessionRepository) GradesByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.Grade, error) {
	if len(studentIDs) == 0 || len(courseIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM grades WHERE student_id IN (?) AND course_id IN (?)%s", gradeColumns, notDeleted(ctx, "")),
		studentIDs, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build grade query: %w", err)
	}
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch grades: %w", err)
	}
	return grades, nil
}

// AttendanceByStudentsAndCourses bulk-loads attendance crossing the student
// and course sets.
func (r *SessionRepository) AttendanceByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.Attendance, error) {
	if len(studentIDs) == 0 || len(courseIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM attendances WHERE student_id IN (?) AND course_id IN (?)%s", attendanceColumns, notDeleted(ctx, "")),
		studentIDs, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch attendance: %w", err)
	}
	return records, nil
}

// PerformanceByStudentsAndCourses bulk-loads daily performance crossing the
// student and course sets.
func (r *SessionRepository) PerformanceByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.DailyPerformance, error) {
	if len(studentIDs) == 0 || len(courseIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM daily_performances WHERE student_id IN (?) AND course_id IN (?)%s", performanceColumns, notDeleted(ctx, "")),
		studentIDs, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build performance query: %w", err)
	}
	var records []models.DailyPerformance
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetch daily performance: %w", err)
	}
	return records, nil
}

// Begin opens the single transaction an import apply runs inside.
func (r *SessionRepository) Begin(ctx context.Context) (*SessionTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	return &SessionTx{tx: tx}, nil
}

// SessionTx is the unit of work for one import apply. All lookups resolve
// natural keys and include soft-deleted rows, so a re-import can reactivate
// a previously deleted match instead of creating a duplicate.
type SessionTx struct {
	tx *sqlx.Tx
}

// Commit finalizes the import.
func (t *SessionTx) Commit() error {
	return t.tx.Commit()
}

// Rollback abandons the import. Safe to call after Commit.
func (t *SessionTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (t *SessionTx) getOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	if err := t.tx.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindCourseByCode resolves a course by natural key, deleted rows included.
func (t *SessionTx) FindCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	found, err := t.getOne(ctx, &course, fmt.Sprintf("SELECT %s FROM courses WHERE course_code = $1", courseColumns), code)
	if err != nil {
		return nil, fmt.Errorf("find course %s: %w", code, err)
	}
	if !found {
		return nil, nil
	}
	return &course, nil
}

// InsertCourse creates a new course row.
func (t *SessionTx) InsertCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at)
        VALUES (:id, :course_code, :course_name, :semester, :credits, :hours_per_week, :periods_per_week, :evaluation_rules, :absence_penalty, :teaching_schedule, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("insert course %s: %w", course.CourseCode, err)
	}
	return nil
}

// UpdateCourse rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdateCourse(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	course.DeletedAt = nil
	const query = `UPDATE courses SET course_name = :course_name, semester = :semester, credits = :credits,
        hours_per_week = :hours_per_week, periods_per_week = :periods_per_week, evaluation_rules = :evaluation_rules,
        absence_penalty = :absence_penalty, teaching_schedule = :teaching_schedule, updated_at = :updated_at, deleted_at = NULL
        WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course %s: %w", course.CourseCode, err)
	}
	return nil
}

// ReactivateCourse clears the soft-delete mark without touching content.
func (t *SessionTx) ReactivateCourse(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, "UPDATE courses SET deleted_at = NULL, updated_at = $1 WHERE id = $2", time.Now().UTC(), id); err != nil {
		return fmt.Errorf("reactivate course: %w", err)
	}
	return nil
}

// FindStudentByStudentID resolves a student by natural key, deleted rows
// included.
func (t *SessionTx) FindStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	found, err := t.getOne(ctx, &student, fmt.Sprintf("SELECT %s FROM students WHERE student_id = $1", studentColumns), studentID)
	if err != nil {
		return nil, fmt.Errorf("find student %s: %w", studentID, err)
	}
	if !found {
		return nil, nil
	}
	return &student, nil
}

// InsertStudent creates a new student row.
func (t *SessionTx) InsertStudent(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_id, first_name, last_name, email, enrollment_date, study_year, is_active, created_at, updated_at)
        VALUES (:id, :student_id, :first_name, :last_name, :email, :enrollment_date, :study_year, :is_active, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student %s: %w", student.StudentID, err)
	}
	return nil
}

// UpdateStudent rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdateStudent(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	student.DeletedAt = nil
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email,
        enrollment_date = :enrollment_date, study_year = :study_year, is_active = :is_active, updated_at = :updated_at, deleted_at = NULL
        WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student %s: %w", student.StudentID, err)
	}
	return nil
}

// ReactivateStudent clears the soft-delete mark without touching content.
func (t *SessionTx) ReactivateStudent(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, "UPDATE students SET deleted_at = NULL, updated_at = $1 WHERE id = $2", time.Now().UTC(), id); err != nil {
		return fmt.Errorf("reactivate student: %w", err)
	}
	return nil
}

// FindEnrollment resolves an enrollment by its link pair, deleted rows
// included.
func (t *SessionTx) FindEnrollment(ctx context.Context, studentID, courseID string) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	found, err := t.getOne(ctx, &enrollment,
		fmt.Sprintf("SELECT %s FROM course_enrollments WHERE student_id = $1 AND course_id = $2", enrollmentColumns),
		studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &enrollment, nil
}

// InsertEnrollment creates a new enrollment row.
func (t *SessionTx) InsertEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error {
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
	if _, err := t.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// ReactivateEnrollment clears the soft-delete mark on an enrollment.
func (t *SessionTx) ReactivateEnrollment(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, "UPDATE course_enrollments SET deleted_at = NULL, updated_at = $1 WHERE id = $2", time.Now().UTC(), id); err != nil {
		return fmt.Errorf("reactivate enrollment: %w", err)
	}
	return nil
}

// FindGrade resolves a grade by its reconciliation key, deleted rows
// included.
func (t *SessionTx) FindGrade(ctx context.Context, studentID, courseID, assignmentName string) (*models.Grade, error) {
	var grade models.Grade
	found, err := t.getOne(ctx, &grade,
		fmt.Sprintf("SELECT %s FROM grades WHERE student_id = $1 AND course_id = $2 AND assignment_name = $3", gradeColumns),
		studentID, courseID, assignmentName)
	if err != nil {
		return nil, fmt.Errorf("find grade %s: %w", assignmentName, err)
	}
	if !found {
		return nil, nil
	}
	return &grade, nil
}

// InsertGrade creates a new grade row.
func (t *SessionTx) InsertGrade(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, assignment_name, category, grade, max_grade, weight, date_assigned, date_submitted, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :assignment_name, :category, :grade, :max_grade, :weight, :date_assigned, :date_submitted, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("insert grade %s: %w", grade.AssignmentName, err)
	}
	return nil
}

// UpdateGrade rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdateGrade(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	grade.DeletedAt = nil
	const query = `UPDATE grades SET category = :category, grade = :grade, max_grade = :max_grade, weight = :weight,
        date_assigned = :date_assigned, date_submitted = :date_submitted, updated_at = :updated_at, deleted_at = NULL
        WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade %s: %w", grade.AssignmentName, err)
	}
	return nil
}

// FindAttendance resolves an attendance row by its unique key, deleted rows
// included.
func (t *SessionTx) FindAttendance(ctx context.Context, studentID, courseID string, date time.Time, periodNumber int) (*models.Attendance, error) {
	var record models.Attendance
	found, err := t.getOne(ctx, &record,
		fmt.Sprintf("SELECT %s FROM attendances WHERE student_id = $1 AND course_id = $2 AND date = $3 AND period_number = $4", attendanceColumns),
		studentID, courseID, date, periodNumber)
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// InsertAttendance creates a new attendance row.
func (t *SessionTx) InsertAttendance(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendances (id, student_id, course_id, date, period_number, status, notes, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :date, :period_number, :status, :notes, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// UpdateAttendance rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdateAttendance(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()
	record.DeletedAt = nil
	const query = `UPDATE attendances SET status = :status, notes = :notes, updated_at = :updated_at, deleted_at = NULL WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// FindPerformance resolves a daily performance row by its unique key,
// deleted rows included.
func (t *SessionTx) FindPerformance(ctx context.Context, studentID, courseID string, date time.Time, category string) (*models.DailyPerformance, error) {
	var record models.DailyPerformance
	found, err := t.getOne(ctx, &record,
		fmt.Sprintf("SELECT %s FROM daily_performances WHERE student_id = $1 AND course_id = $2 AND date = $3 AND category = $4", performanceColumns),
		studentID, courseID, date, category)
	if err != nil {
		return nil, fmt.Errorf("find daily performance: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// InsertPerformance creates a new daily performance row.
func (t *SessionTx) InsertPerformance(ctx context.Context, record *models.DailyPerformance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO daily_performances (id, student_id, course_id, date, category, score, max_score, notes, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :date, :category, :score, :max_score, :notes, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert daily performance: %w", err)
	}
	return nil
}

// UpdatePerformance rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdatePerformance(ctx context.Context, record *models.DailyPerformance) error {
	record.UpdatedAt = time.Now().UTC()
	record.DeletedAt = nil
	const query = `UPDATE daily_performances SET score = :score, max_score = :max_score, notes = :notes, updated_at = :updated_at, deleted_at = NULL WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update daily performance: %w", err)
	}
	return nil
}

// FindHighlight resolves a highlight by its content key, deleted rows
// included.
func (t *SessionTx) FindHighlight(ctx context.Context, studentID, semester, category, text string) (*models.Highlight, error) {
	var highlight models.Highlight
	found, err := t.getOne(ctx, &highlight,
		fmt.Sprintf("SELECT %s FROM highlights WHERE student_id = $1 AND semester = $2 AND category = $3 AND text = $4", highlightColumns),
		studentID, semester, category, text)
	if err != nil {
		return nil, fmt.Errorf("find highlight: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &highlight, nil
}

// InsertHighlight creates a new highlight row.
func (t *SessionTx) InsertHighlight(ctx context.Context, highlight *models.Highlight) error {
	if highlight.ID == "" {
		highlight.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	highlight.CreatedAt = now
	highlight.UpdatedAt = now
	const query = `INSERT INTO highlights (id, student_id, semester, category, text, rating, is_positive, created_at, updated_at)
        VALUES (:id, :student_id, :semester, :category, :text, :rating, :is_positive, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, highlight); err != nil {
		return fmt.Errorf("insert highlight: %w", err)
	}
	return nil
}

// UpdateHighlight rewrites mutable fields and clears any soft-delete mark.
func (t *SessionTx) UpdateHighlight(ctx context.Context, highlight *models.Highlight) error {
	highlight.UpdatedAt = time.Now().UTC()
	highlight.DeletedAt = nil
	const query = `UPDATE highlights SET rating = :rating, is_positive = :is_positive, updated_at = :updated_at, deleted_at = NULL WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, highlight); err != nil {
		return fmt.Errorf("update highlight: %w", err)
	}
	return nil
}

// DumpAll snapshots every table into a restorable dump. Soft-deleted rows
// are included so a restore recreates the store exactly.
func (r *SessionRepository) DumpAll(ctx context.Context) (*models.StoreDump, error) {
	dump := &models.StoreDump{
		Version:   models.StoreDumpVersion,
		CreatedAt: time.Now().UTC(),
	}
	loads := []struct {
		dest  interface{}
		query string
	}{
		{&dump.Students, fmt.Sprintf("SELECT %s FROM students ORDER BY student_id", studentColumns)},
		{&dump.Courses, fmt.Sprintf("SELECT %s FROM courses ORDER BY course_code", courseColumns)},
		{&dump.Enrollments, fmt.Sprintf("SELECT %s FROM course_enrollments ORDER BY id", enrollmentColumns)},
		{&dump.Grades, fmt.Sprintf("SELECT %s FROM grades ORDER BY id", gradeColumns)},
		{&dump.Attendance, fmt.Sprintf("SELECT %s FROM attendances ORDER BY id", attendanceColumns)},
		{&dump.DailyPerformance, fmt.Sprintf("SELECT %s FROM daily_performances ORDER BY id", performanceColumns)},
		{&dump.Highlights, fmt.Sprintf("SELECT %s FROM highlights ORDER BY id", highlightColumns)},
	}
	for _, l := range loads {
		if err := r.db.SelectContext(ctx, l.dest, l.query); err != nil {
			return nil, fmt.Errorf("dump store: %w", err)
		}
	}
	return dump, nil
}

// RestoreAll replaces the store's contents with the dump's rows inside a
// single transaction. Child tables are cleared first and reloaded last so
// foreign keys hold throughout.
func (r *SessionRepository) RestoreAll(ctx context.Context, dump *models.StoreDump) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore transaction: %w", err)
	}
	defer tx.Rollback()

	truncations := []string{"highlights", "daily_performances", "attendances", "grades", "course_enrollments", "students", "courses"}
	for _, table := range truncations {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	const insertStudent = `INSERT INTO students (id, student_id, first_name, last_name, email, enrollment_date, study_year, is_active, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :first_name, :last_name, :email, :enrollment_date, :study_year, :is_active, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Students {
		if _, err := tx.NamedExecContext(ctx, insertStudent, &dump.Students[i]); err != nil {
			return fmt.Errorf("restore student %s: %w", dump.Students[i].StudentID, err)
		}
	}

	const insertCourse = `INSERT INTO courses (id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at, deleted_at)
        VALUES (:id, :course_code, :course_name, :semester, :credits, :hours_per_week, :periods_per_week, :evaluation_rules, :absence_penalty, :teaching_schedule, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Courses {
		if _, err := tx.NamedExecContext(ctx, insertCourse, &dump.Courses[i]); err != nil {
			return fmt.Errorf("restore course %s: %w", dump.Courses[i].CourseCode, err)
		}
	}

	const insertEnrollment = `INSERT INTO course_enrollments (id, student_id, course_id, enrolled_at, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :course_id, :enrolled_at, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Enrollments {
		if _, err := tx.NamedExecContext(ctx, insertEnrollment, &dump.Enrollments[i]); err != nil {
			return fmt.Errorf("restore enrollment: %w", err)
		}
	}

	const insertGrade = `INSERT INTO grades (id, student_id, course_id, assignment_name, category, grade, max_grade, weight, date_assigned, date_submitted, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :course_id, :assignment_name, :category, :grade, :max_grade, :weight, :date_assigned, :date_submitted, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Grades {
		if _, err := tx.NamedExecContext(ctx, insertGrade, &dump.Grades[i]); err != nil {
			return fmt.Errorf("restore grade: %w", err)
		}
	}

	const insertAttendance = `INSERT INTO attendances (id, student_id, course_id, date, period_number, status, notes, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :course_id, :date, :period_number, :status, :notes, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Attendance {
		if _, err := tx.NamedExecContext(ctx, insertAttendance, &dump.Attendance[i]); err != nil {
			return fmt.Errorf("restore attendance: %w", err)
		}
	}

	const insertPerformance = `INSERT INTO daily_performances (id, student_id, course_id, date, category, score, max_score, notes, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :course_id, :date, :category, :score, :max_score, :notes, :created_at, :updated_at, :deleted_at)`
	for i := range dump.DailyPerformance {
		if _, err := tx.NamedExecContext(ctx, insertPerformance, &dump.DailyPerformance[i]); err != nil {
			return fmt.Errorf("restore daily performance: %w", err)
		}
	}

	const insertHighlight = `INSERT INTO highlights (id, student_id, semester, category, text, rating, is_positive, created_at, updated_at, deleted_at)
        VALUES (:id, :student_id, :semester, :category, :text, :rating, :is_positive, :created_at, :updated_at, :deleted_at)`
	for i := range dump.Highlights {
		if _, err := tx.NamedExecContext(ctx, insertHighlight, &dump.Highlights[i]); err != nil {
			return fmt.Errorf("restore highlight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}
