package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholia/sms-api/internal/models"
)

func newSessionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func TestSessionRepositoryCoursesBySemester(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_code", "course_name", "semester", "credits", "hours_per_week", "periods_per_week", "evaluation_rules", "absence_penalty", "teaching_schedule", "created_at", "updated_at", "deleted_at"}).
		AddRow("c-1", "MATH101", "Calculus I", "2025-fall", 6, 4, 4, []byte(`[{"category":"final","weight":60}]`), 0.5, []byte(`[]`), now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at, deleted_at FROM courses WHERE semester = $1 AND deleted_at IS NULL ORDER BY course_code")).
		WithArgs("2025-fall").
		WillReturnRows(rows)

	courses, err := repo.CoursesBySemester(context.Background(), "2025-fall")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "MATH101", courses[0].CourseCode)
	require.Len(t, courses[0].EvaluationRules, 1)
	assert.Equal(t, 60.0, courses[0].EvaluationRules[0].Weight)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTxFindCourseIncludesDeleted(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	deleted := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_code", "course_name", "semester", "credits", "hours_per_week", "periods_per_week", "evaluation_rules", "absence_penalty", "teaching_schedule", "created_at", "updated_at", "deleted_at"}).
		AddRow("c-1", "MATH101", "Calculus I", "2025-fall", 6, 4, 4, []byte(`[]`), 0.0, []byte(`[]`), deleted, deleted, deleted)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_code, course_name, semester, credits, hours_per_week, periods_per_week, evaluation_rules, absence_penalty, teaching_schedule, created_at, updated_at, deleted_at FROM courses WHERE course_code = $1")).
		WithArgs("MATH101").
		WillReturnRows(rows)
	mock.ExpectRollback()

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	course, err := tx.FindCourseByCode(context.Background(), "MATH101")
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.NotNil(t, course.DeletedAt)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTxInsertAndCommit(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	student := &models.Student{StudentID: "S010", FirstName: "Elena", LastName: "Georgiou", Email: "elena@example.edu", EnrollmentDate: time.Now(), StudyYear: 1, Active: true}
	require.NoError(t, tx.InsertStudent(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTxRollbackAfterCommitIsNoop(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryRestoreAllClearsChildrenFirst(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	dump := &models.StoreDump{
		Version:   models.StoreDumpVersion,
		CreatedAt: now,
		Students:  []models.Student{{ID: "u-1", StudentID: "S001", FirstName: "Maria", LastName: "Papadopoulou", Email: "maria@example.edu", EnrollmentDate: now, StudyYear: 2, Active: true, CreatedAt: now, UpdatedAt: now}},
		Courses:   []models.Course{{ID: "c-1", CourseCode: "MATH101", CourseName: "Calculus I", Semester: "2025-fall", Credits: 6, CreatedAt: now, UpdatedAt: now}},
	}

	mock.ExpectBegin()
	for _, table := range []string{"highlights", "daily_performances", "attendances", "grades", "course_enrollments", "students", "courses"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RestoreAll(context.Background(), dump))
	assert.NoError(t, mock.ExpectationsWereMet())
}
