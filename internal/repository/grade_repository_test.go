package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGradeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func gradeColumnsList() []string {
	return []string{"id", "student_id", "course_id", "assignment_name", "category", "grade", "max_grade", "weight", "date_assigned", "date_submitted", "created_at", "updated_at", "deleted_at"}
}

func TestGradeRepositoryFetchByStudentAndCoursesGroupsByCourse(t *testing.T) {
	db, mock, cleanup := newGradeMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(gradeColumnsList()).
		AddRow("g-1", "u-1", "c-1", "Midterm", "midterm", 85.0, 100.0, 30.0, now, now, now, now, nil).
		AddRow("g-2", "u-1", "c-1", "Homework 1", "homework", 9.0, 10.0, 20.0, now, now, now, now, nil).
		AddRow("g-3", "u-1", "c-2", "Final", "final", 70.0, 100.0, 50.0, now, now, now, now, nil)
	mock.ExpectQuery("SELECT (.+) FROM grades WHERE student_id = \\$1 AND course_id IN \\(\\$2, \\$3\\) AND deleted_at IS NULL").
		WithArgs("u-1", "c-1", "c-2").
		WillReturnRows(rows)

	grouped, err := repo.FetchByStudentAndCourses(context.Background(), "u-1", []string{"c-1", "c-2"})
	require.NoError(t, err)
	assert.Len(t, grouped["c-1"], 2)
	assert.Len(t, grouped["c-2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryFetchByStudentAndCoursesEmptySet(t *testing.T) {
	db, mock, cleanup := newGradeMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grouped, err := repo.FetchByStudentAndCourses(context.Background(), "u-1", nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListRecentByStudent(t *testing.T) {
	db, mock, cleanup := newGradeMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(gradeColumnsList()).
		AddRow("g-9", "u-1", "c-1", "Quiz 3", "quiz", 8.0, 10.0, 10.0, now, now, now, now, nil)
	mock.ExpectQuery("SELECT (.+) FROM grades g\\s+JOIN courses c ON c.id = g.course_id\\s+WHERE g.student_id = \\$1 AND g.deleted_at IS NULL AND c.deleted_at IS NULL\\s+ORDER BY g.date_submitted DESC NULLS LAST, g.id DESC\\s+LIMIT 30").
		WithArgs("u-1").
		WillReturnRows(rows)

	grades, err := repo.ListRecentByStudent(context.Background(), "u-1", 30)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "Quiz 3", grades[0].AssignmentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
