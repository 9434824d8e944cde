package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

type mockComparisonCourses struct {
	course *models.Course
}

func (m *mockComparisonCourses) FindByID(_ context.Context, _ string) (*models.Course, error) {
	if m.course == nil {
		return nil, sql.ErrNoRows
	}
	return m.course, nil
}

type mockComparisonEnrollments struct {
	studentIDs []string
}

func (m *mockComparisonEnrollments) StudentIDsByCourse(_ context.Context, _ string) ([]string, error) {
	return m.studentIDs, nil
}

type mockComparisonStudents struct {
	students []models.Student
}

func (m *mockComparisonStudents) FindByIDs(_ context.Context, _ []string) ([]models.Student, error) {
	return m.students, nil
}

type mockComparisonGrades struct {
	grades []models.Grade
}

func (m *mockComparisonGrades) ListByCourse(_ context.Context, _ string) ([]models.Grade, error) {
	return m.grades, nil
}

func comparisonFixture(students []models.Student, grades []models.Grade) *ComparisonService {
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return NewComparisonService(
		&mockComparisonCourses{course: &models.Course{ID: "c-1", CourseCode: "MATH101"}},
		&mockComparisonEnrollments{studentIDs: ids},
		&mockComparisonStudents{students: students},
		&mockComparisonGrades{grades: grades},
		nil, nil, zap.NewNop(),
	)
}

func courseGrade(studentID string, grade, max float64) models.Grade {
	submitted := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return models.Grade{
		StudentID:     studentID,
		CourseID:      "c-1",
		Category:      "homework",
		Grade:         grade,
		MaxGrade:      max,
		Weight:        100,
		DateSubmitted: &submitted,
	}
}

func TestStudentsComparisonRanksByAverage(t *testing.T) {
	students := []models.Student{
		{ID: "s-1", StudentID: "S001", FirstName: "Maria", LastName: "Papadimitriou"},
		{ID: "s-2", StudentID: "S002", FirstName: "Nikos", LastName: "Georgiou"},
		{ID: "s-3", StudentID: "S003", FirstName: "Eleni", LastName: "Katsarou"},
	}
	grades := []models.Grade{
		courseGrade("s-1", 70, 100),
		courseGrade("s-1", 80, 100),
		courseGrade("s-2", 95, 100),
		courseGrade("s-3", 60, 100),
	}
	svc := comparisonFixture(students, grades)

	report, cached, err := svc.StudentsComparison(context.Background(), "c-1", 0)

	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "MATH101", report.CourseCode)
	require.Len(t, report.Students, 3)
	assert.Equal(t, "S002", report.Students[0].StudentID)
	assert.InDelta(t, 95.0, report.Students[0].AveragePercentage, 0.001)
	assert.Equal(t, "A", report.Students[0].LetterGrade)
	assert.Equal(t, "S001", report.Students[1].StudentID)
	assert.InDelta(t, 75.0, report.Students[1].AveragePercentage, 0.001)
	assert.Equal(t, 2, report.Students[1].GradeCount)
	assert.Equal(t, "S003", report.Students[2].StudentID)
}

func TestStudentsComparisonExcludesStudentsWithoutGrades(t *testing.T) {
	students := []models.Student{
		{ID: "s-1", StudentID: "S001"},
		{ID: "s-2", StudentID: "S002"},
	}
	grades := []models.Grade{courseGrade("s-1", 88, 100)}
	svc := comparisonFixture(students, grades)

	report, _, err := svc.StudentsComparison(context.Background(), "c-1", 0)

	require.NoError(t, err)
	require.Len(t, report.Students, 1)
	assert.Equal(t, "S001", report.Students[0].StudentID)
	assert.Equal(t, 1, report.ClassStats.StudentCount)
}

func TestStudentsComparisonStatsIgnoreLimit(t *testing.T) {
	students := []models.Student{
		{ID: "s-1", StudentID: "S001"},
		{ID: "s-2", StudentID: "S002"},
		{ID: "s-3", StudentID: "S003"},
		{ID: "s-4", StudentID: "S004"},
	}
	grades := []models.Grade{
		courseGrade("s-1", 90, 100),
		courseGrade("s-2", 80, 100),
		courseGrade("s-3", 70, 100),
		courseGrade("s-4", 60, 100),
	}
	svc := comparisonFixture(students, grades)

	report, _, err := svc.StudentsComparison(context.Background(), "c-1", 2)

	require.NoError(t, err)
	// The ranking list is truncated, the class stats are not.
	require.Len(t, report.Students, 2)
	assert.Equal(t, 4, report.ClassStats.StudentCount)
	assert.InDelta(t, 75.0, report.ClassStats.Average, 0.001)
	assert.InDelta(t, 75.0, report.ClassStats.Median, 0.001)
	assert.InDelta(t, 60.0, report.ClassStats.Min, 0.001)
	assert.InDelta(t, 90.0, report.ClassStats.Max, 0.001)
}

func TestStudentsComparisonUnknownCourse(t *testing.T) {
	svc := NewComparisonService(&mockComparisonCourses{}, &mockComparisonEnrollments{}, &mockComparisonStudents{}, &mockComparisonGrades{}, nil, nil, zap.NewNop())

	_, _, err := svc.StudentsComparison(context.Background(), "missing", 0)

	require.ErrorIs(t, err, appErrors.ErrCourseNotFound)
}

func TestGradeDistributionBuckets(t *testing.T) {
	grades := []models.Grade{
		courseGrade("s-1", 95, 100),
		courseGrade("s-1", 91, 100),
		courseGrade("s-2", 85, 100),
		courseGrade("s-2", 72, 100),
		courseGrade("s-3", 65, 100),
		courseGrade("s-3", 40, 100),
	}
	svc := comparisonFixture(nil, grades)

	report, _, err := svc.GradeDistribution(context.Background(), "c-1")

	require.NoError(t, err)
	assert.Equal(t, 6, report.TotalGrades)
	assert.Equal(t, 2, report.Buckets["A"].Count)
	assert.Equal(t, 1, report.Buckets["B"].Count)
	assert.Equal(t, 1, report.Buckets["C"].Count)
	assert.Equal(t, 1, report.Buckets["D"].Count)
	assert.Equal(t, 1, report.Buckets["F"].Count)
	assert.InDelta(t, 33.33, report.Buckets["A"].Percentage, 0.001)
	assert.InDelta(t, 74.67, report.AveragePercentage, 0.001)
}

func TestGradeDistributionEmptyCourse(t *testing.T) {
	svc := comparisonFixture(nil, nil)

	report, _, err := svc.GradeDistribution(context.Background(), "c-1")

	require.NoError(t, err)
	assert.Zero(t, report.TotalGrades)
	assert.Zero(t, report.AveragePercentage)
	require.Len(t, report.Buckets, 5)
	for band, bucket := range report.Buckets {
		assert.Zero(t, bucket.Count, band)
		assert.Zero(t, bucket.Percentage, band)
	}
}
