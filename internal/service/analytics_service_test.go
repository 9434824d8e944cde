package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

type mockAnalyticsGrades struct {
	since       []models.Grade
	recent      []models.Grade
	sinceCutoff time.Time
	recentLimit int
	sinceCalls  int
	recentCalls int
}

func (m *mockAnalyticsGrades) ListByStudentSince(_ context.Context, _ string, since time.Time) ([]models.Grade, error) {
	m.sinceCalls++
	m.sinceCutoff = since
	return m.since, nil
}

func (m *mockAnalyticsGrades) ListRecentByStudent(_ context.Context, _ string, limit int) ([]models.Grade, error) {
	m.recentCalls++
	m.recentLimit = limit
	return m.recent, nil
}

func newAnalyticsFixture() (*AnalyticsService, *mockAnalyticsGrades, *mockSummaryCourses) {
	grades := &mockAnalyticsGrades{}
	courses := &mockSummaryCourses{}
	students := &mockSummaryStudents{student: &models.Student{ID: "s-1", StudentID: "S001"}}
	svc := NewAnalyticsService(students, courses, grades, nil, nil, zap.NewNop())
	return svc, grades, courses
}

func analyticsGrade(courseID string, grade, max float64, submitted time.Time) models.Grade {
	return models.Grade{
		CourseID:      courseID,
		Category:      "homework",
		Grade:         grade,
		MaxGrade:      max,
		Weight:        100,
		DateSubmitted: &submitted,
	}
}

func TestPerformanceDefaultsWindowTo30Days(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	report, _, err := svc.Performance(context.Background(), "s-1", 0)

	require.NoError(t, err)
	assert.Equal(t, 30, report.DaysBack)
	assert.Equal(t, now.AddDate(0, 0, -30), grades.sinceCutoff)
}

func TestPerformanceGroupsByCourse(t *testing.T) {
	svc, grades, courses := newAnalyticsFixture()
	day := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	grades.since = []models.Grade{
		analyticsGrade("c-1", 90, 100, day),
		analyticsGrade("c-2", 18, 20, day),
		analyticsGrade("c-1", 70, 100, day),
	}
	courses.courses = []models.Course{
		{ID: "c-1", CourseCode: "MATH101", CourseName: "Mathematics"},
		{ID: "c-2", CourseCode: "PHYS102", CourseName: "Physics"},
	}

	report, cached, err := svc.Performance(context.Background(), "s-1", 14)

	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, report.Courses, 2)
	assert.Equal(t, "MATH101", report.Courses[0].CourseCode)
	assert.InDelta(t, 80.0, report.Courses[0].Average, 0.001)
	assert.Equal(t, 2, report.Courses[0].GradeCount)
	assert.InDelta(t, 90.0, report.Courses[1].Average, 0.001)
	assert.InDelta(t, 85.0, report.OverallAverage, 0.001)
}

func TestPerformanceUnknownStudent(t *testing.T) {
	grades := &mockAnalyticsGrades{}
	svc := NewAnalyticsService(&mockSummaryStudents{}, &mockSummaryCourses{}, grades, nil, nil, zap.NewNop())

	_, _, err := svc.Performance(context.Background(), "missing", 30)

	require.ErrorIs(t, err, appErrors.ErrStudentNotFound)
	assert.Zero(t, grades.sinceCalls)
}

func TestTrendsFetchesTripleWindowAndReverses(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	// Newest first, as the repository returns them.
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		g := analyticsGrade("c-1", float64(90-i*10), 100, base.AddDate(0, 0, -i))
		g.AssignmentName = fmt.Sprintf("HW %d", 4-i)
		grades.recent = append(grades.recent, g)
	}

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Equal(t, 30, grades.recentLimit)
	require.Len(t, report.Points, 4)
	assert.Equal(t, "HW 1", report.Points[0].AssignmentName)
	assert.InDelta(t, 60.0, report.Points[0].Percentage, 0.001)
	assert.Equal(t, "HW 4", report.Points[3].AssignmentName)
	assert.InDelta(t, 90.0, report.Points[3].Percentage, 0.001)
}

func TestTrendsDirectionImproving(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	// Chronological scores 60,60,60,90,90,90,90,90: the recent five average
	// 90, the earlier slice averages 60.
	scores := []float64{90, 90, 90, 90, 90, 60, 60, 60}
	for _, score := range scores {
		grades.recent = append(grades.recent, analyticsGrade("c-1", score, 100, day))
	}

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Equal(t, models.TrendImproving, report.Direction)
	assert.InDelta(t, 90.0, report.MovingAverage, 0.001)
}

func TestTrendsDirectionDeclining(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	scores := []float64{50, 50, 50, 50, 50, 90, 90, 90}
	for _, score := range scores {
		grades.recent = append(grades.recent, analyticsGrade("c-1", score, 100, day))
	}

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Equal(t, models.TrendDeclining, report.Direction)
}

func TestTrendsStableWithinThreshold(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	scores := []float64{82, 82, 82, 82, 82, 80, 80, 80}
	for _, score := range scores {
		grades.recent = append(grades.recent, analyticsGrade("c-1", score, 100, day))
	}

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, report.Direction)
}

func TestTrendsSinglePointIsStable(t *testing.T) {
	svc, grades, _ := newAnalyticsFixture()
	grades.recent = []models.Grade{analyticsGrade("c-1", 95, 100, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))}

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, report.Direction)
	assert.InDelta(t, 95.0, report.MovingAverage, 0.001)
}

func TestTrendsEmptyHistory(t *testing.T) {
	svc, _, _ := newAnalyticsFixture()

	report, _, err := svc.Trends(context.Background(), "s-1", 10)

	require.NoError(t, err)
	assert.Empty(t, report.Points)
	assert.Equal(t, models.TrendStable, report.Direction)
	assert.Zero(t, report.MovingAverage)
}
