package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

func boolPtr(b bool) *bool          { return &b }
func floatPtr(f float64) *float64   { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func gradeRow(id, cat string, score, max float64, submitted *time.Time) models.Grade {
	return models.Grade{ID: id, Category: cat, Grade: score, MaxGrade: max, DateSubmitted: submitted}
}

func TestComputeAllCategoriesWithPenalty(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		AbsencePenalty: 2.0,
		EvaluationRules: models.EvaluationRules{
			{Category: "Homework", Weight: 30, IncludeDailyPerformance: boolPtr(true), DailyPerformanceMultiplier: floatPtr(1.0)},
			{Category: "Midterm", Weight: 30},
			{Category: "Final Exam", Weight: 40},
		},
	}
	grades := []models.Grade{
		gradeRow("g-1", "Homework", 80, 100, nil),
		gradeRow("g-2", "Homework", 90, 100, nil),
		gradeRow("g-3", "Midterm", 70, 100, nil),
		gradeRow("g-4", "Final Exam", 85, 100, nil),
	}
	daily := []models.DailyPerformance{
		{Category: "Homework", Score: 9, MaxScore: 10},
		{Category: "Homework", Score: 7, MaxScore: 10},
	}
	attendance := []models.Attendance{
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusAbsent},
	}

	result, err := calc.Compute(course, grades, daily, attendance)
	require.NoError(t, err)
	assert.Equal(t, 77.75, result.FinalGrade)
	assert.Equal(t, 77.75, result.Percentage)
	assert.Equal(t, 100.0, result.TotalWeightUsed)
	assert.Equal(t, 2.0, result.AbsencePenalty)
	assert.Equal(t, 1, result.UnexcusedAbsences)
	assert.Equal(t, 2.0, result.AbsenceDeduction)
	assert.Equal(t, 82.5, result.CategoryBreakdown["homework"].Average)
	assert.Equal(t, 4, result.CategoryBreakdown["homework"].TotalItems)
	// 77.75 sits in the C+ band (>= 77); the scale is applied uniformly,
	// with no special rounding at band edges.
	assert.Equal(t, "C+", result.LetterGrade)
}

func TestComputeAttendanceCategoryNoPenalty(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{
			{Category: "Attendance", Weight: 20},
			{Category: "Homework", Weight: 80, IncludeDailyPerformance: boolPtr(false)},
		},
	}
	grades := []models.Grade{gradeRow("g-1", "Homework", 100, 100, nil)}
	attendance := []models.Attendance{
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusAbsent},
	}

	result, err := calc.Compute(course, grades, nil, attendance)
	require.NoError(t, err)
	assert.Equal(t, 93.33, result.Percentage)
	assert.Equal(t, "A", result.LetterGrade)
	assert.Equal(t, 0.0, result.AbsenceDeduction)
	assert.Equal(t, 1, result.UnexcusedAbsences)
}

func TestComputePartialCompletionNormalization(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{
			{Category: "Homework", Weight: 50, IncludeDailyPerformance: boolPtr(true), DailyPerformanceMultiplier: floatPtr(0.5)},
			{Category: "Final", Weight: 50},
		},
	}
	grades := []models.Grade{gradeRow("g-1", "Homework", 80, 100, nil)}
	daily := []models.DailyPerformance{{Category: "Homework", Score: 9, MaxScore: 10}}

	result, err := calc.Compute(course, grades, daily, nil)
	require.NoError(t, err)
	// (80 + 90*0.5) / 1.5 = 83.33 over the only rule with data, scaled to a
	// 100-percent basis.
	assert.Equal(t, 50.0, result.TotalWeightUsed)
	assert.Equal(t, 83.33, result.FinalGrade)
	assert.NotContains(t, result.CategoryBreakdown, "final")
}

func TestComputeNoRules(t *testing.T) {
	calc := NewGradeCalculator()
	_, err := calc.Compute(&models.Course{}, nil, nil, nil)
	assert.ErrorIs(t, err, appErrors.ErrNoEvaluationRules)
}

func TestComputeExamSingleAttempt(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{{Category: "Midterm", Weight: 100}},
	}
	early := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	grades := []models.Grade{
		gradeRow("g-1", "Midterm", 90, 100, timePtr(early)),
		gradeRow("g-2", "Midterm", 60, 100, timePtr(late)),
	}

	result, err := calc.Compute(course, grades, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, result.FinalGrade)
	assert.Equal(t, 1, result.CategoryBreakdown["midterm"].TotalItems)
}

func TestComputeExamTieBreakByID(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{{Category: "Final", Weight: 100}},
	}
	when := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	grades := []models.Grade{
		gradeRow("aaa", "Final", 95, 100, timePtr(when)),
		gradeRow("zzz", "Final", 75, 100, timePtr(when)),
	}

	result, err := calc.Compute(course, grades, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 75.0, result.FinalGrade)
}

func TestComputeHomeworkKeepsAllAttempts(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{{Category: "Homework", Weight: 100, IncludeDailyPerformance: boolPtr(false)}},
	}
	grades := []models.Grade{
		gradeRow("g-1", "Homework", 60, 100, nil),
		gradeRow("g-2", "Homework", 80, 100, nil),
	}

	result, err := calc.Compute(course, grades, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 70.0, result.FinalGrade)
	assert.Equal(t, 2, result.CategoryBreakdown["homework"].TotalItems)
}

func TestComputeZeroMultiplierIsNoop(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{
			{Category: "Homework", Weight: 100, IncludeDailyPerformance: boolPtr(true), DailyPerformanceMultiplier: floatPtr(0)},
		},
	}
	grades := []models.Grade{gradeRow("g-1", "Homework", 80, 100, nil)}
	daily := []models.DailyPerformance{{Category: "Homework", Score: 1, MaxScore: 10}}

	result, err := calc.Compute(course, grades, daily, nil)
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.FinalGrade)
}

func TestComputeGreekCategoryLabels(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{
			{Category: "Εργασία", Weight: 60, IncludeDailyPerformance: boolPtr(false)},
			{Category: "Τελική", Weight: 40},
		},
	}
	grades := []models.Grade{
		gradeRow("g-1", "homework", 90, 100, nil),
		gradeRow("g-2", "final exam", 80, 100, nil),
	}

	result, err := calc.Compute(course, grades, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.TotalWeightUsed)
	assert.Equal(t, 86.0, result.FinalGrade)
}

func TestComputeZeroPenaltyIgnoresAttendance(t *testing.T) {
	calc := NewGradeCalculator()
	course := &models.Course{
		EvaluationRules: models.EvaluationRules{{Category: "Homework", Weight: 100, IncludeDailyPerformance: boolPtr(false)}},
	}
	grades := []models.Grade{gradeRow("g-1", "Homework", 85, 100, nil)}
	attendance := []models.Attendance{
		{Status: models.AttendanceStatusAbsent},
		{Status: models.AttendanceStatusAbsent},
	}

	result, err := calc.Compute(course, grades, nil, attendance)
	require.NoError(t, err)
	assert.Equal(t, 85.0, result.FinalGrade)
	assert.Equal(t, 0.0, result.AbsenceDeduction)
	assert.Equal(t, 2, result.UnexcusedAbsences)
}

func TestLetterGradeScale(t *testing.T) {
	cases := []struct {
		percentage float64
		letter     string
	}{
		{100, "A+"}, {97, "A+"}, {96.99, "A"}, {93, "A"}, {90, "A-"},
		{87, "B+"}, {83, "B"}, {80, "B-"}, {77, "C+"}, {70, "C"},
		{60, "D"}, {59.99, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letter, LetterGrade(tc.percentage), "percentage %v", tc.percentage)
	}
}

func TestLetterGradeMonotonic(t *testing.T) {
	rank := map[string]int{"F": 0, "D": 1, "C": 2, "C+": 3, "B-": 4, "B": 5, "B+": 6, "A-": 7, "A": 8, "A+": 9}
	prev := -1
	for p := 0.0; p <= 100.0; p += 0.25 {
		r := rank[LetterGrade(p)]
		require.GreaterOrEqual(t, r, prev, "percentage %v", p)
		prev = r
	}
}
