package service

import (
	"math"

	"github.com/openscholia/sms-api/internal/category"
	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// GradeCalculator computes the weighted final grade of one student in one
// course from pre-loaded rows. It is pure: no I/O, deterministic for a given
// input snapshot.
type GradeCalculator struct{}

// NewGradeCalculator constructs a grade calculator.
func NewGradeCalculator() *GradeCalculator {
	return &GradeCalculator{}
}

// Compute runs the weighted category algorithm over the course's evaluation
// rules. The caller supplies the live (non-deleted) grade, daily performance
// and attendance rows for the student/course pair.
func (c *GradeCalculator) Compute(course *models.Course, grades []models.Grade, daily []models.DailyPerformance, attendance []models.Attendance) (*models.FinalGradeResult, error) {
	if len(course.EvaluationRules) == 0 {
		return nil, appErrors.ErrNoEvaluationRules
	}

	gradesByKey := make(map[string][]models.Grade)
	for _, g := range grades {
		key := category.Normalize(g.Category)
		gradesByKey[key] = append(gradesByKey[key], g)
	}
	dailyByKey := make(map[string][]models.DailyPerformance)
	for _, d := range daily {
		key := category.Normalize(d.Category)
		dailyByKey[key] = append(dailyByKey[key], d)
	}

	presentCount := 0
	absentCount := 0
	for _, a := range attendance {
		if a.Status.Is(models.AttendanceStatusPresent) {
			presentCount++
		}
		if a.Status.Is(models.AttendanceStatusAbsent) {
			absentCount++
		}
	}

	breakdown := make(map[string]models.CategoryBreakdown, len(course.EvaluationRules))
	var finalGrade, totalWeightUsed float64

	for _, rule := range course.EvaluationRules {
		ruleKey := category.Normalize(rule.Category)

		catGrades := gradesByKey[ruleKey]
		// Repeated midterm/final entries are resits; only the latest
		// attempt counts.
		if (ruleKey == category.Midterm || ruleKey == category.Final) && len(catGrades) > 0 {
			catGrades = []models.Grade{latestAttempt(catGrades)}
		}

		var weightedSum, itemWeight float64
		for _, g := range catGrades {
			weightedSum += g.Percentage()
			itemWeight += 1.0
		}

		if rule.IncludeDaily() {
			mult := rule.Multiplier()
			for _, d := range dailyByKey[ruleKey] {
				if d.MaxScore <= 0 {
					continue
				}
				weightedSum += d.Score / d.MaxScore * 100 * mult
				itemWeight += mult
			}
		}

		if category.IsAttendanceLabel(rule.Category) && len(attendance) > 0 {
			weightedSum += float64(presentCount) / float64(len(attendance)) * 100
			itemWeight += 1.0
		}

		if itemWeight > 0 {
			average := weightedSum / itemWeight
			breakdown[ruleKey] = models.CategoryBreakdown{
				Average:      round2(average),
				Weight:       rule.Weight,
				Contribution: round2(average * rule.Weight / 100),
				TotalItems:   int(itemWeight),
			}
			finalGrade += average * rule.Weight / 100
			totalWeightUsed += rule.Weight
		}
	}

	// Partial completion: rescale so the figure reflects performance on
	// completed work on a 0-100 basis. Deliberate forecasting behaviour.
	if totalWeightUsed > 0 && totalWeightUsed < 100 {
		finalGrade = finalGrade * (100 / totalWeightUsed)
	}

	absenceDeduction := course.AbsencePenalty * float64(absentCount)
	finalGrade = math.Max(0, finalGrade-absenceDeduction)

	return &models.FinalGradeResult{
		FinalGrade:        round2(finalGrade),
		Percentage:        round2(finalGrade),
		LetterGrade:       LetterGrade(finalGrade),
		GPA:               round2(finalGrade / 100 * 4),
		GreekGrade:        round2(finalGrade / 100 * 20),
		TotalWeightUsed:   round2(totalWeightUsed),
		CategoryBreakdown: breakdown,
		AbsencePenalty:    course.AbsencePenalty,
		UnexcusedAbsences: absentCount,
		AbsenceDeduction:  round2(absenceDeduction),
	}, nil
}

// latestAttempt picks the most recent grade by submission date, tie-broken
// by id descending. Missing dates sort earliest.
func latestAttempt(grades []models.Grade) models.Grade {
	best := grades[0]
	for _, g := range grades[1:] {
		if attemptAfter(g, best) {
			best = g
		}
	}
	return best
}

func attemptAfter(a, b models.Grade) bool {
	switch {
	case a.DateSubmitted != nil && b.DateSubmitted == nil:
		return true
	case a.DateSubmitted == nil && b.DateSubmitted != nil:
		return false
	case a.DateSubmitted != nil && b.DateSubmitted != nil && !a.DateSubmitted.Equal(*b.DateSubmitted):
		return a.DateSubmitted.After(*b.DateSubmitted)
	default:
		return a.ID > b.ID
	}
}

// LetterGrade maps a percentage to the fixed letter scale.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 97:
		return "A+"
	case percentage >= 93:
		return "A"
	case percentage >= 90:
		return "A-"
	case percentage >= 87:
		return "B+"
	case percentage >= 83:
		return "B"
	case percentage >= 80:
		return "B-"
	case percentage >= 77:
		return "C+"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
