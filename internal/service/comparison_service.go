package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// ComparisonEnrollmentRepository resolves a course's enrolled student set.
type ComparisonEnrollmentRepository interface {
	StudentIDsByCourse(ctx context.Context, courseID string) ([]string, error)
}

// ComparisonStudentRepository bulk-loads students by id.
type ComparisonStudentRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// ComparisonGradeRepository loads course-wide grades with live parents.
type ComparisonGradeRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error)
}

// ComparisonService ranks students within a course and buckets the course's
// grade distribution.
type ComparisonService struct {
	courses     GradebookCourseRepository
	enrollments ComparisonEnrollmentRepository
	students    ComparisonStudentRepository
	grades      ComparisonGradeRepository
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewComparisonService constructs a comparison service.
func NewComparisonService(courses GradebookCourseRepository, enrollments ComparisonEnrollmentRepository, students ComparisonStudentRepository, grades ComparisonGradeRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ComparisonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComparisonService{courses: courses, enrollments: enrollments, students: students, grades: grades, cache: cache, metrics: metrics, logger: logger}
}

// StudentsComparison ranks enrolled students by their course-average
// percentage. The boolean indicates whether data came from cache.
func (s *ComparisonService) StudentsComparison(ctx context.Context, courseID string, limit int) (*models.ComparisonReport, bool, error) {
	cacheKey := makeAnalyticsCacheKey("comparison", courseID, fmt.Sprintf("%d", limit))
	var cached models.ComparisonReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}

	start := time.Now()
	enrolledIDs, err := s.enrollments.StudentIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load enrolled students: %w", err)
	}
	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load course grades: %w", err)
	}
	students, err := s.students.FindByIDs(ctx, enrolledIDs)
	if err != nil {
		return nil, false, fmt.Errorf("load students: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("comparison_load", time.Since(start))
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, g := range grades {
		sums[g.StudentID] += g.Percentage()
		counts[g.StudentID]++
	}

	rows := make([]models.ComparisonRow, 0, len(students))
	averages := make([]float64, 0, len(students))
	for _, student := range students {
		count := counts[student.ID]
		if count == 0 {
			continue
		}
		average := sums[student.ID] / float64(count)
		rows = append(rows, models.ComparisonRow{
			StudentID:         student.StudentID,
			Name:              student.FullName(),
			AveragePercentage: round2(average),
			GradeCount:        count,
			LetterGrade:       LetterGrade(average),
		})
		averages = append(averages, average)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AveragePercentage > rows[j].AveragePercentage
	})
	stats := classStats(averages)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	report := &models.ComparisonReport{
		CourseID:   course.ID,
		CourseCode: course.CourseCode,
		Students:   rows,
		ClassStats: stats,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
			s.logger.Warn("cache comparison", zap.Error(err))
		}
	}
	return report, false, nil
}

// GradeDistribution buckets every grade percentage of a course into letter
// bands reported as shares of the total.
func (s *ComparisonService) GradeDistribution(ctx context.Context, courseID string) (*models.DistributionReport, bool, error) {
	cacheKey := makeAnalyticsCacheKey("distribution", courseID)
	var cached models.DistributionReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}

	start := time.Now()
	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load course grades: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("distribution_load", time.Since(start))
	}

	counts := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}
	var total float64
	for _, g := range grades {
		p := g.Percentage()
		total += p
		counts[distributionBand(p)]++
	}

	buckets := make(map[string]models.DistributionBucket, len(counts))
	for band, count := range counts {
		var share float64
		if len(grades) > 0 {
			share = round2(float64(count) / float64(len(grades)) * 100)
		}
		buckets[band] = models.DistributionBucket{Count: count, Percentage: share}
	}

	report := &models.DistributionReport{
		CourseID:    course.ID,
		CourseCode:  course.CourseCode,
		Buckets:     buckets,
		TotalGrades: len(grades),
	}
	if len(grades) > 0 {
		report.AveragePercentage = round2(total / float64(len(grades)))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
			s.logger.Warn("cache distribution", zap.Error(err))
		}
	}
	return report, false, nil
}

func distributionBand(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

func classStats(averages []float64) models.ClassStats {
	if len(averages) == 0 {
		return models.ClassStats{}
	}
	sorted := make([]float64, len(averages))
	copy(sorted, averages)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}
	return models.ClassStats{
		Average:      round2(sum / float64(len(sorted))),
		Median:       round2(median),
		Min:          round2(sorted[0]),
		Max:          round2(sorted[len(sorted)-1]),
		StudentCount: len(sorted),
	}
}
