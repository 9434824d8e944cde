package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// AnalyticsGradeRepository is the grade access the time-windowed analytics
// need.
type AnalyticsGradeRepository interface {
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]models.Grade, error)
	ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.Grade, error)
}

// AnalyticsService computes time-windowed performance and trend reports.
type AnalyticsService struct {
	students GradebookStudentRepository
	courses  SummaryCourseRepository
	grades   AnalyticsGradeRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(students GradebookStudentRepository, courses SummaryCourseRepository, grades AnalyticsGradeRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{students: students, courses: courses, grades: grades, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Performance averages the student's recent grades per course within the
// lookback window. The boolean indicates whether data came from cache.
func (s *AnalyticsService) Performance(ctx context.Context, studentID string, daysBack int) (*models.PerformanceReport, bool, error) {
	if daysBack < 1 {
		daysBack = 30
	}
	cacheKey := makeAnalyticsCacheKey("performance", studentID, fmt.Sprintf("%d", daysBack))
	var cached models.PerformanceReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}

	start := s.now()
	cutoff := start.AddDate(0, 0, -daysBack)
	grades, err := s.grades.ListByStudentSince(ctx, studentID, cutoff)
	if err != nil {
		return nil, false, fmt.Errorf("load recent grades: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_performance", time.Since(start))
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, g := range grades {
		if _, seen := counts[g.CourseID]; !seen {
			order = append(order, g.CourseID)
		}
		sums[g.CourseID] += g.Percentage()
		counts[g.CourseID]++
	}

	courseMeta := make(map[string]models.Course)
	if len(order) > 0 {
		courses, err := s.courses.FindByIDs(ctx, order)
		if err != nil {
			return nil, false, fmt.Errorf("load courses: %w", err)
		}
		for _, c := range courses {
			courseMeta[c.ID] = c
		}
	}

	report := &models.PerformanceReport{StudentID: studentID, DaysBack: daysBack, Courses: []models.CoursePerformance{}}
	var averageTotal float64
	for _, id := range order {
		avg := sums[id] / float64(counts[id])
		meta := courseMeta[id]
		report.Courses = append(report.Courses, models.CoursePerformance{
			CourseID:   id,
			CourseCode: meta.CourseCode,
			CourseName: meta.CourseName,
			Average:    round2(avg),
			GradeCount: counts[id],
		})
		averageTotal += avg
	}
	if len(report.Courses) > 0 {
		report.OverallAverage = round2(averageTotal / float64(len(report.Courses)))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
			s.logger.Warn("cache performance", zap.Error(err))
		}
	}
	return report, false, nil
}

// Trends presents the most recent grades chronologically with a moving
// average and a direction label.
func (s *AnalyticsService) Trends(ctx context.Context, studentID string, limit int) (*models.TrendReport, bool, error) {
	if limit < 1 {
		limit = 10
	}
	cacheKey := makeAnalyticsCacheKey("trends", studentID, fmt.Sprintf("%d", limit))
	var cached models.TrendReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}

	start := s.now()
	recent, err := s.grades.ListRecentByStudent(ctx, studentID, limit*3)
	if err != nil {
		return nil, false, fmt.Errorf("load recent grades: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_trends", time.Since(start))
	}

	// Repository order is newest first; the report reads oldest to newest.
	points := make([]models.TrendPoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		g := recent[i]
		points = append(points, models.TrendPoint{
			AssignmentName: g.AssignmentName,
			Category:       g.Category,
			Percentage:     round2(g.Percentage()),
			DateSubmitted:  models.DateFrom(g.DateSubmitted),
		})
	}

	report := &models.TrendReport{StudentID: studentID, Points: points, Direction: models.TrendStable}
	if len(points) > 0 {
		window := 5
		if len(points) < window {
			window = len(points)
		}
		recentMean := meanPercentage(points[len(points)-window:])
		report.MovingAverage = round2(recentMean)
		if len(points) >= 2 {
			earlier := points[:len(points)-window]
			if len(earlier) > 0 {
				earlierMean := meanPercentage(earlier)
				switch {
				case recentMean > earlierMean+3:
					report.Direction = models.TrendImproving
				case recentMean < earlierMean-3:
					report.Direction = models.TrendDeclining
				}
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
			s.logger.Warn("cache trends", zap.Error(err))
		}
	}
	return report, false, nil
}

func meanPercentage(points []models.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Percentage
	}
	return sum / float64(len(points))
}
