package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// GradebookStudentRepository is the student access the gradebook needs.
type GradebookStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// GradebookCourseRepository is the course access the gradebook needs.
type GradebookCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// GradebookGradeRepository is the grade access the gradebook needs.
type GradebookGradeRepository interface {
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error)
}

// GradebookPerformanceRepository is the daily performance access the
// gradebook needs.
type GradebookPerformanceRepository interface {
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.DailyPerformance, error)
}

// GradebookAttendanceRepository is the attendance access the gradebook needs.
type GradebookAttendanceRepository interface {
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Attendance, error)
}

// GradebookService loads the row snapshot for one student/course pair and
// drives the final-grade computation over it.
type GradebookService struct {
	students    GradebookStudentRepository
	courses     GradebookCourseRepository
	grades      GradebookGradeRepository
	performance GradebookPerformanceRepository
	attendance  GradebookAttendanceRepository
	calculator  *GradeCalculator
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewGradebookService constructs a gradebook service.
func NewGradebookService(
	students GradebookStudentRepository,
	courses GradebookCourseRepository,
	grades GradebookGradeRepository,
	performance GradebookPerformanceRepository,
	attendance GradebookAttendanceRepository,
	calculator *GradeCalculator,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *GradebookService {
	if calculator == nil {
		calculator = NewGradeCalculator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		students:    students,
		courses:     courses,
		grades:      grades,
		performance: performance,
		attendance:  attendance,
		calculator:  calculator,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// FinalGrade computes the weighted final grade for the student in the
// course. The boolean indicates whether the result came from cache.
func (s *GradebookService) FinalGrade(ctx context.Context, studentID, courseID string) (*models.FinalGradeResult, bool, error) {
	cacheKey := makeAnalyticsCacheKey("final-grade", studentID, courseID)
	var cached models.FinalGradeResult
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}

	start := time.Now()
	grades, err := s.grades.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load grades: %w", err)
	}
	daily, err := s.performance.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load daily performance: %w", err)
	}
	attendance, err := s.attendance.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load attendance: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("gradebook_final_grade", time.Since(start))
	}

	result, err := s.calculator.Compute(course, grades, daily, attendance)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
			s.logger.Warn("cache final grade", zap.Error(err))
		}
	}
	return result, false, nil
}

func mapLookupErr(err error, notFound *appErrors.Error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
