package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// SummaryEnrollmentRepository resolves the student's enrolled course set.
type SummaryEnrollmentRepository interface {
	CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// SummaryCourseRepository bulk-loads courses by id.
type SummaryCourseRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

// SummaryGradeRepository bulk-loads grades grouped by course.
type SummaryGradeRepository interface {
	FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.Grade, error)
	DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// SummaryPerformanceRepository bulk-loads daily performance grouped by
// course.
type SummaryPerformanceRepository interface {
	FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.DailyPerformance, error)
	DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// SummaryAttendanceRepository bulk-loads attendance grouped by course.
type SummaryAttendanceRepository interface {
	FetchByStudentAndCourses(ctx context.Context, studentID string, courseIDs []string) (map[string][]models.Attendance, error)
	DistinctCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// SummaryService rolls up a student's standing across every course the
// student relates to. The load path is a fixed set of bulk queries so the
// statement count never grows with the course count.
type SummaryService struct {
	students    GradebookStudentRepository
	enrollments SummaryEnrollmentRepository
	courses     SummaryCourseRepository
	grades      SummaryGradeRepository
	performance SummaryPerformanceRepository
	attendance  SummaryAttendanceRepository
	calculator  *GradeCalculator
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSummaryService constructs a summary service.
func NewSummaryService(
	students GradebookStudentRepository,
	enrollments SummaryEnrollmentRepository,
	courses SummaryCourseRepository,
	grades SummaryGradeRepository,
	performance SummaryPerformanceRepository,
	attendance SummaryAttendanceRepository,
	calculator *GradeCalculator,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *SummaryService {
	if calculator == nil {
		calculator = NewGradeCalculator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		students:    students,
		enrollments: enrollments,
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

// StudentSummary builds the transcript roll-up. The boolean indicates
// whether the result came from cache.
func (s *SummaryService) StudentSummary(ctx context.Context, studentID string) (*models.StudentSummary, bool, error) {
	cacheKey := makeAnalyticsCacheKey("summary", studentID)
	var cached models.StudentSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, false, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}

	courseIDs, err := s.candidateCourseIDs(ctx, studentID)
	if err != nil {
		return nil, false, err
	}

	summary := &models.StudentSummary{
		Student: models.StudentRef{ID: student.ID, Name: student.FullName(), StudentID: student.StudentID},
		Courses: []models.StudentCourseSummary{},
	}
	if len(courseIDs) == 0 {
		return summary, false, nil
	}

	start := time.Now()
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, false, fmt.Errorf("load courses: %w", err)
	}
	gradesByCourse, err := s.grades.FetchByStudentAndCourses(ctx, studentID, courseIDs)
	if err != nil {
		return nil, false, fmt.Errorf("load grades: %w", err)
	}
	dailyByCourse, err := s.performance.FetchByStudentAndCourses(ctx, studentID, courseIDs)
	if err != nil {
		return nil, false, fmt.Errorf("load daily performance: %w", err)
	}
	attendanceByCourse, err := s.attendance.FetchByStudentAndCourses(ctx, studentID, courseIDs)
	if err != nil {
		return nil, false, fmt.Errorf("load attendance: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("summary_bulk_load", time.Since(start))
	}

	var gpaWeighted, creditTotal float64
	for _, course := range courses {
		if len(course.EvaluationRules) == 0 {
			continue
		}
		result, err := s.calculator.Compute(&course, gradesByCourse[course.ID], dailyByCourse[course.ID], attendanceByCourse[course.ID])
		if err != nil {
			if errors.Is(err, appErrors.ErrNoEvaluationRules) {
				continue
			}
			return nil, false, err
		}
		summary.Courses = append(summary.Courses, models.StudentCourseSummary{
			CourseCode:  course.CourseCode,
			CourseName:  course.CourseName,
			Credits:     course.Credits,
			FinalGrade:  result.FinalGrade,
			GPA:         result.GPA,
			LetterGrade: result.LetterGrade,
		})
		gpaWeighted += result.GPA * float64(course.Credits)
		creditTotal += float64(course.Credits)
	}
	if creditTotal > 0 {
		summary.OverallGPA = round2(gpaWeighted / creditTotal)
	}
	summary.TotalCredits = int(creditTotal)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
			s.logger.Warn("cache summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// candidateCourseIDs prefers live enrollments and falls back to the union of
// courses the student has any grade, performance or attendance rows in.
func (s *SummaryService) candidateCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	ids, err := s.enrollments.CourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	if len(ids) > 0 {
		return ids, nil
	}

	set := make(map[string]struct{})
	fromGrades, err := s.grades.DistinctCourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load grade course ids: %w", err)
	}
	fromDaily, err := s.performance.DistinctCourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load performance course ids: %w", err)
	}
	fromAttendance, err := s.attendance.DistinctCourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attendance course ids: %w", err)
	}
	for _, group := range [][]string{fromGrades, fromDaily, fromAttendance} {
		for _, id := range group {
			set[id] = struct{}{}
		}
	}
	union := make([]string, 0, len(set))
	for id := range set {
		union = append(union, id)
	}
	sort.Strings(union)
	return union, nil
}
