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

// ExportStore is the bulk-selection surface the exporter reads from.
type ExportStore interface {
	CoursesBySemester(ctx context.Context, semester string) ([]models.Course, error)
	EnrollmentsByCourseIDs(ctx context.Context, courseIDs []string) ([]models.CourseEnrollment, error)
	StudentsByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	GradesByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.Grade, error)
	AttendanceByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.Attendance, error)
	PerformanceByStudentsAndCourses(ctx context.Context, studentIDs, courseIDs []string) ([]models.DailyPerformance, error)
}

// ExportHighlightRepository loads highlights for the exported students.
type ExportHighlightRepository interface {
	FetchByStudentsAndSemester(ctx context.Context, studentIDs []string, semester string) ([]models.Highlight, error)
}

// ExportService serializes one semester into a portable session package.
// Cross-references use natural keys so the package survives moves between
// installations with different internal ids.
type ExportService struct {
	store      ExportStore
	highlights ExportHighlightRepository
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an export service.
func NewExportService(store ExportStore, highlights ExportHighlightRepository, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{store: store, highlights: highlights, metrics: metrics, logger: logger, now: time.Now}
}

// Export selects every live row belonging to the semester and packages it.
func (s *ExportService) Export(ctx context.Context, semester string) (*models.SessionPackage, error) {
	start := time.Now()
	courses, err := s.store.CoursesBySemester(ctx, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load semester courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.ErrExportSemesterEmpty
	}

	courseIDs := make([]string, 0, len(courses))
	codeByID := make(map[string]string, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
		codeByID[c.ID] = c.CourseCode
	}

	enrollments, err := s.store.EnrollmentsByCourseIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load enrollments")
	}

	studentIDSet := make(map[string]struct{})
	for _, e := range enrollments {
		studentIDSet[e.StudentID] = struct{}{}
	}
	studentIDs := make([]string, 0, len(studentIDSet))
	for id := range studentIDSet {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	students, err := s.store.StudentsByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load students")
	}
	refByID := make(map[string]string, len(students))
	for _, st := range students {
		refByID[st.ID] = st.StudentID
	}

	grades, err := s.store.GradesByStudentsAndCourses(ctx, studentIDs, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load grades")
	}
	attendance, err := s.store.AttendanceByStudentsAndCourses(ctx, studentIDs, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load attendance")
	}
	performance, err := s.store.PerformanceByStudentsAndCourses(ctx, studentIDs, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load daily performance")
	}
	highlights, err := s.highlights.FetchByStudentsAndSemester(ctx, studentIDs, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "load highlights")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("session_export", time.Since(start))
	}

	pkg := &models.SessionPackage{
		Courses:          make([]models.SessionCourse, 0, len(courses)),
		Students:         make([]models.SessionStudent, 0, len(students)),
		Enrollments:      make([]models.SessionEnrollment, 0, len(enrollments)),
		Grades:           make([]models.SessionGrade, 0, len(grades)),
		Attendance:       make([]models.SessionAttendance, 0, len(attendance)),
		DailyPerformance: make([]models.SessionDailyPerformance, 0, len(performance)),
		Highlights:       make([]models.SessionHighlight, 0, len(highlights)),
	}

	for _, c := range courses {
		pkg.Courses = append(pkg.Courses, models.SessionCourse{
			CourseCode:       c.CourseCode,
			CourseName:       c.CourseName,
			Semester:         c.Semester,
			Credits:          c.Credits,
			HoursPerWeek:     c.HoursPerWeek,
			PeriodsPerWeek:   c.PeriodsPerWeek,
			EvaluationRules:  c.EvaluationRules,
			AbsencePenalty:   c.AbsencePenalty,
			TeachingSchedule: c.TeachingSchedule,
		})
	}
	for _, st := range students {
		pkg.Students = append(pkg.Students, models.SessionStudent{
			StudentID:      st.StudentID,
			FirstName:      st.FirstName,
			LastName:       st.LastName,
			Email:          st.Email,
			EnrollmentDate: models.DateFrom(&st.EnrollmentDate),
			StudyYear:      st.StudyYear,
			Active:         st.Active,
		})
	}
	for _, e := range enrollments {
		pkg.Enrollments = append(pkg.Enrollments, models.SessionEnrollment{
			StudentIDRef:  refByID[e.StudentID],
			CourseCodeRef: codeByID[e.CourseID],
			EnrolledAt:    models.DateFrom(&e.EnrolledAt),
		})
	}
	for _, g := range grades {
		pkg.Grades = append(pkg.Grades, models.SessionGrade{
			StudentIDRef:   refByID[g.StudentID],
			CourseCodeRef:  codeByID[g.CourseID],
			AssignmentName: g.AssignmentName,
			Category:       g.Category,
			Grade:          g.Grade,
			MaxGrade:       g.MaxGrade,
			Weight:         g.Weight,
			DateAssigned:   models.DateFrom(g.DateAssigned),
			DateSubmitted:  models.DateFrom(g.DateSubmitted),
		})
	}
	for _, a := range attendance {
		pkg.Attendance = append(pkg.Attendance, models.SessionAttendance{
			StudentIDRef:  refByID[a.StudentID],
			CourseCodeRef: codeByID[a.CourseID],
			Date:          models.NewDate(a.Date),
			PeriodNumber:  a.PeriodNumber,
			Status:        string(a.Status),
			Notes:         a.Notes,
		})
	}
	for _, p := range performance {
		pkg.DailyPerformance = append(pkg.DailyPerformance, models.SessionDailyPerformance{
			StudentIDRef:  refByID[p.StudentID],
			CourseCodeRef: codeByID[p.CourseID],
			Date:          models.NewDate(p.Date),
			Category:      p.Category,
			Score:         p.Score,
			MaxScore:      p.MaxScore,
			Notes:         p.Notes,
		})
	}
	for _, h := range highlights {
		pkg.Highlights = append(pkg.Highlights, models.SessionHighlight{
			StudentIDRef: refByID[h.StudentID],
			Semester:     h.Semester,
			Category:     h.Category,
			Text:         h.Text,
			Rating:       h.Rating,
			IsPositive:   h.IsPositive,
		})
	}

	pkg.Metadata = models.SessionMetadata{
		Semester:   semester,
		ExportedAt: s.now().UTC(),
		Version:    models.SessionPackageVersion,
		Counts:     pkg.EntityCounts(),
	}

	s.logger.Info("session exported",
		zap.String("semester", semester),
		zap.Int("courses", len(pkg.Courses)),
		zap.Int("students", len(pkg.Students)))
	return pkg, nil
}

// ExportFilename suggests a download name for the package.
func ExportFilename(semester string, at time.Time) string {
	return fmt.Sprintf("session_export_%s_%s.json", sanitizeLabel(semester), at.UTC().Format("20060102_150405"))
}
