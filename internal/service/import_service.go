package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// ImportTx is the unit of work one import apply runs inside. Lookups resolve
// natural keys with soft-deleted rows included.
type ImportTx interface {
	FindCourseByCode(ctx context.Context, code string) (*models.Course, error)
	InsertCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	ReactivateCourse(ctx context.Context, id string) error

	FindStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	InsertStudent(ctx context.Context, student *models.Student) error
	UpdateStudent(ctx context.Context, student *models.Student) error
	ReactivateStudent(ctx context.Context, id string) error

	FindEnrollment(ctx context.Context, studentID, courseID string) (*models.CourseEnrollment, error)
	InsertEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error
	ReactivateEnrollment(ctx context.Context, id string) error

	FindGrade(ctx context.Context, studentID, courseID, assignmentName string) (*models.Grade, error)
	InsertGrade(ctx context.Context, grade *models.Grade) error
	UpdateGrade(ctx context.Context, grade *models.Grade) error

	FindAttendance(ctx context.Context, studentID, courseID string, date time.Time, periodNumber int) (*models.Attendance, error)
	InsertAttendance(ctx context.Context, record *models.Attendance) error
	UpdateAttendance(ctx context.Context, record *models.Attendance) error

	FindPerformance(ctx context.Context, studentID, courseID string, date time.Time, category string) (*models.DailyPerformance, error)
	InsertPerformance(ctx context.Context, record *models.DailyPerformance) error
	UpdatePerformance(ctx context.Context, record *models.DailyPerformance) error

	FindHighlight(ctx context.Context, studentID, semester, category, text string) (*models.Highlight, error)
	InsertHighlight(ctx context.Context, highlight *models.Highlight) error
	UpdateHighlight(ctx context.Context, highlight *models.Highlight) error

	Commit() error
	Rollback() error
}

// ImportStore opens import transactions.
type ImportStore interface {
	Begin(ctx context.Context) (ImportTx, error)
}

// ImportBackupSink snapshots the store before a destructive apply.
type ImportBackupSink interface {
	CreatePreImport(ctx context.Context, semester string) (string, error)
}

var studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ImportService runs the session import pipeline: pre-validation, dry run,
// pre-import backup, single-transaction apply with natural-key
// reconciliation, and the critical-error rollback gate.
type ImportService struct {
	store             ImportStore
	backups           ImportBackupSink
	cache             *CacheService
	metrics           *MetricsService
	validate          *validator.Validate
	logger            *zap.Logger
	maxErrors         int
	maxCriticalErrors int
}

// NewImportService constructs an import service.
func NewImportService(store ImportStore, backups ImportBackupSink, cache *CacheService, metrics *MetricsService, logger *zap.Logger, maxErrors, maxCriticalErrors int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxErrors < 1 {
		maxErrors = 20
	}
	if maxCriticalErrors < 1 {
		maxCriticalErrors = 10
	}
	return &ImportService{
		store:             store,
		backups:           backups,
		cache:             cache,
		metrics:           metrics,
		validate:          validator.New(),
		logger:            logger,
		maxErrors:         maxErrors,
		maxCriticalErrors: maxCriticalErrors,
	}
}

// Import runs the full pipeline over a parsed session package.
func (s *ImportService) Import(ctx context.Context, pkg *models.SessionPackage, opts models.ImportOptions) (*models.ImportResult, error) {
	if opts.MergeStrategy == "" {
		opts.MergeStrategy = models.MergeStrategyUpdate
	}
	if opts.MergeStrategy != models.MergeStrategyUpdate && opts.MergeStrategy != models.MergeStrategySkip {
		return nil, appErrors.Clone(appErrors.ErrImportInvalidRequest, fmt.Sprintf("unknown merge_strategy %q", opts.MergeStrategy))
	}

	// Phase A: pre-validation. Nothing is written, not even a backup.
	if errs := s.preValidate(pkg); len(errs) > 0 {
		s.metrics.RecordImport("validation_failed")
		return &models.ImportResult{
			Success:          false,
			ValidationPassed: false,
			ValidationErrors: errs,
			Counts:           pkg.EntityCounts(),
		}, appErrors.ErrImportInvalidRequest
	}

	// Phase B: dry run stops after validation.
	if opts.DryRun {
		return &models.ImportResult{
			Success:          true,
			DryRun:           true,
			ValidationPassed: true,
			Counts:           pkg.EntityCounts(),
		}, nil
	}

	result := &models.ImportResult{
		ValidationPassed: true,
		Counts:           pkg.EntityCounts(),
		Summary: map[string]*models.ImportGroupSummary{
			"courses":           {},
			"students":          {},
			"enrollments":       {},
			"grades":            {},
			"attendance":        {},
			"daily_performance": {},
			"highlights":        {},
		},
	}

	// Phase C: backup. A failed backup is recorded, not fatal.
	if s.backups != nil {
		path, err := s.backups.CreatePreImport(ctx, pkg.Metadata.Semester)
		if err != nil {
			s.logger.Warn("pre-import backup failed", zap.Error(err))
		} else {
			result.BackupCreated = true
			result.BackupPath = path
		}
	}

	// Phase D: apply everything inside one transaction, parents first.
	tx, err := s.store.Begin(ctx)
	if err != nil {
		s.metrics.RecordImport("failed")
		return result, appErrors.Wrap(err, appErrors.ErrImportProcessingFailed.Code, appErrors.ErrImportProcessingFailed.Status, "open import transaction")
	}
	defer tx.Rollback()

	courseIDByCode, criticalCourses := s.applyCourses(ctx, tx, pkg.Courses, opts, result.Summary["courses"])
	studentIDByRef, criticalStudents := s.applyStudents(ctx, tx, pkg.Students, opts, result.Summary["students"])

	critical := append(criticalCourses, criticalStudents...)

	// Phase E: course/student failures invalidate the whole package.
	if len(critical) > 0 {
		if err := tx.Rollback(); err != nil {
			s.logger.Error("import rollback failed", zap.Error(err))
		}
		if len(critical) > s.maxCriticalErrors {
			critical = critical[:s.maxCriticalErrors]
		}
		result.CriticalErrors = critical
		result.RollbackAvailable = result.BackupCreated
		s.metrics.RecordImport("rolled_back")
		return result, appErrors.ErrImportProcessingFailed
	}

	s.applyEnrollments(ctx, tx, pkg.Enrollments, opts, studentIDByRef, courseIDByCode, result.Summary["enrollments"])
	s.applyGrades(ctx, tx, pkg.Grades, opts, studentIDByRef, courseIDByCode, result.Summary["grades"])
	s.applyAttendance(ctx, tx, pkg.Attendance, opts, studentIDByRef, courseIDByCode, result.Summary["attendance"])
	s.applyPerformance(ctx, tx, pkg.DailyPerformance, opts, studentIDByRef, courseIDByCode, result.Summary["daily_performance"])
	s.applyHighlights(ctx, tx, pkg.Highlights, opts, studentIDByRef, result.Summary["highlights"])

	// Phase F: commit.
	if err := tx.Commit(); err != nil {
		s.metrics.RecordImport("failed")
		return result, appErrors.Wrap(err, appErrors.ErrImportProcessingFailed.Code, appErrors.ErrImportProcessingFailed.Status, "commit import")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
			s.logger.Warn("invalidate analytics cache", zap.Error(err))
		}
	}

	result.Success = true
	result.RollbackAvailable = result.BackupCreated
	s.metrics.RecordImport("success")
	s.logger.Info("session imported",
		zap.String("semester", pkg.Metadata.Semester),
		zap.String("merge_strategy", opts.MergeStrategy))
	return result, nil
}

// preValidate checks the package against the schema invariants and the
// referential integrity between its own entities. It collects up to
// maxErrors messages and never touches the store.
func (s *ImportService) preValidate(pkg *models.SessionPackage) []string {
	var errs []string
	add := func(format string, args ...interface{}) {
		if len(errs) < s.maxErrors {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	if pkg.Metadata.Semester == "" {
		add("metadata: semester is required")
	}

	courseCodes := make(map[string]struct{}, len(pkg.Courses))
	for i, c := range pkg.Courses {
		if c.CourseCode == "" {
			add("courses[%d]: course_code is required", i)
			continue
		}
		if _, dup := courseCodes[c.CourseCode]; dup {
			add("courses[%d]: duplicate course_code %q", i, c.CourseCode)
		}
		courseCodes[c.CourseCode] = struct{}{}
		if c.CourseName == "" {
			add("courses[%d]: course_name is required", i)
		}
		if c.Credits < 0 || c.Credits > 100 {
			add("courses[%d]: credits %d out of range 0..100", i, c.Credits)
		}
		if c.HoursPerWeek < 0 || c.HoursPerWeek > 168 {
			add("courses[%d]: hours_per_week %d out of range 0..168", i, c.HoursPerWeek)
		}
		if c.PeriodsPerWeek < 0 || c.PeriodsPerWeek > 200 {
			add("courses[%d]: periods_per_week %d out of range 0..200", i, c.PeriodsPerWeek)
		}
		if c.AbsencePenalty < 0 {
			add("courses[%d]: absence_penalty must not be negative", i)
		}
	}

	studentRefs := make(map[string]struct{}, len(pkg.Students))
	emails := make(map[string]struct{}, len(pkg.Students))
	for i, st := range pkg.Students {
		if st.StudentID == "" {
			add("students[%d]: student_id is required", i)
			continue
		}
		if len(st.StudentID) > 50 || !studentIDPattern.MatchString(st.StudentID) {
			add("students[%d]: student_id %q is not a valid identifier", i, st.StudentID)
		}
		if _, dup := studentRefs[st.StudentID]; dup {
			add("students[%d]: duplicate student_id %q", i, st.StudentID)
		}
		studentRefs[st.StudentID] = struct{}{}
		if st.FirstName == "" || st.LastName == "" {
			add("students[%d]: first_name and last_name are required", i)
		}
		if st.Email == "" {
			add("students[%d]: email is required", i)
		} else if err := s.validate.Var(st.Email, "email"); err != nil {
			add("students[%d]: email %q is invalid", i, st.Email)
		} else {
			if _, dup := emails[st.Email]; dup {
				add("students[%d]: duplicate email %q", i, st.Email)
			}
			emails[st.Email] = struct{}{}
		}
		if st.StudyYear != 0 && (st.StudyYear < 1 || st.StudyYear > 10) {
			add("students[%d]: study_year %d out of range 1..10", i, st.StudyYear)
		}
	}

	checkRefs := func(group string, i int, studentRef, courseRef string) {
		if _, ok := studentRefs[studentRef]; !ok {
			add("%s[%d]: unknown student_id_ref %q", group, i, studentRef)
		}
		if courseRef != "" {
			if _, ok := courseCodes[courseRef]; !ok {
				add("%s[%d]: unknown course_code_ref %q", group, i, courseRef)
			}
		}
	}
	for i, e := range pkg.Enrollments {
		checkRefs("enrollments", i, e.StudentIDRef, e.CourseCodeRef)
	}
	for i, g := range pkg.Grades {
		checkRefs("grades", i, g.StudentIDRef, g.CourseCodeRef)
		if g.MaxGrade <= 0 {
			add("grades[%d]: max_grade must be positive", i)
		}
		if g.Weight < 0 || g.Weight > 100 {
			add("grades[%d]: weight %v out of range 0..100", i, g.Weight)
		}
	}
	for i, a := range pkg.Attendance {
		checkRefs("attendance", i, a.StudentIDRef, a.CourseCodeRef)
		if !models.AttendanceStatus(a.Status).Valid() {
			add("attendance[%d]: unknown status %q", i, a.Status)
		}
	}
	for i, p := range pkg.DailyPerformance {
		checkRefs("daily_performance", i, p.StudentIDRef, p.CourseCodeRef)
		if p.MaxScore <= 0 {
			add("daily_performance[%d]: max_score must be positive", i)
		}
	}
	for i, h := range pkg.Highlights {
		checkRefs("highlights", i, h.StudentIDRef, "")
	}

	return errs
}

func (s *ImportService) applyCourses(ctx context.Context, tx ImportTx, courses []models.SessionCourse, opts models.ImportOptions, summary *models.ImportGroupSummary) (map[string]string, []string) {
	var critical []string
	idByCode := make(map[string]string, len(courses))

	for _, sc := range courses {
		existing, err := tx.FindCourseByCode(ctx, sc.CourseCode)
		if err != nil {
			critical = append(critical, fmt.Sprintf("course %s: %v", sc.CourseCode, err))
			continue
		}
		if existing == nil {
			course := &models.Course{
				CourseCode:       sc.CourseCode,
				CourseName:       sc.CourseName,
				Semester:         sc.Semester,
				Credits:          sc.Credits,
				HoursPerWeek:     sc.HoursPerWeek,
				PeriodsPerWeek:   sc.PeriodsPerWeek,
				EvaluationRules:  sc.EvaluationRules,
				AbsencePenalty:   sc.AbsencePenalty,
				TeachingSchedule: sc.TeachingSchedule,
			}
			if err := tx.InsertCourse(ctx, course); err != nil {
				critical = append(critical, fmt.Sprintf("course %s: %v", sc.CourseCode, err))
				continue
			}
			idByCode[sc.CourseCode] = course.ID
			summary.Created++
			continue
		}

		idByCode[sc.CourseCode] = existing.ID
		wasDeleted := existing.DeletedAt != nil

		if opts.MergeStrategy == models.MergeStrategySkip {
			// Soft-deleted matches come back even under skip.
			if wasDeleted {
				if err := tx.ReactivateCourse(ctx, existing.ID); err != nil {
					critical = append(critical, fmt.Sprintf("course %s: %v", sc.CourseCode, err))
					continue
				}
				s.logger.Info("reactivated course", zap.String("course_code", sc.CourseCode))
			}
			summary.Skipped++
			continue
		}

		existing.CourseName = sc.CourseName
		existing.Semester = sc.Semester
		existing.Credits = sc.Credits
		existing.HoursPerWeek = sc.HoursPerWeek
		existing.PeriodsPerWeek = sc.PeriodsPerWeek
		existing.AbsencePenalty = sc.AbsencePenalty
		existing.TeachingSchedule = sc.TeachingSchedule
		// An empty incoming rule list never blanks existing rules.
		if len(sc.EvaluationRules) > 0 || len(existing.EvaluationRules) == 0 {
			existing.EvaluationRules = sc.EvaluationRules
		}
		if err := tx.UpdateCourse(ctx, existing); err != nil {
			critical = append(critical, fmt.Sprintf("course %s: %v", sc.CourseCode, err))
			continue
		}
		if wasDeleted {
			s.logger.Info("reactivated course", zap.String("course_code", sc.CourseCode))
		}
		summary.Updated++
	}
	return idByCode, critical
}

func (s *ImportService) applyStudents(ctx context.Context, tx ImportTx, students []models.SessionStudent, opts models.ImportOptions, summary *models.ImportGroupSummary) (map[string]string, []string) {
	var critical []string
	idByRef := make(map[string]string, len(students))

	for _, ss := range students {
		existing, err := tx.FindStudentByStudentID(ctx, ss.StudentID)
		if err != nil {
			critical = append(critical, fmt.Sprintf("student %s: %v", ss.StudentID, err))
			continue
		}
		if existing == nil {
			student := &models.Student{
				StudentID: ss.StudentID,
				FirstName: ss.FirstName,
				LastName:  ss.LastName,
				Email:     ss.Email,
				StudyYear: ss.StudyYear,
				Active:    ss.Active,
			}
			if ss.EnrollmentDate != nil {
				student.EnrollmentDate = ss.EnrollmentDate.Time
			}
			if err := tx.InsertStudent(ctx, student); err != nil {
				critical = append(critical, fmt.Sprintf("student %s: %v", ss.StudentID, err))
				continue
			}
			idByRef[ss.StudentID] = student.ID
			summary.Created++
			continue
		}

		idByRef[ss.StudentID] = existing.ID
		wasDeleted := existing.DeletedAt != nil

		if opts.MergeStrategy == models.MergeStrategySkip {
			if wasDeleted {
				if err := tx.ReactivateStudent(ctx, existing.ID); err != nil {
					critical = append(critical, fmt.Sprintf("student %s: %v", ss.StudentID, err))
					continue
				}
				s.logger.Info("reactivated student", zap.String("student_id", ss.StudentID))
			}
			summary.Skipped++
			continue
		}

		existing.FirstName = ss.FirstName
		existing.LastName = ss.LastName
		existing.Email = ss.Email
		existing.StudyYear = ss.StudyYear
		existing.Active = ss.Active
		if ss.EnrollmentDate != nil {
			existing.EnrollmentDate = ss.EnrollmentDate.Time
		}
		if err := tx.UpdateStudent(ctx, existing); err != nil {
			critical = append(critical, fmt.Sprintf("student %s: %v", ss.StudentID, err))
			continue
		}
		if wasDeleted {
			s.logger.Info("reactivated student", zap.String("student_id", ss.StudentID))
		}
		summary.Updated++
	}
	return idByRef, critical
}

func (s *ImportService) applyEnrollments(ctx context.Context, tx ImportTx, enrollments []models.SessionEnrollment, opts models.ImportOptions, studentIDByRef, courseIDByCode map[string]string, summary *models.ImportGroupSummary) {
	addErr := func(format string, args ...interface{}) {
		summary.Errors = append(summary.Errors, fmt.Sprintf(format, args...))
	}
	for _, se := range enrollments {
		studentID, courseID := studentIDByRef[se.StudentIDRef], courseIDByCode[se.CourseCodeRef]
		existing, err := tx.FindEnrollment(ctx, studentID, courseID)
		if err != nil {
			addErr("enrollment %s/%s: %v", se.StudentIDRef, se.CourseCodeRef, err)
			continue
		}
		if existing == nil {
			enrollment := &models.CourseEnrollment{StudentID: studentID, CourseID: courseID}
			if se.EnrolledAt != nil {
				enrollment.EnrolledAt = se.EnrolledAt.Time
			}
			if err := tx.InsertEnrollment(ctx, enrollment); err != nil {
				addErr("enrollment %s/%s: %v", se.StudentIDRef, se.CourseCodeRef, err)
				continue
			}
			summary.Created++
			continue
		}
		if existing.DeletedAt != nil {
			if err := tx.ReactivateEnrollment(ctx, existing.ID); err != nil {
				addErr("enrollment %s/%s: %v", se.StudentIDRef, se.CourseCodeRef, err)
				continue
			}
		}
		if opts.MergeStrategy == models.MergeStrategyUpdate {
			summary.Updated++
		} else {
			summary.Skipped++
		}
	}
}

func (s *ImportService) applyGrades(ctx context.Context, tx ImportTx, grades []models.SessionGrade, opts models.ImportOptions, studentIDByRef, courseIDByCode map[string]string, summary *models.ImportGroupSummary) {
	addErr := func(format string, args ...interface{}) {
		summary.Errors = append(summary.Errors, fmt.Sprintf(format, args...))
	}
	for _, sg := range grades {
		studentID, courseID := studentIDByRef[sg.StudentIDRef], courseIDByCode[sg.CourseCodeRef]
		existing, err := tx.FindGrade(ctx, studentID, courseID, sg.AssignmentName)
		if err != nil {
			addErr("grade %s/%s: %v", sg.StudentIDRef, sg.AssignmentName, err)
			continue
		}
		if existing == nil {
			grade := &models.Grade{
				StudentID:      studentID,
				CourseID:       courseID,
				AssignmentName: sg.AssignmentName,
				Category:       sg.Category,
				Grade:          sg.Grade,
				MaxGrade:       sg.MaxGrade,
				Weight:         sg.Weight,
				DateAssigned:   dateTime(sg.DateAssigned),
				DateSubmitted:  dateTime(sg.DateSubmitted),
			}
			if err := tx.InsertGrade(ctx, grade); err != nil {
				addErr("grade %s/%s: %v", sg.StudentIDRef, sg.AssignmentName, err)
				continue
			}
			summary.Created++
			continue
		}
		if opts.MergeStrategy == models.MergeStrategySkip {
			summary.Skipped++
			continue
		}
		existing.Category = sg.Category
		existing.Grade = sg.Grade
		existing.MaxGrade = sg.MaxGrade
		existing.Weight = sg.Weight
		existing.DateAssigned = dateTime(sg.DateAssigned)
		existing.DateSubmitted = dateTime(sg.DateSubmitted)
		if err := tx.UpdateGrade(ctx, existing); err != nil {
			addErr("grade %s/%s: %v", sg.StudentIDRef, sg.AssignmentName, err)
			continue
		}
		summary.Updated++
	}
}

func (s *ImportService) applyAttendance(ctx context.Context, tx ImportTx, records []models.SessionAttendance, opts models.ImportOptions, studentIDByRef, courseIDByCode map[string]string, summary *models.ImportGroupSummary) {
	addErr := func(format string, args ...interface{}) {
		summary.Errors = append(summary.Errors, fmt.Sprintf(format, args...))
	}
	for _, sa := range records {
		studentID, courseID := studentIDByRef[sa.StudentIDRef], courseIDByCode[sa.CourseCodeRef]
		existing, err := tx.FindAttendance(ctx, studentID, courseID, sa.Date.Time, sa.PeriodNumber)
		if err != nil {
			addErr("attendance %s/%s: %v", sa.StudentIDRef, sa.CourseCodeRef, err)
			continue
		}
		if existing == nil {
			record := &models.Attendance{
				StudentID:    studentID,
				CourseID:     courseID,
				Date:         sa.Date.Time,
				PeriodNumber: sa.PeriodNumber,
				Status:       models.AttendanceStatus(sa.Status),
				Notes:        sa.Notes,
			}
			if err := tx.InsertAttendance(ctx, record); err != nil {
				addErr("attendance %s/%s: %v", sa.StudentIDRef, sa.CourseCodeRef, err)
				continue
			}
			summary.Created++
			continue
		}
		if opts.MergeStrategy == models.MergeStrategySkip {
			summary.Skipped++
			continue
		}
		existing.Status = models.AttendanceStatus(sa.Status)
		existing.Notes = sa.Notes
		if err := tx.UpdateAttendance(ctx, existing); err != nil {
			addErr("attendance %s/%s: %v", sa.StudentIDRef, sa.CourseCodeRef, err)
			continue
		}
		summary.Updated++
	}
}

func (s *ImportService) applyPerformance(ctx context.Context, tx ImportTx, records []models.SessionDailyPerformance, opts models.ImportOptions, studentIDByRef, courseIDByCode map[string]string, summary *models.ImportGroupSummary) {
	addErr := func(format string, args ...interface{}) {
		summary.Errors = append(summary.Errors, fmt.Sprintf(format, args...))
	}
	for _, sp := range records {
		studentID, courseID := studentIDByRef[sp.StudentIDRef], courseIDByCode[sp.CourseCodeRef]
		existing, err := tx.FindPerformance(ctx, studentID, courseID, sp.Date.Time, sp.Category)
		if err != nil {
			addErr("daily_performance %s/%s: %v", sp.StudentIDRef, sp.CourseCodeRef, err)
			continue
		}
		if existing == nil {
			record := &models.DailyPerformance{
				StudentID: studentID,
				CourseID:  courseID,
				Date:      sp.Date.Time,
				Category:  sp.Category,
				Score:     sp.Score,
				MaxScore:  sp.MaxScore,
				Notes:     sp.Notes,
			}
			if err := tx.InsertPerformance(ctx, record); err != nil {
				addErr("daily_performance %s/%s: %v", sp.StudentIDRef, sp.CourseCodeRef, err)
				continue
			}
			summary.Created++
			continue
		}
		if opts.MergeStrategy == models.MergeStrategySkip {
			summary.Skipped++
			continue
		}
		existing.Score = sp.Score
		existing.MaxScore = sp.MaxScore
		existing.Notes = sp.Notes
		if err := tx.UpdatePerformance(ctx, existing); err != nil {
			addErr("daily_performance %s/%s: %v", sp.StudentIDRef, sp.CourseCodeRef, err)
			continue
		}
		summary.Updated++
	}
}

func (s *ImportService) applyHighlights(ctx context.Context, tx ImportTx, highlights []models.SessionHighlight, opts models.ImportOptions, studentIDByRef map[string]string, summary *models.ImportGroupSummary) {
	addErr := func(format string, args ...interface{}) {
		summary.Errors = append(summary.Errors, fmt.Sprintf(format, args...))
	}
	for _, sh := range highlights {
		studentID := studentIDByRef[sh.StudentIDRef]
		existing, err := tx.FindHighlight(ctx, studentID, sh.Semester, sh.Category, sh.Text)
		if err != nil {
			addErr("highlight %s: %v", sh.StudentIDRef, err)
			continue
		}
		if existing == nil {
			highlight := &models.Highlight{
				StudentID:  studentID,
				Semester:   sh.Semester,
				Category:   sh.Category,
				Text:       sh.Text,
				Rating:     sh.Rating,
				IsPositive: sh.IsPositive,
			}
			if err := tx.InsertHighlight(ctx, highlight); err != nil {
				addErr("highlight %s: %v", sh.StudentIDRef, err)
				continue
			}
			summary.Created++
			continue
		}
		if opts.MergeStrategy == models.MergeStrategySkip {
			summary.Skipped++
			continue
		}
		existing.Rating = sh.Rating
		existing.IsPositive = sh.IsPositive
		if err := tx.UpdateHighlight(ctx, existing); err != nil {
			addErr("highlight %s: %v", sh.StudentIDRef, err)
			continue
		}
		summary.Updated++
	}
}

func dateTime(d *models.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

