package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

type fakeImportTx struct {
	courses     map[string]*models.Course
	students    map[string]*models.Student
	enrollments map[string]*models.CourseEnrollment
	grades      map[string]*models.Grade
	attendance  map[string]*models.Attendance
	performance map[string]*models.DailyPerformance
	highlights  map[string]*models.Highlight

	findCourseErr error

	insertedCourses        int
	updatedCourses         []*models.Course
	reactivatedCourses     []string
	insertedStudents       int
	updatedStudents        []*models.Student
	reactivatedStudents    []string
	insertedEnrollments    int
	reactivatedEnrollments []string
	insertedGrades         int
	updatedGrades          int
	insertedAttendance     int
	updatedAttendance      int
	insertedPerformance    int
	updatedPerformance     int
	insertedHighlights     int
	updatedHighlights      int

	commits   int
	rollbacks int
}

func newFakeImportTx() *fakeImportTx {
	return &fakeImportTx{
		courses:     make(map[string]*models.Course),
		students:    make(map[string]*models.Student),
		enrollments: make(map[string]*models.CourseEnrollment),
		grades:      make(map[string]*models.Grade),
		attendance:  make(map[string]*models.Attendance),
		performance: make(map[string]*models.DailyPerformance),
		highlights:  make(map[string]*models.Highlight),
	}
}

func (f *fakeImportTx) FindCourseByCode(_ context.Context, code string) (*models.Course, error) {
	if f.findCourseErr != nil {
		return nil, f.findCourseErr
	}
	return f.courses[code], nil
}

func (f *fakeImportTx) InsertCourse(_ context.Context, course *models.Course) error {
	course.ID = "course-" + course.CourseCode
	f.courses[course.CourseCode] = course
	f.insertedCourses++
	return nil
}

func (f *fakeImportTx) UpdateCourse(_ context.Context, course *models.Course) error {
	f.courses[course.CourseCode] = course
	f.updatedCourses = append(f.updatedCourses, course)
	return nil
}

func (f *fakeImportTx) ReactivateCourse(_ context.Context, id string) error {
	for _, c := range f.courses {
		if c.ID == id {
			c.DeletedAt = nil
		}
	}
	f.reactivatedCourses = append(f.reactivatedCourses, id)
	return nil
}

func (f *fakeImportTx) FindStudentByStudentID(_ context.Context, studentID string) (*models.Student, error) {
	return f.students[studentID], nil
}

func (f *fakeImportTx) InsertStudent(_ context.Context, student *models.Student) error {
	student.ID = "student-" + student.StudentID
	f.students[student.StudentID] = student
	f.insertedStudents++
	return nil
}

func (f *fakeImportTx) UpdateStudent(_ context.Context, student *models.Student) error {
	f.students[student.StudentID] = student
	f.updatedStudents = append(f.updatedStudents, student)
	return nil
}

func (f *fakeImportTx) ReactivateStudent(_ context.Context, id string) error {
	for _, st := range f.students {
		if st.ID == id {
			st.DeletedAt = nil
		}
	}
	f.reactivatedStudents = append(f.reactivatedStudents, id)
	return nil
}

func (f *fakeImportTx) FindEnrollment(_ context.Context, studentID, courseID string) (*models.CourseEnrollment, error) {
	return f.enrollments[studentID+"|"+courseID], nil
}

func (f *fakeImportTx) InsertEnrollment(_ context.Context, enrollment *models.CourseEnrollment) error {
	enrollment.ID = fmt.Sprintf("enrollment-%d", f.insertedEnrollments)
	f.enrollments[enrollment.StudentID+"|"+enrollment.CourseID] = enrollment
	f.insertedEnrollments++
	return nil
}

func (f *fakeImportTx) ReactivateEnrollment(_ context.Context, id string) error {
	for _, e := range f.enrollments {
		if e.ID == id {
			e.DeletedAt = nil
		}
	}
	f.reactivatedEnrollments = append(f.reactivatedEnrollments, id)
	return nil
}

func (f *fakeImportTx) FindGrade(_ context.Context, studentID, courseID, assignmentName string) (*models.Grade, error) {
	return f.grades[studentID+"|"+courseID+"|"+assignmentName], nil
}

func (f *fakeImportTx) InsertGrade(_ context.Context, grade *models.Grade) error {
	f.grades[grade.StudentID+"|"+grade.CourseID+"|"+grade.AssignmentName] = grade
	f.insertedGrades++
	return nil
}

func (f *fakeImportTx) UpdateGrade(_ context.Context, _ *models.Grade) error {
	f.updatedGrades++
	return nil
}

func (f *fakeImportTx) FindAttendance(_ context.Context, studentID, courseID string, date time.Time, periodNumber int) (*models.Attendance, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", studentID, courseID, date.Format("2006-01-02"), periodNumber)
	return f.attendance[key], nil
}

func (f *fakeImportTx) InsertAttendance(_ context.Context, record *models.Attendance) error {
	key := fmt.Sprintf("%s|%s|%s|%d", record.StudentID, record.CourseID, record.Date.Format("2006-01-02"), record.PeriodNumber)
	f.attendance[key] = record
	f.insertedAttendance++
	return nil
}

func (f *fakeImportTx) UpdateAttendance(_ context.Context, _ *models.Attendance) error {
	f.updatedAttendance++
	return nil
}

func (f *fakeImportTx) FindPerformance(_ context.Context, studentID, courseID string, date time.Time, category string) (*models.DailyPerformance, error) {
	key := fmt.Sprintf("%s|%s|%s|%s", studentID, courseID, date.Format("2006-01-02"), category)
	return f.performance[key], nil
}

func (f *fakeImportTx) InsertPerformance(_ context.Context, record *models.DailyPerformance) error {
	key := fmt.Sprintf("%s|%s|%s|%s", record.StudentID, record.CourseID, record.Date.Format("2006-01-02"), record.Category)
	f.performance[key] = record
	f.insertedPerformance++
	return nil
}

func (f *fakeImportTx) UpdatePerformance(_ context.Context, _ *models.DailyPerformance) error {
	f.updatedPerformance++
	return nil
}

func (f *fakeImportTx) FindHighlight(_ context.Context, studentID, semester, category, text string) (*models.Highlight, error) {
	return f.highlights[studentID+"|"+semester+"|"+category+"|"+text], nil
}

func (f *fakeImportTx) InsertHighlight(_ context.Context, highlight *models.Highlight) error {
	f.highlights[highlight.StudentID+"|"+highlight.Semester+"|"+highlight.Category+"|"+highlight.Text] = highlight
	f.insertedHighlights++
	return nil
}

func (f *fakeImportTx) UpdateHighlight(_ context.Context, _ *models.Highlight) error {
	f.updatedHighlights++
	return nil
}

func (f *fakeImportTx) Commit() error {
	f.commits++
	return nil
}

func (f *fakeImportTx) Rollback() error {
	f.rollbacks++
	return nil
}

type fakeImportStore struct {
	tx         *fakeImportTx
	beginCalls int
	beginErr   error
}

func (f *fakeImportStore) Begin(_ context.Context) (ImportTx, error) {
	f.beginCalls++
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

type fakeBackupSink struct {
	path  string
	err   error
	calls int
}

func (f *fakeBackupSink) CreatePreImport(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func validSessionPackage() *models.SessionPackage {
	day := models.NewDate(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	return &models.SessionPackage{
		Metadata: models.SessionMetadata{
			Semester: "2025-Spring",
			Version:  models.SessionPackageVersion,
		},
		Courses: []models.SessionCourse{{
			CourseCode: "MATH101",
			CourseName: "Mathematics",
			Semester:   "2025-Spring",
			Credits:    5,
			EvaluationRules: models.EvaluationRules{
				{Category: "homework", Weight: 40},
				{Category: "final", Weight: 60},
			},
		}},
		Students: []models.SessionStudent{{
			StudentID: "S001",
			FirstName: "Maria",
			LastName:  "Papadimitriou",
			Email:     "maria@example.edu",
			StudyYear: 2,
			Active:    true,
		}},
		Enrollments: []models.SessionEnrollment{{
			StudentIDRef:  "S001",
			CourseCodeRef: "MATH101",
			EnrolledAt:    &day,
		}},
		Grades: []models.SessionGrade{{
			StudentIDRef:   "S001",
			CourseCodeRef:  "MATH101",
			AssignmentName: "HW 1",
			Category:       "homework",
			Grade:          85,
			MaxGrade:       100,
			Weight:         100,
			DateSubmitted:  &day,
		}},
		Attendance: []models.SessionAttendance{{
			StudentIDRef:  "S001",
			CourseCodeRef: "MATH101",
			Date:          day,
			PeriodNumber:  1,
			Status:        "Present",
		}},
		DailyPerformance: []models.SessionDailyPerformance{{
			StudentIDRef:  "S001",
			CourseCodeRef: "MATH101",
			Date:          day,
			Category:      "participation",
			Score:         8,
			MaxScore:      10,
		}},
		Highlights: []models.SessionHighlight{{
			StudentIDRef: "S001",
			Semester:     "2025-Spring",
			Category:     "academic",
			Text:         "Excellent problem solving",
			Rating:       5,
			IsPositive:   true,
		}},
	}
}

func newImportFixture() (*ImportService, *fakeImportStore, *fakeBackupSink) {
	store := &fakeImportStore{tx: newFakeImportTx()}
	sink := &fakeBackupSink{path: "pre_import_backup_2025-Spring_20250310_080000.backup"}
	svc := NewImportService(store, sink, nil, nil, zap.NewNop(), 20, 10)
	return svc, store, sink
}

func TestImportRejectsUnknownMergeStrategy(t *testing.T) {
	svc, store, sink := newImportFixture()

	_, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{MergeStrategy: "merge"})

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrImportInvalidRequest.Code, appErr.Code)
	assert.Zero(t, store.beginCalls)
	assert.Zero(t, sink.calls)
}

func TestImportAcceptsWiderStudyYearRange(t *testing.T) {
	for year := 5; year <= 10; year++ {
		svc, _, _ := newImportFixture()
		pkg := validSessionPackage()
		pkg.Students[0].StudyYear = year

		result, err := svc.Import(context.Background(), pkg, models.ImportOptions{DryRun: true})

		require.NoError(t, err, "study_year %d", year)
		assert.True(t, result.ValidationPassed, "study_year %d", year)
	}
}

func TestImportRejectsStudyYearAboveTen(t *testing.T) {
	svc, store, _ := newImportFixture()
	pkg := validSessionPackage()
	pkg.Students[0].StudyYear = 11

	result, err := svc.Import(context.Background(), pkg, models.ImportOptions{})

	require.ErrorIs(t, err, appErrors.ErrImportInvalidRequest)
	require.Len(t, result.ValidationErrors, 1)
	assert.Contains(t, result.ValidationErrors[0], "study_year 11 out of range 1..10")
	assert.Zero(t, store.beginCalls)
}

func TestImportValidationFailureWritesNothing(t *testing.T) {
	svc, store, sink := newImportFixture()

	pkg := validSessionPackage()
	pkg.Students[0].Email = "not-an-email"
	pkg.Grades[0].StudentIDRef = "GHOST"
	pkg.Grades[0].MaxGrade = 0

	result, err := svc.Import(context.Background(), pkg, models.ImportOptions{})

	require.ErrorIs(t, err, appErrors.ErrImportInvalidRequest)
	require.NotNil(t, result)
	assert.False(t, result.ValidationPassed)
	assert.Len(t, result.ValidationErrors, 3)
	assert.Zero(t, store.beginCalls)
	assert.Zero(t, sink.calls)
	assert.False(t, result.BackupCreated)
}

func TestImportValidationErrorsAreCapped(t *testing.T) {
	svc, _, _ := newImportFixture()

	pkg := validSessionPackage()
	pkg.Students = nil
	for i := 0; i < 30; i++ {
		pkg.Highlights = append(pkg.Highlights, models.SessionHighlight{StudentIDRef: fmt.Sprintf("GHOST%d", i)})
	}

	result, err := svc.Import(context.Background(), pkg, models.ImportOptions{})

	require.ErrorIs(t, err, appErrors.ErrImportInvalidRequest)
	assert.Len(t, result.ValidationErrors, 20)
}

func TestImportDryRunStopsAfterValidation(t *testing.T) {
	svc, store, sink := newImportFixture()

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.DryRun)
	assert.True(t, result.ValidationPassed)
	assert.Equal(t, 1, result.Counts["courses"])
	assert.Equal(t, 1, result.Counts["grades"])
	assert.Zero(t, store.beginCalls)
	assert.Zero(t, sink.calls)
}

func TestImportCreatesAllEntityGroups(t *testing.T) {
	svc, store, sink := newImportFixture()

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.BackupCreated)
	assert.True(t, result.RollbackAvailable)
	assert.Equal(t, sink.path, result.BackupPath)
	assert.Equal(t, 1, store.tx.commits)

	for _, group := range []string{"courses", "students", "enrollments", "grades", "attendance", "daily_performance", "highlights"} {
		assert.Equal(t, 1, result.Summary[group].Created, group)
		assert.Zero(t, result.Summary[group].Updated, group)
	}

	grade := store.tx.grades["student-S001|course-MATH101|HW 1"]
	require.NotNil(t, grade, "grade rows resolve natural keys to store ids")
	assert.Equal(t, "student-S001", grade.StudentID)
	assert.Equal(t, "course-MATH101", grade.CourseID)
}

func TestImportSkipStrategyIsIdempotent(t *testing.T) {
	svc, store, _ := newImportFixture()

	// First pass seeds the store, second pass with skip must change nothing.
	_, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{})
	require.NoError(t, err)

	tx := store.tx
	insertsBefore := tx.insertedCourses + tx.insertedStudents + tx.insertedEnrollments +
		tx.insertedGrades + tx.insertedAttendance + tx.insertedPerformance + tx.insertedHighlights

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{MergeStrategy: models.MergeStrategySkip})
	require.NoError(t, err)

	insertsAfter := tx.insertedCourses + tx.insertedStudents + tx.insertedEnrollments +
		tx.insertedGrades + tx.insertedAttendance + tx.insertedPerformance + tx.insertedHighlights
	assert.Equal(t, insertsBefore, insertsAfter)
	assert.Empty(t, tx.updatedCourses)
	assert.Empty(t, tx.updatedStudents)
	for _, group := range []string{"courses", "students", "enrollments", "grades", "attendance", "daily_performance", "highlights"} {
		assert.Zero(t, result.Summary[group].Created, group)
		assert.Equal(t, 1, result.Summary[group].Skipped, group)
	}
}

func TestImportSkipStillReactivatesSoftDeleted(t *testing.T) {
	svc, store, _ := newImportFixture()

	deletedAt := time.Now()
	store.tx.courses["MATH101"] = &models.Course{ID: "course-MATH101", CourseCode: "MATH101", DeletedAt: &deletedAt}
	store.tx.students["S001"] = &models.Student{ID: "student-S001", StudentID: "S001", DeletedAt: &deletedAt}

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{MergeStrategy: models.MergeStrategySkip})

	require.NoError(t, err)
	assert.Equal(t, []string{"course-MATH101"}, store.tx.reactivatedCourses)
	assert.Equal(t, []string{"student-S001"}, store.tx.reactivatedStudents)
	assert.Equal(t, 1, result.Summary["courses"].Skipped)
	assert.Equal(t, 1, result.Summary["students"].Skipped)
}

func TestImportUpdateKeepsExistingRulesWhenIncomingEmpty(t *testing.T) {
	svc, store, _ := newImportFixture()

	existingRules := models.EvaluationRules{{Category: "final", Weight: 100}}
	store.tx.courses["MATH101"] = &models.Course{
		ID:              "course-MATH101",
		CourseCode:      "MATH101",
		EvaluationRules: existingRules,
	}

	pkg := validSessionPackage()
	pkg.Courses[0].EvaluationRules = nil

	_, err := svc.Import(context.Background(), pkg, models.ImportOptions{})

	require.NoError(t, err)
	require.Len(t, store.tx.updatedCourses, 1)
	assert.Equal(t, existingRules, store.tx.updatedCourses[0].EvaluationRules)
}

func TestImportUpdateReplacesRulesWhenIncomingPresent(t *testing.T) {
	svc, store, _ := newImportFixture()

	store.tx.courses["MATH101"] = &models.Course{
		ID:              "course-MATH101",
		CourseCode:      "MATH101",
		EvaluationRules: models.EvaluationRules{{Category: "final", Weight: 100}},
	}

	_, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{})

	require.NoError(t, err)
	require.Len(t, store.tx.updatedCourses, 1)
	assert.Len(t, store.tx.updatedCourses[0].EvaluationRules, 2)
}

func TestImportCriticalErrorRollsBackWholePackage(t *testing.T) {
	svc, store, _ := newImportFixture()
	store.tx.findCourseErr = errors.New("connection reset")

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{})

	require.ErrorIs(t, err, appErrors.ErrImportProcessingFailed)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.CriticalErrors)
	assert.Zero(t, store.tx.commits)
	assert.GreaterOrEqual(t, store.tx.rollbacks, 1)
	assert.True(t, result.RollbackAvailable)
	// No child rows land once parents fail.
	assert.Zero(t, store.tx.insertedGrades)
	assert.Zero(t, store.tx.insertedEnrollments)
}

func TestImportBackupFailureIsNotFatal(t *testing.T) {
	store := &fakeImportStore{tx: newFakeImportTx()}
	sink := &fakeBackupSink{err: errors.New("disk full")}
	svc := NewImportService(store, sink, nil, nil, zap.NewNop(), 20, 10)

	result, err := svc.Import(context.Background(), validSessionPackage(), models.ImportOptions{})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.BackupCreated)
	assert.False(t, result.RollbackAvailable)
}
