package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

type mockEnrollmentStore struct {
	existing  *models.CourseEnrollment
	courseIDs []string
	created   []*models.CourseEnrollment
	findCalls int
}

func (m *mockEnrollmentStore) Find(_ context.Context, _, _ string) (*models.CourseEnrollment, error) {
	m.findCalls++
	if m.existing == nil {
		return nil, sql.ErrNoRows
	}
	return m.existing, nil
}

func (m *mockEnrollmentStore) Create(_ context.Context, enrollment *models.CourseEnrollment) error {
	m.created = append(m.created, enrollment)
	return nil
}

func (m *mockEnrollmentStore) CourseIDsByStudent(_ context.Context, _ string) ([]string, error) {
	return m.courseIDs, nil
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentStore) {
	store := &mockEnrollmentStore{}
	students := &mockSummaryStudents{student: &models.Student{ID: "s-1", StudentID: "S001"}}
	courses := &mockSummaryCourses{courses: []models.Course{{ID: "c-1", CourseCode: "MATH101"}}}
	lookup := &mockComparisonCourses{course: &models.Course{ID: "c-1", CourseCode: "MATH101"}}
	svc := NewEnrollmentService(store, students, courses, lookup, nil, nil, nil)
	return svc, store
}

func TestEnrollmentGetUnknownPair(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.Get(context.Background(), "s-1", "c-9")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, appErr.Code)
}

func TestEnrollmentEnrollCreatesLink(t *testing.T) {
	svc, store := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), "s-1", EnrollStudentRequest{CourseID: "c-1"})

	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "s-1", enrollment.StudentID)
	assert.Equal(t, "c-1", enrollment.CourseID)
}

func TestEnrollmentEnrollTwiceIsConflict(t *testing.T) {
	svc, store := newEnrollmentFixture()
	store.existing = &models.CourseEnrollment{ID: "e-1", StudentID: "s-1", CourseID: "c-1"}

	_, err := svc.Enroll(context.Background(), "s-1", EnrollStudentRequest{CourseID: "c-1"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, store.created)
}

func TestEnrollmentEnrollUnknownCourse(t *testing.T) {
	store := &mockEnrollmentStore{}
	students := &mockSummaryStudents{student: &models.Student{ID: "s-1"}}
	svc := NewEnrollmentService(store, students, &mockSummaryCourses{}, &mockComparisonCourses{}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "s-1", EnrollStudentRequest{CourseID: "c-9"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErr.Code)
	assert.Zero(t, store.findCalls)
}

func TestEnrollmentEnrollValidatesPayload(t *testing.T) {
	svc, store := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), "s-1", EnrollStudentRequest{})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.created)
}

func TestEnrollmentListForStudent(t *testing.T) {
	svc, store := newEnrollmentFixture()
	store.courseIDs = []string{"c-1"}

	courses, err := svc.ListForStudent(context.Background(), "s-1")

	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "MATH101", courses[0].CourseCode)
}

func TestEnrollmentListUnknownStudent(t *testing.T) {
	store := &mockEnrollmentStore{courseIDs: []string{"c-1"}}
	svc := NewEnrollmentService(store, &mockSummaryStudents{}, &mockSummaryCourses{}, &mockComparisonCourses{}, nil, nil, nil)

	_, err := svc.ListForStudent(context.Background(), "ghost")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, appErr.Code)
}
