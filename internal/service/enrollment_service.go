package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// EnrollmentStore is the enrollment access the service needs.
type EnrollmentStore interface {
	Find(ctx context.Context, studentID, courseID string) (*models.CourseEnrollment, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
	CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// EnrollStudentRequest links a student to a course.
type EnrollStudentRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// EnrollmentService manages the student/course link records.
type EnrollmentService struct {
	repo     EnrollmentStore
	students GradebookStudentRepository
	courses  SummaryCourseRepository
	lookup   GradebookCourseRepository
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewEnrollmentService constructs an enrollment service.
func NewEnrollmentService(repo EnrollmentStore, students GradebookStudentRepository, courses SummaryCourseRepository, lookup GradebookCourseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:     repo,
		students: students,
		courses:  courses,
		lookup:   lookup,
		cache:    cache,
		validate: validate,
		logger:   logger,
	}
}

// ListForStudent returns the courses the student is enrolled in.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}
	courseIDs, err := s.repo.CourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if len(courseIDs) == 0 {
		return []models.Course{}, nil
	}
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("load enrolled courses: %w", err)
	}
	return courses, nil
}

// Get returns one enrollment by its student/course pair.
func (s *EnrollmentService) Get(ctx context.Context, studentID, courseID string) (*models.CourseEnrollment, error) {
	enrollment, err := s.repo.Find(ctx, studentID, courseID)
	if err != nil {
		return nil, mapLookupErr(err, appErrors.ErrEnrollmentNotFound)
	}
	return enrollment, nil
}

// Enroll links the student to the course. Enrolling twice is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req EnrollStudentRequest) (*models.CourseEnrollment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}
	if _, err := s.lookup.FindByID(ctx, req.CourseID); err != nil {
		return nil, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}

	if _, err := s.repo.Find(ctx, studentID, req.CourseID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}

	enrollment := &models.CourseEnrollment{StudentID: studentID, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
			s.logger.Warn("invalidate analytics cache", zap.Error(err))
		}
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", studentID),
		zap.String("course_id", req.CourseID))
	return enrollment, nil
}
