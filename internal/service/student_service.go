package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// StudentStore is the persistence surface for student CRUD.
type StudentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	StudentID      string       `json:"student_id" validate:"required,max=50"`
	FirstName      string       `json:"first_name" validate:"required,max=100"`
	LastName       string       `json:"last_name" validate:"required,max=100"`
	Email          string       `json:"email" validate:"required,email"`
	EnrollmentDate *models.Date `json:"enrollment_date"`
	StudyYear      int          `json:"study_year" validate:"omitempty,min=1,max=4"`
	Active         *bool        `json:"is_active"`
}

// UpdateStudentRequest is the payload for editing a student. Nil fields are
// left untouched.
type UpdateStudentRequest struct {
	FirstName *string      `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=100"`
	Email     *string      `json:"email" validate:"omitempty,email"`
	StudyYear *int         `json:"study_year" validate:"omitempty,min=1,max=4"`
	Active    *bool        `json:"is_active"`
	Enrolled  *models.Date `json:"enrollment_date"`
}

// StudentService provides student CRUD on top of the soft-delete scoped
// repository.
type StudentService struct {
	repo     StudentStore
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService constructs a student service.
func NewStudentService(repo StudentStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validate: validate, logger: logger}
}

// List returns a student page with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, map[string]interface{}, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	meta := map[string]interface{}{
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	}
	return students, meta, nil
}

// Get returns one student by internal id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}
	return student, nil
}

// Create registers a student after uniqueness checks on the external id.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !studentIDPattern.MatchString(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student_id %q is not a valid identifier", req.StudentID))
	}
	if existing, err := s.repo.FindByStudentID(ctx, req.StudentID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student_id %q already exists", req.StudentID))
	}

	student := &models.Student{
		StudentID: req.StudentID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		StudyYear: req.StudyYear,
		Active:    true,
	}
	if req.Active != nil {
		student.Active = *req.Active
	}
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = req.EnrollmentDate.Time
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return student, nil
}

// Update edits the student, leaving absent fields untouched.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, appErrors.ErrStudentNotFound)
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.StudyYear != nil {
		student.StudyYear = *req.StudyYear
	}
	if req.Active != nil {
		student.Active = *req.Active
	}
	if req.Enrolled != nil {
		student.EnrollmentDate = req.Enrolled.Time
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return student, nil
}

// Delete soft-deletes the student. Historical rows stay in place for
// analytics over other students.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return mapLookupErr(err, appErrors.ErrStudentNotFound)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *StudentService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
		s.logger.Warn("invalidate analytics cache", zap.Error(err))
	}
}
