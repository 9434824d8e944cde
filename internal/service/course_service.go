package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openscholia/sms-api/internal/models"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
)

// CourseStore is the persistence surface for course CRUD.
type CourseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SoftDelete(ctx context.Context, id string) error
}

// CreateCourseRequest is the payload for registering a course.
type CreateCourseRequest struct {
	CourseCode       string                  `json:"course_code" validate:"required,max=50"`
	CourseName       string                  `json:"course_name" validate:"required,max=200"`
	Semester         string                  `json:"semester" validate:"required,max=50"`
	Credits          int                     `json:"credits" validate:"min=0,max=100"`
	HoursPerWeek     int                     `json:"hours_per_week" validate:"min=0,max=168"`
	PeriodsPerWeek   int                     `json:"periods_per_week" validate:"min=0,max=200"`
	EvaluationRules  models.EvaluationRules  `json:"evaluation_rules"`
	AbsencePenalty   float64                 `json:"absence_penalty" validate:"min=0"`
	TeachingSchedule models.TeachingSchedule `json:"teaching_schedule"`
}

// UpdateCourseRequest is the payload for editing a course. Nil fields are
// left untouched.
type UpdateCourseRequest struct {
	CourseName       *string                  `json:"course_name" validate:"omitempty,max=200"`
	Semester         *string                  `json:"semester" validate:"omitempty,max=50"`
	Credits          *int                     `json:"credits" validate:"omitempty,min=0,max=100"`
	HoursPerWeek     *int                     `json:"hours_per_week" validate:"omitempty,min=0,max=168"`
	PeriodsPerWeek   *int                     `json:"periods_per_week" validate:"omitempty,min=0,max=200"`
	EvaluationRules  *models.EvaluationRules  `json:"evaluation_rules"`
	AbsencePenalty   *float64                 `json:"absence_penalty" validate:"omitempty,min=0"`
	TeachingSchedule *models.TeachingSchedule `json:"teaching_schedule"`
}

// CourseService provides course CRUD including evaluation rule upkeep.
type CourseService struct {
	repo     CourseStore
	cache    *CacheService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCourseService constructs a course service.
func NewCourseService(repo CourseStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validate: validate, logger: logger}
}

// List returns a course page with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, map[string]interface{}, error) {
	courses, total, err := s.repo.List(ctx, filter)
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
	return courses, meta, nil
}

// Get returns one course by internal id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}
	return course, nil
}

// Create registers a course after uniqueness checks on the course code.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := validateEvaluationRules(req.EvaluationRules); err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindByCode(ctx, req.CourseCode); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course_code %q already exists", req.CourseCode))
	}

	course := &models.Course{
		CourseCode:       req.CourseCode,
		CourseName:       req.CourseName,
		Semester:         req.Semester,
		Credits:          req.Credits,
		HoursPerWeek:     req.HoursPerWeek,
		PeriodsPerWeek:   req.PeriodsPerWeek,
		EvaluationRules:  req.EvaluationRules,
		AbsencePenalty:   req.AbsencePenalty,
		TeachingSchedule: req.TeachingSchedule,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return course, nil
}

// Update edits the course, leaving absent fields untouched.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, appErrors.ErrCourseNotFound)
	}

	if req.CourseName != nil {
		course.CourseName = *req.CourseName
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.HoursPerWeek != nil {
		course.HoursPerWeek = *req.HoursPerWeek
	}
	if req.PeriodsPerWeek != nil {
		course.PeriodsPerWeek = *req.PeriodsPerWeek
	}
	if req.EvaluationRules != nil {
		if err := validateEvaluationRules(*req.EvaluationRules); err != nil {
			return nil, err
		}
		course.EvaluationRules = *req.EvaluationRules
	}
	if req.AbsencePenalty != nil {
		course.AbsencePenalty = *req.AbsencePenalty
	}
	if req.TeachingSchedule != nil {
		course.TeachingSchedule = *req.TeachingSchedule
	}
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return course, nil
}

// Delete soft-deletes the course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return mapLookupErr(err, appErrors.ErrCourseNotFound)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *CourseService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
		s.logger.Warn("invalidate analytics cache", zap.Error(err))
	}
}

func validateEvaluationRules(rules models.EvaluationRules) error {
	for i, rule := range rules {
		if rule.Category == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evaluation_rules[%d]: category is required", i))
		}
		if rule.Weight < 0 || rule.Weight > 100 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evaluation_rules[%d]: weight %v out of range 0..100", i, rule.Weight))
		}
		if rule.DailyPerformanceMultiplier != nil && *rule.DailyPerformanceMultiplier < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evaluation_rules[%d]: multiplier must not be negative", i))
		}
	}
	return nil
}
