package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openscholia/sms-api/internal/middleware"
	"github.com/openscholia/sms-api/internal/service"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/response"
)

// AnalyticsHandler exposes the analytics read endpoints. All of them are
// cache-aside; the response meta flags whether the payload came from cache.
type AnalyticsHandler struct {
	gradebook   *service.GradebookService
	summaries   *service.SummaryService
	analytics   *service.AnalyticsService
	comparisons *service.ComparisonService
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(gradebook *service.GradebookService, summaries *service.SummaryService, analytics *service.AnalyticsService, comparisons *service.ComparisonService) *AnalyticsHandler {
	return &AnalyticsHandler{gradebook: gradebook, summaries: summaries, analytics: analytics, comparisons: comparisons}
}

// FinalGrade computes the weighted final grade for one student in one course.
func (h *AnalyticsHandler) FinalGrade(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id query parameter is required"))
		return
	}
	result, hit, err := h.gradebook.FinalGrade(c.Request.Context(), c.Param("id"), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Summary returns the student's transcript roll-up.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, hit, err := h.summaries.StudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// Performance returns per-course averages within a lookback window.
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	daysBack, _ := strconv.Atoi(c.DefaultQuery("days_back", "30"))
	report, hit, err := h.analytics.Performance(c.Request.Context(), c.Param("id"), daysBack)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Trends returns the recent grade series with its direction label.
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	report, hit, err := h.analytics.Trends(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Comparison ranks the students of a course.
func (h *AnalyticsHandler) Comparison(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	report, hit, err := h.comparisons.StudentsComparison(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Distribution buckets a course's grade percentages.
func (h *AnalyticsHandler) Distribution(c *gin.Context) {
	report, hit, err := h.comparisons.GradeDistribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}
