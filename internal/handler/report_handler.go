package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openscholia/sms-api/internal/service"
	"github.com/openscholia/sms-api/pkg/response"
)

// ReportHandler renders downloadable transcript and comparison reports.
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Transcript streams a per-student transcript in the requested format.
func (h *ReportHandler) Transcript(c *gin.Context) {
	report, err := h.reports.StudentTranscript(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeReport(c, report)
}

// Comparison streams a course-wide ranking report in the requested format.
func (h *ReportHandler) Comparison(c *gin.Context) {
	report, err := h.reports.CourseComparison(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeReport(c, report)
}

func writeReport(c *gin.Context, report *service.RenderedReport) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
