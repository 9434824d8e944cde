package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openscholia/sms-api/internal/models"
	"github.com/openscholia/sms-api/internal/service"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/response"
)

// SessionHandler exposes the semester export and import endpoints.
type SessionHandler struct {
	exports *service.ExportService
	imports *service.ImportService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(exports *service.ExportService, imports *service.ImportService) *SessionHandler {
	return &SessionHandler{exports: exports, imports: imports}
}

// Export serializes one semester into a downloadable session package.
func (h *SessionHandler) Export(c *gin.Context) {
	semester := c.Query("semester")
	if semester == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester query parameter is required"))
		return
	}

	pkg, err := h.exports.Export(c.Request.Context(), semester)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "serialize session package"))
		return
	}

	filename := service.ExportFilename(semester, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", payload)
}

type importRequest struct {
	Package       json.RawMessage `json:"package"`
	MergeStrategy string          `json:"merge_strategy"`
	DryRun        bool            `json:"dry_run"`
}

// Import runs the session import pipeline over an uploaded package.
func (h *SessionHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrImportInvalidJSON, "request body is not valid JSON"))
		return
	}
	if len(req.Package) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrImportInvalidRequest, "package is required"))
		return
	}

	var pkg models.SessionPackage
	if err := json.Unmarshal(req.Package, &pkg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportInvalidJSON.Code, appErrors.ErrImportInvalidJSON.Status, "package is not a valid session package"))
		return
	}

	strategy := req.MergeStrategy
	if strategy == "" {
		strategy = c.Query("merge_strategy")
	}
	opts := models.ImportOptions{
		MergeStrategy: strategy,
		DryRun:        req.DryRun || c.Query("dry_run") == "true",
	}

	result, err := h.imports.Import(c.Request.Context(), &pkg, opts)
	if err != nil {
		if result != nil {
			response.Error(c, err, map[string]interface{}{"result": result})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
