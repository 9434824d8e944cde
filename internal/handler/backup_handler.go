package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openscholia/sms-api/internal/service"
	appErrors "github.com/openscholia/sms-api/pkg/errors"
	"github.com/openscholia/sms-api/pkg/response"
)

// BackupHandler exposes backup listing and rollback endpoints.
type BackupHandler struct {
	backups *service.BackupService
}

func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// List returns the available backup artifacts, newest first.
func (h *BackupHandler) List(c *gin.Context) {
	files, err := h.backups.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, map[string]interface{}{"total": len(files)})
}

type rollbackRequest struct {
	Filename string `json:"filename"`
}

// Rollback restores the database from a named backup artifact.
func (h *BackupHandler) Rollback(c *gin.Context) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "request body is not valid JSON"))
		return
	}
	if req.Filename == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filename is required"))
		return
	}

	result, err := h.backups.Rollback(c.Request.Context(), req.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
