package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/pkg/response"
)

type backupService interface {
	Upload(ctx context.Context, classID string) (*dto.BackupResult, error)
	Download(ctx context.Context, classID string) (*dto.BackupResult, error)
}

// BackupHandler triggers remote backup transfers.
type BackupHandler struct {
	service backupService
}

// NewBackupHandler constructs the handler.
func NewBackupHandler(service backupService) *BackupHandler {
	return &BackupHandler{service: service}
}

// Upload godoc
// @Summary Push the class snapshot to the backup endpoint
// @Tags Backup
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /classes/{classId}/backup/upload [post]
func (h *BackupHandler) Upload(c *gin.Context) {
	result, err := h.service.Upload(c.Request.Context(), classIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Download godoc
// @Summary Replace the class with its remote backup
// @Tags Backup
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /classes/{classId}/backup/download [post]
func (h *BackupHandler) Download(c *gin.Context) {
	result, err := h.service.Download(c.Request.Context(), classIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
