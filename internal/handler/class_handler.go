package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/models"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
	"github.com/noah-isme/village-api/pkg/response"
)

type classService interface {
	ListClasses(ctx context.Context) ([]models.SnapshotInfo, error)
	ExportSnapshot(ctx context.Context, classID string) (*models.Snapshot, error)
	ImportSnapshot(ctx context.Context, classID string, snap *models.Snapshot) (*models.Snapshot, error)
	GetSettings(ctx context.Context, classID string) (*models.Settings, error)
	UpdateSettings(ctx context.Context, classID string, settings models.Settings) (*models.Settings, error)
	FormatCurrency(ctx context.Context, classID string, points int64) (currency.Breakdown, error)
}

// ClassHandler exposes whole-class state: snapshots, settings and currency display.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs the handler.
func NewClassHandler(service classService) *ClassHandler {
	return &ClassHandler{service: service}
}

// List godoc
// @Summary List stored classes
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.service.ListClasses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, classes)
}

// ExportSnapshot godoc
// @Summary Export the full class snapshot
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/snapshot [get]
func (h *ClassHandler) ExportSnapshot(c *gin.Context) {
	snap, err := h.service.ExportSnapshot(c.Request.Context(), classIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// ImportSnapshot godoc
// @Summary Replace the class with an uploaded snapshot
// @Tags Classes
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.Snapshot true "Snapshot"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/snapshot [put]
func (h *ClassHandler) ImportSnapshot(c *gin.Context) {
	var snap models.Snapshot
	if !bindJSON(c, &snap) {
		return
	}
	imported, err := h.service.ImportSnapshot(c.Request.Context(), classIDParam(c), &snap)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, imported)
}

// GetSettings godoc
// @Summary Class settings
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/settings [get]
func (h *ClassHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context(), classIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings godoc
// @Summary Replace class settings
// @Tags Classes
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.Settings true "Settings"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/settings [put]
func (h *ClassHandler) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if !bindJSON(c, &settings) {
		return
	}
	updated, err := h.service.UpdateSettings(c.Request.Context(), classIDParam(c), settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// Currency godoc
// @Summary Format points as cookies, fish and points
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Param points query int true "Point total"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/currency [get]
func (h *ClassHandler) Currency(c *gin.Context) {
	points, err := strconv.ParseInt(strings.TrimSpace(c.Query("points")), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "points must be an integer"))
		return
	}
	breakdown, err := h.service.FormatCurrency(c.Request.Context(), classIDParam(c), points)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown)
}
