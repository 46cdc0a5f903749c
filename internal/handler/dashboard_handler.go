package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/middleware"
	"github.com/noah-isme/village-api/internal/service"
	"github.com/noah-isme/village-api/pkg/response"
)

type dashboardService interface {
	Dashboard(ctx context.Context, classID, date string) (*dto.DashboardResponse, bool, error)
	Tasks(ctx context.Context, classID, by, date string) (*dto.TaskListResponse, error)
}

// DashboardHandler wires the class views to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Dashboard godoc
// @Summary Class dashboard for a day
// @Tags Dashboard
// @Produce json
// @Param classId path string true "Class ID"
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	start := time.Now()
	summary, cacheHit, err := h.service.Dashboard(c.Request.Context(), classIDParam(c), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.OK(c, summary, meta)
}

// Tasks godoc
// @Summary Tasks due on, or created on, a day
// @Tags Tasks
// @Produce json
// @Param classId path string true "Class ID"
// @Param due query string false "Due date (YYYY-MM-DD)"
// @Param created query string false "Creation date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/tasks [get]
func (h *DashboardHandler) Tasks(c *gin.Context) {
	by, date := service.TasksByDue, c.Query("due")
	if created, ok := c.GetQuery("created"); ok {
		by, date = service.TasksByCreated, created
	}
	tasks, err := h.service.Tasks(c.Request.Context(), classIDParam(c), by, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}
