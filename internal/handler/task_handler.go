package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/response"
)

type taskService interface {
	AddTask(ctx context.Context, classID string, req dto.AddTaskRequest) (*models.TaskRef, error)
	DeleteTask(ctx context.Context, classID, logDate, taskID string) (*dto.DeleteTaskResult, error)
	ToggleStatus(ctx context.Context, classID string, req dto.ToggleStatusRequest) (*dto.ToggleStatusResult, error)
}

// TaskHandler manages daily logs: tasks and per-student statuses.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(service taskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create godoc
// @Summary Publish a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.AddTaskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{classId}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.AddTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, err := h.service.AddTask(c.Request.Context(), classIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ref)
}

// Delete godoc
// @Summary Remove a task from a day's log
// @Tags Tasks
// @Produce json
// @Param classId path string true "Class ID"
// @Param date path string true "Log date (YYYY-MM-DD)"
// @Param taskId path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/logs/{date}/tasks/{taskId} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	result, err := h.service.DeleteTask(c.Request.Context(), classIDParam(c), c.Param("date"), c.Param("taskId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// ToggleStatus godoc
// @Summary Record or clear a student's task status
// @Tags Tasks
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.ToggleStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/status [post]
func (h *TaskHandler) ToggleStatus(c *gin.Context) {
	var req dto.ToggleStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.ToggleStatus(c.Request.Context(), classIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}
