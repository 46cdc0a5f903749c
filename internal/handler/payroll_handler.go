package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/response"
)

type payrollService interface {
	ProcessPayroll(ctx context.Context, classID string, req dto.PayrollRequest) (*dto.BatchResult, error)
	RunPayroll(ctx context.Context, classID string, cycle models.PayCycle) (*dto.BatchResult, error)
	ApplyBehavior(ctx context.Context, classID string, req dto.BehaviorRequest) (*dto.BatchResult, error)
}

// PayrollHandler applies batches of ledger entries.
type PayrollHandler struct {
	service payrollService
}

// NewPayrollHandler constructs the handler.
func NewPayrollHandler(service payrollService) *PayrollHandler {
	return &PayrollHandler{service: service}
}

// Process godoc
// @Summary Apply explicit payroll entries
// @Tags Payroll
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.PayrollRequest true "Entries"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/payroll [post]
func (h *PayrollHandler) Process(c *gin.Context) {
	var req dto.PayrollRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.ProcessPayroll(c.Request.Context(), classIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// Run godoc
// @Summary Pay salaries from the job board
// @Tags Payroll
// @Produce json
// @Param classId path string true "Class ID"
// @Param cycle query string false "daily, weekly or monthly. Empty pays every job"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/payroll/run [post]
func (h *PayrollHandler) Run(c *gin.Context) {
	cycle := models.PayCycle(strings.ToLower(strings.TrimSpace(c.Query("cycle"))))
	result, err := h.service.RunPayroll(c.Request.Context(), classIDParam(c), cycle)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// Behavior godoc
// @Summary Apply a behavior rule to students
// @Tags Payroll
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.BehaviorRequest true "Rule and students"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/behavior [post]
func (h *PayrollHandler) Behavior(c *gin.Context) {
	var req dto.BehaviorRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.ApplyBehavior(c.Request.Context(), classIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}
