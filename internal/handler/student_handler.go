package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/service"
	"github.com/noah-isme/village-api/pkg/response"
)

type studentService interface {
	ListStudents(ctx context.Context, classID string) ([]dto.StudentSummary, error)
	CreateStudent(ctx context.Context, classID string, req dto.StudentRequest) (*dto.StudentSummary, error)
	UpdateStudent(ctx context.Context, classID, studentID string, req dto.StudentRequest) (*dto.StudentSummary, error)
	AssignGroup(ctx context.Context, classID, studentID string, req dto.GroupRequest) (*dto.StudentSummary, error)
	Passport(ctx context.Context, classID, studentID, date string) (*dto.PassportResponse, error)
	ApplyManualTransaction(ctx context.Context, classID, studentID string, req dto.ManualTransactionRequest) (*dto.TransactionResult, error)
	UndoTransaction(ctx context.Context, classID, studentID, txID string) (*dto.TransactionResult, error)
	Purchase(ctx context.Context, classID, studentID string, req dto.PurchaseRequest) (*dto.PurchaseResult, error)
	UseItem(ctx context.Context, classID, studentID, itemID string) (*dto.UseItemResult, error)
}

type passbookService interface {
	Passbook(ctx context.Context, classID, studentID, format string, keep bool) (*service.Passbook, error)
}

// StudentHandler exposes roster, bank and shop actions on individual villagers.
type StudentHandler struct {
	students  studentService
	passbooks passbookService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students studentService, passbooks passbookService) *StudentHandler {
	return &StudentHandler{students: students, passbooks: passbooks}
}

// List godoc
// @Summary List villagers
// @Tags Students
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.ListStudents(c.Request.Context(), classIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// Create godoc
// @Summary Add a villager
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{classId}/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.CreateStudent(c.Request.Context(), classIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update a villager
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.UpdateStudent(c.Request.Context(), classIDParam(c), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// AssignGroup godoc
// @Summary Move a villager to a squad
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.GroupRequest true "Group"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/group [put]
func (h *StudentHandler) AssignGroup(c *gin.Context) {
	var req dto.GroupRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.AssignGroup(c.Request.Context(), classIDParam(c), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Passport godoc
// @Summary Villager passport for a day
// @Tags Students
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/passport [get]
func (h *StudentHandler) Passport(c *gin.Context) {
	passport, err := h.students.Passport(c.Request.Context(), classIDParam(c), c.Param("studentId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, passport)
}

// Passbook godoc
// @Summary Download a villager's bank statement
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx"
// @Param keep query bool false "Also store the file in the export directory"
// @Success 200 {file} file
// @Router /classes/{classId}/students/{studentId}/passbook [get]
func (h *StudentHandler) Passbook(c *gin.Context) {
	keep, _ := strconv.ParseBool(c.Query("keep"))
	book, err := h.passbooks.Passbook(c.Request.Context(), classIDParam(c), c.Param("studentId"), c.DefaultQuery("format", service.FormatCSV), keep)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, book.Filename, book.ContentType, book.Body)
}

// Transaction godoc
// @Summary Credit or debit a villager
// @Tags Bank
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.ManualTransactionRequest true "Transaction"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/transactions [post]
func (h *StudentHandler) Transaction(c *gin.Context) {
	var req dto.ManualTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.students.ApplyManualTransaction(c.Request.Context(), classIDParam(c), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// Undo godoc
// @Summary Void a transaction with a correction
// @Tags Bank
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param txId path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/transactions/{txId}/undo [post]
func (h *StudentHandler) Undo(c *gin.Context) {
	result, err := h.students.UndoTransaction(c.Request.Context(), classIDParam(c), c.Param("studentId"), c.Param("txId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// Purchase godoc
// @Summary Buy a shop item
// @Tags Shop
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.PurchaseRequest true "Purchase"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/purchases [post]
func (h *StudentHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.students.Purchase(c.Request.Context(), classIDParam(c), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}

// UseItem godoc
// @Summary Use an inventory item
// @Tags Shop
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param inventoryId path string true "Inventory item ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/inventory/{inventoryId}/use [post]
func (h *StudentHandler) UseItem(c *gin.Context) {
	result, err := h.students.UseItem(c.Request.Context(), classIDParam(c), c.Param("studentId"), c.Param("inventoryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, result.Outcome, result)
}
