package dto

import (
	"time"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/internal/tasklog"
)

// Outcome labels the result of a UI action. Business-rule refusals are
// outcomes, not errors.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeNoop      Outcome = "noop"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDeclined  Outcome = "declined"
	OutcomePurchased Outcome = "purchased"
)

// ToggleStatusRequest records or clears a student's status for a task.
// Status defaults to ON_TIME; repeating the current status clears it.
type ToggleStatusRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	TaskID    string  `json:"taskId" validate:"required"`
	Status    *string `json:"status" validate:"omitempty,task_status"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ToggleStatusResult reports the status after a toggle.
type ToggleStatusResult struct {
	Outcome   Outcome           `json:"outcome"`
	StudentID string            `json:"studentId"`
	TaskID    string            `json:"taskId"`
	LogDate   string            `json:"logDate,omitempty"`
	Previous  models.TaskStatus `json:"previous"`
	Status    models.TaskStatus `json:"status"`
}

// AddTaskRequest publishes a task.
type AddTaskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"required,max=200"`
	Type      string `json:"type" validate:"max=50"`
	CreatedAt string `json:"createdAt" validate:"omitempty,datetime=2006-01-02"`
	DueDate   string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// DeleteTaskResult reports whether a task was removed.
type DeleteTaskResult struct {
	Outcome Outcome `json:"outcome"`
	LogDate string  `json:"logDate"`
	TaskID  string  `json:"taskId"`
}

// ManualTransactionRequest credits or debits a student. Amount may be a
// number or numeric string; anything else counts as zero.
type ManualTransactionRequest struct {
	Amount currency.Amount `json:"amount"`
	Unit   currency.Unit   `json:"unit"`
	Reason string          `json:"reason" validate:"required,max=200"`
}

// TransactionResult reports a ledger action on one student.
type TransactionResult struct {
	Outcome     Outcome             `json:"outcome"`
	StudentID   string              `json:"studentId"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Balance     int64               `json:"balance"`
	Formatted   currency.Breakdown  `json:"formatted"`
}

// PayrollEntry is one line of a payroll batch.
type PayrollEntry struct {
	StudentID string          `json:"studentId" validate:"required"`
	Amount    currency.Amount `json:"amount"`
	Unit      currency.Unit   `json:"unit"`
	Reason    string          `json:"reason" validate:"required"`
}

// PayrollRequest applies explicit payroll entries.
type PayrollRequest struct {
	Entries []PayrollEntry `json:"entries" validate:"required,min=1,dive"`
}

// PayrollLine reports one applied or skipped entry.
type PayrollLine struct {
	StudentID     string `json:"studentId"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason"`
	Skipped       bool   `json:"skipped"`
	TransactionID string `json:"transactionId,omitempty"`
}

// BatchResult summarises a payroll or behavior batch.
type BatchResult struct {
	Outcome Outcome       `json:"outcome"`
	Applied int           `json:"applied"`
	Skipped int           `json:"skipped"`
	Total   int64         `json:"total"`
	Lines   []PayrollLine `json:"lines"`
}

// BehaviorRequest applies a catalogued rule to several students.
type BehaviorRequest struct {
	RuleID     string   `json:"ruleId" validate:"required"`
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,required"`
}

// PurchaseRequest buys a catalogue product or an ad-hoc item.
type PurchaseRequest struct {
	ProductID string          `json:"productId" validate:"required_without=Name"`
	Name      string          `json:"name" validate:"required_without=ProductID,max=100"`
	Price     currency.Amount `json:"price"`
	Unit      currency.Unit   `json:"unit"`
}

// PurchaseResult reports a purchase attempt.
type PurchaseResult struct {
	Outcome     Outcome               `json:"outcome"`
	StudentID   string                `json:"studentId"`
	Cost        int64                 `json:"cost"`
	Balance     int64                 `json:"balance"`
	Item        *models.InventoryItem `json:"item,omitempty"`
	Transaction *models.Transaction   `json:"transaction,omitempty"`
}

// UseItemResult reports consuming an inventory item.
type UseItemResult struct {
	Outcome     Outcome               `json:"outcome"`
	Item        *models.InventoryItem `json:"item,omitempty"`
	Transaction *models.Transaction   `json:"transaction,omitempty"`
}

// StudentRequest creates or updates a villager.
type StudentRequest struct {
	Number int    `json:"number" validate:"gte=0"`
	Name   string `json:"name" validate:"required,max=100"`
	Gender string `json:"gender" validate:"omitempty,oneof=M F X m f x"`
	Group  string `json:"group" validate:"omitempty,group"`
}

// GroupRequest moves a villager to a squad.
type GroupRequest struct {
	Group string `json:"group" validate:"required,group"`
}

// StudentSummary is a roster row.
type StudentSummary struct {
	ID        string             `json:"id"`
	Number    int                `json:"number"`
	Name      string             `json:"name"`
	Gender    string             `json:"gender,omitempty"`
	Group     models.GroupID     `json:"group"`
	GroupName string             `json:"groupName"`
	Avatar    string             `json:"avatar"`
	Balance   int64              `json:"balance"`
	Formatted currency.Breakdown `json:"formatted"`
}

// DashboardStudent is a roster row with completion and overdue state.
type DashboardStudent struct {
	StudentSummary
	Rate    float64 `json:"rate"`
	Overdue bool    `json:"overdue"`
}

// DashboardResponse is the class view for one day.
type DashboardResponse struct {
	ClassID      string              `json:"classId"`
	Date         string              `json:"date"`
	TasksDue     []models.TaskRef    `json:"tasksDue"`
	TasksCreated []models.TaskRef    `json:"tasksCreated"`
	Class        tasklog.Tally       `json:"class"`
	Groups       []tasklog.GroupRate `json:"groups"`
	Tasks        []tasklog.TaskRate  `json:"tasks"`
	Students     []DashboardStudent  `json:"students"`
	GeneratedAt  time.Time           `json:"generatedAt"`
}

// PassportTask is a task due on the passport date with the student's status.
type PassportTask struct {
	models.TaskRef
	Status models.TaskStatus `json:"status"`
}

// PassportResponse is the per-student detail view.
type PassportResponse struct {
	Student      StudentSummary         `json:"student"`
	Date         string                 `json:"date"`
	Tasks        []PassportTask         `json:"tasks"`
	Overdue      []models.TaskRef       `json:"overdue"`
	Completion   tasklog.Tally          `json:"completion"`
	Transactions []models.Transaction   `json:"transactions"`
	Inventory    []models.InventoryItem `json:"inventory"`
}

// TaskListResponse lists tasks by due or creation date.
type TaskListResponse struct {
	Date  string           `json:"date"`
	By    string           `json:"by"`
	Tasks []models.TaskRef `json:"tasks"`
}

// BackupResult reports a remote backup call.
type BackupResult struct {
	ClassID   string    `json:"classId"`
	Operation string    `json:"operation"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updatedAt"`
}
