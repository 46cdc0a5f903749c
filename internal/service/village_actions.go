package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/ledger"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/internal/tasklog"
	"github.com/noah-isme/village-api/pkg/events"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

// ToggleStatus records or clears a student's status for a task. Repeating
// the current status clears it. The status is stored on the task's creating
// log unless an explicit date names another log that lists the task.
func (s *VillageService) ToggleStatus(ctx context.Context, classID string, req dto.ToggleStatusRequest) (*dto.ToggleStatusResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	requested := models.StatusOnTime
	if req.Status != nil {
		requested = models.ParseStatus(*req.Status)
	}

	result := &dto.ToggleStatusResult{StudentID: req.StudentID, TaskID: req.TaskID}
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		if models.FindStudent(sess.snap.Students, req.StudentID) == nil {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		ref, ok := sess.logs.FindTask(req.TaskID)
		if !ok {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		logDate := ref.LogDate
		if req.Date != nil && *req.Date != "" {
			logDate = *req.Date
		}
		if !sess.logs.HasTask(logDate, req.TaskID) {
			result.Outcome = dto.OutcomeNotFound
			result.LogDate = logDate
			return false, nil
		}
		current := sess.logs.Status(logDate, req.StudentID, req.TaskID)
		next := models.NextStatus(current, requested)
		sess.logs.SetStatus(logDate, req.StudentID, req.TaskID, next)

		result.Outcome = dto.OutcomeApplied
		result.LogDate = logDate
		result.Previous = current
		result.Status = next
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddTask publishes a task on its creation day.
func (s *VillageService) AddTask(ctx context.Context, classID string, req dto.AddTaskRequest) (*models.TaskRef, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var ref models.TaskRef
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		taskType := strings.TrimSpace(req.Type)
		if taskType == "" && len(sess.snap.Settings.TaskTypes) > 0 {
			taskType = sess.snap.Settings.TaskTypes[0]
		}
		task, err := sess.logs.AddTask(models.Task{
			ID:        strings.TrimSpace(req.ID),
			Title:     req.Title,
			Type:      taskType,
			CreatedAt: req.CreatedAt,
			DueDate:   req.DueDate,
		})
		if err != nil {
			return false, mapTaskError(err)
		}
		ref = models.TaskRef{Task: task, LogDate: task.CreatedAt}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task added", zap.String("class_id", classID), zap.String("task_id", ref.Task.ID), zap.String("due_date", ref.Task.DueDate))
	return &ref, nil
}

// DeleteTask removes a task and its statuses from the given log.
func (s *VillageService) DeleteTask(ctx context.Context, classID, logDate, taskID string) (*dto.DeleteTaskResult, error) {
	date, err := tasklog.ParseDate(logDate)
	if err != nil {
		return nil, mapTaskError(err)
	}
	result := &dto.DeleteTaskResult{LogDate: date, TaskID: taskID}
	err = s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		if !sess.logs.DeleteTask(date, taskID) {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		result.Outcome = dto.OutcomeApplied
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyManualTransaction credits (positive) or debits (negative) a student.
func (s *VillageService) ApplyManualTransaction(ctx context.Context, classID, studentID string, req dto.ManualTransactionRequest) (*dto.TransactionResult, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	result := &dto.TransactionResult{StudentID: studentID}
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		rates := sess.snap.Settings.Rates
		amount := req.Amount.Points(currency.ParseUnit(string(req.Unit)), rates)
		tx := s.engine.Apply(&st.Bank, amount, req.Reason)
		c.record(events.KindTransaction, st.ID, tx)

		result.Outcome = dto.OutcomeApplied
		result.Transaction = &tx
		result.Balance = st.Bank.Balance
		result.Formatted = currency.Format(st.Bank.Balance, rates)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UndoTransaction voids a transaction by appending its correction. Unknown,
// already voided and correction transactions are left alone.
func (s *VillageService) UndoTransaction(ctx context.Context, classID, studentID, txID string) (*dto.TransactionResult, error) {
	result := &dto.TransactionResult{StudentID: studentID}
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil || st.Bank.Find(txID) < 0 {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		rates := sess.snap.Settings.Rates
		result.Balance = st.Bank.Balance
		result.Formatted = currency.Format(st.Bank.Balance, rates)

		correction, ok := s.engine.Void(&st.Bank, txID)
		if !ok {
			result.Outcome = dto.OutcomeNoop
			return false, nil
		}
		c.record(events.KindCorrection, st.ID, correction)

		result.Outcome = dto.OutcomeApplied
		result.Transaction = &correction
		result.Balance = st.Bank.Balance
		result.Formatted = currency.Format(st.Bank.Balance, rates)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessPayroll applies explicit entries. Entries for unknown students are
// reported as skipped.
func (s *VillageService) ProcessPayroll(ctx context.Context, classID string, req dto.PayrollRequest) (*dto.BatchResult, error) {
	for i := range req.Entries {
		req.Entries[i].Reason = strings.TrimSpace(req.Entries[i].Reason)
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var result *dto.BatchResult
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		rates := sess.snap.Settings.Rates
		entries := make([]ledger.Entry, 0, len(req.Entries))
		for _, e := range req.Entries {
			entries = append(entries, ledger.Entry{
				StudentID: e.StudentID,
				Amount:    e.Amount.Points(currency.ParseUnit(string(e.Unit)), rates),
				Reason:    e.Reason,
			})
		}
		result = s.applyBatch(sess, c, events.KindPayroll, entries)
		return result.Applied > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunPayroll pays every job of the given cycle; an empty cycle pays all jobs.
func (s *VillageService) RunPayroll(ctx context.Context, classID string, cycle models.PayCycle) (*dto.BatchResult, error) {
	switch cycle {
	case "", models.PayDaily, models.PayWeekly, models.PayMonthly:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pay cycle "+string(cycle))
	}
	var result *dto.BatchResult
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		result = s.applyBatch(sess, c, events.KindPayroll, PayrollEntries(sess.snap.Settings, cycle))
		return result.Applied > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyBehavior applies a catalogued rule's points to each listed student.
func (s *VillageService) ApplyBehavior(ctx context.Context, classID string, req dto.BehaviorRequest) (*dto.BatchResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var result *dto.BatchResult
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		rule, ok := sess.snap.Settings.FindRule(req.RuleID)
		if !ok {
			result = &dto.BatchResult{Outcome: dto.OutcomeNotFound, Lines: []dto.PayrollLine{}}
			return false, nil
		}
		entries := make([]ledger.Entry, 0, len(req.StudentIDs))
		for _, id := range req.StudentIDs {
			entries = append(entries, ledger.Entry{StudentID: id, Amount: rule.Points, Reason: rule.Label})
		}
		result = s.applyBatch(sess, c, events.KindTransaction, entries)
		return result.Applied > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *VillageService) applyBatch(sess *session, c *change, kind string, entries []ledger.Entry) *dto.BatchResult {
	applied := s.engine.ApplyBatch(sess.snap.Students, entries)
	result := &dto.BatchResult{Outcome: dto.OutcomeApplied, Lines: make([]dto.PayrollLine, 0, len(applied))}
	for _, a := range applied {
		line := dto.PayrollLine{StudentID: a.Entry.StudentID, Amount: a.Entry.Amount, Reason: a.Entry.Reason, Skipped: a.Skipped}
		if a.Skipped {
			result.Skipped++
		} else {
			result.Applied++
			result.Total += a.Entry.Amount
			line.TransactionID = a.Transaction.ID
			c.record(kind, a.Entry.StudentID, *a.Transaction)
		}
		result.Lines = append(result.Lines, line)
	}
	if result.Applied == 0 {
		result.Outcome = dto.OutcomeNoop
	}
	return result
}

// PayrollEntries builds one entry per job assignee for jobs paid on cycle.
// Salaries are converted to points with the class rates.
func PayrollEntries(settings models.Settings, cycle models.PayCycle) []ledger.Entry {
	entries := make([]ledger.Entry, 0)
	for _, job := range settings.Jobs {
		if cycle != "" && job.Cycle != cycle {
			continue
		}
		amount := currency.ToPoints(currency.NewAmount(job.Salary).Decimal, job.Unit, settings.Rates)
		for _, studentID := range job.AssigneeIDs {
			entries = append(entries, ledger.Entry{StudentID: studentID, Amount: amount, Reason: "Salary: " + job.Title})
		}
	}
	return entries
}

// Purchase buys a catalogue product, or an ad-hoc item when no product id is
// given. A purchase the student cannot afford is declined without change.
func (s *VillageService) Purchase(ctx context.Context, classID, studentID string, req dto.PurchaseRequest) (*dto.PurchaseResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.ProductID == "" && req.Price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "price must not be negative")
	}

	result := &dto.PurchaseResult{StudentID: studentID}
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		rates := sess.snap.Settings.Rates
		name, productID, cost := req.Name, "", req.Price.Points(currency.ParseUnit(string(req.Unit)), rates)
		if req.ProductID != "" {
			product, ok := sess.snap.Settings.FindProduct(req.ProductID)
			if !ok {
				result.Outcome = dto.OutcomeNotFound
				return false, nil
			}
			name, productID = product.Name, product.ID
			cost = currency.ToPoints(currency.NewAmount(product.Price).Decimal, product.Unit, rates)
		}
		result.Cost = cost
		result.Balance = st.Bank.Balance
		if st.Bank.Balance < cost {
			result.Outcome = dto.OutcomeDeclined
			s.metrics.RecordPurchase(string(dto.OutcomeDeclined))
			return false, nil
		}

		tx := s.engine.Apply(&st.Bank, -cost, "Purchase: "+name)
		item := models.InventoryItem{
			ID:          s.newID(),
			ProductID:   productID,
			Name:        name,
			Cost:        cost,
			PurchasedAt: tx.Timestamp,
		}
		st.Inventory = append(st.Inventory, item)
		c.record(events.KindPurchase, st.ID, tx)
		s.metrics.RecordPurchase(string(dto.OutcomePurchased))

		result.Outcome = dto.OutcomePurchased
		result.Balance = st.Bank.Balance
		result.Item = &item
		result.Transaction = &tx
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UseItem marks an inventory item used and logs a zero-amount audit entry.
func (s *VillageService) UseItem(ctx context.Context, classID, studentID, itemID string) (*dto.UseItemResult, error) {
	result := &dto.UseItemResult{}
	err := s.mutate(ctx, classID, func(sess *session, c *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			result.Outcome = dto.OutcomeNotFound
			return false, nil
		}
		for i := range st.Inventory {
			item := &st.Inventory[i]
			if item.ID != itemID {
				continue
			}
			if item.Used {
				copied := *item
				result.Outcome = dto.OutcomeNoop
				result.Item = &copied
				return false, nil
			}
			usedAt := s.now().UTC()
			item.Used = true
			item.UsedAt = &usedAt
			tx := s.engine.Apply(&st.Bank, 0, "Used: "+item.Name)
			c.record(events.KindTransaction, st.ID, tx)

			copied := *item
			copied.UsedAt = &usedAt
			result.Outcome = dto.OutcomeApplied
			result.Item = &copied
			result.Transaction = &tx
			return true, nil
		}
		result.Outcome = dto.OutcomeNotFound
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
