// Package ledger implements the append-only student passbook: credits and
// debits, voiding by offsetting correction, and batch payroll application.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/village-api/internal/models"
)

// ErrInvalidLedger reports a bank whose log does not fold to its balance.
var ErrInvalidLedger = errors.New("ledger invariant violated")

// Entry is one line of a batch application.
type Entry struct {
	StudentID string `json:"studentId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// Applied is the outcome of one batch entry.
type Applied struct {
	Entry       Entry               `json:"entry"`
	Skipped     bool                `json:"skipped"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// Engine appends transactions. Clock and ID source are injectable for tests.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides the transaction id source.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New builds an Engine using wall-clock UTC time and random UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply appends a plain transaction. Zero amounts are kept for audit.
func (e *Engine) Apply(bank *models.Bank, amount int64, reason string) models.Transaction {
	tx := models.NewPlain(e.newID(), e.now(), amount, reason)
	return e.append(bank, tx)
}

// Void marks txID voided and appends the offsetting correction. It returns
// false and leaves the bank untouched when txID is unknown, already voided or
// itself a correction.
func (e *Engine) Void(bank *models.Bank, txID string) (models.Transaction, bool) {
	idx := bank.Find(txID)
	if idx < 0 || bank.Transactions[idx].Voided || bank.Transactions[idx].IsCorrection() {
		return models.Transaction{}, false
	}
	original := bank.Transactions[idx]
	bank.Transactions[idx].Voided = true
	correction := models.NewCorrection(e.newID(), e.now(), original)
	return e.append(bank, correction), true
}

// ApplyBatch applies each entry to its student. Entries naming students that
// are not present are skipped without error.
func (e *Engine) ApplyBatch(students []models.Student, entries []Entry) []Applied {
	results := make([]Applied, 0, len(entries))
	for _, entry := range entries {
		student := models.FindStudent(students, entry.StudentID)
		if student == nil {
			results = append(results, Applied{Entry: entry, Skipped: true})
			continue
		}
		tx := e.Apply(&student.Bank, entry.Amount, entry.Reason)
		results = append(results, Applied{Entry: entry, Transaction: &tx})
	}
	return results
}

func (e *Engine) append(bank *models.Bank, tx models.Transaction) models.Transaction {
	bank.Balance += tx.Amount
	tx.Balance = bank.Balance
	bank.Transactions = append(bank.Transactions, tx)
	return tx
}

// Verify checks that balances fold correctly and corrections pair one-to-one
// with voided originals.
func Verify(bank *models.Bank) error {
	var running int64
	corrected := make(map[string]string, len(bank.Transactions))
	for i, tx := range bank.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("%w: transaction %s: %v", ErrInvalidLedger, tx.ID, err)
		}
		running += tx.Amount
		if tx.Balance != running {
			return fmt.Errorf("%w: transaction %s caches balance %d, prefix sum is %d", ErrInvalidLedger, tx.ID, tx.Balance, running)
		}
		if !tx.IsCorrection() {
			continue
		}
		if prev, dup := corrected[tx.CorrectedTxID]; dup {
			return fmt.Errorf("%w: transaction %s corrected twice (%s, %s)", ErrInvalidLedger, tx.CorrectedTxID, prev, tx.ID)
		}
		corrected[tx.CorrectedTxID] = tx.ID
		origIdx := bank.Find(tx.CorrectedTxID)
		if origIdx < 0 || origIdx >= i {
			return fmt.Errorf("%w: correction %s references unknown earlier transaction %s", ErrInvalidLedger, tx.ID, tx.CorrectedTxID)
		}
		original := bank.Transactions[origIdx]
		if original.IsCorrection() || !original.Voided || original.Amount != -tx.Amount {
			return fmt.Errorf("%w: correction %s does not offset %s", ErrInvalidLedger, tx.ID, original.ID)
		}
	}
	for _, tx := range bank.Transactions {
		if _, ok := corrected[tx.ID]; tx.Voided && !ok {
			return fmt.Errorf("%w: transaction %s is voided without a correction", ErrInvalidLedger, tx.ID)
		}
	}
	if running != bank.Balance {
		return fmt.Errorf("%w: balance %d, transactions sum to %d", ErrInvalidLedger, bank.Balance, running)
	}
	return nil
}

// Rebuild recomputes cached running balances and the bank balance from the log
// and clears voided flags that no correction accounts for.
func Rebuild(bank *models.Bank) {
	corrected := make(map[string]bool, len(bank.Transactions))
	for _, tx := range bank.Transactions {
		if tx.IsCorrection() {
			corrected[tx.CorrectedTxID] = true
		}
	}
	var running int64
	for i := range bank.Transactions {
		tx := &bank.Transactions[i]
		if tx.Voided && !corrected[tx.ID] {
			tx.Voided = false
		}
		running += tx.Amount
		tx.Balance = running
	}
	bank.Balance = running
}
