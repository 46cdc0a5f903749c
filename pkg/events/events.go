// Package events publishes ledger activity to interested consumers.
package events

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindTransaction = "ledger.transaction"
	KindCorrection  = "ledger.correction"
	KindPurchase    = "shop.purchase"
	KindPayroll     = "ledger.payroll"
)

// LedgerEvent describes one appended ledger entry.
type LedgerEvent struct {
	Kind          string    `json:"kind"`
	ClassID       string    `json:"class_id"`
	StudentID     string    `json:"student_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Balance       int64     `json:"balance"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...LedgerEvent) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, ...LedgerEvent) error { return nil }
func (Nop) Close() error                                   { return nil }
