package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tags a ledger entry.
type TransactionKind string

const (
	TransactionPlain      TransactionKind = "plain"
	TransactionCorrection TransactionKind = "correction"
)

// Bank is a student's passbook. Balance always equals the fold of Transactions.
type Bank struct {
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one ledger entry. It is immutable apart from Voided, which is
// set once by the correction that references it.
type Transaction struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Amount        int64           `json:"amount"`
	Reason        string          `json:"reason"`
	Balance       int64           `json:"balance"`
	Kind          TransactionKind `json:"type"`
	Voided        bool            `json:"voided,omitempty"`
	CorrectedTxID string          `json:"correctedTxId,omitempty"`
}

// points decodes stored amounts leniently: numeric strings are accepted,
// fractions round half away from zero and anything else becomes 0.
type points int64

func (p *points) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*p = 0
		return nil
	}
	*p = points(d.Round(0).IntPart())
	return nil
}

// UnmarshalJSON tolerates malformed balances; callers repair the fold.
func (b *Bank) UnmarshalJSON(data []byte) error {
	type plain Bank
	aux := struct {
		*plain
		Balance points `json:"balance"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Balance = int64(aux.Balance)
	return nil
}

// UnmarshalJSON tolerates malformed amounts and cached balances.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		Amount  points `json:"amount"`
		Balance points `json:"balance"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Amount = int64(aux.Amount)
	t.Balance = int64(aux.Balance)
	return nil
}

var errCorrectionReference = errors.New("only correction transactions may reference another transaction")

// NewPlain builds a plain entry.
func NewPlain(id string, at time.Time, amount int64, reason string) Transaction {
	return Transaction{ID: id, Timestamp: at, Amount: amount, Reason: reason, Kind: TransactionPlain}
}

// NewCorrection builds the offsetting entry for original.
func NewCorrection(id string, at time.Time, original Transaction) Transaction {
	return Transaction{
		ID:            id,
		Timestamp:     at,
		Amount:        -original.Amount,
		Reason:        "Correction: " + original.Reason,
		Kind:          TransactionCorrection,
		CorrectedTxID: original.ID,
	}
}

// IsCorrection reports whether the entry offsets an earlier one.
func (t Transaction) IsCorrection() bool {
	return t.Kind == TransactionCorrection
}

// Validate checks the shape of a single entry.
func (t Transaction) Validate() error {
	switch t.Kind {
	case TransactionCorrection:
		if t.CorrectedTxID == "" {
			return errors.New("correction without referenced transaction")
		}
	case TransactionPlain:
		if t.CorrectedTxID != "" {
			return errCorrectionReference
		}
	default:
		return errors.New("unknown transaction type")
	}
	return nil
}

// Find returns the index of the transaction with id, or -1.
func (b *Bank) Find(id string) int {
	for i := range b.Transactions {
		if b.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}
