package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
)

func newTestEngine() *Engine {
	seq := 0
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	return New(
		WithClock(func() time.Time { return now }),
		WithIDs(func() string {
			seq++
			return fmt.Sprintf("tx-%d", seq)
		}),
	)
}

func TestApplyFoldsBalanceAndCachesPrefixSums(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	amounts := []int64{100, -30, 0, 250, -500, 7}

	var sum int64
	for _, amount := range amounts {
		tx := engine.Apply(bank, amount, "reason")
		sum += amount
		assert.Equal(t, sum, tx.Balance)
		assert.Equal(t, models.TransactionPlain, tx.Kind)
	}

	assert.Equal(t, sum, bank.Balance)
	require.Len(t, bank.Transactions, len(amounts))
	var prefix int64
	for i, tx := range bank.Transactions {
		prefix += amounts[i]
		assert.Equal(t, prefix, tx.Balance)
	}
	require.NoError(t, Verify(bank))
}

func TestApplyZeroAmountIsRecordedWithoutChangingBalance(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	engine.Apply(bank, 40, "reward")
	tx := engine.Apply(bank, 0, "Used: sticker")

	assert.Equal(t, int64(40), bank.Balance)
	assert.Equal(t, int64(40), tx.Balance)
	assert.Len(t, bank.Transactions, 2)
}

func TestVoidAppendsOneCorrectionAndCancelsExactly(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	engine.Apply(bank, 100, "homework")
	target := engine.Apply(bank, 60, "helping")
	engine.Apply(bank, -20, "late")

	correction, ok := engine.Void(bank, target.ID)
	require.True(t, ok)
	assert.Equal(t, int64(-60), correction.Amount)
	assert.Equal(t, "Correction: helping", correction.Reason)
	assert.Equal(t, models.TransactionCorrection, correction.Kind)
	assert.Equal(t, target.ID, correction.CorrectedTxID)
	assert.Equal(t, int64(80), bank.Balance)
	assert.True(t, bank.Transactions[1].Voided)

	_, again := engine.Void(bank, target.ID)
	assert.False(t, again)
	assert.Len(t, bank.Transactions, 4)
	assert.Equal(t, int64(80), bank.Balance)
	require.NoError(t, Verify(bank))
}

func TestVoidUnknownOrCorrectionIsNoop(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	tx := engine.Apply(bank, 10, "a")
	correction, ok := engine.Void(bank, tx.ID)
	require.True(t, ok)

	before := *bank
	before.Transactions = append([]models.Transaction(nil), bank.Transactions...)

	_, ok = engine.Void(bank, "missing")
	assert.False(t, ok)
	_, ok = engine.Void(bank, correction.ID)
	assert.False(t, ok)
	assert.Equal(t, before, *bank)
}

func TestApplyBatchSkipsUnknownStudents(t *testing.T) {
	engine := newTestEngine()
	students := []models.Student{{ID: "s1"}, {ID: "s2"}}
	results := engine.ApplyBatch(students, []Entry{
		{StudentID: "s1", Amount: 50, Reason: "Payroll: Librarian"},
		{StudentID: "ghost", Amount: 50, Reason: "Payroll: Librarian"},
		{StudentID: "s1", Amount: 25, Reason: "Payroll: Gardener"},
		{StudentID: "s2", Amount: 10, Reason: "Payroll: Gardener"},
	})

	require.Len(t, results, 4)
	assert.True(t, results[1].Skipped)
	assert.Nil(t, results[1].Transaction)
	assert.Equal(t, int64(75), students[0].Bank.Balance)
	assert.Equal(t, int64(10), students[1].Bank.Balance)
	assert.Equal(t, "Payroll: Librarian", students[0].Bank.Transactions[0].Reason)
	assert.Equal(t, "Payroll: Gardener", students[0].Bank.Transactions[1].Reason)
}

func TestVerifyDetectsTamperingAndRebuildRepairs(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	engine.Apply(bank, 10, "a")
	engine.Apply(bank, 5, "b")

	bank.Transactions[0].Amount = 12
	assert.ErrorIs(t, Verify(bank), ErrInvalidLedger)

	Rebuild(bank)
	require.NoError(t, Verify(bank))
	assert.Equal(t, int64(17), bank.Balance)
}

func TestVerifyRejectsDanglingCorrection(t *testing.T) {
	bank := &models.Bank{
		Balance: -5,
		Transactions: []models.Transaction{
			{ID: "c1", Amount: -5, Balance: -5, Kind: models.TransactionCorrection, CorrectedTxID: "nope"},
		},
	}
	assert.ErrorIs(t, Verify(bank), ErrInvalidLedger)
}

func TestVerifyRejectsVoidWithoutCorrection(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	engine.Apply(bank, 40, "reward")
	engine.Apply(bank, 10, "bonus")
	bank.Transactions[0].Voided = true

	assert.ErrorIs(t, Verify(bank), ErrInvalidLedger)

	Rebuild(bank)
	require.NoError(t, Verify(bank))
	assert.False(t, bank.Transactions[0].Voided)

	_, ok := engine.Void(bank, bank.Transactions[0].ID)
	require.True(t, ok)
	require.NoError(t, Verify(bank))
	assert.Equal(t, int64(10), bank.Balance)
}

func TestNegativeBalancesArePermitted(t *testing.T) {
	engine := newTestEngine()
	bank := &models.Bank{}
	engine.Apply(bank, -300, "fine")
	assert.Equal(t, int64(-300), bank.Balance)
	require.NoError(t, Verify(bank))
}
