package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/dto"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

type memoryFiles struct {
	saved map[string][]byte
}

func (m *memoryFiles) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[filename] = data
	return filename, nil
}

func TestPassbookFormats(t *testing.T) {
	f := newVillageFixture(t)
	ctx := context.Background()
	ana := f.student(t, "Ana Maria", "A")
	f.credit(t, ana.ID, 150)
	_, err := f.svc.ApplyManualTransaction(ctx, testClass, ana.ID, dto.ManualTransactionRequest{Amount: currency.NewAmount(-20), Reason: "Late, again"})
	require.NoError(t, err)

	files := &memoryFiles{}
	svc := NewExportService(f.svc, files, nil)
	svc.now = func() time.Time { return testNow }

	book, err := svc.Passbook(ctx, testClass, ana.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", book.ContentType)
	assert.Equal(t, "room-1_01_ana_maria_20240110_090000.csv", book.Filename)
	lines := strings.Split(strings.TrimSpace(string(book.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Reason,Type,Amount,Balance,Voided", lines[0])
	assert.Contains(t, lines[2], `"Late, again"`)
	assert.Contains(t, lines[2], "-20,130")
	assert.Empty(t, files.saved)

	pdf, err := svc.Passbook(ctx, testClass, ana.ID, "PDF", true)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Body), "%PDF"))
	assert.Equal(t, "passbooks/"+pdf.Filename, pdf.SavedPath)

	xlsx, err := svc.Passbook(ctx, testClass, ana.ID, "xlsx", false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(xlsx.Body), "PK"))

	_, err = svc.Passbook(ctx, testClass, ana.ID, "docx", false)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Passbook(ctx, testClass, "ghost", "csv", false)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "obrien", sanitizeFilename("o'brien"))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 150)), 100)
}
