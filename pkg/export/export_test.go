package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Date", "Reason", "Amount"},
		Rows: []map[string]string{
			{"Date": "2024-01-10", "Reason": "Homework", "Amount": "50"},
			{"Date": "2024-01-11", "Reason": "Shop, sticker", "Amount": "-30"},
		},
		Numeric: []string{"Amount"},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Date,Reason,Amount\n2024-01-10,Homework,50\n2024-01-11,\"Shop, sticker\",-30\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Passbook", "Balance: 20 pts")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRenderStoresNumbers(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Passbook")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Passbook")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Reason", "Amount"}, rows[0])
	assert.Equal(t, "-30", rows[2][2])

	cellType, err := f.GetCellType("Passbook", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
}
