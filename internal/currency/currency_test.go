package currency

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPoints(t *testing.T) {
	rates := Rates{Fish: 100, Cookie: 1000}

	tests := []struct {
		name   string
		amount decimal.Decimal
		unit   Unit
		want   int64
	}{
		{"points pass through", decimal.NewFromInt(42), UnitPoint, 42},
		{"fish", decimal.NewFromInt(3), UnitFish, 300},
		{"cookie", decimal.NewFromInt(2), UnitCookie, 2000},
		{"fractional fish", decimal.RequireFromString("1.5"), UnitFish, 150},
		{"unknown unit is points", decimal.NewFromInt(7), ParseUnit("gold"), 7},
		{"negative cookie", decimal.NewFromInt(-1), UnitCookie, -1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPoints(tt.amount, tt.unit, rates))
		})
	}
}

func TestFormatScenario(t *testing.T) {
	got := Format(6500, Rates{Fish: 100, Cookie: 1000})
	assert.Equal(t, int64(6), got.Cookies)
	assert.Equal(t, int64(5), got.Fish)
	assert.Equal(t, int64(0), got.Raw)
	assert.False(t, got.Negative)
	assert.Equal(t, "6 cookie 5 fish", got.Display)
}

func TestFormatRecomposesForNonNegativePoints(t *testing.T) {
	rateTable := []Rates{
		{Fish: 100, Cookie: 1000},
		{Fish: 1, Cookie: 1},
		{Fish: 7, Cookie: 30},
		{Fish: 250, Cookie: 100},
	}
	for _, rates := range rateTable {
		for p := int64(0); p <= 5000; p += 37 {
			b := Format(p, rates)
			assert.Equal(t, p, b.Cookies*rates.Cookie+b.Fish*rates.Fish+b.Raw, "points %d rates %+v", p, rates)
			assert.Equal(t, p, b.Points(rates))
		}
	}
}

func TestFormatNegativeUsesSignThenMagnitude(t *testing.T) {
	rates := Rates{Fish: 100, Cookie: 1000}
	got := Format(-1350, rates)
	assert.True(t, got.Negative)
	assert.Equal(t, int64(1), got.Cookies)
	assert.Equal(t, int64(3), got.Fish)
	assert.Equal(t, int64(50), got.Raw)
	assert.Equal(t, "-1 cookie 3 fish 50 pts", got.Display)
	assert.Equal(t, int64(-1350), got.Points(rates))
}

func TestFormatZeroAndInvalidRates(t *testing.T) {
	assert.Equal(t, "0 pts", Format(0, DefaultRates()).Display)

	got := Format(250, Rates{})
	assert.Equal(t, int64(2), got.Fish)
	assert.Equal(t, int64(50), got.Raw)
}

func TestAmountDecodingCoercesGarbageToZero(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "2.5", "c": "abc", "d": null}`), &payload))
	assert.Equal(t, "12", payload.A.String())
	assert.Equal(t, "2.5", payload.B.String())
	assert.True(t, payload.C.IsZero())
	assert.True(t, payload.D.IsZero())

	assert.Equal(t, int64(250), payload.B.Points(UnitFish, DefaultRates()))
}
