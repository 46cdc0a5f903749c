package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a user-entered quantity. Decoding never fails: anything that is
// not a number (or a numeric string) becomes zero.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps an integer amount.
func NewAmount(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

// ParseAmount coerces raw text into an Amount.
func ParseAmount(raw string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Amount{Decimal: decimal.Zero}
	}
	return Amount{Decimal: d}
}

// UnmarshalJSON accepts JSON numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = ParseAmount(strings.Trim(strings.TrimSpace(string(data)), `"`))
	return nil
}

// MarshalJSON renders the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Points converts the amount in the given unit to integer points.
func (a Amount) Points(unit Unit, rates Rates) int64 {
	return ToPoints(a.Decimal, unit, rates)
}
