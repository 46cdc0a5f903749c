// Package currency converts between the base point unit and the two higher
// reward denominations (fish and cookie) using fixed per-class exchange rates.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit names a denomination.
type Unit string

const (
	UnitPoint  Unit = "point"
	UnitFish   Unit = "fish"
	UnitCookie Unit = "cookie"
)

// ParseUnit maps raw input to a Unit. Unknown values are treated as points.
func ParseUnit(raw string) Unit {
	switch Unit(strings.ToLower(strings.TrimSpace(raw))) {
	case UnitFish:
		return UnitFish
	case UnitCookie:
		return UnitCookie
	default:
		return UnitPoint
	}
}

// Default exchange rates used when a class has none configured.
const (
	DefaultFishRate   int64 = 100
	DefaultCookieRate int64 = 1000
)

// Rates holds points-per-unit for the higher denominations.
type Rates struct {
	Fish   int64 `json:"fish" toml:"fish"`
	Cookie int64 `json:"cookie" toml:"cookie"`
}

// DefaultRates returns the built-in exchange table.
func DefaultRates() Rates {
	return Rates{Fish: DefaultFishRate, Cookie: DefaultCookieRate}
}

// Normalize replaces rates below 1 with the defaults so conversions never divide by zero.
func (r Rates) Normalize() Rates {
	if r.Fish < 1 {
		r.Fish = DefaultFishRate
	}
	if r.Cookie < 1 {
		r.Cookie = DefaultCookieRate
	}
	return r
}

// PerUnit returns how many points one unit is worth.
func (r Rates) PerUnit(unit Unit) int64 {
	r = r.Normalize()
	switch unit {
	case UnitFish:
		return r.Fish
	case UnitCookie:
		return r.Cookie
	default:
		return 1
	}
}

// ToPoints converts an amount in the given unit to integer points, rounding half away from zero.
func ToPoints(amount decimal.Decimal, unit Unit, rates Rates) int64 {
	return amount.Mul(decimal.NewFromInt(rates.PerUnit(unit))).Round(0).IntPart()
}

// Breakdown is the greedy denomination split of a point total.
// Negative totals are decomposed by magnitude with Negative set.
type Breakdown struct {
	Negative bool   `json:"negative"`
	Cookies  int64  `json:"cookies"`
	Fish     int64  `json:"fish"`
	Raw      int64  `json:"raw"`
	Display  string `json:"display"`
}

// Points recomposes the breakdown into a signed point total.
func (b Breakdown) Points(rates Rates) int64 {
	rates = rates.Normalize()
	total := b.Cookies*rates.Cookie + b.Fish*rates.Fish + b.Raw
	if b.Negative {
		return -total
	}
	return total
}

// Format splits points into cookies, fish and raw points, largest denomination first.
func Format(points int64, rates Rates) Breakdown {
	rates = rates.Normalize()

	var b Breakdown
	magnitude := points
	if points < 0 {
		b.Negative = true
		magnitude = -points
	}

	b.Cookies = magnitude / rates.Cookie
	rest := magnitude % rates.Cookie
	b.Fish = rest / rates.Fish
	b.Raw = rest % rates.Fish
	b.Display = display(b)
	return b
}

func display(b Breakdown) string {
	parts := make([]string, 0, 3)
	if b.Cookies != 0 {
		parts = append(parts, fmt.Sprintf("%d cookie", b.Cookies))
	}
	if b.Fish != 0 {
		parts = append(parts, fmt.Sprintf("%d fish", b.Fish))
	}
	if b.Raw != 0 {
		parts = append(parts, fmt.Sprintf("%d pts", b.Raw))
	}
	if len(parts) == 0 {
		return "0 pts"
	}
	out := strings.Join(parts, " ")
	if b.Negative {
		return "-" + out
	}
	return out
}
