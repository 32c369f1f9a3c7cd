/*
Package money provides currency amounts and the rounding rules used by every
budget and payment calculation in the onboarding engine.

PURPOSE:
  Budget totals, tranche amounts and GST are all shown to creators and
  admins side by side and compared against each other. They must round the
  same way everywhere, so the rules live in one place.

KEY CONCEPTS IN THIS FILE (amount.go):
  - Amount: A decimal value with a currency (e.g., ₹2,500,000)
  - RoundUnits: Whole currency units, half away from zero
  - Round2: Two decimal places (used for percentages)
  - Percent / PercentOf: Percentage application and back-derivation

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Forgiving input: ParseDecimal turns malformed or absurd input into zero
  3. No division by zero: PercentOf reports ok=false instead

USAGE:
  budget := money.ParseDecimal("10000000")
  share := money.Percent(budget, decimal.NewFromInt(25)) // 2500000
  money.Format(money.NewAmountFromDecimal(share, money.INR)) // "₹2,500,000"

SEE ALSO:
  - format.go: Display formatting
  - tranche/sync.go: Tranche amount synchronization
*/
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Value with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
)

var hundred = decimal.NewFromInt(100)

func NewAmountFromDecimal(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

// =============================================================================
// PARSING
// =============================================================================

// Exponents past this bound are treated as malformed. Rounding or rescaling
// such a value allocates a 10^exponent big.Int.
const maxExponent = 28

// MaxMagnitude is the largest absolute value accepted for any amount or
// percentage (10^15, far above any production budget).
var MaxMagnitude = decimal.New(1, 15)

// InRange reports whether d is small enough to compute with. The exponent is
// checked first so that the magnitude comparison never rescales a huge value.
func InRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return false
	}
	return d.Abs().Cmp(MaxMagnitude) <= 0
}

// ParseDecimal parses a numeric string. Empty, malformed or out-of-range
// input yields zero, so a bad keystroke in a form never turns into an error
// or NaN.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !InRange(d) {
		return decimal.Zero
	}
	return d
}

// FromFloat converts a float coming from JSON into a decimal. Out-of-range
// values yield zero.
func FromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	d := decimal.NewFromFloat(f)
	if !InRange(d) {
		return decimal.Zero
	}
	return d
}

// ToFloat converts a decimal for JSON responses.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// =============================================================================
// ROUNDING AND PERCENTAGES
// =============================================================================

// RoundUnits rounds to whole currency units, half away from zero.
func RoundUnits(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns round(total * pct / 100).
func Percent(total, pct decimal.Decimal) decimal.Decimal {
	return RoundUnits(total.Mul(pct).Div(hundred))
}

// PercentOf returns round2(part / total * 100). ok is false when total is
// not positive; callers keep their previous percentage in that case.
func PercentOf(part, total decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return Round2(part.Mul(hundred).Div(total)), true
}

// Sum adds a list of decimals.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
