package tranche

import (
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
)

// =============================================================================
// RECONCILIATION
// =============================================================================
// Read-only totals over a schedule. Imbalance is reported, never rejected.

var (
	// GSTRate is the flat Goods and Services Tax applied to payments.
	GSTRate = decimal.RequireFromString("0.18")

	balanceTolerance = decimal.RequireFromString("0.01")
	fullPercentage   = decimal.NewFromInt(100)
)

// Summary is the reconciliation state shown under the cash-flow table.
type Summary struct {
	Budget          decimal.Decimal
	BudgetAvailable bool
	TotalPercentage decimal.Decimal
	TotalAmount     decimal.Decimal
	Balanced        bool
	GST             decimal.Decimal
	TotalWithGST    decimal.Decimal
}

// Summarize computes every total in one pass.
func Summarize(ts []Tranche) Summary {
	pct, amount := decimal.Zero, decimal.Zero
	for _, t := range ts {
		pct = pct.Add(t.Percentage)
		amount = amount.Add(t.Amount)
	}
	gst := GST(amount)
	return Summary{
		TotalPercentage: pct,
		TotalAmount:     amount,
		Balanced:        balanced(pct),
		GST:             gst,
		TotalWithGST:    amount.Add(gst),
	}
}

// TotalPercentage sums tranche percentages.
func TotalPercentage(ts []Tranche) decimal.Decimal {
	total := decimal.Zero
	for _, t := range ts {
		total = total.Add(t.Percentage)
	}
	return total
}

// TotalAmount sums tranche amounts.
func TotalAmount(ts []Tranche) decimal.Decimal {
	total := decimal.Zero
	for _, t := range ts {
		total = total.Add(t.Amount)
	}
	return total
}

// IsBalanced reports whether percentages sum to 100 within 0.01.
func IsBalanced(ts []Tranche) bool {
	return balanced(TotalPercentage(ts))
}

// GST returns round(amount * 0.18).
func GST(amount decimal.Decimal) decimal.Decimal {
	return money.RoundUnits(amount.Mul(GSTRate))
}

// TotalWithGST returns the schedule total plus GST on that total.
func TotalWithGST(ts []Tranche) decimal.Decimal {
	total := TotalAmount(ts)
	return total.Add(GST(total))
}

func balanced(pct decimal.Decimal) bool {
	return pct.Sub(fullPercentage).Abs().LessThan(balanceTolerance)
}
