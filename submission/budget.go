package submission

import (
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
)

// =============================================================================
// BUDGET STEP
// =============================================================================

// LineItem is one row of the creator's budget estimate.
type LineItem struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Budget is the budget step of the wizard. Totals are derived, never stored.
type Budget struct {
	LineItems          []LineItem      `json:"line_items"`
	ContingencyPercent decimal.Decimal `json:"contingency_percent"`
}

// Subtotal sums all line items.
func (b Budget) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range b.LineItems {
		total = total.Add(li.Amount)
	}
	return total
}

// Contingency is round(subtotal * contingency% / 100).
func (b Budget) Contingency() decimal.Decimal {
	return money.Percent(b.Subtotal(), b.ContingencyPercent)
}

// Total is subtotal plus contingency. This is the figure the cash-flow step
// splits into tranches.
func (b Budget) Total() decimal.Decimal {
	return money.Sum(b.Subtotal(), b.Contingency())
}

// PerEpisode divides the total across episodes, rounded to whole units.
// Zero when the episode count is unknown.
func (b Budget) PerEpisode(episodes int) decimal.Decimal {
	if episodes <= 0 {
		return decimal.Zero
	}
	return money.RoundUnits(b.Total().Div(decimal.NewFromInt(int64(episodes))))
}

// ByCategory groups line item amounts by category.
func (b Budget) ByCategory() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, li := range b.LineItems {
		out[li.Category] = out[li.Category].Add(li.Amount)
	}
	return out
}

// =============================================================================
// CREW AND CAST
// =============================================================================

// Member is a crew or cast entry. Fee is optional.
type Member struct {
	Name  string          `json:"name"`
	Role  string          `json:"role"`
	Email string          `json:"email,omitempty"`
	Fee   decimal.Decimal `json:"fee"`
}

// TotalFees sums member fees.
func TotalFees(members []Member) decimal.Decimal {
	total := decimal.Zero
	for _, m := range members {
		total = total.Add(m.Fee)
	}
	return total
}
