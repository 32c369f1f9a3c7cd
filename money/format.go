package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[Currency]string{
	INR: "₹",
	USD: "$",
}

// Format renders an amount with its currency symbol and digit grouping,
// e.g. "₹10,000,000". Fractions are dropped; amounts are whole units.
func Format(a Amount) string {
	return symbols[a.Currency] + FormatUnits(a.Value)
}

// FormatUnits renders a whole-unit value with digit grouping.
func FormatUnits(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", RoundUnits(d).IntPart())
}

// FormatPercent renders a percentage with up to two decimals, e.g. "12.5%".
func FormatPercent(d decimal.Decimal) string {
	return Round2(d).String() + "%"
}
