package tranche

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
)

// =============================================================================
// EDIT COMMANDS
// =============================================================================
// Percentage and amount can each drive the other. The edit type says which
// one the user touched; the other is derived from it.

// Edit is a single change to one tranche.
type Edit interface {
	TrancheID() string
	apply(t *Tranche, budget decimal.Decimal) error
}

// EditPercentage sets the percentage and derives the amount.
type EditPercentage struct {
	ID         string
	Percentage decimal.Decimal
}

func (e EditPercentage) TrancheID() string { return e.ID }

func (e EditPercentage) apply(t *Tranche, budget decimal.Decimal) error {
	t.Percentage = e.Percentage
	t.Amount = AmountFor(budget, e.Percentage)
	return nil
}

// EditAmount sets the amount and derives the percentage. With no budget the
// percentage is left unchanged.
type EditAmount struct {
	ID     string
	Amount decimal.Decimal
}

func (e EditAmount) TrancheID() string { return e.ID }

func (e EditAmount) apply(t *Tranche, budget decimal.Decimal) error {
	t.Amount = e.Amount
	if pct, ok := money.PercentOf(e.Amount, budget); ok {
		t.Percentage = pct
	}
	return nil
}

type EditName struct {
	ID   string
	Name string
}

func (e EditName) TrancheID() string { return e.ID }

func (e EditName) apply(t *Tranche, _ decimal.Decimal) error {
	t.Name = e.Name
	return nil
}

type EditDescription struct {
	ID          string
	Description string
}

func (e EditDescription) TrancheID() string { return e.ID }

func (e EditDescription) apply(t *Tranche, _ decimal.Decimal) error {
	t.Description = e.Description
	return nil
}

type EditExpectedDate struct {
	ID   string
	Date string
}

func (e EditExpectedDate) TrancheID() string { return e.ID }

func (e EditExpectedDate) apply(t *Tranche, _ decimal.Decimal) error {
	if err := validateDate(e.Date); err != nil {
		return err
	}
	t.ExpectedDate = e.Date
	return nil
}

type EditActualDate struct {
	ID   string
	Date string
}

func (e EditActualDate) TrancheID() string { return e.ID }

func (e EditActualDate) apply(t *Tranche, _ decimal.Decimal) error {
	if err := validateDate(e.Date); err != nil {
		return err
	}
	t.ActualDate = e.Date
	return nil
}

type EditStatus struct {
	ID     string
	Status Status
}

func (e EditStatus) TrancheID() string { return e.ID }

func (e EditStatus) apply(t *Tranche, _ decimal.Decimal) error {
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	t.Status = e.Status
	return nil
}

// =============================================================================
// PARSING UI INPUT
// =============================================================================

// ParseEdit builds an edit from a field name and raw form value. Numeric
// fields never fail: malformed numbers become zero.
func ParseEdit(id, field, raw string) (Edit, error) {
	switch field {
	case "percentage":
		return EditPercentage{ID: id, Percentage: money.ParseDecimal(raw)}, nil
	case "amount":
		return EditAmount{ID: id, Amount: money.ParseDecimal(raw)}, nil
	case "name":
		return EditName{ID: id, Name: raw}, nil
	case "description":
		return EditDescription{ID: id, Description: raw}, nil
	case "expectedDate", "expected_date":
		return EditExpectedDate{ID: id, Date: raw}, nil
	case "actualDate", "actual_date":
		return EditActualDate{ID: id, Date: raw}, nil
	case "status":
		status, err := ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		return EditStatus{ID: id, Status: status}, nil
	default:
		return nil, ErrUnknownField
	}
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}
