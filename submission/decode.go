package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// DOCUMENT DECODING
// =============================================================================
// The wizard posts the whole draft as JSON. Unknown keys are rejected and
// every enum is checked, so nothing loosely typed reaches the store.

// Decode parses and validates a draft document.
func Decode(data []byte) (Draft, error) {
	var d Draft
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if err := Validate(d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// DecodeBudget parses and validates the budget section on its own.
func DecodeBudget(data []byte) (Budget, error) {
	var b Budget
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Budget{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// Validate checks enum fields, amount ranges and date formats.
func Validate(d Draft) error {
	if d.Status != "" && d.Status != StatusDraft && d.Status != StatusSubmitted {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", d.Status)}
	}
	if d.Step != "" && !validStep(d.Step) {
		return &ValidationError{Field: "step", Message: fmt.Sprintf("unknown step %q", d.Step)}
	}
	if d.Project.ProjectType != "" {
		if _, err := tranche.ParseProjectType(string(d.Project.ProjectType)); err != nil {
			return &ValidationError{Field: "project.project_type", Message: err.Error()}
		}
	}
	if d.Project.Episodes < 0 {
		return &ValidationError{Field: "project.episodes", Message: "must not be negative"}
	}
	if err := d.Budget.Validate(); err != nil {
		return err
	}
	for name, members := range map[string][]Member{"crew": d.Crew, "cast": d.Cast} {
		for i, m := range members {
			if err := checkAmount(fmt.Sprintf("%s[%d].fee", name, i), m.Fee); err != nil {
				return err
			}
		}
	}
	if d.Timeline.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, d.Timeline.StartDate); err != nil {
			return &ValidationError{Field: "timeline.start_date", Message: "use YYYY-MM-DD"}
		}
	}
	seen := make(map[string]bool, len(d.CashFlow.Tranches))
	for i, t := range d.CashFlow.Tranches {
		field := fmt.Sprintf("cash_flow.tranches[%d]", i)
		if t.ID == "" {
			return &ValidationError{Field: field + ".id", Message: "is required"}
		}
		if seen[t.ID] {
			return &ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q", t.ID)}
		}
		seen[t.ID] = true
		if err := checkAmount(field+".percentage", t.Percentage); err != nil {
			return err
		}
		if err := checkAmount(field+".amount", t.Amount); err != nil {
			return err
		}
		if _, err := tranche.ParseStatus(string(t.Status)); err != nil {
			return &ValidationError{Field: field + ".status", Message: err.Error()}
		}
		for name, date := range map[string]string{"expected_date": t.ExpectedDate, "actual_date": t.ActualDate} {
			if date == "" {
				continue
			}
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				return &ValidationError{Field: field + "." + name, Message: "use YYYY-MM-DD"}
			}
		}
	}
	return nil
}

// Validate checks line item amounts and the contingency percentage.
func (b Budget) Validate() error {
	if err := checkAmount("budget.contingency_percent", b.ContingencyPercent); err != nil {
		return err
	}
	for i, li := range b.LineItems {
		if err := checkAmount(fmt.Sprintf("budget.line_items[%d].amount", i), li.Amount); err != nil {
			return err
		}
	}
	return nil
}

// checkAmount rejects negative and out-of-range decimals.
func checkAmount(field string, d decimal.Decimal) error {
	if !money.InRange(d) {
		return &ValidationError{Field: field, Message: "out of range"}
	}
	if d.IsNegative() {
		return &ValidationError{Field: field, Message: "must not be negative"}
	}
	return nil
}

func validStep(s Step) bool {
	for _, step := range Steps() {
		if step == s {
			return true
		}
	}
	return false
}
