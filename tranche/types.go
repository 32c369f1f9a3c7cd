/*
Package tranche implements payment tranche generation and reconciliation for
content projects.

PURPOSE:
  A commissioned project is paid in tranches: named milestones that each
  carry a share of the total budget. This package turns a project type and a
  budget into a tranche schedule, keeps percentages and amounts in sync while
  the creator edits the schedule, and reports whether the schedule adds up.

KEY CONCEPTS:
  - ProjectType: Production format chosen in the wizard (feature, mini, ...)
  - Template: Fixed milestone name + percentage for a project type
  - Tranche: One scheduled payment (percentage, amount, dates, status)
  - Set: The editable schedule owned by a single submission draft
  - LockFormat: Format table applied once when a project is locked

RECONCILIATION RULES:
  1. amount = round(budget * percentage / 100)
  2. An amount edit back-derives percentage = round2(amount / budget * 100)
  3. A zero budget never divides: percentage stays as it was
  4. Percentages not summing to 100 is a warning, never an error

SEE ALSO:
  - templates.go: ProjectType -> template table
  - sync.go: Set and its edit operations
  - reconcile.go: Totals, balance check, GST
  - lock.go: Lock-time schedules
*/
package tranche

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECT TYPE
// =============================================================================

type ProjectType string

const (
	ProjectFeature       ProjectType = "feature"
	ProjectMini          ProjectType = "mini"
	ProjectLongSeries    ProjectType = "longSeries"
	ProjectLimitedSeries ProjectType = "limitedSeries"
	ProjectMicrodrama    ProjectType = "microdrama"
)

// ProjectTypes lists every project type in wizard display order.
func ProjectTypes() []ProjectType {
	return []ProjectType{
		ProjectFeature,
		ProjectMini,
		ProjectLongSeries,
		ProjectLimitedSeries,
		ProjectMicrodrama,
	}
}

// ParseProjectType validates a project type coming from outside the package.
func ParseProjectType(s string) (ProjectType, error) {
	for _, pt := range ProjectTypes() {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", &UnknownProjectTypeError{Value: s}
}

// Label returns the human-readable name of a project type.
func (pt ProjectType) Label() string {
	switch pt {
	case ProjectFeature:
		return "Feature Film"
	case ProjectMini:
		return "Mini Film"
	case ProjectLongSeries:
		return "Long Series"
	case ProjectLimitedSeries:
		return "Limited Series"
	case ProjectMicrodrama:
		return "Microdrama"
	default:
		return string(pt)
	}
}

// =============================================================================
// TEMPLATE AND TRANCHE
// =============================================================================

// Template is a fixed milestone in a project type's payment plan.
type Template struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Percentage  decimal.Decimal `json:"percentage"`
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a tranche status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Tranche is one scheduled payment. Dates are ISO (YYYY-MM-DD) strings and
// may be empty.
type Tranche struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Percentage   decimal.Decimal `json:"percentage"`
	Amount       decimal.Decimal `json:"amount"`
	ExpectedDate string          `json:"expected_date"`
	ActualDate   string          `json:"actual_date"`
	Status       Status          `json:"status"`
}
