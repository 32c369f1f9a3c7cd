/*
Package submission models the creator onboarding wizard as a single draft
document.

PURPOSE:
  A creator walks through project info, budget, crew, cast, timeline, cash
  flow and documents. Each step reads the latest draft and writes it back,
  so the creator can leave and return at any point. The draft is the owner
  of the cash-flow tranche schedule.

WIZARD STEPS:
  project_info -> budget -> crew -> cast -> timeline -> cash_flow ->
  documents -> review

CASH-FLOW SYNC RULES:
  1. Project type changes regenerate the tranche schedule from templates
  2. Budget total changes rescale tranche amounts, keeping percentages
  3. Tranche edits go through tranche.Set, which writes back into the draft

SUBMISSION:
  Submit never blocks on content. Missing title, missing budget and an
  unbalanced cash flow come back as warnings next to the submitted draft.

SEE ALSO:
  - budget.go: Budget totals
  - timeline.go: Derived dates
  - tranche/sync.go: Tranche schedule operations
*/
package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// DRAFT DOCUMENT
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

type Step string

const (
	StepProjectInfo Step = "project_info"
	StepBudget      Step = "budget"
	StepCrew        Step = "crew"
	StepCast        Step = "cast"
	StepTimeline    Step = "timeline"
	StepCashFlow    Step = "cash_flow"
	StepDocuments   Step = "documents"
	StepReview      Step = "review"
)

// Steps lists wizard steps in order.
func Steps() []Step {
	return []Step{StepProjectInfo, StepBudget, StepCrew, StepCast, StepTimeline, StepCashFlow, StepDocuments, StepReview}
}

// ProjectInfo is the first wizard step.
type ProjectInfo struct {
	Title          string              `json:"title"`
	ProjectType    tranche.ProjectType `json:"project_type,omitempty"`
	Language       string              `json:"language,omitempty"`
	Genre          string              `json:"genre,omitempty"`
	Logline        string              `json:"logline,omitempty"`
	Episodes       int                 `json:"episodes,omitempty"`
	EpisodeMinutes int                 `json:"episode_minutes,omitempty"`
}

// CashFlow holds the tranche schedule. The selected project type lives in
// ProjectInfo.
type CashFlow struct {
	Tranches []tranche.Tranche `json:"tranches"`
}

// Document is metadata for an uploaded file.
type Document struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Draft struct {
	ID          string      `json:"id"`
	Status      Status      `json:"status"`
	Step        Step        `json:"step"`
	Project     ProjectInfo `json:"project"`
	Budget      Budget      `json:"budget"`
	Crew        []Member    `json:"crew"`
	Cast        []Member    `json:"cast"`
	Timeline    Timeline    `json:"timeline"`
	CashFlow    CashFlow    `json:"cash_flow"`
	Documents   []Document  `json:"documents"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// New creates an empty draft at the first step.
func New(now time.Time) *Draft {
	return &Draft{
		ID:        uuid.NewString(),
		Status:    StatusDraft,
		Step:      StepProjectInfo,
		Crew:      []Member{},
		Cast:      []Member{},
		CashFlow:  CashFlow{Tranches: []tranche.Tranche{}},
		Documents: []Document{},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// =============================================================================
// CASH FLOW
// =============================================================================

// PersistCashFlow implements tranche.Persister.
func (d *Draft) PersistCashFlow(pt tranche.ProjectType, ts []tranche.Tranche) {
	d.Project.ProjectType = pt
	d.CashFlow.Tranches = ts
}

// CashFlowSet restores the tranche schedule bound to this draft. Every
// change made through the set is written back into the draft.
func (d *Draft) CashFlowSet(opts ...tranche.Option) *tranche.Set {
	opts = append(opts, tranche.WithPersister(d))
	return tranche.Restore(d.Project.ProjectType, d.Budget.Total(), d.CashFlow.Tranches, opts...)
}

// CashFlowSummary reconciles the schedule against the current budget.
func (d *Draft) CashFlowSummary() tranche.Summary {
	return d.CashFlowSet().Summary()
}

// AutoScheduleDates fills empty expected dates from the timeline. Returns
// how many tranches were updated; zero when no start date is set.
func (d *Draft) AutoScheduleDates() (int, error) {
	m, ok := d.Timeline.Milestones()
	if !ok {
		return 0, nil
	}
	set := d.CashFlowSet()
	ts := set.Tranches()
	dates := m.PaymentDates(len(ts))
	updated := 0
	for i, t := range ts {
		if t.ExpectedDate != "" {
			continue
		}
		if _, err := set.Apply(tranche.EditExpectedDate{ID: t.ID, Date: dates[i]}); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// =============================================================================
// EDITING
// =============================================================================

// Replace overwrites the editable sections with the incoming document and
// keeps the cash flow in sync with the project type and budget.
func (d *Draft) Replace(in Draft, now time.Time) error {
	if d.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}

	prevType := d.Project.ProjectType
	prevBudget := d.Budget.Total()

	if in.Step != "" {
		d.Step = in.Step
	}
	d.Project = in.Project
	d.Budget = in.Budget
	d.Crew = nonNilMembers(in.Crew)
	d.Cast = nonNilMembers(in.Cast)
	d.Timeline = in.Timeline
	if in.Documents != nil {
		d.Documents = in.Documents
	}

	switch {
	case d.Project.ProjectType != prevType && d.Project.ProjectType != "":
		if _, err := d.CashFlowSet().ChangeProjectType(d.Project.ProjectType); err != nil {
			return err
		}
	default:
		if in.CashFlow.Tranches != nil {
			d.CashFlow.Tranches = in.CashFlow.Tranches
		}
		if !d.Budget.Total().Equal(prevBudget) {
			d.CashFlowSet().ChangeBudget(d.Budget.Total())
		}
	}

	d.UpdatedAt = now.UTC()
	return nil
}

// SetBudget replaces the budget section and rescales tranche amounts to the
// new total. Percentages are kept.
func (d *Draft) SetBudget(b Budget, now time.Time) error {
	if d.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	d.Budget = b
	d.CashFlowSet().ChangeBudget(b.Total())
	d.UpdatedAt = now.UTC()
	return nil
}

// Touch records a modification time.
func (d *Draft) Touch(now time.Time) {
	d.UpdatedAt = now.UTC()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit marks the draft as submitted and returns content warnings. It only
// fails when the draft was already submitted.
func (d *Draft) Submit(now time.Time) ([]string, error) {
	if d.Status == StatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	warnings := d.Warnings()
	submitted := now.UTC()
	d.Status = StatusSubmitted
	d.Step = StepReview
	d.SubmittedAt = &submitted
	d.UpdatedAt = submitted
	return warnings, nil
}

// Warnings lists what a reviewer would flag, without blocking anything.
func (d *Draft) Warnings() []string {
	var warnings []string
	if strings.TrimSpace(d.Project.Title) == "" {
		warnings = append(warnings, "project title is missing")
	}
	if d.Project.ProjectType == "" {
		warnings = append(warnings, "project type is not selected")
	}
	if !d.Budget.Total().IsPositive() {
		warnings = append(warnings, "budget is not available")
	}
	sum := d.CashFlowSummary()
	switch {
	case len(d.CashFlow.Tranches) == 0:
		warnings = append(warnings, "no payment tranches defined")
	case !sum.Balanced:
		warnings = append(warnings, fmt.Sprintf("cash flow totals %s, expected 100%%", money.FormatPercent(sum.TotalPercentage)))
	}
	return warnings
}

func (d *Draft) CrewCost() decimal.Decimal { return TotalFees(d.Crew) }

func (d *Draft) CastCost() decimal.Decimal { return TotalFees(d.Cast) }

// TalentCost is the sum of crew and cast fees.
func (d *Draft) TalentCost() decimal.Decimal {
	return money.Sum(d.CrewCost(), d.CastCost())
}

func nonNilMembers(m []Member) []Member {
	if m == nil {
		return []Member{}
	}
	return m
}
