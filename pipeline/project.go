/*
Package pipeline provides the admin side of content production: projects,
their progress through the production pipeline, locked payment schedules,
invoices and dashboard analytics.

PURPOSE:
  A submitted draft becomes a project. Admins review it, greenlight it and
  lock its payment schedule, then move it through production while raising
  and settling invoices against the locked tranches.

PROJECT LIFECYCLE:
  submitted -> under_review -> greenlit -> pre_production -> production
  -> post_production -> delivered
  Any open stage can move to rejected. A project must be locked before it
  leaves greenlit.

LOCKING:
  Lock generates the schedule once from the project's format
  (tranche.LockSchedule). Afterwards tranches are only edited: status,
  actual dates, and amounts through the usual tranche edit commands.

SEE ALSO:
  - stage.go: Stage transitions
  - invoice.go: Invoices against locked tranches
  - analytics.go: Dashboard figures
*/
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// PROJECT
// =============================================================================

type Project struct {
	ID          string             `json:"id"`
	DraftID     string             `json:"draft_id,omitempty"`
	Title       string             `json:"title"`
	Format      tranche.LockFormat `json:"format"`
	TotalBudget decimal.Decimal    `json:"total_budget"`
	Stage       Stage              `json:"stage"`
	Locked      bool               `json:"locked"`
	LockedAt    *time.Time         `json:"locked_at,omitempty"`
	Tranches    []tranche.Tranche  `json:"tranches"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewProject creates an unlocked project at the submitted stage.
func NewProject(title string, format tranche.LockFormat, budget decimal.Decimal, now time.Time) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidProject)
	}
	if _, err := tranche.ParseLockFormat(string(format)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidProject)
	}
	return &Project{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Format:      format,
		TotalBudget: budget,
		Stage:       StageSubmitted,
		Tranches:    []tranche.Tranche{},
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// FromDraft creates a project from a submitted wizard draft.
func FromDraft(d submission.Draft, now time.Time) (*Project, error) {
	if d.Status != submission.StatusSubmitted {
		return nil, fmt.Errorf("%w: draft %s is not submitted", ErrInvalidProject, d.ID)
	}
	p, err := NewProject(d.Project.Title, FormatFor(d.Project.ProjectType), d.Budget.Total(), now)
	if err != nil {
		return nil, err
	}
	p.DraftID = d.ID
	return p, nil
}

// FormatFor maps a wizard project type to the lock format used by admins.
func FormatFor(pt tranche.ProjectType) tranche.LockFormat {
	switch pt {
	case tranche.ProjectFeature, tranche.ProjectMini:
		return tranche.FormatFilm
	case tranche.ProjectLongSeries, tranche.ProjectLimitedSeries:
		return tranche.FormatWebSeries
	case tranche.ProjectMicrodrama:
		return tranche.FormatMicrodrama
	default:
		return tranche.FormatOther
	}
}

// Lock generates the payment schedule from the project's format. A budget
// override, when positive, replaces the project's total budget first.
func (p *Project) Lock(budget decimal.Decimal, now time.Time) error {
	if p.Locked {
		return ErrAlreadyLocked
	}
	if p.Stage == StageRejected {
		return &TransitionError{From: p.Stage, To: p.Stage}
	}
	if budget.IsPositive() {
		p.TotalBudget = budget
	}
	ts, err := tranche.LockSchedule(p.Format, p.TotalBudget, uuid.NewString)
	if err != nil {
		return err
	}
	locked := now.UTC()
	p.Tranches = ts
	p.Locked = true
	p.LockedAt = &locked
	p.UpdatedAt = locked
	return nil
}

// UpdateTranche applies edits to one locked tranche.
func (p *Project) UpdateTranche(now time.Time, edits ...tranche.Edit) error {
	if !p.Locked {
		return ErrNotLocked
	}
	set := p.schedule()
	for _, e := range edits {
		if _, err := set.Apply(e); err != nil {
			return err
		}
	}
	p.Tranches = set.Tranches()
	p.UpdatedAt = now.UTC()
	return nil
}

// Tranche returns a locked tranche by id.
func (p *Project) Tranche(id string) (tranche.Tranche, bool) {
	return p.schedule().Get(id)
}

// Summary reconciles the locked schedule.
func (p *Project) Summary() tranche.Summary {
	return p.schedule().Summary()
}

func (p *Project) schedule() *tranche.Set {
	return tranche.Restore("", p.TotalBudget, p.Tranches)
}

// Advance moves the project to another stage and returns the history entry.
func (p *Project) Advance(to Stage, note string, now time.Time) (StageEvent, error) {
	if !CanTransition(p.Stage, to) {
		return StageEvent{}, &TransitionError{From: p.Stage, To: to}
	}
	if p.Stage == StageGreenlit && to != StageRejected && !p.Locked {
		return StageEvent{}, fmt.Errorf("leave %s: %w", StageGreenlit, ErrNotLocked)
	}
	ev := StageEvent{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		From:      p.Stage,
		To:        to,
		Note:      note,
		CreatedAt: now.UTC(),
	}
	p.Stage = to
	p.UpdatedAt = now.UTC()
	return ev, nil
}
