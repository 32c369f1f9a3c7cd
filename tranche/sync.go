package tranche

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
)

// =============================================================================
// PERSISTER - Owning form state
// =============================================================================

// Persister receives the full schedule after every successful change so it
// survives navigation between wizard steps. Implementations must copy or
// take ownership of the slice; the Set never touches it again.
type Persister interface {
	PersistCashFlow(pt ProjectType, tranches []Tranche)
}

// =============================================================================
// SET - Editable tranche schedule
// =============================================================================

// Set is the cash-flow schedule of one submission. It is not safe for
// concurrent use; a draft is edited by a single session at a time.
type Set struct {
	projectType ProjectType
	budget      decimal.Decimal
	tranches    []Tranche
	persister   Persister
	newID       func() string
}

type Option func(*Set)

// WithPersister attaches the owning form state.
func WithPersister(p Persister) Option {
	return func(s *Set) { s.persister = p }
}

// WithIDGenerator replaces uuid generation, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Set) { s.newID = fn }
}

// NewSet creates an empty schedule for the given budget.
func NewSet(budget decimal.Decimal, opts ...Option) *Set {
	s := &Set{
		budget: clampBudget(budget),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a schedule from persisted state without recomputing
// anything, so customized percentages and amounts come back as saved.
func Restore(pt ProjectType, budget decimal.Decimal, tranches []Tranche, opts ...Option) *Set {
	s := NewSet(budget, opts...)
	s.projectType = pt
	s.tranches = cloneTranches(tranches)
	return s
}

func (s *Set) ProjectType() ProjectType { return s.projectType }
func (s *Set) Budget() decimal.Decimal  { return s.budget }
func (s *Set) Len() int                 { return len(s.tranches) }

// Tranches returns a copy of the current schedule in order.
func (s *Set) Tranches() []Tranche {
	return cloneTranches(s.tranches)
}

// Get returns a tranche by id.
func (s *Set) Get(id string) (Tranche, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Tranche{}, false
	}
	return s.tranches[i], true
}

// ChangeProjectType replaces the whole schedule with the project type's
// templates applied to the current budget.
func (s *Set) ChangeProjectType(pt ProjectType) ([]Tranche, error) {
	templates := Resolve(pt)
	if templates == nil {
		return nil, &UnknownProjectTypeError{Value: string(pt)}
	}
	s.projectType = pt
	s.tranches = Materialize(templates, s.budget, s.newID)
	s.persist()
	return s.Tranches(), nil
}

// ChangeBudget rescales every amount to a new budget. Percentages are kept.
func (s *Set) ChangeBudget(budget decimal.Decimal) []Tranche {
	s.budget = clampBudget(budget)
	for i := range s.tranches {
		s.tranches[i].Amount = AmountFor(s.budget, s.tranches[i].Percentage)
	}
	s.persist()
	return s.Tranches()
}

// Apply runs a single edit against one tranche.
func (s *Set) Apply(e Edit) ([]Tranche, error) {
	i := s.indexOf(e.TrancheID())
	if i < 0 {
		return nil, ErrTrancheNotFound
	}
	updated := s.tranches[i]
	if err := e.apply(&updated, s.budget); err != nil {
		return nil, err
	}
	s.tranches[i] = updated
	s.persist()
	return s.Tranches(), nil
}

// AddCustom appends an empty tranche at 0% for the creator to fill in.
func (s *Set) AddCustom() Tranche {
	t := Tranche{
		ID:         s.newID(),
		Name:       "Custom Tranche",
		Percentage: decimal.Zero,
		Amount:     decimal.Zero,
		Status:     StatusPending,
	}
	s.tranches = append(s.tranches, t)
	s.persist()
	return t
}

// Remove drops a tranche. Unknown ids leave the schedule unchanged.
func (s *Set) Remove(id string) []Tranche {
	kept := s.tranches[:0:0]
	for _, t := range s.tranches {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tranches = kept
	s.persist()
	return s.Tranches()
}

// Summary reports the reconciliation totals for the current schedule.
func (s *Set) Summary() Summary {
	sum := Summarize(s.tranches)
	sum.BudgetAvailable = s.budget.IsPositive()
	sum.Budget = s.budget
	return sum
}

func (s *Set) persist() {
	if s.persister != nil {
		s.persister.PersistCashFlow(s.projectType, s.Tranches())
	}
}

func (s *Set) indexOf(id string) int {
	for i, t := range s.tranches {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// SHARED RULES
// =============================================================================

// AmountFor applies a percentage to a budget: round(budget * pct / 100).
// Every tranche amount in the system is computed through this function.
func AmountFor(budget, pct decimal.Decimal) decimal.Decimal {
	return money.Percent(budget, pct)
}

// Materialize turns templates into pending tranches with fresh ids.
func Materialize(templates []Template, budget decimal.Decimal, newID func() string) []Tranche {
	if newID == nil {
		newID = uuid.NewString
	}
	tranches := make([]Tranche, len(templates))
	for i, tpl := range templates {
		tranches[i] = Tranche{
			ID:          newID(),
			Name:        tpl.Name,
			Description: tpl.Description,
			Percentage:  tpl.Percentage,
			Amount:      AmountFor(budget, tpl.Percentage),
			Status:      StatusPending,
		}
	}
	return tranches
}

func clampBudget(b decimal.Decimal) decimal.Decimal {
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

func cloneTranches(ts []Tranche) []Tranche {
	if ts == nil {
		return []Tranche{}
	}
	out := make([]Tranche, len(ts))
	copy(out, ts)
	return out
}
