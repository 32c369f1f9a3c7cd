/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates drafts and, where the
	story needs it, projects, stage history and invoices through the same
	domain operations the API uses.

AVAILABLE SCENARIOS:

	feature-film:        One feature draft, 1 Cr budget, dated schedule
	unbalanced-cashflow: Microdrama draft whose tranches sum to 90%
	series-in-production: Long series submitted, locked, one tranche paid
	studio-slate:        Several projects across the pipeline for analytics

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build drafts through submission.Draft and tranche.Set
 3. Submit / lock / advance / invoice through the pipeline package
 4. Persist everything through the store

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "feature-film"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to scenarioLoaders

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Domain operations mirrored here
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "feature-film",
		Name:        "Feature Film",
		Description: "Feature draft with a 1 Cr budget, standard film plan and scheduled dates",
	},
	{
		ID:          "unbalanced-cashflow",
		Name:        "Unbalanced Cash Flow",
		Description: "Microdrama draft whose tranches only cover 90% of the budget",
	},
	{
		ID:          "series-in-production",
		Name:        "Series In Production",
		Description: "Long series submitted, greenlit, locked and in pre-production with one paid invoice",
	},
	{
		ID:          "studio-slate",
		Name:        "Studio Slate",
		Description: "Projects across every stage, including a rejection, for the analytics dashboard",
	},
}

func (h *Handler) scenarioLoaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"feature-film":         h.loadFeatureFilmScenario,
		"unbalanced-cashflow":  h.loadUnbalancedScenario,
		"series-in-production": h.loadSeriesInProductionScenario,
		"studio-slate":         h.loadStudioSlateScenario,
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := h.scenarioLoaders()[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFeatureFilmScenario(ctx context.Context) error {
	now := h.now()
	d := scenarioDraft(now, "Monsoon Letters", tranche.ProjectFeature, "9000000", "10")
	d.Project.Language = "Hindi"
	d.Project.Genre = "Drama"
	d.Timeline = submission.Timeline{
		StartDate:           now.AddDate(0, 1, 0).Format(time.DateOnly),
		PreProductionWeeks:  6,
		ShootDays:           40,
		PostProductionWeeks: 10,
	}
	d.Crew = []submission.Member{
		{Name: "Asha Rao", Role: "Director", Fee: decimal.NewFromInt(1500000)},
		{Name: "Kabir Sen", Role: "Cinematographer", Fee: decimal.NewFromInt(800000)},
	}
	d.Step = submission.StepCashFlow
	if _, err := d.CashFlowSet().ChangeProjectType(tranche.ProjectFeature); err != nil {
		return err
	}
	if _, err := d.AutoScheduleDates(); err != nil {
		return err
	}
	return h.Store.SaveDraft(ctx, *d)
}

func (h *Handler) loadUnbalancedScenario(ctx context.Context) error {
	d := scenarioDraft(h.now(), "Second Chances", tranche.ProjectMicrodrama, "500000", "0")
	set := d.CashFlowSet()
	ts, err := set.ChangeProjectType(tranche.ProjectMicrodrama)
	if err != nil {
		return err
	}
	if _, err := set.Apply(tranche.EditPercentage{ID: ts[1].ID, Percentage: decimal.NewFromInt(40)}); err != nil {
		return err
	}
	d.Step = submission.StepCashFlow
	return h.Store.SaveDraft(ctx, *d)
}

func (h *Handler) loadSeriesInProductionScenario(ctx context.Context) error {
	now := h.now()
	d := scenarioDraft(now.AddDate(0, -2, 0), "The Long Monsoon", tranche.ProjectLongSeries, "20000000", "5")
	d.Project.Episodes = 10
	if _, err := d.CashFlowSet().ChangeProjectType(tranche.ProjectLongSeries); err != nil {
		return err
	}

	p, err := h.submitScenarioDraft(ctx, d, now.AddDate(0, -2, 0))
	if err != nil {
		return err
	}
	for i, to := range []pipeline.Stage{pipeline.StageUnderReview, pipeline.StageGreenlit} {
		if err := h.advanceScenarioProject(ctx, p, to, now.AddDate(0, -1, i)); err != nil {
			return err
		}
	}
	if err := p.Lock(decimal.Zero, now.AddDate(0, -1, 2)); err != nil {
		return err
	}
	if err := h.advanceScenarioProject(ctx, p, pipeline.StagePreProduction, now.AddDate(0, -1, 3)); err != nil {
		return err
	}

	inv, err := h.raiseScenarioInvoice(ctx, p, p.Tranches[0].ID, now.AddDate(0, 0, -20))
	if err != nil {
		return err
	}
	if err := pipeline.Settle(p, inv, now.AddDate(0, 0, -5)); err != nil {
		return err
	}
	if err := h.Store.SaveInvoice(ctx, *inv); err != nil {
		return err
	}
	if _, err := h.raiseScenarioInvoice(ctx, p, p.Tranches[1].ID, now.AddDate(0, 0, -1)); err != nil {
		return err
	}
	return h.Store.SaveProject(ctx, *p)
}

func (h *Handler) loadStudioSlateScenario(ctx context.Context) error {
	now := h.now()
	slate := []struct {
		title  string
		format tranche.LockFormat
		budget int64
		path   []pipeline.Stage
	}{
		{"Paper Boats", tranche.FormatFilm, 25000000, []pipeline.Stage{pipeline.StageUnderReview}},
		{"City of Rivers", tranche.FormatWebSeries, 60000000, []pipeline.Stage{
			pipeline.StageUnderReview, pipeline.StageGreenlit, pipeline.StagePreProduction, pipeline.StageProduction,
		}},
		{"Salt Roads", tranche.FormatDocumentary, 8000000, []pipeline.Stage{
			pipeline.StageUnderReview, pipeline.StageGreenlit, pipeline.StagePreProduction,
			pipeline.StageProduction, pipeline.StagePostProduction, pipeline.StageDelivered,
		}},
		{"Ten Minute Hearts", tranche.FormatMicrodrama, 1500000, []pipeline.Stage{
			pipeline.StageUnderReview, pipeline.StageRejected,
		}},
	}

	for i, item := range slate {
		created := now.AddDate(0, -6+i, 0)
		p, err := pipeline.NewProject(item.title, item.format, decimal.NewFromInt(item.budget), created)
		if err != nil {
			return err
		}
		if err := h.Store.SaveProject(ctx, *p); err != nil {
			return err
		}
		for j, to := range item.path {
			at := created.AddDate(0, 0, 7*(j+1))
			if p.Stage == pipeline.StageGreenlit && to != pipeline.StageRejected {
				if err := p.Lock(decimal.Zero, at); err != nil {
					return err
				}
			}
			if err := h.advanceScenarioProject(ctx, p, to, at); err != nil {
				return err
			}
		}
		if p.Stage == pipeline.StageDelivered {
			for k, t := range p.Tranches {
				inv, err := h.raiseScenarioInvoice(ctx, p, t.ID, created.AddDate(0, 1, k))
				if err != nil {
					return err
				}
				if err := pipeline.Settle(p, inv, created.AddDate(0, 1, k+3)); err != nil {
					return err
				}
				if err := h.Store.SaveInvoice(ctx, *inv); err != nil {
					return err
				}
			}
		}
		if err := h.Store.SaveProject(ctx, *p); err != nil {
			return err
		}
	}

	// One open wizard draft so the dashboard shows work in progress.
	d := scenarioDraft(now, "Untitled Thriller", tranche.ProjectLimitedSeries, "12000000", "0")
	if _, err := d.CashFlowSet().ChangeProjectType(tranche.ProjectLimitedSeries); err != nil {
		return err
	}
	return h.Store.SaveDraft(ctx, *d)
}

// =============================================================================
// HELPERS
// =============================================================================

func scenarioDraft(now time.Time, title string, pt tranche.ProjectType, budget, contingency string) *submission.Draft {
	d := submission.New(now)
	d.Project.Title = title
	d.Project.ProjectType = pt
	d.Budget = submission.Budget{
		ContingencyPercent: decimal.RequireFromString(contingency),
		LineItems: []submission.LineItem{
			{Category: "production", Description: "Production", Amount: decimal.RequireFromString(budget)},
		},
	}
	return d
}

func (h *Handler) submitScenarioDraft(ctx context.Context, d *submission.Draft, at time.Time) (*pipeline.Project, error) {
	if _, err := d.Submit(at); err != nil {
		return nil, err
	}
	p, err := pipeline.FromDraft(*d, at)
	if err != nil {
		return nil, err
	}
	if err := h.Store.SaveDraft(ctx, *d); err != nil {
		return nil, err
	}
	return p, h.Store.SaveProject(ctx, *p)
}

func (h *Handler) advanceScenarioProject(ctx context.Context, p *pipeline.Project, to pipeline.Stage, at time.Time) error {
	ev, err := p.Advance(to, "", at)
	if err != nil {
		return err
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		return err
	}
	return h.Store.AppendStageEvent(ctx, ev)
}

func (h *Handler) raiseScenarioInvoice(ctx context.Context, p *pipeline.Project, trancheID string, at time.Time) (*pipeline.Invoice, error) {
	issued, err := h.Store.CountInvoices(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := pipeline.RaiseInvoice(p, trancheID, pipeline.InvoiceNumber(issued+1, at), nil, at)
	if err != nil {
		return nil, err
	}
	return inv, h.Store.SaveInvoice(ctx, *inv)
}
