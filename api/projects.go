package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// PROJECT HANDLERS
// =============================================================================
//   GET    /api/projects                         List projects
//   POST   /api/projects                         Create (direct or from draft)
//   GET    /api/projects/{id}                    Project with locked schedule
//   POST   /api/projects/{id}/lock               Lock payment schedule
//   PATCH  /api/projects/{id}/tranches/{tid}     Edit a locked tranche

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = toProjectDTO(&projects[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject creates a project. With draft_id the project is built from
// the submitted draft; otherwise title, format and budget are required.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	now := h.now()

	var (
		p   *pipeline.Project
		err error
	)
	if req.DraftID != "" {
		d, derr := h.Store.GetDraft(ctx, req.DraftID)
		if derr != nil {
			h.fail(w, r, "Failed to get draft", derr)
			return
		}
		p, err = pipeline.FromDraft(*d, now)
	} else {
		p, err = pipeline.NewProject(req.Title, tranche.LockFormat(req.Format), money.FromFloat(req.TotalBudget), now)
	}
	if err != nil {
		h.fail(w, r, "Invalid project", err)
		return
	}

	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// GetProject returns a project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// LockProject generates the locked payment schedule. The body may override
// the total budget.
func (h *Handler) LockProject(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	p, err := h.Store.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	if err := p.Lock(money.FromFloat(req.TotalBudget), h.now()); err != nil {
		h.fail(w, r, "Failed to lock project", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}

	h.Logger.Info("project locked",
		zap.String("project_id", p.ID),
		zap.String("format", string(p.Format)),
		zap.String("budget", p.TotalBudget.String()),
	)
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// UpdateProjectTranche edits one field of a locked tranche.
func (h *Handler) UpdateProjectTranche(w http.ResponseWriter, r *http.Request) {
	edit, err := parseEditRequest(r, chi.URLParam(r, "trancheID"))
	if err != nil {
		h.fail(w, r, "Invalid tranche edit", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	p, err := h.Store.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	if err := p.UpdateTranche(h.now(), edit); err != nil {
		h.fail(w, r, "Failed to update tranche", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// =============================================================================
// PIPELINE HANDLERS
// =============================================================================

// GetPipeline groups projects by stage, in pipeline order.
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list projects", err)
		return
	}

	stages := append(pipeline.Stages(), pipeline.StageRejected)
	dto := PipelineDTO{
		Stages:   make([]string, len(stages)),
		Projects: make(map[string][]ProjectDTO, len(stages)),
	}
	for i, st := range stages {
		dto.Stages[i] = string(st)
		dto.Projects[string(st)] = []ProjectDTO{}
	}
	for i := range projects {
		key := string(projects[i].Stage)
		dto.Projects[key] = append(dto.Projects[key], toProjectDTO(&projects[i]))
	}
	writeJSON(w, http.StatusOK, dto)
}

// AdvanceProject moves a project to the requested stage and records the
// transition in its history.
func (h *Handler) AdvanceProject(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	p, err := h.Store.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}

	to := pipeline.Stage(req.To)
	if req.To == "" {
		next, ok := p.Stage.Next()
		if !ok {
			h.fail(w, r, "Project cannot advance", &pipeline.TransitionError{From: p.Stage, To: p.Stage})
			return
		}
		to = next
	} else if to, err = pipeline.ParseStage(req.To); err != nil {
		h.fail(w, r, "Invalid stage", err)
		return
	}

	ev, err := p.Advance(to, req.Note, h.now())
	if err != nil {
		h.fail(w, r, "Failed to advance project", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}
	if err := h.Store.AppendStageEvent(ctx, ev); err != nil {
		h.fail(w, r, "Failed to record stage event", err)
		return
	}

	h.Logger.Info("project advanced",
		zap.String("project_id", p.ID),
		zap.String("from", string(ev.From)),
		zap.String("to", string(ev.To)),
	)
	writeJSON(w, http.StatusOK, AdvanceResponse{
		Project: toProjectDTO(p),
		Event:   toStageEventDTO(ev),
	})
}

// ListStageEvents returns a project's pipeline history.
func (h *Handler) ListStageEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetProject(ctx, id); err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}

	events, err := h.Store.ListStageEvents(ctx, id)
	if err != nil {
		h.fail(w, r, "Failed to list stage events", err)
		return
	}
	dtos := make([]StageEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toStageEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// ListInvoices returns invoices, optionally filtered by ?project_id=.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		h.fail(w, r, "Failed to list invoices", err)
		return
	}
	dtos := make([]InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = toInvoiceDTO(&invoices[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RaiseInvoice bills one locked tranche, GST included.
func (h *Handler) RaiseInvoice(w http.ResponseWriter, r *http.Request) {
	var req RaiseInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	p, err := h.Store.GetProject(ctx, req.ProjectID)
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	existing, err := h.Store.ListInvoices(ctx, p.ID)
	if err != nil {
		h.fail(w, r, "Failed to list invoices", err)
		return
	}
	issued, err := h.Store.CountInvoices(ctx)
	if err != nil {
		h.fail(w, r, "Failed to count invoices", err)
		return
	}

	now := h.now()
	inv, err := pipeline.RaiseInvoice(p, req.TrancheID, pipeline.InvoiceNumber(issued+1, now), existing, now)
	if err != nil {
		h.fail(w, r, "Failed to raise invoice", err)
		return
	}
	if err := h.Store.SaveInvoice(ctx, *inv); err != nil {
		h.fail(w, r, "Failed to save invoice", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}

	h.Logger.Info("invoice raised",
		zap.String("invoice", inv.Number),
		zap.String("project_id", p.ID),
		zap.String("total", inv.Total.String()),
	)
	writeJSON(w, http.StatusCreated, toInvoiceDTO(inv))
}

// PayInvoice marks an invoice paid and completes its tranche.
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	h.settleInvoice(w, r, pipeline.Settle)
}

// CancelInvoice voids an invoice and reopens its tranche.
func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	h.settleInvoice(w, r, pipeline.Cancel)
}

func (h *Handler) settleInvoice(w http.ResponseWriter, r *http.Request, fn func(*pipeline.Project, *pipeline.Invoice, time.Time) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	inv, err := h.Store.GetInvoice(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get invoice", err)
		return
	}
	p, err := h.Store.GetProject(ctx, inv.ProjectID)
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	if err := fn(p, inv, h.now()); err != nil {
		h.fail(w, r, "Failed to update invoice", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *p); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}
	if err := h.Store.SaveInvoice(ctx, *inv); err != nil {
		h.fail(w, r, "Failed to save invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// =============================================================================
// ANALYTICS
// =============================================================================

// GetAnalytics returns the admin dashboard figures.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drafts, err := h.Store.ListDrafts(ctx)
	if err != nil {
		h.fail(w, r, "Failed to list drafts", err)
		return
	}
	projects, err := h.Store.ListProjects(ctx)
	if err != nil {
		h.fail(w, r, "Failed to list projects", err)
		return
	}
	invoices, err := h.Store.ListInvoices(ctx, "")
	if err != nil {
		h.fail(w, r, "Failed to list invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsDTO(pipeline.Analyze(drafts, projects, invoices)))
}
