/*
handlers.go - HTTP API handlers for the studio onboarding system

PURPOSE:
  Exposes the submission wizard, the cash-flow tranche engine and the admin
  pipeline via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to domain logic.

ENDPOINTS:
  Drafts:
    GET    /api/drafts                     List drafts (newest first)
    POST   /api/drafts                     Create draft (optional initial document)
    GET    /api/drafts/{id}                Get draft with derived figures
    PUT    /api/drafts/{id}                Replace draft document
    PUT    /api/drafts/{id}/budget         Replace budget, rescale tranches
    DELETE /api/drafts/{id}                Delete draft
    POST   /api/drafts/{id}/submit         Submit draft, create project

  Cash flow (cashflow.go):
    GET    /api/drafts/{id}/cashflow                        Tranches + summary
    PUT    /api/drafts/{id}/cashflow/project-type           Regenerate from templates
    POST   /api/drafts/{id}/cashflow/tranches               Add custom tranche
    PATCH  /api/drafts/{id}/cashflow/tranches/{trancheID}   Edit one field
    DELETE /api/drafts/{id}/cashflow/tranches/{trancheID}   Remove tranche
    POST   /api/drafts/{id}/cashflow/schedule-dates         Fill expected dates
    GET    /api/tranche-templates                           Project types
    GET    /api/tranche-templates/{projectType}             Template preview
    GET    /api/lock-formats                                Lock formats
    GET    /api/lock-formats/{format}                       Lock table preview

  Admin (projects.go):
    Projects, pipeline stages, invoices and analytics

  Scenarios (scenarios.go):
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (drafts and pipeline)
  - Logger: Structured logging for server-side failures
  - now: Clock, replaced in tests

  Read-modify-write cycles (load draft, apply change, save) run under one
  mutex so two edits to the same draft cannot interleave.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (already submitted, already locked, duplicate invoice)
  - 500: Internal errors (logged)

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/store/sqlite"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Logger *zap.Logger

	now func() time.Time
	mu  sync.Mutex

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Logger: logger,
		now:    time.Now,
	}
}

// =============================================================================
// DRAFT HANDLERS
// =============================================================================

// ListDrafts returns all drafts, newest first.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.Store.ListDrafts(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list drafts", err)
		return
	}

	dtos := make([]DraftSummaryDTO, len(drafts))
	for i, d := range drafts {
		dtos[i] = toDraftSummaryDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDraft starts a new draft. A non-empty body is treated as the
// initial document.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	now := h.now()
	d := submission.New(now)
	if len(bytes.TrimSpace(body)) > 0 {
		in, err := submission.Decode(body)
		if err != nil {
			h.fail(w, r, "Invalid draft", err)
			return
		}
		if err := d.Replace(in, now); err != nil {
			h.fail(w, r, "Invalid draft", err)
			return
		}
	}

	if err := h.Store.SaveDraft(r.Context(), *d); err != nil {
		h.fail(w, r, "Failed to create draft", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDraftResponse(d))
}

// GetDraft returns a draft with its derived figures.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// UpdateDraft replaces the draft document. The cash flow is regenerated on a
// project type change and rescaled on a budget change.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := submission.Decode(body)
	if err != nil {
		h.fail(w, r, "Invalid draft", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	d, err := h.Store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}
	if err := d.Replace(in, h.now()); err != nil {
		h.fail(w, r, "Failed to update draft", err)
		return
	}
	if err := h.Store.SaveDraft(r.Context(), *d); err != nil {
		h.fail(w, r, "Failed to save draft", err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// SetBudget replaces only the budget step. Tranche percentages are kept and
// amounts follow the new total.
func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	b, err := submission.DecodeBudget(body)
	if err != nil {
		h.fail(w, r, "Invalid budget", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	d, err := h.Store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}
	if err := d.SetBudget(b, h.now()); err != nil {
		h.fail(w, r, "Failed to update budget", err)
		return
	}
	if err := h.Store.SaveDraft(r.Context(), *d); err != nil {
		h.fail(w, r, "Failed to save draft", err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// DeleteDraft removes a draft.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitDraft submits the draft and opens a project for it at the
// submitted stage. Content problems come back as warnings, never as errors.
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	d, err := h.Store.GetDraft(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}

	now := h.now()
	warnings, err := d.Submit(now)
	if err != nil {
		h.fail(w, r, "Failed to submit draft", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}

	project, err := pipeline.FromDraft(*d, now)
	if err != nil {
		h.fail(w, r, "Failed to create project", err)
		return
	}
	if err := h.Store.SaveDraft(ctx, *d); err != nil {
		h.fail(w, r, "Failed to save draft", err)
		return
	}
	if err := h.Store.SaveProject(ctx, *project); err != nil {
		h.fail(w, r, "Failed to save project", err)
		return
	}

	h.Logger.Info("draft submitted",
		zap.String("draft_id", d.ID),
		zap.String("project_id", project.ID),
		zap.Int("warnings", len(warnings)),
	)

	writeJSON(w, http.StatusOK, SubmitResponse{
		Draft:    toDraftResponse(d),
		Project:  toProjectDTO(project),
		Warnings: warnings,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a domain error to its HTTP status. Server-side failures are
// logged; client errors are only returned.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message,
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
		)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case submission.IsNotFound(err), pipeline.IsNotFound(err), errors.Is(err, tranche.ErrTrancheNotFound):
		return http.StatusNotFound
	case errors.Is(err, submission.ErrAlreadySubmitted), pipeline.IsConflict(err):
		return http.StatusConflict
	case submission.IsClientError(err), pipeline.IsClientError(err), tranche.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
