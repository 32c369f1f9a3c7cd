package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// CASH FLOW HANDLERS
// =============================================================================
// Every mutation loads the draft, runs one tranche.Set operation bound to the
// draft, and saves the draft. The response is always the full cash-flow view
// so the client never recomputes totals.

// GetCashFlow returns the tranche table and its reconciliation summary.
func (h *Handler) GetCashFlow(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}
	writeJSON(w, http.StatusOK, toCashFlowDTO(d))
}

// SetProjectType regenerates the schedule from the type's templates.
func (h *Handler) SetProjectType(w http.ResponseWriter, r *http.Request) {
	var req ProjectTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	pt, err := tranche.ParseProjectType(req.ProjectType)
	if err != nil {
		h.fail(w, r, "Invalid project type", err)
		return
	}

	h.mutateCashFlow(w, r, http.StatusOK, func(set *tranche.Set) error {
		_, err := set.ChangeProjectType(pt)
		return err
	})
}

// AddTranche appends an empty custom tranche.
func (h *Handler) AddTranche(w http.ResponseWriter, r *http.Request) {
	h.mutateCashFlow(w, r, http.StatusCreated, func(set *tranche.Set) error {
		set.AddCustom()
		return nil
	})
}

// UpdateTranche edits one field of one tranche. Percentage and amount edits
// derive the other value from the draft's budget.
func (h *Handler) UpdateTranche(w http.ResponseWriter, r *http.Request) {
	edit, err := parseEditRequest(r, chi.URLParam(r, "trancheID"))
	if err != nil {
		h.fail(w, r, "Invalid tranche edit", err)
		return
	}

	h.mutateCashFlow(w, r, http.StatusOK, func(set *tranche.Set) error {
		_, err := set.Apply(edit)
		return err
	})
}

// RemoveTranche deletes a tranche. Unknown ids are ignored.
func (h *Handler) RemoveTranche(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "trancheID")
	h.mutateCashFlow(w, r, http.StatusOK, func(set *tranche.Set) error {
		set.Remove(id)
		return nil
	})
}

// ScheduleDates fills empty expected dates from the draft's timeline.
func (h *Handler) ScheduleDates(w http.ResponseWriter, r *http.Request) {
	h.mutateDraft(w, r, http.StatusOK, func(d *submission.Draft) error {
		_, err := d.AutoScheduleDates()
		return err
	})
}

func (h *Handler) mutateCashFlow(w http.ResponseWriter, r *http.Request, status int, fn func(*tranche.Set) error) {
	h.mutateDraft(w, r, status, func(d *submission.Draft) error {
		return fn(d.CashFlowSet())
	})
}

func (h *Handler) mutateDraft(w http.ResponseWriter, r *http.Request, status int, fn func(*submission.Draft) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, err := h.Store.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get draft", err)
		return
	}
	if d.Status == submission.StatusSubmitted {
		h.fail(w, r, "Draft is submitted", submission.ErrAlreadySubmitted)
		return
	}
	if err := fn(d); err != nil {
		h.fail(w, r, "Failed to update cash flow", err)
		return
	}
	d.Touch(h.now())
	if err := h.Store.SaveDraft(r.Context(), *d); err != nil {
		h.fail(w, r, "Failed to save draft", err)
		return
	}
	writeJSON(w, status, toCashFlowDTO(d))
}

// parseEditRequest reads {"field": ..., "value": ...}. The value may be a
// JSON string or number; both reach tranche.ParseEdit as text.
func parseEditRequest(r *http.Request, trancheID string) (tranche.Edit, error) {
	var req TrancheEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", tranche.ErrUnknownField, err)
	}
	return tranche.ParseEdit(trancheID, req.Field, rawValue(req.Value))
}

func rawValue(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

type projectTypeDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ListProjectTypes returns the wizard's project types.
func (h *Handler) ListProjectTypes(w http.ResponseWriter, r *http.Request) {
	types := tranche.ProjectTypes()
	dtos := make([]projectTypeDTO, len(types))
	for i, pt := range types {
		dtos[i] = projectTypeDTO{ID: string(pt), Label: pt.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTemplates previews a project type's templates. ?budget= fills amounts.
func (h *Handler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	pt, err := tranche.ParseProjectType(chi.URLParam(r, "projectType"))
	if err != nil {
		h.fail(w, r, "Unknown project type", err)
		return
	}
	budget := money.ParseDecimal(r.URL.Query().Get("budget"))
	writeJSON(w, http.StatusOK, toTemplateDTOs(tranche.Resolve(pt), budget))
}

// ListLockFormats returns the admin lock formats.
func (h *Handler) ListLockFormats(w http.ResponseWriter, r *http.Request) {
	formats := tranche.LockFormats()
	ids := make([]string, len(formats))
	for i, f := range formats {
		ids[i] = string(f)
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetLockFormat previews the lock-time schedule for a format.
func (h *Handler) GetLockFormat(w http.ResponseWriter, r *http.Request) {
	f, err := tranche.ParseLockFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, r, "Unknown lock format", err)
		return
	}
	templates, err := tranche.LockTemplates(f)
	if err != nil {
		h.fail(w, r, "Unknown lock format", err)
		return
	}
	budget := money.ParseDecimal(r.URL.Query().Get("budget"))
	writeJSON(w, http.StatusOK, toTemplateDTOs(templates, budget))
}
