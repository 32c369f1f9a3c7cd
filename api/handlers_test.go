/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Cash-flow step: template generation, field edits, custom tranches
- Draft replace / submit rules
- Admin flow: lock, pipeline stages, invoices, analytics
- Error mapping to HTTP status
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/store/sqlite"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, zap.NewNop())
	h.now = func() time.Time { return testNow }
	return h
}

func setupTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	h := setupTestHandler(t)
	return h, NewRouter(h, []string{"*"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const featureDraftJSON = `{
	"project": {"title": "Monsoon Letters", "project_type": "feature"},
	"budget": {"line_items": [{"category": "production", "description": "All in", "amount": "10000000"}], "contingency_percent": "0"}
}`

func createFeatureDraft(t *testing.T, router http.Handler) DraftResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/drafts", featureDraftJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[DraftResponse](t, rec)
}

// =============================================================================
// CASH FLOW
// =============================================================================

func TestCashFlow_FeatureFilm(t *testing.T) {
	// GIVEN: A feature draft with a 1 Cr budget
	_, router := setupTestServer(t)
	created := createFeatureDraft(t, router)

	// THEN: The standard film plan is generated at 25/25/40/10
	cf := created.CashFlow
	require.Len(t, cf.Tranches, 4)
	assert.Equal(t, "feature", cf.ProjectType)
	for i, want := range []float64{2500000, 2500000, 4000000, 1000000} {
		assert.Equal(t, want, cf.Tranches[i].Amount, "tranche %d", i)
	}
	assert.Equal(t, "₹4,000,000", cf.Tranches[2].AmountDisplay)
	assert.True(t, cf.Summary.Balanced)
	assert.Equal(t, 1800000.0, cf.Summary.GST)
	assert.Equal(t, 11800000.0, cf.Summary.TotalWithGST)
	assert.Equal(t, "₹11,800,000", cf.Summary.TotalWithGSTDisplay)
}

func TestCashFlow_EditRoundTrip(t *testing.T) {
	// GIVEN: A generated feature schedule
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	base := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/", d.Draft.ID)
	last := d.CashFlow.Tranches[3].ID

	// WHEN: Raising the final tranche to 15%
	rec := doJSON(t, router, http.MethodPatch, base+last, map[string]any{"field": "percentage", "value": "15"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cf := decodeAs[CashFlowDTO](t, rec)

	// THEN: The amount follows and the schedule no longer balances
	assert.Equal(t, 1500000.0, cf.Tranches[3].Amount)
	assert.Equal(t, 105.0, cf.Summary.TotalPercentage)
	assert.False(t, cf.Summary.Balanced)

	// WHEN: Setting the amount back (as a JSON number)
	rec = doJSON(t, router, http.MethodPatch, base+last, map[string]any{"field": "amount", "value": 1000000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cf = decodeAs[CashFlowDTO](t, rec)

	// THEN: The percentage is derived and the schedule balances again
	assert.Equal(t, 10.0, cf.Tranches[3].Percentage)
	assert.True(t, cf.Summary.Balanced)

	// AND: The change is persisted
	rec = doJSON(t, router, http.MethodGet, "/api/drafts/"+d.Draft.ID+"/cashflow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10.0, decodeAs[CashFlowDTO](t, rec).Tranches[3].Percentage)
}

func TestCashFlow_PlainFieldEdits(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/%s", d.Draft.ID, d.CashFlow.Tranches[0].ID)

	for _, edit := range []map[string]any{
		{"field": "name", "value": "Signing Amount"},
		{"field": "expectedDate", "value": "2026-11-01"},
		{"field": "status", "value": "in-progress"},
	} {
		rec := doJSON(t, router, http.MethodPatch, path, edit)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/drafts/"+d.Draft.ID+"/cashflow", nil)
	first := decodeAs[CashFlowDTO](t, rec).Tranches[0]
	assert.Equal(t, "Signing Amount", first.Name)
	assert.Equal(t, "2026-11-01", first.ExpectedDate)
	assert.Equal(t, "in-progress", first.Status)
	assert.Equal(t, 2500000.0, first.Amount, "plain edits leave money alone")
}

func TestCashFlow_EditErrors(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	tid := d.CashFlow.Tranches[0].ID

	cases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown field", "/api/drafts/" + d.Draft.ID + "/cashflow/tranches/" + tid, map[string]any{"field": "colour", "value": "red"}, http.StatusBadRequest},
		{"bad date", "/api/drafts/" + d.Draft.ID + "/cashflow/tranches/" + tid, map[string]any{"field": "expectedDate", "value": "01/11/2026"}, http.StatusBadRequest},
		{"bad status", "/api/drafts/" + d.Draft.ID + "/cashflow/tranches/" + tid, map[string]any{"field": "status", "value": "done"}, http.StatusBadRequest},
		{"unknown tranche", "/api/drafts/" + d.Draft.ID + "/cashflow/tranches/nope", map[string]any{"field": "name", "value": "x"}, http.StatusNotFound},
		{"unknown draft", "/api/drafts/nope/cashflow/tranches/" + tid, map[string]any{"field": "name", "value": "x"}, http.StatusNotFound},
		{"malformed body", "/api/drafts/" + d.Draft.ID + "/cashflow/tranches/" + tid, "{", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPatch, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeAs[ErrorResponse](t, rec).Error)
		})
	}
}

func TestCashFlow_MalformedNumberIsZero(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/%s", d.Draft.ID, d.CashFlow.Tranches[0].ID)

	rec := doJSON(t, router, http.MethodPatch, path, map[string]any{"field": "percentage", "value": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	cf := decodeAs[CashFlowDTO](t, rec)
	assert.Equal(t, 0.0, cf.Tranches[0].Amount)
	assert.Equal(t, 75.0, cf.Summary.TotalPercentage)
}

func TestCashFlow_HugeExponentIsZero(t *testing.T) {
	// GIVEN: A feature draft
	h, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/%s", d.Draft.ID, d.CashFlow.Tranches[0].ID)

	values := []any{"1e100000000", "-1e100000000", "1e-100000000", json.RawMessage("1e100000000")}
	for _, field := range []string{"percentage", "amount"} {
		for _, value := range values {
			// WHEN: A number with an absurd exponent is entered
			body, err := json.Marshal(map[string]any{"field": field, "value": value})
			require.NoError(t, err)
			done := make(chan *httptest.ResponseRecorder, 1)
			go func() {
				req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				done <- rec
			}()

			// THEN: It is coerced to zero and the handler returns promptly
			select {
			case rec := <-done:
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				cf := decodeAs[CashFlowDTO](t, rec)
				assert.Equal(t, 0.0, cf.Tranches[0].Amount, "%s=%v", field, value)
				assert.Equal(t, 0.0, cf.Tranches[0].Percentage, "%s=%v", field, value)
			case <-time.After(5 * time.Second):
				t.Fatalf("%s=%v edit did not finish", field, value)
			}
		}
	}

	// The handler lock was released: other mutations still go through.
	rec := doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/cashflow/tranches", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, h.mu.TryLock())
	h.mu.Unlock()
}

func TestCashFlow_AddRemoveAndRegenerate(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	base := "/api/drafts/" + d.Draft.ID + "/cashflow"

	rec := doJSON(t, router, http.MethodPost, base+"/tranches", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cf := decodeAs[CashFlowDTO](t, rec)
	require.Len(t, cf.Tranches, 5)
	custom := cf.Tranches[4]
	assert.Equal(t, "Custom Tranche", custom.Name)
	assert.Equal(t, "pending", custom.Status)
	assert.True(t, cf.Summary.Balanced, "an empty custom tranche adds 0%")

	rec = doJSON(t, router, http.MethodDelete, base+"/tranches/"+custom.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[CashFlowDTO](t, rec).Tranches, 4)

	rec = doJSON(t, router, http.MethodDelete, base+"/tranches/missing", nil)
	require.Equal(t, http.StatusOK, rec.Code, "removing an unknown tranche is a no-op")

	rec = doJSON(t, router, http.MethodPut, base+"/project-type", ProjectTypeRequest{ProjectType: "longSeries"})
	require.Equal(t, http.StatusOK, rec.Code)
	cf = decodeAs[CashFlowDTO](t, rec)
	require.Len(t, cf.Tranches, 5)
	assert.Equal(t, "longSeries", cf.ProjectType)
	assert.Equal(t, 1500000.0, cf.Tranches[4].Amount)

	rec = doJSON(t, router, http.MethodPut, base+"/project-type", ProjectTypeRequest{ProjectType: "podcast"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCashFlow_ScheduleDates(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)

	doc := *d.Draft
	doc.Timeline = submission.Timeline{StartDate: "2026-01-05", PreProductionWeeks: 4, ShootDays: 30, PostProductionWeeks: 6}
	rec := doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeAs[DraftResponse](t, rec)
	require.NotNil(t, updated.Milestones)
	assert.Equal(t, "2026-04-15", updated.Milestones.Delivery)

	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/cashflow/schedule-dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cf := decodeAs[CashFlowDTO](t, rec)
	assert.Equal(t, "2026-01-05", cf.Tranches[0].ExpectedDate)
	assert.Equal(t, "2026-04-15", cf.Tranches[3].ExpectedDate)
}

// =============================================================================
// DRAFTS
// =============================================================================

func TestUpdateDraft_BudgetChangeRescales(t *testing.T) {
	// GIVEN: A feature draft with a customized final tranche
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/%s", d.Draft.ID, d.CashFlow.Tranches[3].ID)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, path, map[string]any{"field": "percentage", "value": 15}).Code)

	rec := doJSON(t, router, http.MethodGet, "/api/drafts/"+d.Draft.ID, nil)
	doc := *decodeAs[DraftResponse](t, rec).Draft

	// WHEN: The budget step doubles the budget
	doc.Budget.LineItems[0].Amount = decimal.NewFromInt(20000000)
	rec = doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeAs[DraftResponse](t, rec)

	// THEN: Percentages are kept and amounts follow the new total
	assert.Equal(t, 20000000.0, got.BudgetTotal)
	assert.Equal(t, 15.0, got.CashFlow.Tranches[3].Percentage)
	assert.Equal(t, 3000000.0, got.CashFlow.Tranches[3].Amount)
	assert.Equal(t, 5000000.0, got.CashFlow.Tranches[0].Amount)
}

func TestUpdateDraft_RejectsOutOfRangeNumbers(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)

	bodies := []string{
		`{"budget": {"line_items": [{"category": "production", "amount": "1e100000000"}]}}`,
		`{"budget": {"line_items": [{"category": "production", "amount": 1e100000000}]}}`,
		`{"budget": {"contingency_percent": "1e100000000"}}`,
		`{"cash_flow": {"tranches": [{"id": "a", "status": "pending", "percentage": "1e100000000"}]}}`,
		`{"cash_flow": {"tranches": [{"id": "a", "status": "pending"}, {"id": "a", "status": "pending"}]}}`,
	}
	for _, body := range bodies {
		rec := doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	// The stored draft is untouched.
	rec := doJSON(t, router, http.MethodGet, "/api/drafts/"+d.Draft.ID, nil)
	assert.Equal(t, 10000000.0, decodeAs[DraftResponse](t, rec).BudgetTotal)
}

func TestSetBudget_Endpoint(t *testing.T) {
	// GIVEN: A 1 Cr feature draft
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := "/api/drafts/" + d.Draft.ID + "/budget"

	// WHEN: The budget step is saved on its own
	rec := doJSON(t, router, http.MethodPut, path, `{
		"line_items": [
			{"category": "production", "amount": "6000000"},
			{"category": "post", "amount": "3000000"},
			{"category": "post", "amount": "1000000"}
		],
		"contingency_percent": "10"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeAs[DraftResponse](t, rec)

	// THEN: Totals, the category breakdown and tranche amounts follow
	assert.Equal(t, 11000000.0, got.BudgetTotal)
	assert.Equal(t, 1000000.0, got.Contingency)
	assert.Equal(t, map[string]float64{"production": 6000000, "post": 4000000}, got.ByCategory)
	assert.Equal(t, 25.0, got.CashFlow.Tranches[0].Percentage)
	assert.Equal(t, 2750000.0, got.CashFlow.Tranches[0].Amount)
	assert.Equal(t, "Monsoon Letters", got.Draft.Project.Title)

	rec = doJSON(t, router, http.MethodPut, path, `{"line_items": [{"amount": "1e100000000"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodPut, path, `{"contingency": 5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodPut, "/api/drafts/missing/budget", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/submit", nil).Code)
	rec = doJSON(t, router, http.MethodPut, path, `{"contingency_percent": "0"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateDraft_RejectsUnknownFields(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, `{"project": {"title": "x"}, "surprise": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, `{"project": {"project_type": "opera"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrafts_ListGetDelete(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	empty := decodeAs[DraftResponse](t, rec)
	assert.Empty(t, empty.CashFlow.Tranches)
	assert.False(t, empty.CashFlow.Summary.BudgetAvailable)

	rec = doJSON(t, router, http.MethodGet, "/api/drafts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]DraftSummaryDTO](t, rec), 2)

	rec = doJSON(t, router, http.MethodDelete, "/api/drafts/"+d.Draft.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/drafts/"+d.Draft.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/drafts/"+d.Draft.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitDraft(t *testing.T) {
	// GIVEN: A feature draft whose schedule does not balance
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	path := fmt.Sprintf("/api/drafts/%s/cashflow/tranches/%s", d.Draft.ID, d.CashFlow.Tranches[3].ID)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, path, map[string]any{"field": "percentage", "value": 5}).Code)

	// WHEN: Submitting it
	rec := doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAs[SubmitResponse](t, rec)

	// THEN: Submission succeeds with a warning and opens a project
	assert.Equal(t, []string{"cash flow totals 95%, expected 100%"}, resp.Warnings)
	assert.Equal(t, string(submission.StatusSubmitted), string(resp.Draft.Draft.Status))
	assert.Equal(t, "submitted", resp.Project.Stage)
	assert.Equal(t, "film", resp.Project.Format)
	assert.Equal(t, d.Draft.ID, resp.Project.DraftID)
	assert.False(t, resp.Project.Locked)

	// AND: The draft is frozen
	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/cashflow/tranches", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, router, http.MethodPut, "/api/drafts/"+d.Draft.ID, featureDraftJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// ADMIN FLOW
// =============================================================================

func createFilmProject(t *testing.T, router http.Handler) ProjectDTO {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{
		Title: "Paper Boats", Format: "film", TotalBudget: 10000000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[ProjectDTO](t, rec)
}

func advance(t *testing.T, router http.Handler, id, to string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, router, http.MethodPost, "/api/pipeline/"+id+"/advance", AdvanceRequest{To: to})
}

func TestProjectLifecycle(t *testing.T) {
	// GIVEN: A film project at the submitted stage
	_, router := setupTestServer(t)
	p := createFilmProject(t, router)
	assert.Equal(t, "submitted", p.Stage)

	// WHEN: Moving through review (empty "to" means next stage)
	rec := advance(t, router, p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "under_review", decodeAs[AdvanceResponse](t, rec).Event.To)
	require.Equal(t, http.StatusOK, advance(t, router, p.ID, "greenlit").Code)

	// THEN: Production cannot start before the schedule is locked
	assert.Equal(t, http.StatusBadRequest, advance(t, router, p.ID, "pre_production").Code)
	assert.Equal(t, http.StatusBadRequest, advance(t, router, p.ID, "delivered").Code, "skipping stages")
	assert.Equal(t, http.StatusBadRequest, advance(t, router, p.ID, "archived").Code)

	// WHEN: Locking
	rec = doJSON(t, router, http.MethodPost, "/api/projects/"+p.ID+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	locked := decodeAs[ProjectDTO](t, rec)

	// THEN: The film lock table applies (20/30/30/20)
	require.Len(t, locked.Tranches, 4)
	assert.Equal(t, 2000000.0, locked.Tranches[0].Amount)
	assert.Equal(t, 3000000.0, locked.Tranches[1].Amount)
	assert.Equal(t, "Tranche 1", locked.Tranches[0].Name)
	assert.True(t, locked.Summary.Balanced)
	assert.NotEmpty(t, locked.LockedAt)

	rec = doJSON(t, router, http.MethodPost, "/api/projects/"+p.ID+"/lock", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, advance(t, router, p.ID, "pre_production").Code)

	rec = doJSON(t, router, http.MethodGet, "/api/pipeline/"+p.ID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeAs[[]StageEventDTO](t, rec)
	require.Len(t, events, 3)
	assert.Equal(t, "greenlit", events[2].From)

	rec = doJSON(t, router, http.MethodGet, "/api/pipeline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeAs[PipelineDTO](t, rec)
	assert.Len(t, board.Projects["pre_production"], 1)
	assert.Empty(t, board.Projects["submitted"])
	assert.Equal(t, "rejected", board.Stages[len(board.Stages)-1])
}

func TestLockProject_BudgetOverride(t *testing.T) {
	_, router := setupTestServer(t)
	p := createFilmProject(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/projects/"+p.ID+"/lock", LockRequest{TotalBudget: 5000000})
	require.Equal(t, http.StatusOK, rec.Code)
	locked := decodeAs[ProjectDTO](t, rec)
	assert.Equal(t, 5000000.0, locked.TotalBudget)
	assert.Equal(t, 1000000.0, locked.Tranches[0].Amount)
}

func TestUpdateProjectTranche(t *testing.T) {
	_, router := setupTestServer(t)
	p := createFilmProject(t, router)
	path := "/api/projects/" + p.ID + "/tranches/"

	rec := doJSON(t, router, http.MethodPatch, path+"x", map[string]any{"field": "status", "value": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not locked")

	rec = doJSON(t, router, http.MethodPost, "/api/projects/"+p.ID+"/lock", nil)
	locked := decodeAs[ProjectDTO](t, rec)

	rec = doJSON(t, router, http.MethodPatch, path+locked.Tranches[0].ID, map[string]any{"field": "actualDate", "value": "2026-10-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2026-10-01", decodeAs[ProjectDTO](t, rec).Tranches[0].ActualDate)
}

func TestCreateProject_FromDraft(t *testing.T) {
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{DraftID: d.Draft.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "draft not submitted yet")

	rec = doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{DraftID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{Title: "X", Format: "radio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProject_SecondProjectFromDraftConflicts(t *testing.T) {
	// GIVEN: A submitted draft, which already produced a project
	_, router := setupTestServer(t)
	d := createFeatureDraft(t, router)
	rec := doJSON(t, router, http.MethodPost, "/api/drafts/"+d.Draft.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Creating another project from the same draft
	rec = doJSON(t, router, http.MethodPost, "/api/projects", CreateProjectRequest{DraftID: d.Draft.ID})

	// THEN: The request conflicts with the existing project
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	rec = doJSON(t, router, http.MethodGet, "/api/projects", nil)
	assert.Len(t, decodeAs[[]ProjectDTO](t, rec), 1)
}

func TestInvoiceFlow(t *testing.T) {
	// GIVEN: A locked 1 Cr film project
	_, router := setupTestServer(t)
	p := createFilmProject(t, router)
	rec := doJSON(t, router, http.MethodPost, "/api/projects/"+p.ID+"/lock", nil)
	locked := decodeAs[ProjectDTO](t, rec)
	first := locked.Tranches[0].ID

	// WHEN: Raising an invoice on the first tranche
	rec = doJSON(t, router, http.MethodPost, "/api/invoices", RaiseInvoiceRequest{ProjectID: p.ID, TrancheID: first})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decodeAs[InvoiceDTO](t, rec)

	// THEN: 18% GST is added
	assert.Equal(t, "INV-2026-0001", inv.Number)
	assert.Equal(t, 2000000.0, inv.Amount)
	assert.Equal(t, 360000.0, inv.GST)
	assert.Equal(t, 2360000.0, inv.Total)
	assert.Equal(t, "₹2,360,000", inv.TotalDisplay)

	rec = doJSON(t, router, http.MethodPost, "/api/invoices", RaiseInvoiceRequest{ProjectID: p.ID, TrancheID: first})
	assert.Equal(t, http.StatusConflict, rec.Code, "one live invoice per tranche")

	// WHEN: Paying it
	rec = doJSON(t, router, http.MethodPost, "/api/invoices/"+inv.ID+"/paid", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decodeAs[InvoiceDTO](t, rec).Status)

	// THEN: The tranche is completed with today's date
	rec = doJSON(t, router, http.MethodGet, "/api/projects/"+p.ID, nil)
	tr := decodeAs[ProjectDTO](t, rec).Tranches[0]
	assert.Equal(t, "completed", tr.Status)
	assert.Equal(t, "2026-10-17", tr.ActualDate)

	assert.Equal(t, http.StatusConflict, doJSON(t, router, http.MethodPost, "/api/invoices/"+inv.ID+"/paid", nil).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, router, http.MethodPost, "/api/invoices/"+inv.ID+"/cancel", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPost, "/api/invoices/missing/paid", nil).Code)

	// AND: Cancelling a second invoice reopens its tranche
	rec = doJSON(t, router, http.MethodPost, "/api/invoices", RaiseInvoiceRequest{ProjectID: p.ID, TrancheID: locked.Tranches[1].ID})
	second := decodeAs[InvoiceDTO](t, rec)
	assert.Equal(t, "INV-2026-0002", second.Number)
	rec = doJSON(t, router, http.MethodPost, "/api/invoices/"+second.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/invoices?project_id="+p.ID, nil)
	assert.Len(t, decodeAs[[]InvoiceDTO](t, rec), 2)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decodeAs[AnalyticsDTO](t, rec)
	assert.Equal(t, 1, a.LockedProjects)
	assert.Equal(t, 10000000.0, a.CommittedBudget)
	assert.Equal(t, 2360000.0, a.Invoiced)
	assert.Equal(t, 2360000.0, a.Paid)
	assert.Equal(t, 0.0, a.Outstanding)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplateEndpoints(t *testing.T) {
	_, router := setupTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/tranche-templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]projectTypeDTO](t, rec), len(tranche.ProjectTypes()))

	rec = doJSON(t, router, http.MethodGet, "/api/tranche-templates/microdrama?budget=1,000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeAs[[]TemplateDTO](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, 500.0, rows[0].Amount)

	rec = doJSON(t, router, http.MethodGet, "/api/tranche-templates/opera", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/lock-formats/web_series?budget=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows = decodeAs[[]TemplateDTO](t, rec)
	require.Len(t, rows, 5)
	assert.Equal(t, "15% of total budget", rows[0].Description)
	assert.Equal(t, 25.0, rows[3].Amount)

	rec = doJSON(t, router, http.MethodGet, "/api/lock-formats/vlog", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/lock-formats", nil)
	assert.Len(t, decodeAs[[]string](t, rec), 5)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{submission.ErrDraftNotFound, http.StatusNotFound},
		{pipeline.ErrInvoiceNotFound, http.StatusNotFound},
		{tranche.ErrTrancheNotFound, http.StatusNotFound},
		{submission.ErrAlreadySubmitted, http.StatusConflict},
		{pipeline.ErrAlreadyLocked, http.StatusConflict},
		{pipeline.ErrDuplicateInvoice, http.StatusConflict},
		{fmt.Errorf("%w: draft d-1", pipeline.ErrDraftHasProject), http.StatusConflict},
		{&submission.ValidationError{Field: "step", Message: "x"}, http.StatusBadRequest},
		{&pipeline.TransitionError{From: pipeline.StageSubmitted, To: pipeline.StageDelivered}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", tranche.ErrInvalidDate), http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestHealth(t *testing.T) {
	_, router := setupTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
