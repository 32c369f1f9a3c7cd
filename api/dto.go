/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts and percentages leave the API as JSON numbers (float64) plus a
  formatted "*_display" string where a screen shows the value. Draft
  documents (DraftResponse.Draft) keep decimals as strings because the
  wizard writes the same document back.

TYPES:
  Drafts:     DraftResponse, DraftSummaryDTO, SubmitResponse
  Cash flow:  CashFlowDTO, TrancheDTO, SummaryDTO, TemplateDTO
  Projects:   ProjectDTO, CreateProjectRequest, LockRequest
  Pipeline:   AdvanceRequest, AdvanceResponse, StageEventDTO, PipelineDTO
  Invoices:   InvoiceDTO, RaiseInvoiceRequest
  Analytics:  AnalyticsDTO
  Scenarios:  ScenarioDTO

VALIDATION:
  Validation is done in handlers and domain packages, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - tranche/types.go: Tranche model
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/money"
	"github.com/warp/studio-onboarding/pipeline"
	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// CASH FLOW
// =============================================================================

// TrancheDTO represents one payment tranche.
type TrancheDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Percentage    float64 `json:"percentage"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
	ExpectedDate  string  `json:"expected_date"`
	ActualDate    string  `json:"actual_date"`
	Status        string  `json:"status"`
}

// SummaryDTO is the reconciliation panel under the tranche table.
type SummaryDTO struct {
	Budget              float64 `json:"budget"`
	BudgetAvailable     bool    `json:"budget_available"`
	TotalPercentage     float64 `json:"total_percentage"`
	TotalAmount         float64 `json:"total_amount"`
	Balanced            bool    `json:"balanced"`
	GST                 float64 `json:"gst"`
	TotalWithGST        float64 `json:"total_with_gst"`
	TotalWithGSTDisplay string  `json:"total_with_gst_display"`
}

// CashFlowDTO is the cash-flow step of the wizard.
type CashFlowDTO struct {
	ProjectType      string       `json:"project_type"`
	ProjectTypeLabel string       `json:"project_type_label,omitempty"`
	Tranches         []TrancheDTO `json:"tranches"`
	Summary          SummaryDTO   `json:"summary"`
}

// TemplateDTO is one template row, with a preview amount when a budget is given.
type TemplateDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Percentage  float64 `json:"percentage"`
	Amount      float64 `json:"amount"`
}

// ProjectTypeRequest selects the wizard project type.
type ProjectTypeRequest struct {
	ProjectType string `json:"project_type"`
}

// TrancheEditRequest is one field edit. Value may be a JSON string or number.
type TrancheEditRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// =============================================================================
// DRAFTS
// =============================================================================

// DraftSummaryDTO is one row in the drafts list.
type DraftSummaryDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ProjectType string  `json:"project_type"`
	Status      string  `json:"status"`
	Step        string  `json:"step"`
	BudgetTotal float64 `json:"budget_total"`
	UpdatedAt   string  `json:"updated_at"`
}

// DraftResponse carries the full wizard document plus derived figures.
type DraftResponse struct {
	Draft       *submission.Draft `json:"draft"`
	BudgetTotal float64            `json:"budget_total"`
	Contingency float64            `json:"contingency"`
	ByCategory  map[string]float64 `json:"budget_by_category"`
	PerEpisode  float64            `json:"per_episode"`
	TalentCost  float64            `json:"talent_cost"`
	Milestones  *MilestonesDTO     `json:"milestones,omitempty"`
	CashFlow    CashFlowDTO        `json:"cash_flow"`
	Warnings    []string           `json:"warnings"`
}

// MilestonesDTO are the timeline dates derived from the start date.
type MilestonesDTO struct {
	Start            string `json:"start"`
	PreProductionEnd string `json:"pre_production_end"`
	ShootEnd         string `json:"shoot_end"`
	Delivery         string `json:"delivery"`
	TotalDays        int    `json:"total_days"`
}

// SubmitResponse is returned by the final wizard step.
type SubmitResponse struct {
	Draft    DraftResponse `json:"draft"`
	Project  ProjectDTO    `json:"project"`
	Warnings []string      `json:"warnings"`
}

// =============================================================================
// PROJECTS & PIPELINE
// =============================================================================

// ProjectDTO represents an admin project.
type ProjectDTO struct {
	ID          string       `json:"id"`
	DraftID     string       `json:"draft_id,omitempty"`
	Title       string       `json:"title"`
	Format      string       `json:"format"`
	TotalBudget float64      `json:"total_budget"`
	Stage       string       `json:"stage"`
	Locked      bool         `json:"locked"`
	LockedAt    string       `json:"locked_at,omitempty"`
	Tranches    []TrancheDTO `json:"tranches"`
	Summary     SummaryDTO   `json:"summary"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// CreateProjectRequest creates a project directly or from a submitted draft.
type CreateProjectRequest struct {
	DraftID     string  `json:"draft_id"`
	Title       string  `json:"title"`
	Format      string  `json:"format"`
	TotalBudget float64 `json:"total_budget"`
}

// LockRequest optionally overrides the budget at lock time.
type LockRequest struct {
	TotalBudget float64 `json:"total_budget"`
}

// AdvanceRequest moves a project to another stage.
type AdvanceRequest struct {
	To   string `json:"to"`
	Note string `json:"note"`
}

// StageEventDTO is one pipeline history entry.
type StageEventDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AdvanceResponse returns the moved project and its new history entry.
type AdvanceResponse struct {
	Project ProjectDTO    `json:"project"`
	Event   StageEventDTO `json:"event"`
}

// PipelineDTO groups projects by stage for the kanban view.
type PipelineDTO struct {
	Stages   []string                `json:"stages"`
	Projects map[string][]ProjectDTO `json:"projects"`
}

// =============================================================================
// INVOICES & ANALYTICS
// =============================================================================

// InvoiceDTO represents an invoice.
type InvoiceDTO struct {
	ID           string  `json:"id"`
	Number       string  `json:"number"`
	ProjectID    string  `json:"project_id"`
	TrancheID    string  `json:"tranche_id"`
	TrancheName  string  `json:"tranche_name"`
	Amount       float64 `json:"amount"`
	GST          float64 `json:"gst"`
	Total        float64 `json:"total"`
	TotalDisplay string  `json:"total_display"`
	Status       string  `json:"status"`
	IssuedAt     string  `json:"issued_at"`
	PaidAt       string  `json:"paid_at,omitempty"`
}

// RaiseInvoiceRequest bills one locked tranche.
type RaiseInvoiceRequest struct {
	ProjectID string `json:"project_id"`
	TrancheID string `json:"tranche_id"`
}

// AnalyticsDTO is the admin dashboard.
type AnalyticsDTO struct {
	Drafts          int            `json:"drafts"`
	SubmittedDrafts int            `json:"submitted_drafts"`
	Projects        int            `json:"projects"`
	LockedProjects  int            `json:"locked_projects"`
	ByStage         map[string]int `json:"by_stage"`
	ByFormat        map[string]int `json:"by_format"`
	CommittedBudget float64        `json:"committed_budget"`
	Invoiced        float64        `json:"invoiced"`
	InvoicedGST     float64        `json:"invoiced_gst"`
	Paid            float64        `json:"paid"`
	Outstanding     float64        `json:"outstanding"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	return money.ToFloat(d)
}

func display(d decimal.Decimal) string {
	return money.Format(money.NewAmountFromDecimal(d, money.INR))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func toTrancheDTO(t tranche.Tranche) TrancheDTO {
	return TrancheDTO{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Percentage:    toFloat(t.Percentage),
		Amount:        toFloat(t.Amount),
		AmountDisplay: display(t.Amount),
		ExpectedDate:  t.ExpectedDate,
		ActualDate:    t.ActualDate,
		Status:        string(t.Status),
	}
}

func toTrancheDTOs(ts []tranche.Tranche) []TrancheDTO {
	dtos := make([]TrancheDTO, len(ts))
	for i, t := range ts {
		dtos[i] = toTrancheDTO(t)
	}
	return dtos
}

func toSummaryDTO(s tranche.Summary) SummaryDTO {
	return SummaryDTO{
		Budget:              toFloat(s.Budget),
		BudgetAvailable:     s.BudgetAvailable,
		TotalPercentage:     toFloat(s.TotalPercentage),
		TotalAmount:         toFloat(s.TotalAmount),
		Balanced:            s.Balanced,
		GST:                 toFloat(s.GST),
		TotalWithGST:        toFloat(s.TotalWithGST),
		TotalWithGSTDisplay: display(s.TotalWithGST),
	}
}

func toCashFlowDTO(d *submission.Draft) CashFlowDTO {
	set := d.CashFlowSet()
	dto := CashFlowDTO{
		ProjectType: string(set.ProjectType()),
		Tranches:    toTrancheDTOs(set.Tranches()),
		Summary:     toSummaryDTO(set.Summary()),
	}
	if set.ProjectType() != "" {
		dto.ProjectTypeLabel = set.ProjectType().Label()
	}
	return dto
}

func toTemplateDTOs(templates []tranche.Template, budget decimal.Decimal) []TemplateDTO {
	dtos := make([]TemplateDTO, len(templates))
	for i, tpl := range templates {
		dtos[i] = TemplateDTO{
			Name:        tpl.Name,
			Description: tpl.Description,
			Percentage:  toFloat(tpl.Percentage),
			Amount:      toFloat(tranche.AmountFor(budget, tpl.Percentage)),
		}
	}
	return dtos
}

func toDraftResponse(d *submission.Draft) DraftResponse {
	resp := DraftResponse{
		Draft:       d,
		BudgetTotal: toFloat(d.Budget.Total()),
		Contingency: toFloat(d.Budget.Contingency()),
		ByCategory:  make(map[string]float64),
		PerEpisode:  toFloat(d.Budget.PerEpisode(d.Project.Episodes)),
		TalentCost:  toFloat(d.TalentCost()),
		CashFlow:    toCashFlowDTO(d),
		Warnings:    d.Warnings(),
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for category, amount := range d.Budget.ByCategory() {
		resp.ByCategory[category] = toFloat(amount)
	}
	if m, ok := d.Timeline.Milestones(); ok {
		resp.Milestones = &MilestonesDTO{
			Start:            m.Start.Format(time.DateOnly),
			PreProductionEnd: m.PreProductionEnd.Format(time.DateOnly),
			ShootEnd:         m.ShootEnd.Format(time.DateOnly),
			Delivery:         m.Delivery.Format(time.DateOnly),
			TotalDays:        m.TotalDays(),
		}
	}
	return resp
}

func toDraftSummaryDTO(d submission.Draft) DraftSummaryDTO {
	return DraftSummaryDTO{
		ID:          d.ID,
		Title:       d.Project.Title,
		ProjectType: string(d.Project.ProjectType),
		Status:      string(d.Status),
		Step:        string(d.Step),
		BudgetTotal: toFloat(d.Budget.Total()),
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
}

func toProjectDTO(p *pipeline.Project) ProjectDTO {
	return ProjectDTO{
		ID:          p.ID,
		DraftID:     p.DraftID,
		Title:       p.Title,
		Format:      string(p.Format),
		TotalBudget: toFloat(p.TotalBudget),
		Stage:       string(p.Stage),
		Locked:      p.Locked,
		LockedAt:    formatTimePtr(p.LockedAt),
		Tranches:    toTrancheDTOs(p.Tranches),
		Summary:     toSummaryDTO(p.Summary()),
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toStageEventDTO(e pipeline.StageEvent) StageEventDTO {
	return StageEventDTO{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		From:      string(e.From),
		To:        string(e.To),
		Note:      e.Note,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func toInvoiceDTO(inv *pipeline.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:           inv.ID,
		Number:       inv.Number,
		ProjectID:    inv.ProjectID,
		TrancheID:    inv.TrancheID,
		TrancheName:  inv.TrancheName,
		Amount:       toFloat(inv.Amount),
		GST:          toFloat(inv.GST),
		Total:        toFloat(inv.Total),
		TotalDisplay: display(inv.Total),
		Status:       string(inv.Status),
		IssuedAt:     formatTime(inv.IssuedAt),
		PaidAt:       formatTimePtr(inv.PaidAt),
	}
}

func toAnalyticsDTO(a pipeline.Analytics) AnalyticsDTO {
	dto := AnalyticsDTO{
		Drafts:          a.Drafts,
		SubmittedDrafts: a.SubmittedDrafts,
		Projects:        a.Projects,
		LockedProjects:  a.LockedProjects,
		ByStage:         make(map[string]int, len(a.ByStage)),
		ByFormat:        make(map[string]int, len(a.ByFormat)),
		CommittedBudget: toFloat(a.CommittedBudget),
		Invoiced:        toFloat(a.Invoiced),
		InvoicedGST:     toFloat(a.InvoicedGST),
		Paid:            toFloat(a.Paid),
		Outstanding:     toFloat(a.Outstanding),
	}
	for k, v := range a.ByStage {
		dto.ByStage[string(k)] = v
	}
	for k, v := range a.ByFormat {
		dto.ByFormat[string(k)] = v
	}
	return dto
}
