package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/tranche"
)

// =============================================================================
// INVOICES
// =============================================================================

type InvoiceStatus string

const (
	InvoiceRaised    InvoiceStatus = "raised"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice bills one locked tranche. Amounts are fixed at issue time.
type Invoice struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	ProjectID   string          `json:"project_id"`
	TrancheID   string          `json:"tranche_id"`
	TrancheName string          `json:"tranche_name"`
	Amount      decimal.Decimal `json:"amount"`
	GST         decimal.Decimal `json:"gst"`
	Total       decimal.Decimal `json:"total"`
	Status      InvoiceStatus   `json:"status"`
	IssuedAt    time.Time       `json:"issued_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// InvoiceNumber formats a sequential number, e.g. INV-2026-0007.
func InvoiceNumber(seq int, now time.Time) string {
	return fmt.Sprintf("INV-%d-%04d", now.Year(), seq)
}

// RaiseInvoice bills a locked tranche and moves it to in-progress. existing
// are the project's invoices; a tranche may only have one open or paid
// invoice at a time.
func RaiseInvoice(p *Project, trancheID, number string, existing []Invoice, now time.Time) (*Invoice, error) {
	if !p.Locked {
		return nil, ErrNotLocked
	}
	t, ok := p.Tranche(trancheID)
	if !ok {
		return nil, tranche.ErrTrancheNotFound
	}
	for _, inv := range existing {
		if inv.TrancheID == trancheID && inv.Status != InvoiceCancelled {
			return nil, ErrDuplicateInvoice
		}
	}

	gst := tranche.GST(t.Amount)
	inv := &Invoice{
		ID:          uuid.NewString(),
		Number:      number,
		ProjectID:   p.ID,
		TrancheID:   t.ID,
		TrancheName: t.Name,
		Amount:      t.Amount,
		GST:         gst,
		Total:       t.Amount.Add(gst),
		Status:      InvoiceRaised,
		IssuedAt:    now.UTC(),
	}
	if t.Status == tranche.StatusPending {
		if err := p.UpdateTranche(now, tranche.EditStatus{ID: t.ID, Status: tranche.StatusInProgress}); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Settle marks an invoice paid and completes its tranche with today's date.
func Settle(p *Project, inv *Invoice, now time.Time) error {
	if inv.Status != InvoiceRaised {
		return fmt.Errorf("%w: cannot pay a %s invoice", ErrInvalidInvoiceState, inv.Status)
	}
	if inv.ProjectID != p.ID {
		return fmt.Errorf("%w: invoice belongs to project %s", ErrInvalidInvoiceState, inv.ProjectID)
	}
	err := p.UpdateTranche(now,
		tranche.EditStatus{ID: inv.TrancheID, Status: tranche.StatusCompleted},
		tranche.EditActualDate{ID: inv.TrancheID, Date: now.UTC().Format(time.DateOnly)},
	)
	if err != nil {
		return err
	}
	paid := now.UTC()
	inv.Status = InvoicePaid
	inv.PaidAt = &paid
	return nil
}

// Cancel voids a raised invoice and returns its tranche to pending.
func Cancel(p *Project, inv *Invoice, now time.Time) error {
	if inv.Status != InvoiceRaised {
		return fmt.Errorf("%w: cannot cancel a %s invoice", ErrInvalidInvoiceState, inv.Status)
	}
	if err := p.UpdateTranche(now, tranche.EditStatus{ID: inv.TrancheID, Status: tranche.StatusPending}); err != nil {
		return err
	}
	inv.Status = InvoiceCancelled
	return nil
}
