package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/warp/studio-onboarding/submission"
	"github.com/warp/studio-onboarding/tranche"
)

// Analytics is the admin dashboard summary.
type Analytics struct {
	Drafts          int
	SubmittedDrafts int
	Projects        int
	LockedProjects  int
	ByStage         map[Stage]int
	ByFormat        map[tranche.LockFormat]int
	CommittedBudget decimal.Decimal
	Invoiced        decimal.Decimal
	InvoicedGST     decimal.Decimal
	Paid            decimal.Decimal
	Outstanding     decimal.Decimal
}

// Analyze computes dashboard figures. Committed budget counts locked,
// non-rejected projects; invoice totals include GST and skip cancelled ones.
func Analyze(drafts []submission.Draft, projects []Project, invoices []Invoice) Analytics {
	a := Analytics{
		ByStage:         make(map[Stage]int),
		ByFormat:        make(map[tranche.LockFormat]int),
		CommittedBudget: decimal.Zero,
		Invoiced:        decimal.Zero,
		InvoicedGST:     decimal.Zero,
		Paid:            decimal.Zero,
	}

	for _, d := range drafts {
		a.Drafts++
		if d.Status == submission.StatusSubmitted {
			a.SubmittedDrafts++
		}
	}

	for _, p := range projects {
		a.Projects++
		a.ByStage[p.Stage]++
		a.ByFormat[p.Format]++
		if p.Locked {
			a.LockedProjects++
			if p.Stage != StageRejected {
				a.CommittedBudget = a.CommittedBudget.Add(p.TotalBudget)
			}
		}
	}

	for _, inv := range invoices {
		switch inv.Status {
		case InvoiceRaised:
			a.Invoiced = a.Invoiced.Add(inv.Total)
			a.InvoicedGST = a.InvoicedGST.Add(inv.GST)
		case InvoicePaid:
			a.Invoiced = a.Invoiced.Add(inv.Total)
			a.InvoicedGST = a.InvoicedGST.Add(inv.GST)
			a.Paid = a.Paid.Add(inv.Total)
		}
	}
	a.Outstanding = a.Invoiced.Sub(a.Paid)
	return a
}
