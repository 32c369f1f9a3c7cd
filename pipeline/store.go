package pipeline

import "context"

// Store persists projects, their stage history and invoices.
// Get methods return ErrProjectNotFound / ErrInvoiceNotFound for unknown ids.
type Store interface {
	SaveProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	// AppendStageEvent is append-only; history is never rewritten.
	AppendStageEvent(ctx context.Context, e StageEvent) error
	ListStageEvents(ctx context.Context, projectID string) ([]StageEvent, error)

	SaveInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)

	// ListInvoices returns all invoices when projectID is empty.
	ListInvoices(ctx context.Context, projectID string) ([]Invoice, error)
	CountInvoices(ctx context.Context) (int, error)
}
