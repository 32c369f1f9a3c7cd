/*
store.go - Persistence interface for submission drafts

PURPOSE:
  The wizard contract is "read the latest draft on mount, write the latest
  draft on every change". The Store is that contract; the storage technology
  behind it is not the wizard's concern.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, drafts stored as JSON documents
  - memory.go: In-memory for tests

SEE ALSO:
  - draft.go: The stored document
*/
package submission

import "context"

// Store persists drafts. SaveDraft is an upsert.
type Store interface {
	SaveDraft(ctx context.Context, d Draft) error

	// GetDraft returns ErrDraftNotFound for unknown ids.
	GetDraft(ctx context.Context, id string) (*Draft, error)

	// ListDrafts returns drafts newest first.
	ListDrafts(ctx context.Context) ([]Draft, error)

	DeleteDraft(ctx context.Context, id string) error
}
