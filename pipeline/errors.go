package pipeline

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrAlreadyLocked is returned when locking a project twice. The locked
	// schedule is generated once and then only edited.
	ErrAlreadyLocked = errors.New("project already locked")

	// ErrNotLocked is returned when an operation needs a locked schedule.
	ErrNotLocked = errors.New("project is not locked")

	ErrInvalidTransition   = errors.New("invalid stage transition")
	ErrDuplicateInvoice    = errors.New("tranche already has an open invoice")
	ErrInvalidInvoiceState = errors.New("invalid invoice state")
	ErrInvalidProject      = errors.New("invalid project")

	// ErrDraftHasProject is returned when a second project is created from
	// the same draft.
	ErrDraftHasProject = errors.New("draft already has a project")
)

// TransitionError provides details about a rejected stage change.
type TransitionError struct {
	From Stage
	To   Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid stage transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidProject) ||
		errors.Is(err, ErrNotLocked)
}

// IsConflict returns true if the request clashes with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyLocked) ||
		errors.Is(err, ErrDuplicateInvoice) ||
		errors.Is(err, ErrInvalidInvoiceState) ||
		errors.Is(err, ErrDraftHasProject)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}
