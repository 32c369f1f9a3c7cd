/*
errors.go - Error types for submission drafts

ERROR CATEGORIES:
  1. Lookup errors - Draft does not exist
  2. Validation errors - Malformed draft documents
  3. State errors - Operations not allowed in the draft's current status

Validation of business content (budget missing, cash flow imbalanced) is
never an error here. Those are warnings returned by Submit.

SEE ALSO:
  - draft.go: Submit and Replace
  - decode.go: Document validation
*/
package submission

import (
	"errors"
	"fmt"
)

var (
	// ErrDraftNotFound is returned when a draft id does not exist.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrAlreadySubmitted is returned when submitting a draft twice.
	ErrAlreadySubmitted = errors.New("draft already submitted")

	// ErrInvalidDraft is returned for documents that fail schema validation.
	ErrInvalidDraft = errors.New("invalid draft")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid draft: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDraft
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDraft) ||
		errors.Is(err, ErrAlreadySubmitted)
}

// IsNotFound returns true if the error indicates a missing draft.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}
