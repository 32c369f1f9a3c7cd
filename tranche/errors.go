package tranche

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProjectType is returned when a project type is not one of
	// the five wizard options.
	ErrUnknownProjectType = errors.New("unknown project type")

	// ErrUnknownLockFormat is returned for formats missing from the lock table.
	ErrUnknownLockFormat = errors.New("unknown lock format")

	// ErrTrancheNotFound is returned when an edit targets a missing tranche.
	ErrTrancheNotFound = errors.New("tranche not found")

	// ErrInvalidStatus is returned for statuses outside pending/in-progress/completed.
	ErrInvalidStatus = errors.New("invalid tranche status")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date: use YYYY-MM-DD")

	// ErrUnknownField is returned by ParseEdit for fields that cannot be edited.
	ErrUnknownField = errors.New("unknown tranche field")
)

// UnknownProjectTypeError carries the rejected value.
type UnknownProjectTypeError struct {
	Value string
}

func (e *UnknownProjectTypeError) Error() string {
	return fmt.Sprintf("unknown project type %q", e.Value)
}

func (e *UnknownProjectTypeError) Unwrap() error {
	return ErrUnknownProjectType
}

// IsClientError returns true if the error is caused by bad input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownProjectType) ||
		errors.Is(err, ErrUnknownLockFormat) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnknownField)
}
