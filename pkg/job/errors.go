package job

import (
	"errors"
	"fmt"
)

// Validation errors. Caller-correctable, never retried.
var (
	ErrMissingField   = errors.New("job: missing required field")
	ErrInvalidJobType = errors.New("job: invalid job type")
	ErrInvalidStatus  = errors.New("job: invalid status")
	ErrUnknownTarget  = errors.New("job: unknown target")
	ErrUnknownInput   = errors.New("job: unknown input")
)

// Lookup errors.
var (
	ErrNotFound        = errors.New("job: not found")
	ErrDuplicateTarget = errors.New("job: target already exists")
)

// Lifecycle conflicts.
var (
	ErrAlreadyAssigned   = errors.New("job: already assigned")
	ErrInvalidTransition = errors.New("job: invalid status transition")
	ErrNoQueuedJobs      = errors.New("job: no queued jobs")
)

var (
	// ErrStoreUnavailable wraps transient storage failures. Safe to retry with backoff.
	ErrStoreUnavailable = errors.New("job: store unavailable")

	// ErrInternal marks programming faults. The request must be aborted.
	ErrInternal = errors.New("job: internal error")
)

// ValidationError names the field that failed validation.
// It unwraps to one of the validation sentinels.
type ValidationError struct {
	Err   error
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s=%v", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransitionError records a rejected status change.
type TransitionError struct {
	Err  error
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a caller-correctable validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidJobType) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrUnknownTarget) ||
		errors.Is(err, ErrUnknownInput)
}

// IsConflict reports whether err is a lifecycle conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAssigned) || errors.Is(err, ErrInvalidTransition)
}
