package errs

import (
	"errors"
	"fmt"
)

// Error kinds for the scheduling core. Callers match with errors.Is and
// wrap with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalidInput marks malformed requests: bad dates, non-positive
	// durations, empty ids. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks missing entities (unknown provider or service).
	// "No availability" is not an error and never uses this kind.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a booking rejected by the authoritative overlap
	// check. The caller must re-query availability before retrying.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks storage or network failures. Reads may be
	// retried transparently; writes only after re-checking availability.
	ErrTransient = errors.New("transient failure")
)

// InvalidInputf wraps ErrInvalidInput with a formatted message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
