/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All ledger error types in one place. The HTTP layer maps these to status
  codes without knowing anything about storage internals.

ERROR CATEGORIES:
  1. Not-found errors - Referenced account/transaction missing or not owned
     by the requesting user
  2. Validation errors - Malformed or out-of-constraint input, with
     field-level detail
  3. Conflict errors - Optimistic version check failed mid-operation;
     the whole operation rolled back and may be retried

USAGE:
  if errors.Is(err, ledger.ErrValidation) { ... 400 ... }
  if ledger.IsNotFound(err)               { ... 404 ... }
  if ledger.IsRetryable(err)              { ... 409, retry ... }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is the generic missing-resource sentinel; the per-kind
	// sentinels below are preferred where the kind is known.
	ErrNotFound = errors.New("not found")

	// ErrAccountNotFound is returned when a referenced account doesn't exist
	// or doesn't belong to the requesting user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a referenced transaction
	// doesn't exist or doesn't belong to the requesting user.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrValidation is returned when input fails validation. The concrete
	// error is always a *ValidationError carrying field detail.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an optimistic version check fails during
	// the reverse/reapply sequence. The operation left no partial state and
	// can be retried as a whole.
	ErrConflict = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity failed to resolve.
type NotFoundError struct {
	Kind string // "account" or "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "account":
		return ErrAccountNotFound
	case "transaction":
		return ErrTransactionNotFound
	}
	return ErrNotFound
}

// FieldError is a single validation failure on a named input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field failure for one input, so callers
// can surface all problems in a single round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || IsNotFound(err)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
