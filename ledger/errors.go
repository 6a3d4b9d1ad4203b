/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on the sentinel with errors.Is and recover per operation;
  the engine itself never retries.

ERROR CATEGORIES:
  1. Validation errors - Rejected input (negative rent, negative payment)
  2. Not-found errors - Operations referencing a missing or deleted tenant
  3. Storage errors - Database-level failures, surfaced once to the caller

A lost race on the charge uniqueness constraint is NOT an error: it is the
AlreadyExists outcome of Store.InsertChargeIfAbsent (see store.go).

USAGE:
  if ledger.IsNotFound(err) {
      // 404
  }

SEE ALSO:
  - store.go: InsertOutcome for constraint races
  - api/handlers.go: Maps this taxonomy to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced tenant (or one of its rows)
	// doesn't exist, including after deletion.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for rejected input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrStorage is returned for database-level failures. Retrying is the
	// caller's decision; the engine performs no implicit retries.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Entity string // "tenant", "payment"
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError identifies the rejected field and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError wraps a database failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing tenant or row.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation returns true if the error is due to rejected input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
