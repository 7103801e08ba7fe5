/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine-level errors in one place. Three categories, matching how each
  is recovered:

  1. Data errors     - malformed stored values; recovered locally via
                       zero-default parsing, never surfaced to callers
  2. External errors - distance lookup failures; recoverable, the wizard
                       degrades to manual mileage entry
  3. Persistence     - patch/write failures; surfaced to the caller, wizard
                       state preserved for retry

  Aggregation itself never returns an error: it produces best-effort stats
  from whatever parses, logging anomalies instead of failing.

USAGE:
  if errors.Is(err, engine.ErrGigNotFound) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrGigNotFound is returned when a referenced gig doesn't exist.
	ErrGigNotFound = errors.New("gig not found")

	// ErrExpenseNotFound is returned when a referenced expense doesn't exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPatchFields is returned when a patch contains nothing to update.
	ErrNoPatchFields = errors.New("patch contains no fields")

	// ErrDistanceUnavailable is returned when the distance collaborator
	// cannot resolve a route. Recoverable: enter mileage manually.
	ErrDistanceUnavailable = errors.New("distance calculation unavailable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PersistenceError wraps a storage failure with the operation that failed.
// The wizard relies on this to keep its state intact for retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
