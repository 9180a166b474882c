/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Domain packages wrap these with additional context.

ERROR CATEGORIES:
  1. Informational conditions - NoShiftAssigned (not a failure)
  2. State violations - InvalidState, MissingFirstClockIn
  3. Concurrency - ConcurrencyConflict (retryable)
  4. Lookup failures - not-found sentinels

USAGE:
  if errors.Is(err, attendance.ErrNoShiftAssigned) {
      // record the tap anyway, skip deviation checks
  }
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoShiftAssigned means the employee has neither a shift assignment
	// for the date nor a default shift. Non-fatal: the tap is still
	// recorded and hours still computed, only deviation checks are skipped.
	ErrNoShiftAssigned = errors.New("no shift assigned")

	// ErrInvalidState is returned when a status transition is attempted on
	// a record that is not in the required state (e.g. approving a TIL
	// record that is not PENDING). The original state is left unchanged.
	ErrInvalidState = errors.New("invalid state for transition")

	// ErrMissingFirstClockIn marks a clock-out with no prior clock-in on
	// record. A data anomaly, not a fatal error: the tap is recorded and
	// hours are left at zero.
	ErrMissingFirstClockIn = errors.New("clock-out with no recorded clock-in")

	// ErrConcurrencyConflict is returned when the per-entity lock cannot be
	// acquired in time. Callers should retry with backoff, never proceed
	// without the lock.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrDuplicateIdempotencyKey is returned when a ledger entry with the
	// same idempotency key already exists. Expected behavior for retries
	// and repeated clock-outs on the same day.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrEmployeeNotFound = errors.New("employee not found")
	ErrShiftNotFound    = errors.New("shift not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrSummaryNotFound  = errors.New("daily summary not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidStateError reports which record refused a transition and why.
type InvalidStateError struct {
	RecordID string
	Current  string
	Wanted   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("record %s is %s, expected %s", e.RecordID, e.Current, e.Wanted)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// LockConflictError reports which key could not be acquired.
type LockConflictError struct {
	Key string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("could not acquire lock for %s", e.Key)
}

func (e *LockConflictError) Unwrap() error { return ErrConcurrencyConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrSummaryNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}
