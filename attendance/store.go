/*
store.go - Persistence interface for attendance entities

PURPOSE:
  Defines the interface between the domain logic and the database. Different
  implementations can use SQLite or in-memory storage; the engine only
  assumes durable entities reachable by key with atomic per-entity writes.

APPEND-ONLY CONTRACT:
  Taps have AppendTap and read methods only. There is no update or delete:
  corrections are new taps with an explanatory note.

CONCURRENCY:
  The store is NOT responsible for serializing the fetch-or-create-then-
  mutate-then-save sequence on summaries. That contract lives above it, in
  the KeyedMutex held by the engine (see locks.go). The store only needs
  each individual call to be atomic.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (WAL mode)
  - store/memory: In-memory for testing

SEE ALSO:
  - locks.go: Per-employee-day mutual exclusion
  - til package: TIL record/balance store interface
*/
package attendance

import "context"

// Store handles persistence of attendance entities.
type Store interface {
	// Directory (read-mostly; writes happen at onboarding/admin time).
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	SaveShift(ctx context.Context, shift Shift) error
	GetShift(ctx context.Context, id ShiftID) (Shift, error)
	ListShifts(ctx context.Context) ([]Shift, error)

	// SaveAssignment upserts the single assignment for (employee, date).
	SaveAssignment(ctx context.Context, a ShiftAssignment) error
	// GetAssignment returns nil with no error when no assignment exists.
	GetAssignment(ctx context.Context, id EmployeeID, date Date) (*ShiftAssignment, error)

	// Taps are append-only. No update, no delete.
	AppendTap(ctx context.Context, tap Tap) error
	TapsForDay(ctx context.Context, id EmployeeID, date Date) ([]Tap, error)

	// Summaries: single-row read-modify-write keyed by (employee, date).
	// GetSummary returns nil with no error when no summary exists yet.
	GetSummary(ctx context.Context, id EmployeeID, date Date) (*DailySummary, error)
	SaveSummary(ctx context.Context, s DailySummary) error
	SummariesForDate(ctx context.Context, date Date) ([]DailySummary, error)
	// OpenSummaries returns summaries with current status IN for the date.
	OpenSummaries(ctx context.Context, date Date) ([]DailySummary, error)
}
