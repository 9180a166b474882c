/*
Package til implements the Time in Lieu ledger.

PURPOSE:
  Converts deviation minutes into banked TIL hours using a tiered
  multiplier, records them as ledger entries subject to manager approval,
  and maintains a per-employee balance that is always reproducible by
  summing the approved entries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: An immutable ledger entry; only its status may transition,
    PENDING -> APPROVED or PENDING -> REJECTED, exactly once
  - Balance: Cached aggregate, rebuilt wholesale by recalculation and never
    incrementally patched in place

SIGN CONVENTION:
  Positive hours are earned, negative hours are used. USED entries are
  stored negative and absolute-valued into the balance's used column.
  ADJUSTED entries are summed signed into the earned column, matching the
  existing convention (a negative adjustment reduces the balance through
  total earned).

SEE ALSO:
  - accrual.go: Tiered multiplier and record creation
  - balance.go: Recalculation from approved records
  - ledger.go: Approval workflow
*/
package til

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// RECORD - Ledger entry
// =============================================================================

type RecordID string

type RecordType string

const (
	EarnedEarly    RecordType = "EARNED_EARLY"
	EarnedOvertime RecordType = "EARNED_OT"
	Used           RecordType = "USED"
	Adjusted       RecordType = "ADJUSTED"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Record is a TIL ledger entry. Immutable once created except for the
// status transition out of PENDING, which happens exactly once.
type Record struct {
	ID         RecordID
	EmployeeID attendance.EmployeeID
	Type       RecordType
	Status     Status

	// Hours is signed: positive earned, negative used.
	Hours decimal.Decimal

	Date   attendance.Date
	Reason string

	// SummaryRef links back to the triggering daily summary
	// ("employee|date"), empty for usage and adjustments.
	SummaryRef string

	// IdempotencyKey guards against double-ledgering the same accrual
	// (e.g. a second clock-out on the same day re-running the overtime
	// path). Empty disables the check.
	IdempotencyKey string

	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
}

// =============================================================================
// BALANCE - Derived aggregate, one per employee
// =============================================================================

// Balance is cached state. It must always equal the sums over APPROVED
// records; Recalculate rebuilds it wholesale and is the only writer.
type Balance struct {
	EmployeeID       attendance.EmployeeID
	TotalEarned      decimal.Decimal
	TotalUsed        decimal.Decimal // stored positive
	CurrentBalance   decimal.Decimal
	LastCalculatedAt time.Time
}

// NewBalance returns the lazily-created zero balance for an employee.
func NewBalance(id attendance.EmployeeID) Balance {
	return Balance{
		EmployeeID:     id,
		TotalEarned:    decimal.Zero,
		TotalUsed:      decimal.Zero,
		CurrentBalance: decimal.Zero,
	}
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store handles persistence of TIL records and balances.
type Store interface {
	// AppendRecord persists a new record. Returns
	// attendance.ErrDuplicateIdempotencyKey when the record carries a key
	// that already exists.
	AppendRecord(ctx context.Context, rec Record) error

	GetRecord(ctx context.Context, id RecordID) (Record, error)

	// UpdateRecordStatus persists a status transition. This is the ONLY
	// permitted mutation of a record.
	UpdateRecordStatus(ctx context.Context, rec Record) error

	RecordsForEmployee(ctx context.Context, id attendance.EmployeeID) ([]Record, error)
	PendingRecords(ctx context.Context) ([]Record, error)

	// GetBalance returns nil with no error when the employee has no cached
	// balance yet.
	GetBalance(ctx context.Context, id attendance.EmployeeID) (*Balance, error)
	SaveBalance(ctx context.Context, b Balance) error
}
