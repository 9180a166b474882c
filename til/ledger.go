/*
ledger.go - TIL ledger with approval workflow

PURPOSE:
  The Ledger owns all TIL mutations: record creation (accrual.go), the
  PENDING -> APPROVED/REJECTED transition, and balance recalculation
  (balance.go). Every balance-affecting operation serializes per employee
  under a keyed mutex, so an approval racing an auto-approved accrual for
  the same employee cannot interleave their recalculations.

STATUS TRANSITIONS:
  A record transitions out of PENDING exactly once. Approving or rejecting
  anything else fails with InvalidState and leaves the record untouched.
  Rejected records are excluded from every balance sum.
*/
package til

import (
	"context"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

const lockTimeout = 5 * time.Second

// Ledger is the entry point for all TIL mutations.
type Ledger struct {
	store Store
	locks *attendance.KeyedMutex
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: attendance.NewKeyedMutex(),
		now:   time.Now,
	}
}

// Approve transitions a PENDING record to APPROVED and recalculates the
// employee's balance before returning.
func (l *Ledger) Approve(ctx context.Context, id RecordID, approver string) (Record, error) {
	rec, err := l.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}

	release, err := l.locks.Acquire(ctx, balanceKey(rec.EmployeeID), lockTimeout)
	if err != nil {
		return Record{}, err
	}
	defer release()

	// Re-read under the lock: a concurrent approval may have won.
	rec, err = l.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusPending {
		return Record{}, &attendance.InvalidStateError{
			RecordID: string(rec.ID),
			Current:  string(rec.Status),
			Wanted:   string(StatusPending),
		}
	}

	rec.Status = StatusApproved
	rec.ApprovedBy = approver
	approvedAt := l.now()
	rec.ApprovedAt = &approvedAt

	if err := l.store.UpdateRecordStatus(ctx, rec); err != nil {
		return Record{}, err
	}
	if _, err := l.recalculateLocked(ctx, rec.EmployeeID); err != nil {
		return rec, err
	}
	return rec, nil
}

// Reject transitions a PENDING record to REJECTED. Rejected records never
// touch the balance, so no recalculation is needed.
func (l *Ledger) Reject(ctx context.Context, id RecordID, approver, reason string) (Record, error) {
	rec, err := l.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}

	release, err := l.locks.Acquire(ctx, balanceKey(rec.EmployeeID), lockTimeout)
	if err != nil {
		return Record{}, err
	}
	defer release()

	rec, err = l.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusPending {
		return Record{}, &attendance.InvalidStateError{
			RecordID: string(rec.ID),
			Current:  string(rec.Status),
			Wanted:   string(StatusPending),
		}
	}

	rec.Status = StatusRejected
	rec.ApprovedBy = approver
	rejectedAt := l.now()
	rec.ApprovedAt = &rejectedAt
	rec.RejectionReason = reason

	if err := l.store.UpdateRecordStatus(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordsFor returns the full ledger history for an employee.
func (l *Ledger) RecordsFor(ctx context.Context, id attendance.EmployeeID) ([]Record, error) {
	return l.store.RecordsForEmployee(ctx, id)
}

// Pending returns all records awaiting manager review.
func (l *Ledger) Pending(ctx context.Context) ([]Record, error) {
	return l.store.PendingRecords(ctx)
}

func balanceKey(id attendance.EmployeeID) string {
	return "til/" + string(id)
}
