/*
accrual.go - Tiered TIL multiplier and record creation

PURPOSE:
  Converts raw deviation hours into TIL hours and creates the ledger entry,
  auto-approved (with a synchronous balance recalculation) or pending.

THE TIER FORMULA:
  First 3 hours at 1.5x, everything beyond at 2x:
    2h  -> 3.0
    4h  -> 3*1.5 + 1*2 = 6.5
    5h  -> 3*1.5 + 2*2 = 8.5
  The same formula applies whether the source is a pre-approved early start
  or overtime.
*/
package til

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

var (
	tier1Cap  = decimal.NewFromInt(3)
	tier1Rate = decimal.RequireFromString("1.5")
	tier2Rate = decimal.RequireFromString("2.0")
)

// Hours converts raw deviation hours into TIL hours with the tiered
// multiplier. Pure; non-positive input yields zero.
func Hours(raw decimal.Decimal) decimal.Decimal {
	if raw.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if raw.LessThanOrEqual(tier1Cap) {
		return raw.Mul(tier1Rate)
	}
	tier1 := tier1Cap.Mul(tier1Rate)
	tier2 := raw.Sub(tier1Cap).Mul(tier2Rate)
	return tier1.Add(tier2)
}

// CreateRecordInput carries everything needed to ledger an accrual or usage.
type CreateRecordInput struct {
	EmployeeID attendance.EmployeeID
	Type       RecordType

	// Hours is the signed TIL amount (already multiplied for earnings).
	Hours decimal.Decimal

	Date   attendance.Date
	Reason string

	// AutoApprove creates the record as APPROVED and synchronously
	// recalculates the balance before returning.
	AutoApprove bool
	ApprovedBy  string

	SummaryRef     string
	IdempotencyKey string
}

// CreateRecord appends a ledger entry and, for auto-approved entries,
// recalculates the employee's balance before returning.
func (l *Ledger) CreateRecord(ctx context.Context, in CreateRecordInput) (Record, error) {
	now := l.now()

	rec := Record{
		ID:             newRecordID(),
		EmployeeID:     in.EmployeeID,
		Type:           in.Type,
		Status:         StatusPending,
		Hours:          in.Hours,
		Date:           in.Date,
		Reason:         in.Reason,
		SummaryRef:     in.SummaryRef,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      now,
	}
	if in.AutoApprove {
		rec.Status = StatusApproved
		rec.ApprovedBy = in.ApprovedBy
		approvedAt := now
		rec.ApprovedAt = &approvedAt
	}

	if err := l.store.AppendRecord(ctx, rec); err != nil {
		return Record{}, err
	}

	if in.AutoApprove {
		if _, err := l.Recalculate(ctx, in.EmployeeID); err != nil {
			// The record is persisted; the next recalculation rebuilds the
			// balance from scratch, so this discrepancy self-heals rather
			// than requiring manual reconciliation.
			return rec, fmt.Errorf("record %s created but balance recalculation failed: %w", rec.ID, err)
		}
	}

	return rec, nil
}

func newRecordID() RecordID {
	return RecordID(fmt.Sprintf("til-%d", time.Now().UnixNano()))
}
