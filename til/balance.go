/*
balance.go - Balance recalculation from approved records

PURPOSE:
  The cached Balance row is a materialized view: it is only ever rebuilt
  wholesale from the APPROVED records, never incrementally patched by
  multiple code paths. Running Recalculate twice with no new records yields
  identical results - no drift, no double counting.

SUMMATION RULES:
  total_earned  = sum(hours) over APPROVED {EARNED_EARLY, EARNED_OT, ADJUSTED}
  total_used    = sum(|hours|) over APPROVED {USED}
  balance       = total_earned - total_used
  PENDING and REJECTED records are excluded entirely.

  ADJUSTED is summed signed into the earned column while USED is forced
  positive into the used column. That asymmetry preserves the existing
  convention; whether negative adjustments belong in "earned" is worth
  confirming against business intent before changing it.
*/
package til

import (
	"context"

	"github.com/warp/attendance-engine/attendance"
)

// Recalculate rebuilds the employee's balance from their approved records
// and persists it. Idempotent: safe to call at any time, including to
// resolve a discrepancy left by an earlier partial failure.
func (l *Ledger) Recalculate(ctx context.Context, id attendance.EmployeeID) (Balance, error) {
	release, err := l.locks.Acquire(ctx, balanceKey(id), lockTimeout)
	if err != nil {
		return Balance{}, err
	}
	defer release()

	return l.recalculateLocked(ctx, id)
}

// recalculateLocked is Recalculate for callers already holding the
// employee's balance lock.
func (l *Ledger) recalculateLocked(ctx context.Context, id attendance.EmployeeID) (Balance, error) {
	records, err := l.store.RecordsForEmployee(ctx, id)
	if err != nil {
		return Balance{}, err
	}

	bal := NewBalance(id)
	for _, rec := range records {
		if rec.Status != StatusApproved {
			continue
		}
		switch rec.Type {
		case EarnedEarly, EarnedOvertime, Adjusted:
			bal.TotalEarned = bal.TotalEarned.Add(rec.Hours)
		case Used:
			bal.TotalUsed = bal.TotalUsed.Add(rec.Hours.Abs())
		}
	}
	bal.CurrentBalance = bal.TotalEarned.Sub(bal.TotalUsed)
	bal.LastCalculatedAt = l.now()

	if err := l.store.SaveBalance(ctx, bal); err != nil {
		return Balance{}, err
	}
	return bal, nil
}

// BalanceFor returns the employee's cached balance, lazily creating a zero
// balance when none exists yet.
func (l *Ledger) BalanceFor(ctx context.Context, id attendance.EmployeeID) (Balance, error) {
	bal, err := l.store.GetBalance(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	if bal == nil {
		return NewBalance(id), nil
	}
	return *bal, nil
}
