/*
PURPOSE:
  Forced clock-out of forgotten sessions. Employees who badge in and
  never badge out would otherwise sit IN forever with no hours computed.
  The sweep closes those sessions through the same tap path a real badge
  takes, so parity and accrual behave identically.

SEE ALSO:
  - processor.go: The applyTap path the sweep reuses
  - ../api/scheduler.go: Periodic invocation
*/
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

const autoClockOutNote = "Auto clock-out: session closed by sweep"

// RunAutoClockOutSweep closes every open session that has either reached
// office end in the org timezone or run past the required shift length.
// Returns the number of sessions closed. Lock conflicts with a live tap
// are skipped; the next sweep retries them.
func (s *Service) RunAutoClockOutSweep(ctx context.Context, now time.Time) (int, error) {
	if !s.settings.AutoClockOutEnabled {
		return 0, nil
	}

	local := now.In(s.settings.Location)
	date := attendance.DateOf(local)

	open, err := s.store.OpenSummaries(ctx, date)
	if err != nil {
		return 0, err
	}

	requiredMin := s.settings.RequiredShiftHours.Mul(decimal.NewFromInt(60))
	officeEnd := date.At(s.settings.OfficeEnd, s.settings.Location)

	closed := 0
	for _, sum := range open {
		if sum.CurrentStatus != attendance.ActionIn || sum.FirstClockIn == nil {
			continue
		}
		elapsedMin := decimal.NewFromInt(int64(now.Sub(*sum.FirstClockIn) / time.Minute))
		if now.Before(officeEnd) && elapsedMin.LessThan(requiredMin) {
			continue
		}

		n, err := s.sweepOne(ctx, sum.EmployeeID, date, now)
		if err != nil {
			if errors.Is(err, attendance.ErrConcurrencyConflict) {
				continue
			}
			log.Printf("[Sweeper] employee %s: %v", sum.EmployeeID, err)
			continue
		}
		closed += n
	}
	return closed, nil
}

// sweepOne closes a single session under the same lock a live tap takes.
// The summary is re-read under the lock; an employee who badged out in
// the window between listing and locking is left alone.
func (s *Service) sweepOne(ctx context.Context, id attendance.EmployeeID, date attendance.Date, now time.Time) (int, error) {
	release, err := s.locks.Acquire(ctx, dayKey(id, date), lockTimeout)
	if err != nil {
		return 0, err
	}
	defer release()

	sum, err := s.store.GetSummary(ctx, id, date)
	if err != nil {
		return 0, err
	}
	if sum == nil || sum.CurrentStatus != attendance.ActionIn {
		return 0, nil
	}

	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err := s.applyTap(ctx, emp, date, now, autoClockOutNote); err != nil {
		return 0, err
	}
	return 1, nil
}
