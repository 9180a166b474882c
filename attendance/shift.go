/*
shift.go - Shift resolution for an employee on a date

PURPOSE:
  Answers "what window was this employee scheduled to work on this date?"

LOOKUP ORDER:
  1. A ShiftAssignment for exactly this (employee, date). Its custom
     start/end times win when set; otherwise the assignment's shift
     template times apply.
  2. The employee's default shift, with no assignment.
  3. Neither: ErrNoShiftAssigned. The caller still records the tap and
     computes hours, it only skips deviation checks.

MIDNIGHT:
  A shift whose end is numerically earlier than its start crosses midnight.
  EndAt() shifts the end instant a day forward so that a 22:00-06:00 shift
  compared against an 06:30 clock-out yields 30 minutes of overtime, not a
  negative duration.
*/
package attendance

import (
	"context"
	"fmt"
	"time"
)

// ResolvedShift is the effective schedule for one employee on one date.
// Assignment is nil when the default shift applied.
type ResolvedShift struct {
	Shift      Shift
	Assignment *ShiftAssignment
	Start      TimeOfDay
	End        TimeOfDay
}

// StartAt returns the scheduled start instant on the given date.
func (r *ResolvedShift) StartAt(date Date, loc *time.Location) time.Time {
	return date.At(r.Start, loc)
}

// EndAt returns the scheduled end instant, rolling to the next day when the
// window crosses midnight.
func (r *ResolvedShift) EndAt(date Date, loc *time.Location) time.Time {
	end := date.At(r.End, loc)
	if r.End.Before(r.Start) {
		end = end.Add(24 * time.Hour)
	}
	return end
}

// PreApprovedEarly reports whether an early start was sanctioned for this
// date, and for how many minutes.
func (r *ResolvedShift) PreApprovedEarly() (bool, int) {
	if r.Assignment != nil && r.Assignment.PreApprovedEarlyStart {
		return true, r.Assignment.ApprovedEarlyMinutes
	}
	return false, 0
}

// Resolver determines the effective schedule for an employee on a date.
type Resolver struct {
	Store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store}
}

// Resolve returns the effective shift window for the employee on the date,
// or ErrNoShiftAssigned when neither an assignment nor a default exists.
func (r *Resolver) Resolve(ctx context.Context, emp Employee, date Date) (*ResolvedShift, error) {
	assignment, err := r.Store.GetAssignment(ctx, emp.ID, date)
	if err != nil {
		return nil, fmt.Errorf("lookup assignment for %s on %s: %w", emp.ID, date, err)
	}

	if assignment != nil {
		shift, err := r.Store.GetShift(ctx, assignment.ShiftID)
		if err != nil {
			return nil, fmt.Errorf("lookup shift %s: %w", assignment.ShiftID, err)
		}
		resolved := &ResolvedShift{
			Shift:      shift,
			Assignment: assignment,
			Start:      shift.Start,
			End:        shift.End,
		}
		if assignment.CustomStart != nil {
			resolved.Start = *assignment.CustomStart
		}
		if assignment.CustomEnd != nil {
			resolved.End = *assignment.CustomEnd
		}
		return resolved, nil
	}

	if emp.DefaultShiftID != "" {
		shift, err := r.Store.GetShift(ctx, emp.DefaultShiftID)
		if err != nil {
			return nil, fmt.Errorf("lookup default shift %s: %w", emp.DefaultShiftID, err)
		}
		return &ResolvedShift{Shift: shift, Start: shift.Start, End: shift.End}, nil
	}

	return nil, ErrNoShiftAssigned
}
