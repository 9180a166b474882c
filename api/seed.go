/*
seed.go - Demo data seeding for testing and demonstrations

PURPOSE:
  Populates the store with realistic data for local development and
  demos: a standard day shift, a night shift that crosses midnight,
  employees across two departments, and assignments with pre-approved
  deviations so both accrual paths are exercised.

USAGE:
  Run the server with -seed to load the demo data on startup.

NOTE:
  Seeding is additive over whatever is already stored. Only use in
  development/demo environments.

SEE ALSO:
  - cmd/server/main.go: The -seed flag
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// SeedDemo loads demo employees, shifts, and assignments for today.
func SeedDemo(ctx context.Context, store attendance.Store, settings attendance.Settings) error {
	dayShift := attendance.Shift{
		ID:                "day",
		Name:              "Day Shift",
		Start:             attendance.NewTimeOfDay(9, 0),
		End:               attendance.NewTimeOfDay(17, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.NewFromFloat(0.5),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}
	nightShift := attendance.Shift{
		ID:                "night",
		Name:              "Night Shift",
		Start:             attendance.NewTimeOfDay(22, 0),
		End:               attendance.NewTimeOfDay(6, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.NewFromFloat(0.5),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}
	for _, shift := range []attendance.Shift{dayShift, nightShift} {
		if err := store.SaveShift(ctx, shift); err != nil {
			return fmt.Errorf("failed to seed shift %s: %w", shift.ID, err)
		}
	}

	employees := []attendance.Employee{
		{ID: "emp-alice", Name: "Alice Nguyen", Email: "alice@example.com", Department: "Engineering", DefaultShiftID: "day", ManagerID: "emp-dana", Active: true},
		{ID: "emp-bob", Name: "Bob Carter", Email: "bob@example.com", Department: "Engineering", DefaultShiftID: "day", ManagerID: "emp-dana", Active: true},
		{ID: "emp-carol", Name: "Carol Diaz", Email: "carol@example.com", Department: "Operations", DefaultShiftID: "night", ManagerID: "emp-dana", Active: true},
		{ID: "emp-dana", Name: "Dana Patel", Email: "dana@example.com", Department: "Management", DefaultShiftID: "day", Active: true},
	}
	for _, emp := range employees {
		emp.CreatedAt = time.Now().UTC()
		if err := store.SaveEmployee(ctx, emp); err != nil {
			return fmt.Errorf("failed to seed employee %s: %w", emp.ID, err)
		}
	}

	today := attendance.DateOf(time.Now().In(settings.Location))

	// Alice has pre-approved early start, Bob has pre-approved overtime.
	assignments := []attendance.ShiftAssignment{
		{
			EmployeeID:            "emp-alice",
			Date:                  today,
			ShiftID:               "day",
			PreApprovedEarlyStart: true,
			ApprovedEarlyMinutes:  60,
			ApprovedBy:            "emp-dana",
		},
		{
			EmployeeID:            "emp-bob",
			Date:                  today,
			ShiftID:               "day",
			PreApprovedOvertime:   true,
			ApprovedOvertimeHours: decimal.NewFromInt(2),
			ApprovedBy:            "emp-dana",
		},
	}
	for _, a := range assignments {
		if err := store.SaveAssignment(ctx, a); err != nil {
			return fmt.Errorf("failed to seed assignment for %s: %w", a.EmployeeID, err)
		}
	}

	return nil
}
