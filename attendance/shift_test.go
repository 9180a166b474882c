package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dayShift() attendance.Shift {
	return attendance.Shift{
		ID:                "day",
		Name:              "Day Shift",
		Start:             attendance.NewTimeOfDay(9, 0),
		End:               attendance.NewTimeOfDay(17, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.NewFromFloat(0.5),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}
}

func nightShift() attendance.Shift {
	return attendance.Shift{
		ID:                "night",
		Name:              "Night Shift",
		Start:             attendance.NewTimeOfDay(22, 0),
		End:               attendance.NewTimeOfDay(6, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.NewFromFloat(0.5),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}
}

// =============================================================================
// RESOLUTION ORDER TESTS
// =============================================================================

func TestResolve_AssignmentWinsOverDefaultShift(t *testing.T) {
	// GIVEN: An employee whose default is the day shift, but with a night
	//        shift assignment for the date
	// WHEN: Resolving the schedule for that date
	// THEN: The assignment's shift applies

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, dayShift()))
	require.NoError(t, store.SaveShift(ctx, nightShift()))

	emp := attendance.Employee{ID: "emp-1", Name: "Alice", DefaultShiftID: "day"}
	date := attendance.NewDate(2026, 3, 10)
	require.NoError(t, store.SaveAssignment(ctx, attendance.ShiftAssignment{
		EmployeeID: "emp-1",
		Date:       date,
		ShiftID:    "night",
	}))

	resolved, err := attendance.NewResolver(store).Resolve(ctx, emp, date)
	require.NoError(t, err)

	assert.Equal(t, attendance.ShiftID("night"), resolved.Shift.ID)
	require.NotNil(t, resolved.Assignment)
	assert.Equal(t, attendance.NewTimeOfDay(22, 0), resolved.Start)
}

func TestResolve_CustomTimesOverrideShiftTemplate(t *testing.T) {
	// GIVEN: An assignment with a custom 10:00 start over the day shift
	// WHEN: Resolving the schedule
	// THEN: The custom start wins, template end remains

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, dayShift()))

	emp := attendance.Employee{ID: "emp-1", DefaultShiftID: "day"}
	date := attendance.NewDate(2026, 3, 10)
	customStart := attendance.NewTimeOfDay(10, 0)
	require.NoError(t, store.SaveAssignment(ctx, attendance.ShiftAssignment{
		EmployeeID:  "emp-1",
		Date:        date,
		ShiftID:     "day",
		CustomStart: &customStart,
	}))

	resolved, err := attendance.NewResolver(store).Resolve(ctx, emp, date)
	require.NoError(t, err)

	assert.Equal(t, attendance.NewTimeOfDay(10, 0), resolved.Start)
	assert.Equal(t, attendance.NewTimeOfDay(17, 0), resolved.End)
}

func TestResolve_FallsBackToDefaultShift(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, dayShift()))

	emp := attendance.Employee{ID: "emp-1", DefaultShiftID: "day"}
	resolved, err := attendance.NewResolver(store).Resolve(ctx, emp, attendance.NewDate(2026, 3, 10))
	require.NoError(t, err)

	assert.Equal(t, attendance.ShiftID("day"), resolved.Shift.ID)
	assert.Nil(t, resolved.Assignment)
}

func TestResolve_NoAssignmentNoDefault_ReturnsSentinel(t *testing.T) {
	store := memory.New()

	emp := attendance.Employee{ID: "emp-1"}
	_, err := attendance.NewResolver(store).Resolve(context.Background(), emp, attendance.NewDate(2026, 3, 10))
	assert.ErrorIs(t, err, attendance.ErrNoShiftAssigned)
}

// =============================================================================
// MIDNIGHT HANDLING TESTS
// =============================================================================

func TestEndAt_MidnightCrossingShiftEndsNextDay(t *testing.T) {
	// GIVEN: A 22:00-06:00 night shift resolved for March 10
	// WHEN: Computing the end instant
	// THEN: It lands at 06:00 on March 11, not a negative window

	resolved := &attendance.ResolvedShift{
		Shift: nightShift(),
		Start: attendance.NewTimeOfDay(22, 0),
		End:   attendance.NewTimeOfDay(6, 0),
	}
	date := attendance.NewDate(2026, 3, 10)

	start := resolved.StartAt(date, time.UTC)
	end := resolved.EndAt(date, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 8*time.Hour, end.Sub(start))
}

func TestEndAt_MidnightCrossingInOrgTimezone(t *testing.T) {
	// GIVEN: The same night shift resolved under Australia/Sydney
	// WHEN: Computing the window instants
	// THEN: Both carry the Sydney offset and the end rolls to March 11

	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	resolved := &attendance.ResolvedShift{
		Shift: nightShift(),
		Start: attendance.NewTimeOfDay(22, 0),
		End:   attendance.NewTimeOfDay(6, 0),
	}
	date := attendance.NewDate(2026, 3, 10)

	start := resolved.StartAt(date, loc)
	end := resolved.EndAt(date, loc)

	assert.Equal(t, time.Date(2026, 3, 10, 22, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, loc), end)
	assert.Equal(t, 8*time.Hour, end.Sub(start))
}

func TestShift_CrossesMidnight(t *testing.T) {
	assert.False(t, dayShift().CrossesMidnight())
	assert.True(t, nightShift().CrossesMidnight())
}
