package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/til"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEmployeeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := attendance.Employee{
		ID:             "emp-1",
		Name:           "Alice Nguyen",
		Email:          "alice@example.com",
		Department:     "Engineering",
		DefaultShiftID: "day",
		ManagerID:      "mgr-1",
		Active:         true,
		CreatedAt:      time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, emp, got)

	_, err = store.GetEmployee(ctx, "emp-missing")
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)

	// Upsert updates in place.
	emp.Department = "Operations"
	require.NoError(t, store.SaveEmployee(ctx, emp))
	got, err = store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Operations", got.Department)

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestShiftAndAssignmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	shift := attendance.Shift{
		ID:                "night",
		Name:              "Night Shift",
		Start:             attendance.NewTimeOfDay(22, 0),
		End:               attendance.NewTimeOfDay(6, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.NewFromFloat(0.5),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}
	require.NoError(t, store.SaveShift(ctx, shift))

	gotShift, err := store.GetShift(ctx, "night")
	require.NoError(t, err)
	assert.Equal(t, shift.Start, gotShift.Start)
	assert.Equal(t, shift.End, gotShift.End)
	assert.True(t, shift.ScheduledHours.Equal(gotShift.ScheduledHours))
	assert.True(t, gotShift.CrossesMidnight())

	date := attendance.NewDate(2026, 3, 10)
	customStart := attendance.NewTimeOfDay(21, 30)
	a := attendance.ShiftAssignment{
		EmployeeID:            "emp-1",
		Date:                  date,
		ShiftID:               "night",
		CustomStart:           &customStart,
		PreApprovedOvertime:   true,
		ApprovedOvertimeHours: decimal.NewFromInt(2),
		ApprovedBy:            "mgr-1",
	}
	require.NoError(t, store.SaveAssignment(ctx, a))

	gotA, err := store.GetAssignment(ctx, "emp-1", date)
	require.NoError(t, err)
	require.NotNil(t, gotA)
	require.NotNil(t, gotA.CustomStart)
	assert.Equal(t, customStart, *gotA.CustomStart)
	assert.Nil(t, gotA.CustomEnd)
	assert.True(t, gotA.PreApprovedOvertime)
	assert.True(t, decimal.NewFromInt(2).Equal(gotA.ApprovedOvertimeHours))

	// No assignment for another date.
	none, err := store.GetAssignment(ctx, "emp-1", attendance.NewDate(2026, 3, 11))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTapsAndSummaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := attendance.NewDate(2026, 3, 10)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	out := time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC)

	require.NoError(t, store.AppendTap(ctx, attendance.Tap{
		ID: "tap-1", EmployeeID: "emp-1", Timestamp: in,
		Action: attendance.ActionIn, CreatedAt: in,
	}))
	require.NoError(t, store.AppendTap(ctx, attendance.Tap{
		ID: "tap-2", EmployeeID: "emp-1", Timestamp: out,
		Action: attendance.ActionOut, Note: "manual", CreatedAt: out,
	}))

	taps, err := store.TapsForDay(ctx, "emp-1", date)
	require.NoError(t, err)
	require.Len(t, taps, 2)
	assert.Equal(t, "tap-1", taps[0].ID)
	assert.Equal(t, attendance.ActionOut, taps[1].Action)
	assert.Equal(t, "manual", taps[1].Note)

	sum := attendance.NewDailySummary("emp-1", date)
	sum.FirstClockIn = &in
	sum.LastClockOut = &out
	sum.RawHours = decimal.RequireFromString("8.5")
	sum.BreakDeduction = decimal.RequireFromString("0.5")
	sum.FinalHours = decimal.NewFromInt(8)
	sum.CurrentStatus = attendance.ActionOut
	sum.TapCount = 2
	require.NoError(t, store.SaveSummary(ctx, sum))

	got, err := store.GetSummary(ctx, "emp-1", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, sum.RawHours.Equal(got.RawHours))
	assert.True(t, sum.FinalHours.Equal(got.FinalHours))
	require.NotNil(t, got.FirstClockIn)
	assert.True(t, in.Equal(*got.FirstClockIn))
	assert.Equal(t, 2, got.TapCount)

	// OpenSummaries only returns sessions still IN.
	open := attendance.NewDailySummary("emp-2", date)
	open.CurrentStatus = attendance.ActionIn
	open.TapCount = 1
	require.NoError(t, store.SaveSummary(ctx, open))

	openList, err := store.OpenSummaries(ctx, date)
	require.NoError(t, err)
	require.Len(t, openList, 1)
	assert.Equal(t, attendance.EmployeeID("emp-2"), openList[0].EmployeeID)

	all, err := store.SummariesForDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTILRecords_IdempotencyAndStatusUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := til.Record{
		ID:             "til-1",
		EmployeeID:     "emp-1",
		Type:           til.EarnedOvertime,
		Status:         til.StatusPending,
		Hours:          decimal.RequireFromString("1.5"),
		Date:           attendance.NewDate(2026, 3, 10),
		Reason:         "Overtime",
		IdempotencyKey: "emp-1|2026-03-10|EARNED_OT",
		CreatedAt:      time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.AppendRecord(ctx, rec))

	dup := rec
	dup.ID = "til-2"
	err := store.AppendRecord(ctx, dup)
	assert.ErrorIs(t, err, attendance.ErrDuplicateIdempotencyKey)

	got, err := store.GetRecord(ctx, "til-1")
	require.NoError(t, err)
	assert.Equal(t, til.StatusPending, got.Status)
	assert.True(t, rec.Hours.Equal(got.Hours))

	approvedAt := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	got.Status = til.StatusApproved
	got.ApprovedBy = "mgr-1"
	got.ApprovedAt = &approvedAt
	require.NoError(t, store.UpdateRecordStatus(ctx, got))

	updated, err := store.GetRecord(ctx, "til-1")
	require.NoError(t, err)
	assert.Equal(t, til.StatusApproved, updated.Status)
	assert.Equal(t, "mgr-1", updated.ApprovedBy)
	require.NotNil(t, updated.ApprovedAt)

	pending, err := store.PendingRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := store.RecordsForEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	err = store.UpdateRecordStatus(ctx, til.Record{ID: "til-missing", Status: til.StatusApproved})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestBalanceUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	none, err := store.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	bal := til.Balance{
		EmployeeID:       "emp-1",
		TotalEarned:      decimal.RequireFromString("8.5"),
		TotalUsed:        decimal.NewFromInt(4),
		CurrentBalance:   decimal.RequireFromString("4.5"),
		LastCalculatedAt: time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveBalance(ctx, bal))

	got, err := store.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, bal.CurrentBalance.Equal(got.CurrentBalance))

	bal.CurrentBalance = decimal.NewFromInt(6)
	require.NoError(t, store.SaveBalance(ctx, bal))
	got, err = store.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(got.CurrentBalance))
}
