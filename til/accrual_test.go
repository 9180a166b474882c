package til_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/memory"
	"github.com/warp/attendance-engine/til"
)

// =============================================================================
// TIERED CONVERSION TESTS
// =============================================================================

func TestHours_TieredConversion(t *testing.T) {
	// GIVEN: Raw deviation hours
	// WHEN: Converting to TIL hours
	// THEN: First 3 hours convert at 1.5x, the remainder at 2x

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"zero", "0", "0"},
		{"negative clamps to zero", "-1", "0"},
		{"half hour", "0.5", "0.75"},
		{"one hour", "1", "1.5"},
		{"two hours", "2", "3"},
		{"exactly at tier boundary", "3", "4.5"},
		{"one past boundary", "4", "6.5"},
		{"two past boundary", "5", "8.5"},
		{"fractional past boundary", "3.5", "5.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := decimal.RequireFromString(tc.raw)
			want := decimal.RequireFromString(tc.want)
			got := til.Hours(raw)
			assert.True(t, want.Equal(got), "Hours(%s) = %s, want %s", tc.raw, got, tc.want)
		})
	}
}

// =============================================================================
// RECORD CREATION TESTS
// =============================================================================

func TestCreateRecord_AutoApproved_UpdatesBalanceImmediately(t *testing.T) {
	// GIVEN: A pre-approved deviation
	// WHEN: Creating an auto-approved EARNED record
	// THEN: The record is APPROVED and the cached balance reflects it

	ledger := til.NewLedger(memory.New())
	ctx := context.Background()

	rec, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.EarnedEarly,
		Hours:       decimal.RequireFromString("0.75"),
		Date:        attendance.NewDate(2026, 3, 10),
		Reason:      "Pre-approved early start",
		AutoApprove: true,
		ApprovedBy:  "mgr-1",
	})
	require.NoError(t, err)

	assert.Equal(t, til.StatusApproved, rec.Status)
	assert.Equal(t, "mgr-1", rec.ApprovedBy)
	require.NotNil(t, rec.ApprovedAt)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.75").Equal(bal.CurrentBalance),
		"balance = %s", bal.CurrentBalance)
}

func TestCreateRecord_Pending_DoesNotTouchBalance(t *testing.T) {
	// GIVEN: An unapproved overtime deviation
	// WHEN: Creating a PENDING EARNED record
	// THEN: The cached balance stays at zero until a manager approves

	ledger := til.NewLedger(memory.New())
	ctx := context.Background()

	rec, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID: "emp-1",
		Type:       til.EarnedOvertime,
		Hours:      decimal.RequireFromString("1.5"),
		Date:       attendance.NewDate(2026, 3, 10),
		Reason:     "Overtime",
	})
	require.NoError(t, err)

	assert.Equal(t, til.StatusPending, rec.Status)
	assert.Nil(t, rec.ApprovedAt)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.IsZero(), "balance = %s", bal.CurrentBalance)
}

func TestCreateRecord_DuplicateIdempotencyKey_Rejected(t *testing.T) {
	// GIVEN: An accrual already ledgered under an idempotency key
	// WHEN: Creating a second record with the same key
	// THEN: The append is rejected and the first record is untouched

	ledger := til.NewLedger(memory.New())
	ctx := context.Background()

	in := til.CreateRecordInput{
		EmployeeID:     "emp-1",
		Type:           til.EarnedOvertime,
		Hours:          decimal.RequireFromString("1.5"),
		Date:           attendance.NewDate(2026, 3, 10),
		AutoApprove:    true,
		ApprovedBy:     "mgr-1",
		IdempotencyKey: "emp-1|2026-03-10|EARNED_OT",
	}

	_, err := ledger.CreateRecord(ctx, in)
	require.NoError(t, err)

	_, err = ledger.CreateRecord(ctx, in)
	assert.ErrorIs(t, err, attendance.ErrDuplicateIdempotencyKey)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(bal.CurrentBalance),
		"duplicate must not double the balance, got %s", bal.CurrentBalance)
}
