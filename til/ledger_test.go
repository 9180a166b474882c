package til_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/til"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) *til.Ledger {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return til.NewLedger(store)
}

func pendingOvertime(t *testing.T, ledger *til.Ledger, emp string, hours string) til.Record {
	t.Helper()
	rec, err := ledger.CreateRecord(context.Background(), til.CreateRecordInput{
		EmployeeID: attendance.EmployeeID(emp),
		Type:       til.EarnedOvertime,
		Hours:      decimal.RequireFromString(hours),
		Date:       attendance.NewDate(2026, 3, 10),
		Reason:     "Overtime",
	})
	require.NoError(t, err)
	return rec
}

// =============================================================================
// APPROVAL WORKFLOW TESTS
// =============================================================================

func TestApprove_PendingRecord_AddsToBalance(t *testing.T) {
	// GIVEN: A pending overtime record of 1.5 TIL hours
	// WHEN: A manager approves it
	// THEN: Status becomes APPROVED and the balance gains 1.5 hours

	ledger := newTestLedger(t)
	ctx := context.Background()

	rec := pendingOvertime(t, ledger, "emp-1", "1.5")

	approved, err := ledger.Approve(ctx, rec.ID, "mgr-1")
	require.NoError(t, err)

	assert.Equal(t, til.StatusApproved, approved.Status)
	assert.Equal(t, "mgr-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(bal.CurrentBalance))
}

func TestReject_PendingRecord_BalanceUnchanged(t *testing.T) {
	// GIVEN: A pending overtime record
	// WHEN: A manager rejects it with a reason
	// THEN: Status becomes REJECTED and the balance never moves

	ledger := newTestLedger(t)
	ctx := context.Background()

	rec := pendingOvertime(t, ledger, "emp-1", "2")

	rejected, err := ledger.Reject(ctx, rec.ID, "mgr-1", "not requested in advance")
	require.NoError(t, err)

	assert.Equal(t, til.StatusRejected, rejected.Status)
	assert.Equal(t, "not requested in advance", rejected.RejectionReason)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.IsZero())
}

func TestApprove_AlreadyApproved_InvalidState(t *testing.T) {
	// GIVEN: A record that has already been approved
	// WHEN: Approving it a second time, or rejecting it
	// THEN: Both fail with an invalid-state error and nothing changes

	ledger := newTestLedger(t)
	ctx := context.Background()

	rec := pendingOvertime(t, ledger, "emp-1", "1.5")
	_, err := ledger.Approve(ctx, rec.ID, "mgr-1")
	require.NoError(t, err)

	_, err = ledger.Approve(ctx, rec.ID, "mgr-2")
	assert.ErrorIs(t, err, attendance.ErrInvalidState)

	var stateErr *attendance.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	_, err = ledger.Reject(ctx, rec.ID, "mgr-2", "changed my mind")
	assert.ErrorIs(t, err, attendance.ErrInvalidState)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(bal.CurrentBalance),
		"failed transitions must not move the balance")
}

func TestApprove_UnknownRecord_NotFound(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Approve(context.Background(), "til-missing", "mgr-1")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestPending_ListsOnlyPendingRecords(t *testing.T) {
	// GIVEN: One pending, one approved, and one rejected record
	// WHEN: Listing pending records
	// THEN: Only the untouched record is returned

	ledger := newTestLedger(t)
	ctx := context.Background()

	stays := pendingOvertime(t, ledger, "emp-1", "1")
	approved := pendingOvertime(t, ledger, "emp-2", "1")
	rejected := pendingOvertime(t, ledger, "emp-3", "1")

	_, err := ledger.Approve(ctx, approved.ID, "mgr-1")
	require.NoError(t, err)
	_, err = ledger.Reject(ctx, rejected.ID, "mgr-1", "no")
	require.NoError(t, err)

	pending, err := ledger.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stays.ID, pending[0].ID)
}

// =============================================================================
// BALANCE SEMANTICS TESTS
// =============================================================================

func TestBalance_UsedRecordsSubtractAbsoluteValue(t *testing.T) {
	// GIVEN: 8.5 approved earned hours
	// WHEN: Spending 4 hours against a leave day (stored as -4)
	// THEN: Total used shows 4 and the balance drops to 4.5

	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.EarnedOvertime,
		Hours:       decimal.RequireFromString("8.5"),
		Date:        attendance.NewDate(2026, 3, 10),
		AutoApprove: true,
		ApprovedBy:  "mgr-1",
	})
	require.NoError(t, err)

	_, err = ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.Used,
		Hours:       decimal.RequireFromString("-4"),
		Date:        attendance.NewDate(2026, 3, 12),
		Reason:      "Half day off",
		AutoApprove: true,
		ApprovedBy:  "mgr-1",
	})
	require.NoError(t, err)

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8.5").Equal(bal.TotalEarned), "earned = %s", bal.TotalEarned)
	assert.True(t, decimal.RequireFromString("4").Equal(bal.TotalUsed), "used = %s", bal.TotalUsed)
	assert.True(t, decimal.RequireFromString("4.5").Equal(bal.CurrentBalance), "balance = %s", bal.CurrentBalance)
}

func TestBalance_AdjustedRecordsSumSigned(t *testing.T) {
	// GIVEN: 3 approved earned hours
	// WHEN: An admin applies a -1 correction and a +0.5 correction
	// THEN: Both adjustments sum signed into earned, balance is 2.5

	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.EarnedEarly,
		Hours:       decimal.RequireFromString("3"),
		Date:        attendance.NewDate(2026, 3, 10),
		AutoApprove: true,
		ApprovedBy:  "mgr-1",
	})
	require.NoError(t, err)

	for _, adj := range []string{"-1", "0.5"} {
		_, err = ledger.CreateRecord(ctx, til.CreateRecordInput{
			EmployeeID:  "emp-1",
			Type:        til.Adjusted,
			Hours:       decimal.RequireFromString(adj),
			Date:        attendance.NewDate(2026, 3, 11),
			Reason:      "Correction",
			AutoApprove: true,
			ApprovedBy:  "admin-1",
		})
		require.NoError(t, err)
	}

	bal, err := ledger.BalanceFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(bal.CurrentBalance), "balance = %s", bal.CurrentBalance)
}

func TestRecalculate_Idempotent(t *testing.T) {
	// GIVEN: A balance already derived from the ledger
	// WHEN: Recalculating again with no new records
	// THEN: The numbers do not drift

	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.EarnedOvertime,
		Hours:       decimal.RequireFromString("1.5"),
		Date:        attendance.NewDate(2026, 3, 10),
		AutoApprove: true,
		ApprovedBy:  "mgr-1",
	})
	require.NoError(t, err)

	first, err := ledger.Recalculate(ctx, "emp-1")
	require.NoError(t, err)
	second, err := ledger.Recalculate(ctx, "emp-1")
	require.NoError(t, err)

	assert.True(t, first.CurrentBalance.Equal(second.CurrentBalance))
	assert.True(t, first.TotalEarned.Equal(second.TotalEarned))
}

func TestBalanceFor_NoRecords_ReturnsZeroBalance(t *testing.T) {
	ledger := newTestLedger(t)

	bal, err := ledger.BalanceFor(context.Background(), "emp-never-seen")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.IsZero())
	assert.True(t, bal.TotalEarned.IsZero())
	assert.True(t, bal.TotalUsed.IsZero())
}
