/*
handlers_test.go - HTTP-level tests for the API surface

Tests for:
- Clock tap end to end (IN/OUT toggle, hours, office-hours rejection)
- TIL approval workflow over HTTP
- Shift and assignment creation
- Error mapping (404 unknown employee, 400 bad input)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/store/memory"
	"github.com/warp/attendance-engine/til"
)

func newTestAPI(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	settings := attendance.DefaultSettings()
	settings.Location = time.UTC

	ledger := til.NewLedger(store)
	eng := engine.New(store, ledger, settings)
	return NewRouter(NewHandler(eng, store)), store
}

func seedDayShift(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, attendance.Shift{
		ID:                "day",
		Name:              "Day Shift",
		Start:             attendance.NewTimeOfDay(8, 0),
		End:               attendance.NewTimeOfDay(16, 0),
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.RequireFromString("0.5"),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	}))
	require.NoError(t, store.SaveEmployee(ctx, attendance.Employee{
		ID:             "emp-1",
		Name:           "Alice Nguyen",
		Email:          "alice@example.com",
		Department:     "Engineering",
		DefaultShiftID: "day",
		Active:         true,
		CreatedAt:      time.Now(),
	}))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func clockAt(t *testing.T, h http.Handler, hour, minute int) *httptest.ResponseRecorder {
	t.Helper()
	ts := time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
	return doJSON(t, h, http.MethodPost, "/api/employees/emp-1/clock",
		ClockTapRequest{Timestamp: ts.Format(time.RFC3339)})
}

func TestClockTap_EndToEnd(t *testing.T) {
	// GIVEN: A seeded employee on the day shift
	h, store := newTestAPI(t)
	seedDayShift(t, store)

	// WHEN: Tapping at 08:00
	rec := clockAt(t, h, 8, 0)

	// THEN: The first tap clocks IN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[ClockTapResponse](t, rec)
	assert.Equal(t, "IN", resp.Action)
	assert.Equal(t, 1, resp.Summary.TapCount)
	require.NotNil(t, resp.Summary.FirstClockIn)

	// WHEN: Tapping again at 16:30
	rec = clockAt(t, h, 16, 30)

	// THEN: The second tap clocks OUT with break-adjusted hours
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decodeBody[ClockTapResponse](t, rec)
	assert.Equal(t, "OUT", resp.Action)
	assert.True(t, decimal.RequireFromString("8.5").Equal(resp.Summary.RawHours),
		"raw hours: %s", resp.Summary.RawHours)
	assert.True(t, decimal.NewFromInt(8).Equal(resp.Summary.FinalHours),
		"final hours: %s", resp.Summary.FinalHours)

	// AND: Status reflects the closed session
	rec = doJSON(t, h, http.MethodGet, "/api/employees/emp-1/status?date=2026-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[SummaryDTO](t, rec)
	assert.Equal(t, "OUT", sum.CurrentStatus)
	assert.Equal(t, 2, sum.TapCount)

	// AND: Both taps appear in the audit trail
	rec = doJSON(t, h, http.MethodGet, "/api/employees/emp-1/taps?date=2026-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	taps := decodeBody[[]TapDTO](t, rec)
	require.Len(t, taps, 2)
	assert.Equal(t, "IN", taps[0].Action)
	assert.Equal(t, "OUT", taps[1].Action)
}

func TestClockTap_OutsideOfficeHours_Rejected(t *testing.T) {
	// GIVEN: Office hours 07:00-17:00
	h, store := newTestAPI(t)
	seedDayShift(t, store)

	// WHEN: Tapping at 05:00
	rec := clockAt(t, h, 5, 0)

	// THEN: The tap is rejected before reaching the engine
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, errResp.Error, "office hours")
}

func TestClockTap_UnknownEmployee_NotFound(t *testing.T) {
	h, _ := newTestAPI(t)

	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := doJSON(t, h, http.MethodPost, "/api/employees/emp-ghost/clock",
		ClockTapRequest{Timestamp: ts.Format(time.RFC3339)})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClockTap_InvalidTimestamp_BadRequest(t *testing.T) {
	h, store := newTestAPI(t)
	seedDayShift(t, store)

	rec := doJSON(t, h, http.MethodPost, "/api/employees/emp-1/clock",
		ClockTapRequest{Timestamp: "not-a-time"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTILApprovalWorkflow(t *testing.T) {
	// GIVEN: An employee who worked one hour past shift end without pre-approval
	h, store := newTestAPI(t)
	seedDayShift(t, store)
	clockAt(t, h, 8, 0)
	rec := clockAt(t, h, 17, 0)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[ClockTapResponse](t, rec)
	require.NotNil(t, resp.TILEarned)
	assert.Equal(t, string(til.StatusPending), resp.TILStatus)

	// WHEN: Listing pending records
	rec = doJSON(t, h, http.MethodGet, "/api/til/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]TILRecordDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, string(til.EarnedOvertime), pending[0].Type)
	assert.True(t, decimal.RequireFromString("1.5").Equal(pending[0].Hours))

	// THEN: Approving without an approver is rejected
	rec = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/til/%s/approve", pending[0].ID), ApproveRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// AND: Approving with an approver moves hours into the balance
	rec = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/til/%s/approve", pending[0].ID),
		ApproveRequest{ApproverID: "emp-mgr"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/employees/emp-1/til", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bal := decodeBody[TILBalanceDTO](t, rec)
	assert.True(t, decimal.RequireFromString("1.5").Equal(bal.CurrentBalance),
		"balance: %s", bal.CurrentBalance)

	// AND: Approving the same record twice conflicts
	rec = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/til/%s/approve", pending[0].ID),
		ApproveRequest{ApproverID: "emp-mgr"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaveUsage_OverHTTP(t *testing.T) {
	// GIVEN: An employee with an approved balance
	h, store := newTestAPI(t)
	seedDayShift(t, store)
	ctx := context.Background()
	ledger := til.NewLedger(store)
	_, err := ledger.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  "emp-1",
		Type:        til.EarnedOvertime,
		Hours:       decimal.NewFromInt(3),
		Date:        attendance.NewDate(2026, 3, 9),
		Reason:      "Overtime",
		AutoApprove: true,
	})
	require.NoError(t, err)

	// WHEN: Spending 2 hours against a leave day
	rec := doJSON(t, h, http.MethodPost, "/api/employees/emp-1/til/usage",
		LeaveUsageRequest{Hours: 2, Date: "2026-03-11", Reason: "Half day", ApprovedBy: "emp-mgr"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: The balance drops to 1
	rec = doJSON(t, h, http.MethodGet, "/api/employees/emp-1/til", nil)
	bal := decodeBody[TILBalanceDTO](t, rec)
	assert.True(t, decimal.NewFromInt(1).Equal(bal.CurrentBalance))

	// AND: Negative usage is rejected
	rec = doJSON(t, h, http.MethodPost, "/api/employees/emp-1/til/usage",
		LeaveUsageRequest{Hours: -1, Date: "2026-03-11", Reason: "Bad", ApprovedBy: "emp-mgr"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateShiftAndAssignment(t *testing.T) {
	h, store := newTestAPI(t)
	seedDayShift(t, store)

	// Create a night shift template.
	rec := doJSON(t, h, http.MethodPost, "/api/shifts", ShiftDTO{
		ID:                "night",
		Name:              "Night Shift",
		Start:             "22:00",
		End:               "06:00",
		ScheduledHours:    decimal.NewFromInt(8),
		BreakHours:        decimal.RequireFromString("0.5"),
		EarlyGraceMinutes: 15,
		LateGraceMinutes:  15,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/shifts", nil)
	shifts := decodeBody[[]ShiftDTO](t, rec)
	assert.Len(t, shifts, 2)

	// Assign it with pre-approved overtime.
	rec = doJSON(t, h, http.MethodPost, "/api/shifts/assignments", CreateAssignmentRequest{
		EmployeeID:            "emp-1",
		Date:                  "2026-03-10",
		ShiftID:               "night",
		PreApprovedOvertime:   true,
		ApprovedOvertimeHours: 2,
		ApprovedBy:            "emp-mgr",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	a, err := store.GetAssignment(context.Background(), "emp-1", attendance.NewDate(2026, 3, 10))
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, attendance.ShiftID("night"), a.ShiftID)
	assert.True(t, a.PreApprovedOvertime)

	// Assignments against unknown shifts are rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/shifts/assignments", CreateAssignmentRequest{
		EmployeeID: "emp-1",
		Date:       "2026-03-10",
		ShiftID:    "ghost",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunSweep_NothingOpen(t *testing.T) {
	h, store := newTestAPI(t)
	seedDayShift(t, store)
	_ = store

	rec := doJSON(t, h, http.MethodPost, "/api/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SweepResponse](t, rec)
	assert.Equal(t, 0, resp.Closed)
}
