/*
PURPOSE:
  Clock tap processing. A tap toggles the employee between IN and OUT,
  updates the daily summary, and on clock-out computes worked hours and
  hands deviations to the TIL ledger.

TAP PARITY:
  The action is derived from the tap count, never sent by the client.
  Even count means the next tap clocks IN, odd means OUT. Auto clock-out
  reuses the same path, so parity stays consistent no matter who taps.

SEE ALSO:
  - service.go: Service construction and query operations
  - ../attendance/deviation.go: Early and overtime classification
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/til"
)

// TapResult reports what a single clock tap did.
type TapResult struct {
	Action   attendance.ClockAction
	Summary  attendance.DailySummary
	Early    *attendance.EarlyResult
	Overtime *attendance.OvertimeResult

	// TILEarned is the TIL hours ledgered by this tap, zero when none.
	TILEarned decimal.Decimal
	TILStatus til.Status

	// Anomaly is set when the session state was inconsistent, e.g. a
	// clock-out with no recorded first clock-in.
	Anomaly string

	Message string
}

// ClockTap records a badge tap for the employee at the given timestamp.
// The date bucket is the timestamp's calendar date in the org timezone.
func (s *Service) ClockTap(ctx context.Context, id attendance.EmployeeID, ts time.Time, note string) (TapResult, error) {
	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return TapResult{}, err
	}

	local := ts.In(s.settings.Location)
	date := attendance.DateOf(local)

	release, err := s.locks.Acquire(ctx, dayKey(id, date), lockTimeout)
	if err != nil {
		return TapResult{}, err
	}
	defer release()

	return s.applyTap(ctx, emp, date, ts, note)
}

// ManualClockOut closes an open session with an admin correction tap.
// The note is mandatory: corrections never edit history, they append an
// explained OUT tap. Fails with an invalid-state error when the employee
// is not clocked in on that date.
func (s *Service) ManualClockOut(ctx context.Context, id attendance.EmployeeID, ts time.Time, note string) (TapResult, error) {
	if note == "" {
		return TapResult{}, fmt.Errorf("manual clock-out requires a note: %w", attendance.ErrInvalidState)
	}
	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return TapResult{}, err
	}

	date := attendance.DateOf(ts.In(s.settings.Location))
	release, err := s.locks.Acquire(ctx, dayKey(id, date), lockTimeout)
	if err != nil {
		return TapResult{}, err
	}
	defer release()

	sum, err := s.store.GetSummary(ctx, id, date)
	if err != nil {
		return TapResult{}, err
	}
	if sum == nil || sum.CurrentStatus != attendance.ActionIn {
		return TapResult{}, &attendance.InvalidStateError{
			RecordID: summaryRef(id, date),
			Current:  string(attendance.ActionOut),
			Wanted:   string(attendance.ActionIn),
		}
	}
	return s.applyTap(ctx, emp, date, ts, note)
}

// applyTap runs the tap state machine. Callers must hold the
// per-(employee, date) lock.
func (s *Service) applyTap(ctx context.Context, emp attendance.Employee, date attendance.Date, ts time.Time, note string) (TapResult, error) {
	// Normalize into the org timezone before anything is stored. Clients
	// may send any RFC3339 offset; the stores bucket taps by the calendar
	// date of the timestamp they are given, so an unconverted timestamp
	// would land in a different day's audit trail than the summary.
	ts = ts.In(s.settings.Location)

	sum, err := s.store.GetSummary(ctx, emp.ID, date)
	if err != nil {
		return TapResult{}, err
	}
	if sum == nil {
		created := attendance.NewDailySummary(emp.ID, date)
		sum = &created
	}

	action := sum.NextAction()
	tap := attendance.Tap{
		ID:         fmt.Sprintf("tap-%d", time.Now().UnixNano()),
		EmployeeID: emp.ID,
		Timestamp:  ts,
		Action:     action,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AppendTap(ctx, tap); err != nil {
		return TapResult{}, err
	}

	sum.TapCount++
	sum.CurrentStatus = action

	res := TapResult{Action: action}

	switch action {
	case attendance.ActionIn:
		if sum.FirstClockIn == nil {
			first := ts
			sum.FirstClockIn = &first
			if err := s.handleClockIn(ctx, emp, date, ts, &res); err != nil {
				return TapResult{}, err
			}
		}
	case attendance.ActionOut:
		last := ts
		sum.LastClockOut = &last
		if err := s.handleClockOut(ctx, emp, date, sum, &res); err != nil {
			return TapResult{}, err
		}
	}

	if err := s.store.SaveSummary(ctx, *sum); err != nil {
		return TapResult{}, err
	}
	res.Summary = *sum
	return res, nil
}

// handleClockIn classifies the first clock-in of the day against the
// scheduled start and ledgers pre-approved early time.
func (s *Service) handleClockIn(ctx context.Context, emp attendance.Employee, date attendance.Date, ts time.Time, res *TapResult) error {
	rs, err := s.resolver.Resolve(ctx, emp, date)
	if err != nil {
		if errors.Is(err, attendance.ErrNoShiftAssigned) {
			res.Message = "no shift assigned, arrival not classified"
			return nil
		}
		return err
	}

	early := s.detector.DetectEarly(rs, ts, date)
	res.Early = &early
	res.Message = early.Message

	if early.PreApproved && early.EarnedMinutes > 0 {
		approvedBy := ""
		if rs.Assignment != nil {
			approvedBy = rs.Assignment.ApprovedBy
		}
		tilHours := til.Hours(early.EarnedHours())
		rec, err := s.til.CreateRecord(ctx, til.CreateRecordInput{
			EmployeeID:     emp.ID,
			Type:           til.EarnedEarly,
			Hours:          tilHours,
			Date:           date,
			Reason:         fmt.Sprintf("Pre-approved early start: %d minutes before %s", early.EarnedMinutes, rs.Start),
			AutoApprove:    true,
			ApprovedBy:     approvedBy,
			SummaryRef:     summaryRef(emp.ID, date),
			IdempotencyKey: idemKey(emp.ID, date, til.EarnedEarly),
		})
		if err != nil {
			if errors.Is(err, attendance.ErrDuplicateIdempotencyKey) {
				return nil
			}
			return err
		}
		res.TILEarned = rec.Hours
		res.TILStatus = rec.Status
	}
	return nil
}

// handleClockOut recomputes worked hours from the session bounds and
// ledgers overtime beyond grace.
func (s *Service) handleClockOut(ctx context.Context, emp attendance.Employee, date attendance.Date, sum *attendance.DailySummary, res *TapResult) error {
	if sum.FirstClockIn == nil {
		// Clock-out with no recorded clock-in. The tap stays in the audit
		// trail but no hours can be computed.
		res.Anomaly = attendance.ErrMissingFirstClockIn.Error()
		res.Message = "clock-out recorded without a first clock-in"
		return nil
	}

	workedSec := int64(sum.LastClockOut.Sub(*sum.FirstClockIn) / time.Second)
	if workedSec < 0 {
		workedSec = 0
	}
	raw := decimal.NewFromInt(workedSec).Div(decimal.NewFromInt(3600))

	deduction := decimal.Zero
	if raw.GreaterThan(s.settings.BreakThresholdHours) {
		deduction = s.settings.BreakHours
	}

	sum.RawHours = raw
	sum.BreakDeduction = deduction
	sum.FinalHours = raw.Sub(deduction)

	rs, err := s.resolver.Resolve(ctx, emp, date)
	if err != nil {
		if errors.Is(err, attendance.ErrNoShiftAssigned) {
			res.Message = "no shift assigned, departure not classified"
			return nil
		}
		return err
	}

	ov := s.detector.DetectOvertime(rs, *sum.LastClockOut, date)
	res.Overtime = &ov
	if res.Message == "" {
		res.Message = ov.Message
	}

	if ov.Ledger && ov.EarnedHours.IsPositive() {
		approvedBy := ""
		if ov.PreApproved && rs.Assignment != nil {
			approvedBy = rs.Assignment.ApprovedBy
		}
		rec, err := s.til.CreateRecord(ctx, til.CreateRecordInput{
			EmployeeID:     emp.ID,
			Type:           til.EarnedOvertime,
			Hours:          til.Hours(ov.EarnedHours),
			Date:           date,
			Reason:         fmt.Sprintf("Overtime: %d minutes past %s", ov.MinutesOver, rs.End),
			AutoApprove:    ov.PreApproved,
			ApprovedBy:     approvedBy,
			SummaryRef:     summaryRef(emp.ID, date),
			IdempotencyKey: idemKey(emp.ID, date, til.EarnedOvertime),
		})
		if err != nil {
			if errors.Is(err, attendance.ErrDuplicateIdempotencyKey) {
				return nil
			}
			return err
		}
		res.TILEarned = rec.Hours
		res.TILStatus = rec.Status
	}
	return nil
}

func summaryRef(id attendance.EmployeeID, date attendance.Date) string {
	return string(id) + "|" + date.String()
}

func idemKey(id attendance.EmployeeID, date attendance.Date, typ til.RecordType) string {
	return string(id) + "|" + date.String() + "|" + string(typ)
}
