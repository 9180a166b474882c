/*
Package engine wires the attendance core together.

PURPOSE:
  The Service is the surface consumed by the API/CLI layer: clock taps,
  status and balance queries, TIL approval, the early-bird report, leave
  usage, and the auto clock-out sweep. Authentication and office-hours
  validation happen before these calls; the engine trusts the timestamp.

ORCHESTRATION:
  A clock tap flows Processor -> Shift Resolver -> Deviation Detector ->
  TIL Ledger. The engine owns that sequencing so the attendance and til
  packages stay free of each other.

CONCURRENCY:
  Every tap (live or swept) runs under the per-(employee, date) keyed
  mutex; TIL balance mutations serialize per employee inside the Ledger.
  Operations on different employees proceed fully in parallel.

SEE ALSO:
  - processor.go: Tap processing and hours computation
  - sweeper.go: Forced clock-out of forgotten sessions
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/til"
)

const lockTimeout = 5 * time.Second

// Service exposes the attendance and TIL operations to callers.
type Service struct {
	store    attendance.Store
	til      *til.Ledger
	settings attendance.Settings
	resolver *attendance.Resolver
	detector *attendance.Detector
	locks    *attendance.KeyedMutex
}

func New(store attendance.Store, tilLedger *til.Ledger, settings attendance.Settings) *Service {
	return &Service{
		store:    store,
		til:      tilLedger,
		settings: settings,
		resolver: attendance.NewResolver(store),
		detector: attendance.NewDetector(settings.Location),
		locks:    attendance.NewKeyedMutex(),
	}
}

// Settings returns the configuration the engine was built with.
func (s *Service) Settings() attendance.Settings { return s.settings }

// GetCurrentStatus returns the employee's daily summary for the date, or
// the zero-value default (status OUT, no taps) when none exists yet.
func (s *Service) GetCurrentStatus(ctx context.Context, id attendance.EmployeeID, date attendance.Date) (attendance.DailySummary, error) {
	sum, err := s.store.GetSummary(ctx, id, date)
	if err != nil {
		return attendance.DailySummary{}, err
	}
	if sum == nil {
		return attendance.NewDailySummary(id, date), nil
	}
	return *sum, nil
}

// GetTILBalance returns the employee's TIL balance, zero if never accrued.
func (s *Service) GetTILBalance(ctx context.Context, id attendance.EmployeeID) (til.Balance, error) {
	return s.til.BalanceFor(ctx, id)
}

// ApproveTIL approves a pending TIL record and recalculates the balance.
func (s *Service) ApproveTIL(ctx context.Context, id til.RecordID, approverID string) (til.Record, error) {
	return s.til.Approve(ctx, id, approverID)
}

// RejectTIL rejects a pending TIL record. The balance is unaffected.
func (s *Service) RejectTIL(ctx context.Context, id til.RecordID, approverID, reason string) (til.Record, error) {
	return s.til.Reject(ctx, id, approverID, reason)
}

// PendingTIL lists records awaiting manager review.
func (s *Service) PendingTIL(ctx context.Context) ([]til.Record, error) {
	return s.til.Pending(ctx)
}

// TILRecordsFor returns the employee's full TIL history.
func (s *Service) TILRecordsFor(ctx context.Context, id attendance.EmployeeID) ([]til.Record, error) {
	return s.til.RecordsFor(ctx, id)
}

// ApplyLeaveUsage spends TIL hours against a leave day. Invoked by the
// external leave-approval workflow once the leave is granted, so the usage
// record is created approved and the balance recalculates immediately.
func (s *Service) ApplyLeaveUsage(ctx context.Context, id attendance.EmployeeID, hours decimal.Decimal, date attendance.Date, reason, approvedBy string) (til.Record, error) {
	if !hours.IsPositive() {
		return til.Record{}, fmt.Errorf("leave usage hours must be positive, got %s: %w", hours, attendance.ErrInvalidState)
	}
	return s.til.CreateRecord(ctx, til.CreateRecordInput{
		EmployeeID:  id,
		Type:        til.Used,
		Hours:       hours.Neg(),
		Date:        date,
		Reason:      reason,
		AutoApprove: true,
		ApprovedBy:  approvedBy,
	})
}

// EarlyBird is one row of the manager review report: an employee who
// clocked in beyond grace without pre-approval.
type EarlyBird struct {
	Employee       attendance.Employee
	ClockIn        time.Time
	ScheduledStart attendance.TimeOfDay
	MinutesEarly   int
	ShiftName      string
}

// GetEarlyBirds lists unapproved early arrivals for the date, optionally
// filtered by department.
func (s *Service) GetEarlyBirds(ctx context.Context, date attendance.Date, department string) ([]EarlyBird, error) {
	summaries, err := s.store.SummariesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	var birds []EarlyBird
	for _, sum := range summaries {
		if sum.FirstClockIn == nil {
			continue
		}
		emp, err := s.store.GetEmployee(ctx, sum.EmployeeID)
		if err != nil {
			// Summary for an unknown employee is a data anomaly in the
			// directory, not a reason to fail the report.
			continue
		}
		if department != "" && emp.Department != department {
			continue
		}

		rs, err := s.resolver.Resolve(ctx, emp, date)
		if err != nil {
			continue
		}
		early := s.detector.DetectEarly(rs, *sum.FirstClockIn, date)
		if !early.Flagged {
			continue
		}
		birds = append(birds, EarlyBird{
			Employee:       emp,
			ClockIn:        *sum.FirstClockIn,
			ScheduledStart: rs.Start,
			MinutesEarly:   early.MinutesEarly,
			ShiftName:      rs.Shift.Name,
		})
	}
	return birds, nil
}

// TILReportRow is one employee's TIL position: the approved balance plus
// hours still waiting on review.
type TILReportRow struct {
	Employee     attendance.Employee
	TotalEarned  decimal.Decimal
	TotalUsed    decimal.Decimal
	Balance      decimal.Decimal
	PendingHours decimal.Decimal
	PendingCount int
}

// GetTILReport builds the per-employee TIL breakdown, optionally filtered
// by department. Rows cover every active employee, including those who
// have never accrued.
func (s *Service) GetTILReport(ctx context.Context, department string) ([]TILReportRow, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]TILReportRow, 0, len(employees))
	for _, emp := range employees {
		if !emp.Active {
			continue
		}
		if department != "" && emp.Department != department {
			continue
		}

		bal, err := s.til.BalanceFor(ctx, emp.ID)
		if err != nil {
			return nil, err
		}
		records, err := s.til.RecordsFor(ctx, emp.ID)
		if err != nil {
			return nil, err
		}

		row := TILReportRow{
			Employee:     emp,
			TotalEarned:  bal.TotalEarned,
			TotalUsed:    bal.TotalUsed,
			Balance:      bal.CurrentBalance,
			PendingHours: decimal.Zero,
		}
		for _, rec := range records {
			if rec.Status == til.StatusPending {
				row.PendingHours = row.PendingHours.Add(rec.Hours)
				row.PendingCount++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func dayKey(id attendance.EmployeeID, date attendance.Date) string {
	return "att/" + string(id) + "|" + date.String()
}
