/*
deviation.go - Early-arrival and overtime classification

PURPOSE:
  Compares actual clock times against the resolved shift window and
  classifies deviations as within-grace, pre-approved, or unapproved.

THE ASYMMETRY (intentional business rule, do not "fix"):
  Early arrival beyond grace earns TIL only when pre-approved; otherwise it
  is flagged as an "early bird" for manager visibility and earns nothing.
  Overtime beyond grace is ALWAYS ledgered: capped and auto-approved when
  pre-approved, full detected amount as PENDING otherwise. Unsanctioned
  early starts are discouraged while overtime is always captured for review.

GRACE:
  Strict inequality. Exactly grace_minutes of deviation is within grace;
  grace_minutes + 1 is flagged.

This file only classifies. Ledger entries are created by the caller from
the returned results, keeping the detector pure and trivially testable.
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// EarlyResult describes an early-arrival check.
type EarlyResult struct {
	// MinutesEarly is how far before the scheduled start the clock-in
	// landed. Zero when on time or late.
	MinutesEarly int
	WithinGrace  bool

	PreApproved     bool
	ApprovedMinutes int
	// EarnedMinutes is min(MinutesEarly, ApprovedMinutes) when pre-approved.
	EarnedMinutes int

	// Flagged marks an unapproved early bird: beyond grace, no
	// pre-approval, no TIL.
	Flagged bool

	Message string
}

// EarnedHours converts the creditable early minutes to raw hours.
func (r EarlyResult) EarnedHours() decimal.Decimal {
	return decimal.NewFromInt(int64(r.EarnedMinutes)).Div(minutesPerHour)
}

// OvertimeResult describes an overtime check.
type OvertimeResult struct {
	// MinutesOver is how far past the scheduled end the clock-out landed.
	// Zero when on time or early.
	MinutesOver int
	WithinGrace bool

	PreApproved bool
	// EarnedHours is the raw overtime to ledger: capped at the approved
	// quantity when pre-approved, the full detected overtime otherwise.
	EarnedHours decimal.Decimal

	// Ledger is true when the overtime exceeded grace and a TIL record
	// should be created (approved or pending per PreApproved).
	Ledger bool

	Message string
}

// Detector classifies clock times against resolved shift windows. All
// instants are interpreted in the organizational timezone.
type Detector struct {
	Location *time.Location
}

func NewDetector(loc *time.Location) *Detector {
	return &Detector{Location: loc}
}

// DetectEarly classifies a first clock-in against the scheduled start.
// A nil resolved shift yields a no-op result with an explanatory message.
func (d *Detector) DetectEarly(rs *ResolvedShift, clockIn time.Time, date Date) EarlyResult {
	if rs == nil {
		return EarlyResult{Message: "no shift assigned - skipping early arrival check"}
	}

	start := rs.StartAt(date, d.Location)
	early := int(start.Sub(clockIn) / time.Minute)
	if early <= 0 {
		return EarlyResult{}
	}

	result := EarlyResult{MinutesEarly: early}
	if early <= rs.Shift.EarlyGraceMinutes {
		result.WithinGrace = true
		return result
	}

	if ok, approvedMinutes := rs.PreApprovedEarly(); ok {
		result.PreApproved = true
		result.ApprovedMinutes = approvedMinutes
		result.EarnedMinutes = early
		if approvedMinutes < early {
			result.EarnedMinutes = approvedMinutes
		}
		result.Message = "pre-approved early start"
		return result
	}

	result.Flagged = true
	result.Message = "early bird: arrived early without pre-approval"
	return result
}

// DetectOvertime classifies a clock-out against the scheduled end,
// midnight-crossing aware.
func (d *Detector) DetectOvertime(rs *ResolvedShift, clockOut time.Time, date Date) OvertimeResult {
	if rs == nil {
		return OvertimeResult{EarnedHours: decimal.Zero, Message: "no shift assigned - skipping overtime check"}
	}

	end := rs.EndAt(date, d.Location)
	over := int(clockOut.Sub(end) / time.Minute)
	if over <= 0 {
		return OvertimeResult{EarnedHours: decimal.Zero}
	}

	result := OvertimeResult{MinutesOver: over, EarnedHours: decimal.Zero}
	if over <= rs.Shift.LateGraceMinutes {
		result.WithinGrace = true
		return result
	}

	result.Ledger = true
	actual := decimal.NewFromInt(int64(over)).Div(minutesPerHour)
	if rs.Assignment != nil && rs.Assignment.PreApprovedOvertime {
		result.PreApproved = true
		result.EarnedHours = actual
		if rs.Assignment.ApprovedOvertimeHours.LessThan(actual) {
			result.EarnedHours = rs.Assignment.ApprovedOvertimeHours
		}
		result.Message = "pre-approved overtime"
		return result
	}

	result.EarnedHours = actual
	result.Message = "overtime without pre-approval, pending review"
	return result
}
