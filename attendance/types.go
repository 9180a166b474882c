/*
Package attendance provides the core attendance tracking engine.

PURPOSE:
  This package contains the base domain types and algorithms for turning a
  stream of timestamped clock events into daily summaries: shift resolution,
  deviation detection against scheduled windows, and the per-employee-day
  concurrency primitives the mutation paths rely on.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date/TimeOfDay: Civil calendar primitives in the organizational timezone
  - Tap: An immutable clock-in/clock-out event (the audit trail)
  - DailySummary: One mutable row per (employee, date) with computed hours
  - Shift/ShiftAssignment: Schedule templates and per-date overrides
  - Settings: Explicit configuration value object (no global singleton)

DESIGN PRINCIPLES:
  1. Immutability: Taps are never modified or deleted, only appended
  2. Precision: Uses decimal.Decimal for all hour arithmetic
  3. One timezone: All timestamps are interpreted in a single fixed
     organizational location, never per-request locale
  4. Derived state: Summary hours are always recomputable from the
     first-in/last-out pair

SEE ALSO:
  - shift.go: Shift resolution (assignment override vs default)
  - deviation.go: Early-arrival and overtime classification
  - store.go: Persistence interface
*/
package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ShiftID string

// =============================================================================
// DATE - Civil calendar day (no time, no zone)
// =============================================================================

// Date identifies a working day. Summaries, taps and assignments are all
// keyed by the calendar day in the organizational timezone, so Date carries
// no location of its own.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location. Callers must
// convert the timestamp into the organizational timezone first.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At combines the date with a time-of-day in the given location.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, 0, 0, loc)
}

func (d Date) Next() Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return DateOf(t)
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// =============================================================================
// TIME OF DAY - Wall-clock time within a day (shift boundaries, office hours)
// =============================================================================

type TimeOfDay struct {
	Hour   int
	Minute int
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay parses "15:04" strings (the storage and config format).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// MinuteOfDay returns minutes since midnight, for ordering comparisons.
func (t TimeOfDay) MinuteOfDay() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.MinuteOfDay() < other.MinuteOfDay() }

// =============================================================================
// CLOCK EVENTS
// =============================================================================

type ClockAction string

const (
	ActionIn  ClockAction = "IN"
	ActionOut ClockAction = "OUT"
)

// Tap is a single clock event. Taps are append-only: corrections are new
// taps with an explanatory note, never edits.
type Tap struct {
	ID         string
	EmployeeID EmployeeID
	Timestamp  time.Time
	Action     ClockAction
	Note       string
	CreatedAt  time.Time
}

// DailySummary is the running state for one employee on one day, mutated on
// every tap. FinalHours always equals RawHours minus BreakDeduction; both
// are recomputed from the first-in/last-out pair on each clock-out, so
// repeated saves never drift.
type DailySummary struct {
	EmployeeID     EmployeeID
	Date           Date
	FirstClockIn   *time.Time
	LastClockOut   *time.Time
	RawHours       decimal.Decimal
	BreakDeduction decimal.Decimal
	FinalHours     decimal.Decimal
	CurrentStatus  ClockAction
	TapCount       int
}

// NewDailySummary returns the lazy default created on an employee's first
// tap of the day: clocked out, zero taps, zero hours.
func NewDailySummary(employeeID EmployeeID, date Date) DailySummary {
	return DailySummary{
		EmployeeID:     employeeID,
		Date:           date,
		RawHours:       decimal.Zero,
		BreakDeduction: decimal.Zero,
		FinalHours:     decimal.Zero,
		CurrentStatus:  ActionOut,
	}
}

// NextAction determines what the next tap means. Tap parity is the single
// source of truth: even count means the next tap clocks IN, odd means OUT.
func (s *DailySummary) NextAction() ClockAction {
	if s.TapCount%2 == 0 {
		return ActionIn
	}
	return ActionOut
}

// =============================================================================
// SHIFTS
// =============================================================================

// Shift is a schedule template. End may be numerically earlier than Start,
// which means the shift crosses midnight and ends the next day.
type Shift struct {
	ID                ShiftID
	Name              string
	Start             TimeOfDay
	End               TimeOfDay
	ScheduledHours    decimal.Decimal
	BreakHours        decimal.Decimal
	EarlyGraceMinutes int
	LateGraceMinutes  int
}

func (s Shift) CrossesMidnight() bool { return s.End.Before(s.Start) }

func (s Shift) Validate() error {
	if s.EarlyGraceMinutes < 0 || s.LateGraceMinutes < 0 {
		return fmt.Errorf("shift %s: grace minutes must not be negative", s.ID)
	}
	if !s.ScheduledHours.IsPositive() {
		return fmt.Errorf("shift %s: scheduled duration must be positive", s.ID)
	}
	return nil
}

// ShiftAssignment overrides an employee's shift for a single date. At most
// one exists per (employee, date). The two pre-approval flags are
// independent: a manager can sanction an early start, overtime, both, or
// neither.
type ShiftAssignment struct {
	EmployeeID EmployeeID
	Date       Date
	ShiftID    ShiftID

	// Custom window, nil means "use the shift template's times".
	CustomStart *TimeOfDay
	CustomEnd   *TimeOfDay

	PreApprovedEarlyStart bool
	ApprovedEarlyMinutes  int

	PreApprovedOvertime   bool
	ApprovedOvertimeHours decimal.Decimal

	ApprovedBy string
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee identity is immutable once attendance records reference it.
// Display names are resolved from here at read time rather than being
// denormalized onto taps and summaries.
type Employee struct {
	ID             EmployeeID
	Name           string
	Email          string
	Department     string
	DefaultShiftID ShiftID    // empty means no default shift
	ManagerID      EmployeeID // approval routing, empty if none
	Active         bool
	CreatedAt      time.Time
}

// =============================================================================
// SETTINGS - Explicit configuration value object
// =============================================================================

// Settings replaces the system-wide singleton of the original design: it is
// loaded once and passed explicitly, so tests can vary configuration freely.
type Settings struct {
	// Location is the single organizational timezone every timestamp is
	// interpreted in.
	Location *time.Location

	OfficeStart TimeOfDay
	OfficeEnd   TimeOfDay

	// RequiredShiftHours includes the break.
	RequiredShiftHours decimal.Decimal

	// BreakHours is deducted from days whose raw hours exceed BreakThresholdHours.
	BreakHours          decimal.Decimal
	BreakThresholdHours decimal.Decimal

	AutoClockOutEnabled  bool
	AutoClockOutInterval time.Duration
}

func DefaultSettings() Settings {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		loc = time.UTC
	}
	return Settings{
		Location:             loc,
		OfficeStart:          TimeOfDay{Hour: 7},
		OfficeEnd:            TimeOfDay{Hour: 17},
		RequiredShiftHours:   decimal.NewFromInt(8),
		BreakHours:           decimal.RequireFromString("0.5"),
		BreakThresholdHours:  decimal.NewFromInt(5),
		AutoClockOutEnabled:  true,
		AutoClockOutInterval: 30 * time.Minute,
	}
}

// WithinOfficeHours reports whether the wall-clock time of t falls inside
// the clock-in/out window. Boundary times are allowed.
func (s Settings) WithinOfficeHours(t time.Time) bool {
	local := t.In(s.Location)
	m := local.Hour()*60 + local.Minute()
	return m >= s.OfficeStart.MinuteOfDay() && m <= s.OfficeEnd.MinuteOfDay()
}
