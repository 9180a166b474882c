/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FORMATS:
  Dates are "YYYY-MM-DD", times of day "HH:MM", timestamps RFC3339.
  Hours are JSON numbers produced from exact decimal values.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Router setup and middleware
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Department     string `json:"department"`
	DefaultShiftID string `json:"default_shift_id,omitempty"`
	ManagerID      string `json:"manager_id,omitempty"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Department     string `json:"department"`
	DefaultShiftID string `json:"default_shift_id"`
	ManagerID      string `json:"manager_id"`
}

// ShiftDTO represents a shift template.
type ShiftDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Start             string          `json:"start"`
	End               string          `json:"end"`
	ScheduledHours    decimal.Decimal `json:"scheduled_hours"`
	BreakHours        decimal.Decimal `json:"break_hours"`
	EarlyGraceMinutes int             `json:"early_grace_minutes"`
	LateGraceMinutes  int             `json:"late_grace_minutes"`
}

// CreateAssignmentRequest assigns a shift to an employee for a date,
// optionally with pre-approved deviations.
type CreateAssignmentRequest struct {
	EmployeeID            string  `json:"employee_id"`
	Date                  string  `json:"date"`
	ShiftID               string  `json:"shift_id"`
	CustomStart           *string `json:"custom_start,omitempty"`
	CustomEnd             *string `json:"custom_end,omitempty"`
	PreApprovedEarlyStart bool    `json:"pre_approved_early_start"`
	ApprovedEarlyMinutes  int     `json:"approved_early_minutes"`
	PreApprovedOvertime   bool    `json:"pre_approved_overtime"`
	ApprovedOvertimeHours float64 `json:"approved_overtime_hours"`
	ApprovedBy            string  `json:"approved_by"`
}

// ClockTapRequest is a badge tap. Timestamp is optional; when omitted
// the server clock is used.
type ClockTapRequest struct {
	Timestamp string `json:"timestamp,omitempty"`
	Note      string `json:"note,omitempty"`
}

// ClockTapResponse reports what the tap did.
type ClockTapResponse struct {
	Action    string           `json:"action"`
	Summary   SummaryDTO       `json:"summary"`
	TILEarned *decimal.Decimal `json:"til_earned,omitempty"`
	TILStatus string           `json:"til_status,omitempty"`
	Anomaly   string           `json:"anomaly,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// SummaryDTO is the daily attendance rollup for one employee.
type SummaryDTO struct {
	EmployeeID     string          `json:"employee_id"`
	Date           string          `json:"date"`
	FirstClockIn   *string         `json:"first_clock_in,omitempty"`
	LastClockOut   *string         `json:"last_clock_out,omitempty"`
	RawHours       decimal.Decimal `json:"raw_hours"`
	BreakDeduction decimal.Decimal `json:"break_deduction"`
	FinalHours     decimal.Decimal `json:"final_hours"`
	CurrentStatus  string          `json:"current_status"`
	TapCount       int             `json:"tap_count"`
}

// TapDTO is one audit-trail entry.
type TapDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Note      string `json:"note,omitempty"`
}

// TILRecordDTO represents one TIL ledger entry.
type TILRecordDTO struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Hours           decimal.Decimal `json:"hours"`
	Date            string          `json:"date"`
	Reason          string          `json:"reason,omitempty"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// TILBalanceDTO is the cached TIL balance for one employee.
type TILBalanceDTO struct {
	EmployeeID       string          `json:"employee_id"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	TotalUsed        decimal.Decimal `json:"total_used"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	LastCalculatedAt string          `json:"last_calculated_at"`
}

// ApproveRequest identifies the approver for an approve/reject action.
type ApproveRequest struct {
	ApproverID string `json:"approver_id"`
	Reason     string `json:"reason,omitempty"`
}

// LeaveUsageRequest spends TIL hours against a leave day.
type LeaveUsageRequest struct {
	Hours      float64 `json:"hours"`
	Date       string  `json:"date"`
	Reason     string  `json:"reason"`
	ApprovedBy string  `json:"approved_by"`
}

// EarlyBirdDTO is one row of the unapproved early arrivals report.
type EarlyBirdDTO struct {
	EmployeeID     string `json:"employee_id"`
	EmployeeName   string `json:"employee_name"`
	Department     string `json:"department"`
	ShiftName      string `json:"shift_name"`
	ClockIn        string `json:"clock_in"`
	ScheduledStart string `json:"scheduled_start"`
	MinutesEarly   int    `json:"minutes_early"`
}

// ManualClockOutRequest is an admin correction closing an open session.
// The note is mandatory and recorded on the synthetic OUT tap.
type ManualClockOutRequest struct {
	Timestamp string `json:"timestamp,omitempty"`
	Note      string `json:"note"`
}

// TILReportRowDTO is one employee's row in the TIL report.
type TILReportRowDTO struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Department   string          `json:"department"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	TotalUsed    decimal.Decimal `json:"total_used"`
	Balance      decimal.Decimal `json:"balance"`
	PendingHours decimal.Decimal `json:"pending_hours"`
	PendingCount int             `json:"pending_count"`
}

// SweepResponse reports an auto clock-out sweep run.
type SweepResponse struct {
	Closed int    `json:"closed"`
	RanAt  string `json:"ran_at"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
