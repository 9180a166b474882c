/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance and TIL engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List all employees
    POST   /api/employees                 Create employee
    GET    /api/employees/{id}            Get employee details
    POST   /api/employees/{id}/clock      Badge tap (toggle IN/OUT)
    POST   /api/employees/{id}/manual-clockout  Admin correction clock-out
    GET    /api/employees/{id}/status     Daily summary for a date
    GET    /api/employees/{id}/taps       Tap audit trail for a date
    GET    /api/employees/{id}/til        TIL balance
    GET    /api/employees/{id}/til/records TIL history
    POST   /api/employees/{id}/til/usage  Spend TIL against leave

  Shifts:
    GET    /api/shifts                    List shift templates
    POST   /api/shifts                    Create shift template
    POST   /api/shifts/assignments        Assign shift for a date

  TIL approval:
    GET    /api/til/pending               Records awaiting review
    POST   /api/til/{id}/approve          Approve a pending record
    POST   /api/til/{id}/reject           Reject a pending record

  Reports:
    GET    /api/reports/early-birds       Unapproved early arrivals
    GET    /api/reports/til               Per-employee TIL breakdown

  Admin:
    POST   /api/admin/sweep               Run auto clock-out sweep now

OFFICE HOURS:
  Clock taps outside configured office hours are rejected here with 400.
  This is an API-boundary rule; the engine itself trusts timestamps so
  the sweeper can close sessions at any hour.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (invalid state transition, lock contention)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ../engine/service.go: Domain operations
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/til"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Service
	Store  attendance.Store
}

// NewHandler creates a new handler around the engine.
func NewHandler(eng *engine.Service, store attendance.Store) *Handler {
	return &Handler{Engine: eng, Store: store}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := attendance.Employee{
		ID:             attendance.EmployeeID(req.ID),
		Name:           req.Name,
		Email:          req.Email,
		Department:     req.Department,
		DefaultShiftID: attendance.ShiftID(req.DefaultShiftID),
		ManagerID:      attendance.EmployeeID(req.ManagerID),
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockTap records a badge tap for the employee.
// POST /api/employees/{id}/clock
func (h *Handler) ClockTap(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	var req ClockTapRequest
	if r.Body != nil {
		// An empty body means "tap now".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp format (use RFC3339)", err)
			return
		}
		ts = parsed
	}

	if !h.Engine.Settings().WithinOfficeHours(ts) {
		writeError(w, http.StatusBadRequest, "Clock tap outside office hours", nil)
		return
	}

	result, err := h.Engine.ClockTap(r.Context(), id, ts, req.Note)
	if err != nil {
		writeDomainError(w, "Failed to process clock tap", err)
		return
	}

	resp := ClockTapResponse{
		Action:  string(result.Action),
		Summary: toSummaryDTO(result.Summary),
		Anomaly: result.Anomaly,
		Message: result.Message,
	}
	if !result.TILEarned.IsZero() {
		earned := result.TILEarned
		resp.TILEarned = &earned
		resp.TILStatus = string(result.TILStatus)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ManualClockOut closes an open session with an admin correction tap.
// POST /api/employees/{id}/manual-clockout
func (h *Handler) ManualClockOut(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	var req ManualClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Note == "" {
		writeError(w, http.StatusBadRequest, "note is required", nil)
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp format (use RFC3339)", err)
			return
		}
		ts = parsed
	}

	result, err := h.Engine.ManualClockOut(r.Context(), id, ts, req.Note)
	if err != nil {
		writeDomainError(w, "Failed to clock out", err)
		return
	}

	resp := ClockTapResponse{
		Action:  string(result.Action),
		Summary: toSummaryDTO(result.Summary),
		Anomaly: result.Anomaly,
		Message: result.Message,
	}
	if !result.TILEarned.IsZero() {
		earned := result.TILEarned
		resp.TILEarned = &earned
		resp.TILStatus = string(result.TILStatus)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetStatus returns the daily summary for a date (default today).
// GET /api/employees/{id}/status?date=YYYY-MM-DD
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	sum, err := h.Engine.GetCurrentStatus(r.Context(), id, date)
	if err != nil {
		writeDomainError(w, "Failed to get status", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

// GetTaps returns the tap audit trail for a date.
// GET /api/employees/{id}/taps?date=YYYY-MM-DD
func (h *Handler) GetTaps(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	taps, err := h.Store.TapsForDay(r.Context(), id, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get taps", err)
		return
	}

	dtos := make([]TapDTO, len(taps))
	for i, t := range taps {
		dtos[i] = TapDTO{
			ID:        t.ID,
			Timestamp: t.Timestamp.Format(time.RFC3339),
			Action:    string(t.Action),
			Note:      t.Note,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns all shift templates.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShifts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift creates a shift template.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var dto ShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := attendance.ParseTimeOfDay(dto.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start time (use HH:MM)", err)
		return
	}
	end, err := attendance.ParseTimeOfDay(dto.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end time (use HH:MM)", err)
		return
	}

	shift := attendance.Shift{
		ID:                attendance.ShiftID(dto.ID),
		Name:              dto.Name,
		Start:             start,
		End:               end,
		ScheduledHours:    dto.ScheduledHours,
		BreakHours:        dto.BreakHours,
		EarlyGraceMinutes: dto.EarlyGraceMinutes,
		LateGraceMinutes:  dto.LateGraceMinutes,
	}
	if err := shift.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// CreateAssignment assigns a shift to an employee for a date.
// POST /api/shifts/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if _, err := h.Store.GetShift(r.Context(), attendance.ShiftID(req.ShiftID)); err != nil {
		writeDomainError(w, "Unknown shift", err)
		return
	}

	a := attendance.ShiftAssignment{
		EmployeeID:            attendance.EmployeeID(req.EmployeeID),
		Date:                  date,
		ShiftID:               attendance.ShiftID(req.ShiftID),
		PreApprovedEarlyStart: req.PreApprovedEarlyStart,
		ApprovedEarlyMinutes:  req.ApprovedEarlyMinutes,
		PreApprovedOvertime:   req.PreApprovedOvertime,
		ApprovedOvertimeHours: decimal.NewFromFloat(req.ApprovedOvertimeHours),
		ApprovedBy:            req.ApprovedBy,
	}
	if req.CustomStart != nil {
		tod, err := attendance.ParseTimeOfDay(*req.CustomStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid custom_start (use HH:MM)", err)
			return
		}
		a.CustomStart = &tod
	}
	if req.CustomEnd != nil {
		tod, err := attendance.ParseTimeOfDay(*req.CustomEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid custom_end (use HH:MM)", err)
			return
		}
		a.CustomEnd = &tod
	}

	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// TIL HANDLERS
// =============================================================================

// GetTILBalance returns the employee's TIL balance.
// GET /api/employees/{id}/til
func (h *Handler) GetTILBalance(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	bal, err := h.Engine.GetTILBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get TIL balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(bal))
}

// GetTILRecords returns the employee's TIL history.
// GET /api/employees/{id}/til/records
func (h *Handler) GetTILRecords(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	records, err := h.Engine.TILRecordsFor(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get TIL records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// ApplyLeaveUsage spends TIL against a leave day.
// POST /api/employees/{id}/til/usage
func (h *Handler) ApplyLeaveUsage(w http.ResponseWriter, r *http.Request) {
	id := attendance.EmployeeID(chi.URLParam(r, "id"))

	var req LeaveUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Engine.ApplyLeaveUsage(r.Context(), id, decimal.NewFromFloat(req.Hours), date, req.Reason, req.ApprovedBy)
	if err != nil {
		writeDomainError(w, "Failed to apply leave usage", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

// ListPendingTIL returns records awaiting review.
// GET /api/til/pending
func (h *Handler) ListPendingTIL(w http.ResponseWriter, r *http.Request) {
	records, err := h.Engine.PendingTIL(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// ApproveTIL approves a pending record.
// POST /api/til/{id}/approve
func (h *Handler) ApproveTIL(w http.ResponseWriter, r *http.Request) {
	recID := til.RecordID(chi.URLParam(r, "id"))

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	rec, err := h.Engine.ApproveTIL(r.Context(), recID, req.ApproverID)
	if err != nil {
		writeDomainError(w, "Failed to approve record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// RejectTIL rejects a pending record.
// POST /api/til/{id}/reject
func (h *Handler) RejectTIL(w http.ResponseWriter, r *http.Request) {
	recID := til.RecordID(chi.URLParam(r, "id"))

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	rec, err := h.Engine.RejectTIL(r.Context(), recID, req.ApproverID, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// =============================================================================
// REPORT AND ADMIN HANDLERS
// =============================================================================

// GetEarlyBirds returns unapproved early arrivals for manager review.
// GET /api/reports/early-birds?date=YYYY-MM-DD&department=Engineering
func (h *Handler) GetEarlyBirds(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	birds, err := h.Engine.GetEarlyBirds(r.Context(), date, r.URL.Query().Get("department"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	dtos := make([]EarlyBirdDTO, len(birds))
	for i, b := range birds {
		dtos[i] = EarlyBirdDTO{
			EmployeeID:     string(b.Employee.ID),
			EmployeeName:   b.Employee.Name,
			Department:     b.Employee.Department,
			ShiftName:      b.ShiftName,
			ClockIn:        b.ClockIn.Format(time.RFC3339),
			ScheduledStart: b.ScheduledStart.String(),
			MinutesEarly:   b.MinutesEarly,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTILReport returns the per-employee TIL breakdown.
// GET /api/reports/til?department=Engineering
func (h *Handler) GetTILReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.GetTILReport(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	dtos := make([]TILReportRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = TILReportRowDTO{
			EmployeeID:   string(row.Employee.ID),
			EmployeeName: row.Employee.Name,
			Department:   row.Employee.Department,
			TotalEarned:  row.TotalEarned,
			TotalUsed:    row.TotalUsed,
			Balance:      row.Balance,
			PendingHours: row.PendingHours,
			PendingCount: row.PendingCount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunSweep triggers the auto clock-out sweep immediately.
// POST /api/admin/sweep
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	closed, err := h.Engine.RunAutoClockOutSweep(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{
		Closed: closed,
		RanAt:  now.Format(time.RFC3339),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam reads ?date=YYYY-MM-DD, defaulting to today in the org timezone.
func (h *Handler) dateParam(r *http.Request) (attendance.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return attendance.DateOf(time.Now().In(h.Engine.Settings().Location)), nil
	}
	return attendance.ParseDate(raw)
}

func toEmployeeDTO(e attendance.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             string(e.ID),
		Name:           e.Name,
		Email:          e.Email,
		Department:     e.Department,
		DefaultShiftID: string(e.DefaultShiftID),
		ManagerID:      string(e.ManagerID),
		Active:         e.Active,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toShiftDTO(s attendance.Shift) ShiftDTO {
	return ShiftDTO{
		ID:                string(s.ID),
		Name:              s.Name,
		Start:             s.Start.String(),
		End:               s.End.String(),
		ScheduledHours:    s.ScheduledHours,
		BreakHours:        s.BreakHours,
		EarlyGraceMinutes: s.EarlyGraceMinutes,
		LateGraceMinutes:  s.LateGraceMinutes,
	}
}

func toSummaryDTO(sum attendance.DailySummary) SummaryDTO {
	return SummaryDTO{
		EmployeeID:     string(sum.EmployeeID),
		Date:           sum.Date.String(),
		FirstClockIn:   timePtr(sum.FirstClockIn),
		LastClockOut:   timePtr(sum.LastClockOut),
		RawHours:       sum.RawHours,
		BreakDeduction: sum.BreakDeduction,
		FinalHours:     sum.FinalHours,
		CurrentStatus:  string(sum.CurrentStatus),
		TapCount:       sum.TapCount,
	}
}

func toRecordDTO(rec til.Record) TILRecordDTO {
	return TILRecordDTO{
		ID:              string(rec.ID),
		EmployeeID:      string(rec.EmployeeID),
		Type:            string(rec.Type),
		Status:          string(rec.Status),
		Hours:           rec.Hours,
		Date:            rec.Date.String(),
		Reason:          rec.Reason,
		ApprovedBy:      rec.ApprovedBy,
		ApprovedAt:      timePtr(rec.ApprovedAt),
		RejectionReason: rec.RejectionReason,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
}

func toRecordDTOs(records []til.Record) []TILRecordDTO {
	dtos := make([]TILRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	return dtos
}

func toBalanceDTO(bal til.Balance) TILBalanceDTO {
	return TILBalanceDTO{
		EmployeeID:       string(bal.EmployeeID),
		TotalEarned:      bal.TotalEarned,
		TotalUsed:        bal.TotalUsed,
		CurrentBalance:   bal.CurrentBalance,
		LastCalculatedAt: bal.LastCalculatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case attendance.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	case attendance.IsClientError(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
