/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements both persistence interfaces (attendance.Store, til.Store)
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  TIL records are append-only:
  - The only UPDATE on til_records touches status fields
  - No DELETE statements on til_records
  - Amount corrections happen via ADJUSTED records

KEY TABLES:
  taps:             Immutable audit trail of badge taps
  daily_summaries:  Per-employee per-date attendance rollup
  til_records:      Append-only TIL ledger (UNIQUE idempotency_key)
  til_balances:     Cached balance calculations
  employees, shifts, shift_assignments: Directory and scheduling data

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - attendance/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/til"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		department TEXT,
		default_shift_id TEXT,
		manager_id TEXT,
		active BOOLEAN DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	-- Shift templates
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		scheduled_hours TEXT NOT NULL,
		break_hours TEXT NOT NULL,
		early_grace_minutes INTEGER DEFAULT 0,
		late_grace_minutes INTEGER DEFAULT 0
	);

	-- Per-day shift assignments with approval flags
	CREATE TABLE IF NOT EXISTS shift_assignments (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		shift_id TEXT NOT NULL,
		custom_start TEXT,
		custom_end TEXT,
		pre_approved_early_start BOOLEAN DEFAULT FALSE,
		approved_early_minutes INTEGER DEFAULT 0,
		pre_approved_overtime BOOLEAN DEFAULT FALSE,
		approved_overtime_hours TEXT DEFAULT '0',
		approved_by TEXT,
		PRIMARY KEY (employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_date
		ON shift_assignments(date);

	-- Taps (immutable audit trail)
	CREATE TABLE IF NOT EXISTS taps (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_taps_employee_date
		ON taps(employee_id, date);

	-- Daily summaries
	CREATE TABLE IF NOT EXISTS daily_summaries (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		first_clock_in TEXT,
		last_clock_out TEXT,
		raw_hours TEXT NOT NULL DEFAULT '0',
		break_deduction TEXT NOT NULL DEFAULT '0',
		final_hours TEXT NOT NULL DEFAULT '0',
		current_status TEXT NOT NULL,
		tap_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (employee_id, date)
	);

	-- Open-session sweep scans by date and status (hot path)
	CREATE INDEX IF NOT EXISTS idx_summaries_date_status
		ON daily_summaries(date, current_status);

	-- TIL records (append-only ledger)
	CREATE TABLE IF NOT EXISTS til_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		hours TEXT NOT NULL,
		date TEXT NOT NULL,
		reason TEXT,
		summary_ref TEXT,
		idempotency_key TEXT UNIQUE,
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_til_records_employee
		ON til_records(employee_id);
	CREATE INDEX IF NOT EXISTS idx_til_records_status
		ON til_records(status);
	CREATE INDEX IF NOT EXISTS idx_til_records_idempotency
		ON til_records(idempotency_key) WHERE idempotency_key IS NOT NULL;

	-- TIL balances (cached calculations)
	CREATE TABLE IF NOT EXISTS til_balances (
		employee_id TEXT PRIMARY KEY,
		total_earned TEXT NOT NULL,
		total_used TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		last_calculated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, email, department, default_shift_id, manager_id, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			department = excluded.department,
			default_shift_id = excluded.default_shift_id,
			manager_id = excluded.manager_id,
			active = excluded.active
	`

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, emp.Email, emp.Department,
		string(emp.DefaultShiftID), emp.ManagerID, emp.Active,
		createdAt.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id attendance.EmployeeID) (attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp attendance.Employee
	var empID, shiftID, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, department, default_shift_id, manager_id, active, created_at FROM employees WHERE id = ?",
		string(id),
	).Scan(&empID, &emp.Name, &emp.Email, &emp.Department, &shiftID, &emp.ManagerID, &emp.Active, &createdAt)

	if err == sql.ErrNoRows {
		return attendance.Employee{}, fmt.Errorf("employee %s: %w", id, attendance.ErrEmployeeNotFound)
	}
	if err != nil {
		return attendance.Employee{}, err
	}

	emp.ID = attendance.EmployeeID(empID)
	emp.DefaultShiftID = attendance.ShiftID(shiftID)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, department, default_shift_id, manager_id, active, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []attendance.Employee
	for rows.Next() {
		var emp attendance.Employee
		var empID, shiftID, createdAt string
		if err := rows.Scan(&empID, &emp.Name, &emp.Email, &emp.Department, &shiftID, &emp.ManagerID, &emp.Active, &createdAt); err != nil {
			return nil, err
		}
		emp.ID = attendance.EmployeeID(empID)
		emp.DefaultShiftID = attendance.ShiftID(shiftID)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) SaveShift(ctx context.Context, shift attendance.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts (id, name, start_time, end_time, scheduled_hours, break_hours, early_grace_minutes, late_grace_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			scheduled_hours = excluded.scheduled_hours,
			break_hours = excluded.break_hours,
			early_grace_minutes = excluded.early_grace_minutes,
			late_grace_minutes = excluded.late_grace_minutes
	`

	_, err := s.db.ExecContext(ctx, query,
		string(shift.ID), shift.Name,
		shift.Start.String(), shift.End.String(),
		shift.ScheduledHours.String(), shift.BreakHours.String(),
		shift.EarlyGraceMinutes, shift.LateGraceMinutes,
	)
	return err
}

func (s *Store) GetShift(ctx context.Context, id attendance.ShiftID) (attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shiftID, start, end, scheduled, breakH string
	var shift attendance.Shift

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, start_time, end_time, scheduled_hours, break_hours, early_grace_minutes, late_grace_minutes FROM shifts WHERE id = ?",
		string(id),
	).Scan(&shiftID, &shift.Name, &start, &end, &scheduled, &breakH, &shift.EarlyGraceMinutes, &shift.LateGraceMinutes)

	if err == sql.ErrNoRows {
		return attendance.Shift{}, fmt.Errorf("shift %s: %w", id, attendance.ErrShiftNotFound)
	}
	if err != nil {
		return attendance.Shift{}, err
	}

	shift.ID = attendance.ShiftID(shiftID)
	shift.Start, _ = attendance.ParseTimeOfDay(start)
	shift.End, _ = attendance.ParseTimeOfDay(end)
	shift.ScheduledHours = mustDecimal(scheduled)
	shift.BreakHours = mustDecimal(breakH)
	return shift, nil
}

func (s *Store) ListShifts(ctx context.Context) ([]attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, start_time, end_time, scheduled_hours, break_hours, early_grace_minutes, late_grace_minutes FROM shifts ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []attendance.Shift
	for rows.Next() {
		var shiftID, start, end, scheduled, breakH string
		var shift attendance.Shift
		if err := rows.Scan(&shiftID, &shift.Name, &start, &end, &scheduled, &breakH, &shift.EarlyGraceMinutes, &shift.LateGraceMinutes); err != nil {
			return nil, err
		}
		shift.ID = attendance.ShiftID(shiftID)
		shift.Start, _ = attendance.ParseTimeOfDay(start)
		shift.End, _ = attendance.ParseTimeOfDay(end)
		shift.ScheduledHours = mustDecimal(scheduled)
		shift.BreakHours = mustDecimal(breakH)
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

// =============================================================================
// SHIFT ASSIGNMENTS
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a attendance.ShiftAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shift_assignments
		(employee_id, date, shift_id, custom_start, custom_end,
		 pre_approved_early_start, approved_early_minutes,
		 pre_approved_overtime, approved_overtime_hours, approved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			shift_id = excluded.shift_id,
			custom_start = excluded.custom_start,
			custom_end = excluded.custom_end,
			pre_approved_early_start = excluded.pre_approved_early_start,
			approved_early_minutes = excluded.approved_early_minutes,
			pre_approved_overtime = excluded.pre_approved_overtime,
			approved_overtime_hours = excluded.approved_overtime_hours,
			approved_by = excluded.approved_by
	`

	_, err := s.db.ExecContext(ctx, query,
		string(a.EmployeeID), a.Date.String(), string(a.ShiftID),
		nullTimeOfDay(a.CustomStart), nullTimeOfDay(a.CustomEnd),
		a.PreApprovedEarlyStart, a.ApprovedEarlyMinutes,
		a.PreApprovedOvertime, a.ApprovedOvertimeHours.String(),
		a.ApprovedBy,
	)
	return err
}

func (s *Store) GetAssignment(ctx context.Context, id attendance.EmployeeID, date attendance.Date) (*attendance.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a attendance.ShiftAssignment
	var empID, dateStr, shiftID, overtimeHours string
	var customStart, customEnd sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT employee_id, date, shift_id, custom_start, custom_end,
		        pre_approved_early_start, approved_early_minutes,
		        pre_approved_overtime, approved_overtime_hours, approved_by
		 FROM shift_assignments WHERE employee_id = ? AND date = ?`,
		string(id), date.String(),
	).Scan(&empID, &dateStr, &shiftID, &customStart, &customEnd,
		&a.PreApprovedEarlyStart, &a.ApprovedEarlyMinutes,
		&a.PreApprovedOvertime, &overtimeHours, &a.ApprovedBy)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.EmployeeID = attendance.EmployeeID(empID)
	a.Date, _ = attendance.ParseDate(dateStr)
	a.ShiftID = attendance.ShiftID(shiftID)
	a.ApprovedOvertimeHours = mustDecimal(overtimeHours)
	if customStart.Valid {
		tod, _ := attendance.ParseTimeOfDay(customStart.String)
		a.CustomStart = &tod
	}
	if customEnd.Valid {
		tod, _ := attendance.ParseTimeOfDay(customEnd.String)
		a.CustomEnd = &tod
	}
	return &a, nil
}

// =============================================================================
// TAPS
// =============================================================================

func (s *Store) AppendTap(ctx context.Context, tap attendance.Tap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO taps (id, employee_id, date, timestamp, action, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		tap.ID, string(tap.EmployeeID),
		attendance.DateOf(tap.Timestamp).String(),
		tap.Timestamp.Format(time.RFC3339),
		string(tap.Action), tap.Note,
		tap.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append tap: %w", err)
	}
	return nil
}

func (s *Store) TapsForDay(ctx context.Context, id attendance.EmployeeID, date attendance.Date) ([]attendance.Tap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, timestamp, action, note, created_at
		 FROM taps WHERE employee_id = ? AND date = ?
		 ORDER BY timestamp ASC, created_at ASC`,
		string(id), date.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taps []attendance.Tap
	for rows.Next() {
		var tap attendance.Tap
		var empID, ts, action, createdAt string
		if err := rows.Scan(&tap.ID, &empID, &ts, &action, &tap.Note, &createdAt); err != nil {
			return nil, err
		}
		tap.EmployeeID = attendance.EmployeeID(empID)
		tap.Action = attendance.ClockAction(action)
		tap.Timestamp, _ = time.Parse(time.RFC3339, ts)
		tap.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		taps = append(taps, tap)
	}
	return taps, rows.Err()
}

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

func (s *Store) GetSummary(ctx context.Context, id attendance.EmployeeID, date attendance.Date) (*attendance.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT employee_id, date, first_clock_in, last_clock_out,
		        raw_hours, break_deduction, final_hours, current_status, tap_count
		 FROM daily_summaries WHERE employee_id = ? AND date = ?`,
		string(id), date.String(),
	)

	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Store) SaveSummary(ctx context.Context, sum attendance.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO daily_summaries
		(employee_id, date, first_clock_in, last_clock_out,
		 raw_hours, break_deduction, final_hours, current_status, tap_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			first_clock_in = excluded.first_clock_in,
			last_clock_out = excluded.last_clock_out,
			raw_hours = excluded.raw_hours,
			break_deduction = excluded.break_deduction,
			final_hours = excluded.final_hours,
			current_status = excluded.current_status,
			tap_count = excluded.tap_count
	`

	_, err := s.db.ExecContext(ctx, query,
		string(sum.EmployeeID), sum.Date.String(),
		nullTime(sum.FirstClockIn), nullTime(sum.LastClockOut),
		sum.RawHours.String(), sum.BreakDeduction.String(), sum.FinalHours.String(),
		string(sum.CurrentStatus), sum.TapCount,
	)
	return err
}

func (s *Store) SummariesForDate(ctx context.Context, date attendance.Date) ([]attendance.DailySummary, error) {
	return s.querySummaries(ctx,
		`SELECT employee_id, date, first_clock_in, last_clock_out,
		        raw_hours, break_deduction, final_hours, current_status, tap_count
		 FROM daily_summaries WHERE date = ?`,
		date.String())
}

func (s *Store) OpenSummaries(ctx context.Context, date attendance.Date) ([]attendance.DailySummary, error) {
	return s.querySummaries(ctx,
		`SELECT employee_id, date, first_clock_in, last_clock_out,
		        raw_hours, break_deduction, final_hours, current_status, tap_count
		 FROM daily_summaries WHERE date = ? AND current_status = ?`,
		date.String(), string(attendance.ActionIn))
}

func (s *Store) querySummaries(ctx context.Context, query string, args ...any) ([]attendance.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []attendance.DailySummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (attendance.DailySummary, error) {
	var sum attendance.DailySummary
	var empID, dateStr, raw, deduction, final, status string
	var firstIn, lastOut sql.NullString

	err := row.Scan(&empID, &dateStr, &firstIn, &lastOut, &raw, &deduction, &final, &status, &sum.TapCount)
	if err != nil {
		return sum, err
	}

	sum.EmployeeID = attendance.EmployeeID(empID)
	sum.Date, _ = attendance.ParseDate(dateStr)
	sum.RawHours = mustDecimal(raw)
	sum.BreakDeduction = mustDecimal(deduction)
	sum.FinalHours = mustDecimal(final)
	sum.CurrentStatus = attendance.ClockAction(status)
	if firstIn.Valid {
		t, _ := time.Parse(time.RFC3339, firstIn.String)
		sum.FirstClockIn = &t
	}
	if lastOut.Valid {
		t, _ := time.Parse(time.RFC3339, lastOut.String)
		sum.LastClockOut = &t
	}
	return sum, nil
}

// =============================================================================
// TIL RECORDS (til.Store interface)
// =============================================================================

func (s *Store) AppendRecord(ctx context.Context, rec til.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO til_records
		(id, employee_id, type, status, hours, date, reason, summary_ref,
		 idempotency_key, approved_by, approved_at, rejection_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(rec.ID), string(rec.EmployeeID),
		string(rec.Type), string(rec.Status),
		rec.Hours.String(), rec.Date.String(),
		rec.Reason, rec.SummaryRef,
		nullString(rec.IdempotencyKey),
		rec.ApprovedBy, nullTime(rec.ApprovedAt), rec.RejectionReason,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("idempotency key %s: %w", rec.IdempotencyKey, attendance.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to append til record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, id til.RecordID) (til.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, employee_id, type, status, hours, date, reason, summary_ref,
		        idempotency_key, approved_by, approved_at, rejection_reason, created_at
		 FROM til_records WHERE id = ?`,
		string(id),
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return til.Record{}, fmt.Errorf("til record %s: %w", id, attendance.ErrRecordNotFound)
	}
	return rec, err
}

// UpdateRecordStatus persists a status transition. Only the status fields
// change; hours and type are never rewritten.
func (s *Store) UpdateRecordStatus(ctx context.Context, rec til.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE til_records SET
			status = ?,
			approved_by = ?,
			approved_at = ?,
			rejection_reason = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		string(rec.Status), rec.ApprovedBy, nullTime(rec.ApprovedAt),
		rec.RejectionReason, string(rec.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("til record %s: %w", rec.ID, attendance.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) RecordsForEmployee(ctx context.Context, id attendance.EmployeeID) ([]til.Record, error) {
	return s.queryRecords(ctx,
		`SELECT id, employee_id, type, status, hours, date, reason, summary_ref,
		        idempotency_key, approved_by, approved_at, rejection_reason, created_at
		 FROM til_records WHERE employee_id = ?
		 ORDER BY created_at ASC`,
		string(id))
}

func (s *Store) PendingRecords(ctx context.Context) ([]til.Record, error) {
	return s.queryRecords(ctx,
		`SELECT id, employee_id, type, status, hours, date, reason, summary_ref,
		        idempotency_key, approved_by, approved_at, rejection_reason, created_at
		 FROM til_records WHERE status = ?
		 ORDER BY created_at ASC`,
		string(til.StatusPending))
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]til.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []til.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row rowScanner) (til.Record, error) {
	var rec til.Record
	var recID, empID, typ, status, hours, dateStr, createdAt string
	var idemKey, approvedAt sql.NullString

	err := row.Scan(&recID, &empID, &typ, &status, &hours, &dateStr,
		&rec.Reason, &rec.SummaryRef, &idemKey,
		&rec.ApprovedBy, &approvedAt, &rec.RejectionReason, &createdAt)
	if err != nil {
		return rec, err
	}

	rec.ID = til.RecordID(recID)
	rec.EmployeeID = attendance.EmployeeID(empID)
	rec.Type = til.RecordType(typ)
	rec.Status = til.Status(status)
	rec.Hours = mustDecimal(hours)
	rec.Date, _ = attendance.ParseDate(dateStr)
	rec.IdempotencyKey = idemKey.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		rec.ApprovedAt = &t
	}
	return rec, nil
}

// =============================================================================
// TIL BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, id attendance.EmployeeID) (*til.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bal til.Balance
	var empID, earned, used, current, calcAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT employee_id, total_earned, total_used, current_balance, last_calculated_at FROM til_balances WHERE employee_id = ?",
		string(id),
	).Scan(&empID, &earned, &used, &current, &calcAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bal.EmployeeID = attendance.EmployeeID(empID)
	bal.TotalEarned = mustDecimal(earned)
	bal.TotalUsed = mustDecimal(used)
	bal.CurrentBalance = mustDecimal(current)
	bal.LastCalculatedAt, _ = time.Parse(time.RFC3339, calcAt)
	return &bal, nil
}

func (s *Store) SaveBalance(ctx context.Context, bal til.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO til_balances (employee_id, total_earned, total_used, current_balance, last_calculated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			total_earned = excluded.total_earned,
			total_used = excluded.total_used,
			current_balance = excluded.current_balance,
			last_calculated_at = excluded.last_calculated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		string(bal.EmployeeID),
		bal.TotalEarned.String(), bal.TotalUsed.String(), bal.CurrentBalance.String(),
		bal.LastCalculatedAt.Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"til_balances", "til_records", "daily_summaries", "taps", "shift_assignments", "shifts", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func nullTimeOfDay(tod *attendance.TimeOfDay) sql.NullString {
	if tod == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: tod.String(), Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
