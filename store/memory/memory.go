/*
PURPOSE:
  In-memory store used by tests and local development. Implements both
  the attendance and TIL store interfaces behind a single RWMutex.

GUARANTEES:
  - Defensive copies in and out, callers never share map-backed state.
  - Idempotency keys enforced on TIL record append.
  - No persistence. Restart loses everything.

SEE ALSO:
  - ../sqlite: The durable store with the same semantics
*/
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/til"
)

// Store keeps all attendance and TIL state in maps.
type Store struct {
	mu sync.RWMutex

	employees   map[attendance.EmployeeID]attendance.Employee
	shifts      map[attendance.ShiftID]attendance.Shift
	assignments map[string]attendance.ShiftAssignment
	taps        map[string][]attendance.Tap
	summaries   map[string]attendance.DailySummary

	tilRecords map[til.RecordID]til.Record
	tilOrder   []til.RecordID
	idemKeys   map[string]til.RecordID
	balances   map[attendance.EmployeeID]til.Balance
}

func New() *Store {
	return &Store{
		employees:   make(map[attendance.EmployeeID]attendance.Employee),
		shifts:      make(map[attendance.ShiftID]attendance.Shift),
		assignments: make(map[string]attendance.ShiftAssignment),
		taps:        make(map[string][]attendance.Tap),
		summaries:   make(map[string]attendance.DailySummary),
		tilRecords:  make(map[til.RecordID]til.Record),
		idemKeys:    make(map[string]til.RecordID),
		balances:    make(map[attendance.EmployeeID]til.Balance),
	}
}

func dayKey(id attendance.EmployeeID, date attendance.Date) string {
	return string(id) + "|" + date.String()
}

// ============================================================================
// attendance.Store
// ============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id attendance.EmployeeID) (attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return attendance.Employee{}, fmt.Errorf("employee %s: %w", id, attendance.ErrEmployeeNotFound)
	}
	return emp, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]attendance.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		out = append(out, emp)
	}
	return out, nil
}

func (s *Store) SaveShift(_ context.Context, shift attendance.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[shift.ID] = shift
	return nil
}

func (s *Store) GetShift(_ context.Context, id attendance.ShiftID) (attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shift, ok := s.shifts[id]
	if !ok {
		return attendance.Shift{}, fmt.Errorf("shift %s: %w", id, attendance.ErrShiftNotFound)
	}
	return shift, nil
}

func (s *Store) ListShifts(_ context.Context) ([]attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]attendance.Shift, 0, len(s.shifts))
	for _, shift := range s.shifts {
		out = append(out, shift)
	}
	return out, nil
}

func (s *Store) SaveAssignment(_ context.Context, a attendance.ShiftAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[dayKey(a.EmployeeID, a.Date)] = a
	return nil
}

func (s *Store) GetAssignment(_ context.Context, id attendance.EmployeeID, date attendance.Date) (*attendance.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[dayKey(id, date)]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (s *Store) AppendTap(_ context.Context, tap attendance.Tap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey(tap.EmployeeID, attendance.DateOf(tap.Timestamp))
	s.taps[key] = append(s.taps[key], tap)
	return nil
}

func (s *Store) TapsForDay(_ context.Context, id attendance.EmployeeID, date attendance.Date) ([]attendance.Tap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taps := s.taps[dayKey(id, date)]
	out := make([]attendance.Tap, len(taps))
	copy(out, taps)
	return out, nil
}

func (s *Store) GetSummary(_ context.Context, id attendance.EmployeeID, date attendance.Date) (*attendance.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[dayKey(id, date)]
	if !ok {
		return nil, nil
	}
	cp := sum
	return &cp, nil
}

func (s *Store) SaveSummary(_ context.Context, sum attendance.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[dayKey(sum.EmployeeID, sum.Date)] = sum
	return nil
}

func (s *Store) SummariesForDate(_ context.Context, date attendance.Date) ([]attendance.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.DailySummary
	for _, sum := range s.summaries {
		if sum.Date == date {
			out = append(out, sum)
		}
	}
	return out, nil
}

func (s *Store) OpenSummaries(_ context.Context, date attendance.Date) ([]attendance.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.DailySummary
	for _, sum := range s.summaries {
		if sum.Date == date && sum.CurrentStatus == attendance.ActionIn {
			out = append(out, sum)
		}
	}
	return out, nil
}

// ============================================================================
// til.Store
// ============================================================================

func (s *Store) AppendRecord(_ context.Context, rec til.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.IdempotencyKey != "" {
		if _, dup := s.idemKeys[rec.IdempotencyKey]; dup {
			return fmt.Errorf("idempotency key %s: %w", rec.IdempotencyKey, attendance.ErrDuplicateIdempotencyKey)
		}
		s.idemKeys[rec.IdempotencyKey] = rec.ID
	}
	s.tilRecords[rec.ID] = rec
	s.tilOrder = append(s.tilOrder, rec.ID)
	return nil
}

func (s *Store) GetRecord(_ context.Context, id til.RecordID) (til.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tilRecords[id]
	if !ok {
		return til.Record{}, fmt.Errorf("til record %s: %w", id, attendance.ErrRecordNotFound)
	}
	return rec, nil
}

func (s *Store) UpdateRecordStatus(_ context.Context, rec til.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tilRecords[rec.ID]; !ok {
		return fmt.Errorf("til record %s: %w", rec.ID, attendance.ErrRecordNotFound)
	}
	s.tilRecords[rec.ID] = rec
	return nil
}

func (s *Store) RecordsForEmployee(_ context.Context, id attendance.EmployeeID) ([]til.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []til.Record
	for _, rid := range s.tilOrder {
		if rec := s.tilRecords[rid]; rec.EmployeeID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) PendingRecords(_ context.Context) ([]til.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []til.Record
	for _, rid := range s.tilOrder {
		if rec := s.tilRecords[rid]; rec.Status == til.StatusPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) GetBalance(_ context.Context, id attendance.EmployeeID) (*til.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.balances[id]
	if !ok {
		return nil, nil
	}
	cp := bal
	return &cp, nil
}

func (s *Store) SaveBalance(_ context.Context, bal til.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[bal.EmployeeID] = bal
	return nil
}
