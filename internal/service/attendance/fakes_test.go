package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/jackc/pgx/v5/pgconn"
)

var errInjected = errors.New("injected failure")

// memStore backs the fake repositories. The fake transactor snapshots it on
// begin and restores the snapshot when the transaction function fails.
type memStore struct {
	mu        sync.Mutex
	seq       int
	employees map[int64]employee.Employee
	shifts    []attendance.Shift
	work      []attendance.WorkInterval
	breaks    []attendance.BreakInterval

	failOpenWork bool
}

func newMemStore(emps ...employee.Employee) *memStore {
	s := &memStore{employees: make(map[int64]employee.Employee)}
	for _, e := range emps {
		s.employees[e.TelegramID] = e
	}
	return s
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) shiftsOf(employeeID string) []attendance.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.Shift
	for _, sh := range s.shifts {
		if sh.EmployeeID == employeeID {
			out = append(out, sh)
		}
	}
	return out
}

// ---- transactor ----

type fakeTransactor struct{ store *memStore }

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.store.mu.Lock()
	shifts := append([]attendance.Shift(nil), f.store.shifts...)
	work := append([]attendance.WorkInterval(nil), f.store.work...)
	breaks := append([]attendance.BreakInterval(nil), f.store.breaks...)
	f.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.store.mu.Lock()
		f.store.shifts, f.store.work, f.store.breaks = shifts, work, breaks
		f.store.mu.Unlock()
		return err
	}
	return nil
}

// ---- employees ----

type fakeEmployeeRepo struct{ store *memStore }

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, e := range f.store.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetByTelegramID(ctx context.Context, telegramID int64) (employee.Employee, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	e, ok := f.store.employees[telegramID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) ListByCompany(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	return nil, errors.New("not used")
}

// ---- shifts ----

type fakeShiftRepo struct{ store *memStore }

var errOneActive = &pgconn.PgError{Code: "23505", ConstraintName: "uq_shifts_one_active"}

func (f *fakeShiftRepo) hasOtherActive(sh attendance.Shift) bool {
	if sh.Status != attendance.ShiftStatusActive {
		return false
	}
	for _, other := range f.store.shifts {
		if other.ID != sh.ID && other.EmployeeID == sh.EmployeeID && other.Status == attendance.ShiftStatusActive {
			return true
		}
	}
	return false
}

func (f *fakeShiftRepo) Create(ctx context.Context, sh attendance.Shift) (attendance.Shift, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.hasOtherActive(sh) {
		return attendance.Shift{}, errOneActive
	}
	sh.ID = f.store.nextID("shift")
	f.store.shifts = append(f.store.shifts, sh)
	return sh, nil
}

func (f *fakeShiftRepo) CreateBatch(ctx context.Context, shifts []attendance.Shift) ([]attendance.Shift, error) {
	out := make([]attendance.Shift, 0, len(shifts))
	for _, sh := range shifts {
		c, err := f.Create(ctx, sh)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeShiftRepo) Update(ctx context.Context, sh attendance.Shift) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.hasOtherActive(sh) {
		return errOneActive
	}
	for i := range f.store.shifts {
		if f.store.shifts[i].ID == sh.ID {
			f.store.shifts[i] = sh
			return nil
		}
	}
	return fmt.Errorf("shift %s not found", sh.ID)
}

func (f *fakeShiftRepo) find(employeeID string, status attendance.ShiftStatus, from, to time.Time) *attendance.Shift {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var found []attendance.Shift
	for _, sh := range f.store.shifts {
		if sh.EmployeeID == employeeID && sh.Status == status &&
			!sh.PlannedStartAt.Before(from) && sh.PlannedStartAt.Before(to) {
			found = append(found, sh)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].PlannedStartAt.Before(found[j].PlannedStartAt) })
	sh := found[0]
	return &sh
}

func (f *fakeShiftRepo) FindActive(ctx context.Context, employeeID string) (*attendance.Shift, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, sh := range f.store.shifts {
		if sh.EmployeeID == employeeID && sh.Status == attendance.ShiftStatusActive {
			return &sh, nil
		}
	}
	return nil, nil
}

func (f *fakeShiftRepo) ListStaleActive(ctx context.Context, endedBefore time.Time) ([]attendance.Shift, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []attendance.Shift
	for _, sh := range f.store.shifts {
		if sh.Status == attendance.ShiftStatusActive && sh.PlannedEndAt.Before(endedBefore) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) FindScheduledInWindow(ctx context.Context, employeeID string, from, to time.Time) (*attendance.Shift, error) {
	return f.find(employeeID, attendance.ShiftStatusScheduled, from, to), nil
}

func (f *fakeShiftRepo) ListByEmployeesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.Shift, error) {
	return nil, errors.New("not used")
}

func (f *fakeShiftRepo) ListByCompanyInRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Shift, error) {
	return nil, errors.New("not used")
}

// ---- intervals ----

type fakeIntervalRepo struct{ store *memStore }

func (f *fakeIntervalRepo) ListWork(ctx context.Context, shiftID string) ([]attendance.WorkInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []attendance.WorkInterval
	for _, w := range f.store.work {
		if w.ShiftID == shiftID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeIntervalRepo) ListBreaks(ctx context.Context, shiftID string) ([]attendance.BreakInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []attendance.BreakInterval
	for _, b := range f.store.breaks {
		if b.ShiftID == shiftID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeIntervalRepo) OpenWork(ctx context.Context, shiftID string, at time.Time) (attendance.WorkInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.failOpenWork {
		return attendance.WorkInterval{}, errInjected
	}
	for _, w := range f.store.work {
		if w.ShiftID == shiftID && w.IsOpen() {
			return attendance.WorkInterval{}, &pgconn.PgError{Code: "23505", ConstraintName: "uq_work_intervals_one_open"}
		}
	}
	w := attendance.WorkInterval{Interval: attendance.Interval{ID: f.store.nextID("work"), ShiftID: shiftID, StartAt: at}}
	f.store.work = append(f.store.work, w)
	return w, nil
}

func (f *fakeIntervalRepo) OpenBreak(ctx context.Context, shiftID string, at time.Time) (attendance.BreakInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, b := range f.store.breaks {
		if b.ShiftID == shiftID && b.IsOpen() {
			return attendance.BreakInterval{}, &pgconn.PgError{Code: "23505", ConstraintName: "uq_break_intervals_one_open"}
		}
	}
	b := attendance.BreakInterval{Interval: attendance.Interval{ID: f.store.nextID("break"), ShiftID: shiftID, StartAt: at}}
	f.store.breaks = append(f.store.breaks, b)
	return b, nil
}

func (f *fakeIntervalRepo) CloseOpenWork(ctx context.Context, shiftID string, at time.Time) (*attendance.WorkInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for i := range f.store.work {
		if f.store.work[i].ShiftID == shiftID && f.store.work[i].IsOpen() {
			end := at
			f.store.work[i].EndAt = &end
			w := f.store.work[i]
			return &w, nil
		}
	}
	return nil, nil
}

func (f *fakeIntervalRepo) CloseOpenBreak(ctx context.Context, shiftID string, at time.Time) (*attendance.BreakInterval, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for i := range f.store.breaks {
		if f.store.breaks[i].ShiftID == shiftID && f.store.breaks[i].IsOpen() {
			end := at
			f.store.breaks[i].EndAt = &end
			b := f.store.breaks[i]
			return &b, nil
		}
	}
	return nil, nil
}

// ---- violations ----

type recordedViolation struct {
	CompanyID, EmployeeID, RuleCode, Reason string
	At                                      time.Time
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedViolation
	err   error
}

func (f *fakeRecorder) RecordAutoViolation(ctx context.Context, companyID, employeeID, ruleCode, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedViolation{companyID, employeeID, ruleCode, reason, at})
	return f.err
}
