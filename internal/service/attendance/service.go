package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/keylock"
	"github.com/jackc/pgx/v5/pgconn"
)

// LateStartRuleCode is the violation rule raised when a scheduled shift is
// started after its grace period.
const LateStartRuleCode = "LATE_START"

type AttendanceServiceImpl struct {
	tx           database.Transactor
	locker       keylock.Locker
	employeeRepo employee.EmployeeRepository
	shiftRepo    attendance.ShiftRepository
	intervalRepo attendance.IntervalRepository
	violations   attendance.ViolationRecorder
	lateGrace    time.Duration
	staleAfter   time.Duration
	now          func() time.Time
}

type Options struct {
	// Violations records late starts. Nil disables late detection.
	Violations attendance.ViolationRecorder
	LateGrace  time.Duration
	// StaleAfter is how long past its planned end an active shift may stay
	// open before AutoCloseStaleShifts completes it. Zero disables closing.
	StaleAfter time.Duration
}

// transition is the state a command sees: the acting employee, today's
// window and the employee's active shift, even one started on an earlier day.
type transition struct {
	employee employee.Employee
	now      time.Time
	dayStart time.Time
	dayEnd   time.Time
	active   *attendance.Shift
}

// GetEmployeeState implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetEmployeeState(ctx context.Context, telegramID int64) (attendance.EmployeeStateResponse, error) {
	emp, err := s.employeeRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return attendance.EmployeeStateResponse{}, err
	}

	active, err := s.shiftRepo.FindActive(ctx, emp.ID)
	if err != nil {
		return attendance.EmployeeStateResponse{}, fmt.Errorf("failed to find active shift: %w", err)
	}

	var (
		work   []attendance.WorkInterval
		breaks []attendance.BreakInterval
	)
	if active != nil {
		if work, err = s.intervalRepo.ListWork(ctx, active.ID); err != nil {
			return attendance.EmployeeStateResponse{}, fmt.Errorf("failed to list work intervals: %w", err)
		}
		if breaks, err = s.intervalRepo.ListBreaks(ctx, active.ID); err != nil {
			return attendance.EmployeeStateResponse{}, fmt.Errorf("failed to list break intervals: %w", err)
		}
	}

	resp := attendance.EmployeeStateResponse{
		Employee: attendance.EmployeeResponse{
			ID:         emp.ID,
			CompanyID:  emp.CompanyID,
			TelegramID: emp.TelegramID,
			FullName:   emp.FullName,
		},
		WorkIntervals:  make([]attendance.IntervalResponse, 0, len(work)),
		BreakIntervals: make([]attendance.IntervalResponse, 0, len(breaks)),
		Status:         attendance.DeriveStatus(active, work, breaks),
	}
	if active != nil {
		shift := attendance.NewShiftResponse(*active)
		resp.ActiveShift = &shift
	}
	for _, w := range work {
		resp.WorkIntervals = append(resp.WorkIntervals, attendance.NewIntervalResponse(w.Interval))
	}
	for _, b := range breaks {
		resp.BreakIntervals = append(resp.BreakIntervals, attendance.NewIntervalResponse(b.Interval))
	}

	return resp, nil
}

// StartShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartShift(ctx context.Context, req attendance.ActionRequest) (attendance.StartShiftResponse, error) {
	var (
		resp      attendance.StartShiftResponse
		lateShift *attendance.Shift
		emp       employee.Employee
	)

	err := s.run(ctx, req, func(txCtx context.Context, t transition) error {
		if t.active != nil {
			return attendance.ErrShiftAlreadyActive
		}
		emp = t.employee

		shift, err := s.shiftRepo.FindScheduledInWindow(txCtx, t.employee.ID, t.dayStart, t.dayEnd)
		if err != nil {
			return fmt.Errorf("failed to find scheduled shift: %w", err)
		}

		now := t.now
		if shift != nil {
			shift.ActualStartAt = &now
			shift.Status = attendance.ShiftStatusActive
			if err := s.shiftRepo.Update(txCtx, *shift); err != nil {
				return mapShiftConflict(err)
			}
			if s.violations != nil && now.After(shift.PlannedStartAt.Add(s.lateGrace)) {
				lateShift = shift
			}
		} else {
			created, err := s.shiftRepo.Create(txCtx, attendance.Shift{
				CompanyID:      t.employee.CompanyID,
				EmployeeID:     t.employee.ID,
				PlannedStartAt: now,
				PlannedEndAt:   t.dayEnd,
				ActualStartAt:  &now,
				Status:         attendance.ShiftStatusActive,
			})
			if err != nil {
				return mapShiftConflict(err)
			}
			shift = &created
		}

		work, err := s.intervalRepo.OpenWork(txCtx, shift.ID, now)
		if err != nil {
			return fmt.Errorf("failed to open work interval: %w", err)
		}

		resp = attendance.StartShiftResponse{
			Shift:        attendance.NewShiftResponse(*shift),
			WorkInterval: attendance.NewIntervalResponse(work.Interval),
		}
		return nil
	})
	if err != nil {
		return attendance.StartShiftResponse{}, err
	}

	if lateShift != nil {
		s.recordLateStart(ctx, emp, *lateShift)
	}

	return resp, nil
}

// StartBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.ActionRequest) (attendance.StartBreakResponse, error) {
	var resp attendance.StartBreakResponse

	err := s.run(ctx, req, func(txCtx context.Context, t transition) error {
		if t.active == nil {
			return attendance.ErrNoActiveShift
		}

		breaks, err := s.intervalRepo.ListBreaks(txCtx, t.active.ID)
		if err != nil {
			return fmt.Errorf("failed to list break intervals: %w", err)
		}
		if _, ok := attendance.OpenBreak(breaks); ok {
			return attendance.ErrBreakAlreadyActive
		}

		if _, err := s.intervalRepo.CloseOpenWork(txCtx, t.active.ID, t.now); err != nil {
			return fmt.Errorf("failed to close work interval: %w", err)
		}
		br, err := s.intervalRepo.OpenBreak(txCtx, t.active.ID, t.now)
		if err != nil {
			return mapIntervalConflict(err, attendance.ErrBreakAlreadyActive)
		}

		resp = attendance.StartBreakResponse{BreakInterval: attendance.NewIntervalResponse(br.Interval)}
		return nil
	})
	if err != nil {
		return attendance.StartBreakResponse{}, err
	}
	return resp, nil
}

// EndBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context, req attendance.ActionRequest) (attendance.EndBreakResponse, error) {
	var resp attendance.EndBreakResponse

	err := s.run(ctx, req, func(txCtx context.Context, t transition) error {
		if t.active == nil {
			return attendance.ErrNoActiveShift
		}

		closed, err := s.intervalRepo.CloseOpenBreak(txCtx, t.active.ID, t.now)
		if err != nil {
			return fmt.Errorf("failed to close break interval: %w", err)
		}
		if closed == nil {
			return attendance.ErrNoActiveBreak
		}

		work, err := s.intervalRepo.OpenWork(txCtx, t.active.ID, t.now)
		if err != nil {
			return fmt.Errorf("failed to open work interval: %w", err)
		}

		resp = attendance.EndBreakResponse{WorkInterval: attendance.NewIntervalResponse(work.Interval)}
		return nil
	})
	if err != nil {
		return attendance.EndBreakResponse{}, err
	}
	return resp, nil
}

// EndShift implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndShift(ctx context.Context, req attendance.ActionRequest) (attendance.EndShiftResponse, error) {
	var resp attendance.EndShiftResponse

	err := s.run(ctx, req, func(txCtx context.Context, t transition) error {
		if t.active == nil {
			return attendance.ErrNoActiveShiftToEnd
		}

		if _, err := s.intervalRepo.CloseOpenWork(txCtx, t.active.ID, t.now); err != nil {
			return fmt.Errorf("failed to close work interval: %w", err)
		}
		if _, err := s.intervalRepo.CloseOpenBreak(txCtx, t.active.ID, t.now); err != nil {
			return fmt.Errorf("failed to close break interval: %w", err)
		}

		shift := *t.active
		now := t.now
		shift.ActualEndAt = &now
		shift.Status = attendance.ShiftStatusCompleted
		if err := s.shiftRepo.Update(txCtx, shift); err != nil {
			return fmt.Errorf("failed to complete shift: %w", err)
		}

		resp = attendance.EndShiftResponse{Shift: attendance.NewShiftResponse(shift)}
		return nil
	})
	if err != nil {
		return attendance.EndShiftResponse{}, err
	}
	return resp, nil
}

// run resolves the employee, takes the per-employee lock, opens a transaction
// and loads fresh state before handing over to fn. Any error rolls back every
// write fn made.
func (s *AttendanceServiceImpl) run(ctx context.Context, req attendance.ActionRequest, fn func(txCtx context.Context, t transition) error) error {
	if err := req.Validate(); err != nil {
		return err
	}

	emp, err := s.employeeRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return err
	}
	if !emp.IsActive {
		return employee.ErrEmployeeInactive
	}

	unlock, err := s.locker.Lock(ctx, "attendance:"+emp.ID)
	if err != nil {
		if errors.Is(err, keylock.ErrLockTimeout) {
			return attendance.ErrConcurrentTransition
		}
		return fmt.Errorf("failed to lock employee %s: %w", emp.ID, err)
	}
	defer unlock()

	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := s.now()
		from, to := attendance.DayWindow(now, emp.Location())

		active, err := s.shiftRepo.FindActive(txCtx, emp.ID)
		if err != nil {
			return fmt.Errorf("failed to find active shift: %w", err)
		}

		return fn(txCtx, transition{
			employee: emp,
			now:      now,
			dayStart: from,
			dayEnd:   to,
			active:   active,
		})
	})
}

// AutoCloseStaleShifts implements attendance.AttendanceService. It completes
// active shifts left open longer than StaleAfter past their planned end, so a
// forgotten "end shift" never blocks the employee's next shift.
func (s *AttendanceServiceImpl) AutoCloseStaleShifts(ctx context.Context) (int, error) {
	if s.staleAfter <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.shiftRepo.ListStaleActive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale shifts: %w", err)
	}

	var (
		closed int
		errs   []error
	)
	for _, shift := range stale {
		ok, err := s.closeStale(ctx, shift, cutoff)
		if err != nil {
			slog.Error("failed to auto-close shift",
				"shift_id", shift.ID,
				"employee_id", shift.EmployeeID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("shift %s: %w", shift.ID, err))
			continue
		}
		if ok {
			closed++
		}
	}
	return closed, errors.Join(errs...)
}

// closeStale completes one stale shift under the employee lock. The shift is
// re-read inside the transaction; one the employee ended meanwhile is left alone.
func (s *AttendanceServiceImpl) closeStale(ctx context.Context, stale attendance.Shift, cutoff time.Time) (bool, error) {
	unlock, err := s.locker.Lock(ctx, "attendance:"+stale.EmployeeID)
	if err != nil {
		return false, fmt.Errorf("failed to lock employee %s: %w", stale.EmployeeID, err)
	}
	defer unlock()

	closed := false
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		active, err := s.shiftRepo.FindActive(txCtx, stale.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to find active shift: %w", err)
		}
		if active == nil || active.ID != stale.ID || !active.PlannedEndAt.Before(cutoff) {
			return nil
		}

		work, err := s.intervalRepo.ListWork(txCtx, active.ID)
		if err != nil {
			return fmt.Errorf("failed to list work intervals: %w", err)
		}
		breaks, err := s.intervalRepo.ListBreaks(txCtx, active.ID)
		if err != nil {
			return fmt.Errorf("failed to list break intervals: %w", err)
		}

		// Close at the planned end, or later when the employee kept
		// acting past it, so no interval ends before it starts.
		endAt := active.PlannedEndAt
		if active.ActualStartAt != nil && active.ActualStartAt.After(endAt) {
			endAt = *active.ActualStartAt
		}
		if w, ok := attendance.OpenWork(work); ok && w.StartAt.After(endAt) {
			endAt = w.StartAt
		}
		if b, ok := attendance.OpenBreak(breaks); ok && b.StartAt.After(endAt) {
			endAt = b.StartAt
		}

		if _, err := s.intervalRepo.CloseOpenWork(txCtx, active.ID, endAt); err != nil {
			return fmt.Errorf("failed to close work interval: %w", err)
		}
		if _, err := s.intervalRepo.CloseOpenBreak(txCtx, active.ID, endAt); err != nil {
			return fmt.Errorf("failed to close break interval: %w", err)
		}

		shift := *active
		shift.ActualEndAt = &endAt
		shift.Status = attendance.ShiftStatusCompleted
		if err := s.shiftRepo.Update(txCtx, shift); err != nil {
			return fmt.Errorf("failed to complete shift: %w", err)
		}
		closed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if closed {
		slog.Info("stale shift auto-closed",
			"shift_id", stale.ID,
			"employee_id", stale.EmployeeID,
			"planned_end_at", stale.PlannedEndAt,
		)
	}
	return closed, nil
}

// recordLateStart runs after the transition committed. Failures are logged
// only: a missing or inactive rule must never block an employee from working.
func (s *AttendanceServiceImpl) recordLateStart(ctx context.Context, emp employee.Employee, shift attendance.Shift) {
	lateBy := shift.ActualStartAt.Sub(shift.PlannedStartAt).Truncate(time.Minute)
	reason := fmt.Sprintf("started %s after planned start %s", lateBy, shift.PlannedStartAt.In(emp.Location()).Format("15:04"))

	err := s.violations.RecordAutoViolation(ctx, emp.CompanyID, emp.ID, LateStartRuleCode, reason, *shift.ActualStartAt)
	if err != nil {
		slog.Warn("failed to record late start violation",
			"employee_id", emp.ID,
			"shift_id", shift.ID,
			"error", err,
		)
	}
}

// mapShiftConflict turns the one-active-shift index violation into the
// state-machine error a client understands.
func mapShiftConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_shifts_one_active" {
		return attendance.ErrShiftAlreadyActive
	}
	return fmt.Errorf("failed to save shift: %w", err)
}

func mapIntervalConflict(err error, conflict error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return conflict
	}
	return fmt.Errorf("failed to open interval: %w", err)
}

func NewAttendanceService(
	tx database.Transactor,
	locker keylock.Locker,
	employeeRepo employee.EmployeeRepository,
	shiftRepo attendance.ShiftRepository,
	intervalRepo attendance.IntervalRepository,
	opts Options,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:           tx,
		locker:       locker,
		employeeRepo: employeeRepo,
		shiftRepo:    shiftRepo,
		intervalRepo: intervalRepo,
		violations:   opts.Violations,
		lateGrace:    opts.LateGrace,
		staleAfter:   opts.StaleAfter,
		now:          time.Now,
	}
}
