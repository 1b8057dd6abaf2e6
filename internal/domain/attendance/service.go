package attendance

import (
	"context"
	"time"
)

// AttendanceService runs the attendance state machine for one employee at a time.
type AttendanceService interface {
	GetEmployeeState(ctx context.Context, telegramID int64) (EmployeeStateResponse, error)
	StartShift(ctx context.Context, req ActionRequest) (StartShiftResponse, error)
	StartBreak(ctx context.Context, req ActionRequest) (StartBreakResponse, error)
	EndBreak(ctx context.Context, req ActionRequest) (EndBreakResponse, error)
	EndShift(ctx context.Context, req ActionRequest) (EndShiftResponse, error)

	// AutoCloseStaleShifts completes shifts left active long after their
	// planned end and reports how many it closed.
	AutoCloseStaleShifts(ctx context.Context) (int, error)
}

// ViolationRecorder lets the state machine raise system-detected violations
// without depending on the rating package.
type ViolationRecorder interface {
	RecordAutoViolation(ctx context.Context, companyID, employeeID, ruleCode, reason string, at time.Time) error
}
