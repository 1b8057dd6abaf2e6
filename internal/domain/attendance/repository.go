package attendance

import (
	"context"
	"time"
)

// ShiftRepository stores shifts. Find* methods return (nil, nil) when nothing matches.
type ShiftRepository interface {
	Create(ctx context.Context, shift Shift) (Shift, error)
	CreateBatch(ctx context.Context, shifts []Shift) ([]Shift, error)
	Update(ctx context.Context, shift Shift) error

	// FindActive finds the employee's active shift, whichever day it started on.
	FindActive(ctx context.Context, employeeID string) (*Shift, error)
	// FindScheduledInWindow finds the earliest scheduled shift planned to start in [from, to).
	FindScheduledInWindow(ctx context.Context, employeeID string, from, to time.Time) (*Shift, error)

	// ListStaleActive lists active shifts whose planned end is before endedBefore.
	ListStaleActive(ctx context.Context, endedBefore time.Time) ([]Shift, error)

	ListByEmployeesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Shift, error)
	ListByCompanyInRange(ctx context.Context, companyID string, from, to time.Time) ([]Shift, error)
}

// IntervalRepository stores work and break intervals. Intervals are only ever
// opened and closed, never deleted.
type IntervalRepository interface {
	ListWork(ctx context.Context, shiftID string) ([]WorkInterval, error)
	ListBreaks(ctx context.Context, shiftID string) ([]BreakInterval, error)

	OpenWork(ctx context.Context, shiftID string, at time.Time) (WorkInterval, error)
	OpenBreak(ctx context.Context, shiftID string, at time.Time) (BreakInterval, error)

	// CloseOpenWork closes the open work interval of a shift and returns it,
	// or nil when none was open.
	CloseOpenWork(ctx context.Context, shiftID string, at time.Time) (*WorkInterval, error)
	CloseOpenBreak(ctx context.Context, shiftID string, at time.Time) (*BreakInterval, error)
}
