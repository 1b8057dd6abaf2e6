package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
)

type AttendanceJobs struct {
	attendanceSvc attendance.AttendanceService
}

func NewAttendanceJobs(attendanceSvc attendance.AttendanceService) *AttendanceJobs {
	return &AttendanceJobs{attendanceSvc: attendanceSvc}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("auto_close_stale_shifts", interval, j.AutoCloseStaleShifts)
}

// AutoCloseStaleShifts completes shifts whose employee never ended them.
func (j *AttendanceJobs) AutoCloseStaleShifts(ctx context.Context) error {
	slog.Info("Cron: Starting auto-close stale shifts job")

	closed, err := j.attendanceSvc.AutoCloseStaleShifts(ctx)
	slog.Info("Cron: Auto-closed stale shifts", "count", closed)
	if err != nil {
		return fmt.Errorf("failed to auto-close stale shifts: %w", err)
	}
	return nil
}
