package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

// ShiftJobs keeps a rolling window of scheduled shifts generated ahead of time.
type ShiftJobs struct {
	companyRepo company.CompanyRepository
	generator   schedule.ShiftGenerator
	days        int
	now         func() time.Time
}

func NewShiftJobs(companyRepo company.CompanyRepository, generator schedule.ShiftGenerator, days int) *ShiftJobs {
	return &ShiftJobs{
		companyRepo: companyRepo,
		generator:   generator,
		days:        days,
		now:         time.Now,
	}
}

func (j *ShiftJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("generate_rolling_shifts", interval, j.GenerateRollingShifts)
}

// GenerateRollingShifts generates shifts for [today, today+days] in each
// company's own time zone. Existing shifts are skipped, so reruns are safe.
func (j *ShiftJobs) GenerateRollingShifts(ctx context.Context) error {
	companies, err := j.companyRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	var errs []error
	for _, c := range companies {
		today := j.now().In(c.Location())
		req := schedule.GenerateShiftsRequest{
			CompanyID: c.ID,
			StartDate: today.Format(validator.DateLayout),
			EndDate:   today.AddDate(0, 0, j.days).Format(validator.DateLayout),
		}

		resp, err := j.generator.GenerateShifts(ctx, req)
		if err != nil {
			slog.Error("Cron: rolling shift generation failed", "company_id", c.ID, "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", c.ID, err))
			continue
		}

		slog.Info("Cron: rolling shifts generated",
			"company_id", c.ID,
			"start_date", req.StartDate,
			"end_date", req.EndDate,
			"shifts_created", resp.Stats.ShiftsCreated,
			"skipped_existing", resp.Stats.SkippedExisting,
		)
	}

	return errors.Join(errs...)
}
