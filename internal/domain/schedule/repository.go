package schedule

import (
	"context"
	"time"
)

type ScheduleTemplateRepository interface {
	Create(ctx context.Context, template ScheduleTemplate) (ScheduleTemplate, error)
	GetByID(ctx context.Context, id string, companyID string) (ScheduleTemplate, error)
	ListByCompany(ctx context.Context, companyID string) ([]ScheduleTemplate, error)
}

type EmployeeScheduleRepository interface {
	Create(ctx context.Context, assignment EmployeeSchedule) (EmployeeSchedule, error)
	// ListOverlapping returns assignments, template included, of the given
	// employees whose validity window intersects [from, to].
	ListOverlapping(ctx context.Context, employeeIDs []string, from, to time.Time) ([]EmployeeSchedule, error)
}
