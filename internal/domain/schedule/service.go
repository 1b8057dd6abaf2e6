package schedule

import "context"

type ScheduleService interface {
	CreateTemplate(ctx context.Context, req CreateScheduleTemplateRequest) (ScheduleTemplateResponse, error)
	ListTemplates(ctx context.Context, companyID string) ([]ScheduleTemplateResponse, error)
	AssignSchedule(ctx context.Context, req AssignScheduleRequest) (EmployeeScheduleResponse, error)
	ListShifts(ctx context.Context, req ListShiftsRequest) ([]ShiftListItem, error)
}

// ShiftGenerator expands schedule templates into concrete scheduled shifts.
type ShiftGenerator interface {
	GenerateShifts(ctx context.Context, req GenerateShiftsRequest) (GenerateShiftsResponse, error)
}
