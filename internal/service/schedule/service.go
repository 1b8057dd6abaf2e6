package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgconn"
)

type scheduleServiceImpl struct {
	templateRepo   schedule.ScheduleTemplateRepository
	assignmentRepo schedule.EmployeeScheduleRepository
	employeeRepo   employee.EmployeeRepository
	companyRepo    company.CompanyRepository
	shiftRepo      attendance.ShiftRepository
}

// CreateTemplate implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateTemplate(ctx context.Context, req schedule.CreateScheduleTemplateRequest) (schedule.ScheduleTemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleTemplateResponse{}, err
	}

	start, _ := validator.IsValidTimeOfDay(req.ShiftStart)
	end, _ := validator.IsValidTimeOfDay(req.ShiftEnd)

	created, err := s.templateRepo.Create(ctx, schedule.ScheduleTemplate{
		CompanyID:  req.CompanyID,
		Name:       req.Name,
		ShiftStart: schedule.TimeOfDay{Hour: start.Hour(), Minute: start.Minute()},
		ShiftEnd:   schedule.TimeOfDay{Hour: end.Hour(), Minute: end.Minute()},
		Workdays:   schedule.NormalizeWorkdays(req.Workdays),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return schedule.ScheduleTemplateResponse{}, schedule.ErrScheduleTemplateNameExists
		}
		return schedule.ScheduleTemplateResponse{}, fmt.Errorf("failed to create schedule template: %w", err)
	}

	return schedule.NewScheduleTemplateResponse(created), nil
}

// ListTemplates implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListTemplates(ctx context.Context, companyID string) ([]schedule.ScheduleTemplateResponse, error) {
	templates, err := s.templateRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule templates: %w", err)
	}

	resp := make([]schedule.ScheduleTemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, schedule.NewScheduleTemplateResponse(t))
	}
	return resp, nil
}

// AssignSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) AssignSchedule(ctx context.Context, req schedule.AssignScheduleRequest) (schedule.EmployeeScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.EmployeeScheduleResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return schedule.EmployeeScheduleResponse{}, err
	}
	if emp.CompanyID != req.CompanyID {
		return schedule.EmployeeScheduleResponse{}, employee.ErrEmployeeNotFound
	}

	if _, err := s.templateRepo.GetByID(ctx, req.TemplateID, req.CompanyID); err != nil {
		return schedule.EmployeeScheduleResponse{}, err
	}

	validFrom, _ := validator.IsValidDate(req.ValidFrom)
	assignment := schedule.EmployeeSchedule{
		EmployeeID: req.EmployeeID,
		TemplateID: req.TemplateID,
		ValidFrom:  validFrom,
	}
	if req.ValidTo != nil && *req.ValidTo != "" {
		validTo, _ := validator.IsValidDate(*req.ValidTo)
		assignment.ValidTo = &validTo
	}

	created, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Check for exclusion violation (SQL state code '23P01')
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "no_overlapping_schedules" {
				return schedule.EmployeeScheduleResponse{}, schedule.ErrOverlappingScheduleAssignment
			}
		}
		return schedule.EmployeeScheduleResponse{}, fmt.Errorf("failed to create employee schedule: %w", err)
	}

	return schedule.NewEmployeeScheduleResponse(created), nil
}

// ListShifts implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListShifts(ctx context.Context, req schedule.ListShiftsRequest) ([]schedule.ShiftListItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comp, err := s.companyRepo.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	loc := comp.Location()

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)
	from := localMidnight(start, loc)
	to := localMidnight(end, loc).AddDate(0, 0, 1)

	shifts, err := s.shiftRepo.ListByCompanyInRange(ctx, req.CompanyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	resp := make([]schedule.ShiftListItem, 0, len(shifts))
	for _, sh := range shifts {
		resp = append(resp, attendance.NewShiftResponse(sh))
	}
	return resp, nil
}

func NewScheduleService(
	templateRepo schedule.ScheduleTemplateRepository,
	assignmentRepo schedule.EmployeeScheduleRepository,
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	shiftRepo attendance.ShiftRepository,
) schedule.ScheduleService {
	return &scheduleServiceImpl{
		templateRepo:   templateRepo,
		assignmentRepo: assignmentRepo,
		employeeRepo:   employeeRepo,
		companyRepo:    companyRepo,
		shiftRepo:      shiftRepo,
	}
}
