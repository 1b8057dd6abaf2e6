package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

type shiftGeneratorImpl struct {
	tx             database.Transactor
	locker         keylock.Locker
	companyRepo    company.CompanyRepository
	employeeRepo   employee.EmployeeRepository
	assignmentRepo schedule.EmployeeScheduleRepository
	shiftRepo      attendance.ShiftRepository
}

// GenerateShifts implements schedule.ShiftGenerator.
//
// Dates on which an employee already has a shift of any status are skipped,
// so running the same range twice creates nothing the second time.
func (g *shiftGeneratorImpl) GenerateShifts(ctx context.Context, req schedule.GenerateShiftsRequest) (schedule.GenerateShiftsResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.GenerateShiftsResponse{}, err
	}

	comp, err := g.companyRepo.GetByID(ctx, req.CompanyID)
	if err != nil {
		return schedule.GenerateShiftsResponse{}, err
	}
	loc := comp.Location()
	startDate, endDate := req.Dates()

	// One generation per company at a time keeps skip-if-exists honest.
	unlock, err := g.locker.Lock(ctx, "generate:"+comp.ID)
	if err != nil {
		if errors.Is(err, keylock.ErrLockTimeout) {
			return schedule.GenerateShiftsResponse{}, schedule.ErrGenerationInProgress
		}
		return schedule.GenerateShiftsResponse{}, fmt.Errorf("failed to lock company %s: %w", comp.ID, err)
	}
	defer unlock()

	employees, err := g.employeeRepo.ListByCompany(ctx, comp.ID, req.EmployeeIDs)
	if err != nil {
		return schedule.GenerateShiftsResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}
	if err := checkRequestedEmployees(req.EmployeeIDs, employees); err != nil {
		return schedule.GenerateShiftsResponse{}, err
	}

	employeeIDs := make([]string, 0, len(employees))
	for _, e := range employees {
		employeeIDs = append(employeeIDs, e.ID)
	}

	assignments, err := g.assignmentRepo.ListOverlapping(ctx, employeeIDs, startDate, endDate)
	if err != nil {
		return schedule.GenerateShiftsResponse{}, fmt.Errorf("failed to list employee schedules: %w", err)
	}
	byEmployee := make(map[string][]schedule.EmployeeSchedule)
	for _, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	// Without an explicit subset only employees with an assignment touching
	// the range are in scope.
	if len(req.EmployeeIDs) == 0 {
		scoped := employees[:0:0]
		for _, e := range employees {
			if len(byEmployee[e.ID]) > 0 {
				scoped = append(scoped, e)
			}
		}
		employees = scoped
		employeeIDs = employeeIDs[:0:0]
		for _, e := range employees {
			employeeIDs = append(employeeIDs, e.ID)
		}
	}

	rangeFrom := localMidnight(startDate, loc)
	rangeTo := localMidnight(endDate, loc).AddDate(0, 0, 1)
	existing, err := g.shiftRepo.ListByEmployeesInRange(ctx, employeeIDs, rangeFrom, rangeTo)
	if err != nil {
		return schedule.GenerateShiftsResponse{}, fmt.Errorf("failed to list existing shifts: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, sh := range existing {
		taken[dayKey(sh.EmployeeID, sh.PlannedStartAt.In(loc))] = struct{}{}
	}

	var (
		stats   schedule.GenerationStats
		pending []attendance.Shift
	)
	stats.EmployeesProcessed = len(employees)

	for _, emp := range employees {
		missing := false
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			a, ok := assignmentOn(byEmployee[emp.ID], d)
			if !ok {
				missing = true
				continue
			}
			if !a.Template.WorksOn(d.Weekday()) {
				continue
			}
			if _, ok := taken[dayKey(emp.ID, d)]; ok {
				stats.SkippedExisting++
				continue
			}

			plannedStart, plannedEnd := a.Template.PlannedTimes(d, loc)
			templateID := a.TemplateID
			pending = append(pending, attendance.Shift{
				CompanyID:          comp.ID,
				EmployeeID:         emp.ID,
				ScheduleTemplateID: &templateID,
				PlannedStartAt:     plannedStart,
				PlannedEndAt:       plannedEnd,
				Status:             attendance.ShiftStatusScheduled,
			})
		}
		if missing {
			stats.EmployeesWithoutSchedule++
		}
	}

	var created []attendance.Shift
	if len(pending) > 0 {
		err = g.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			var batchErr error
			created, batchErr = g.shiftRepo.CreateBatch(txCtx, pending)
			return batchErr
		})
		if err != nil {
			return schedule.GenerateShiftsResponse{}, fmt.Errorf("failed to create shifts: %w", err)
		}
	}
	stats.ShiftsCreated = len(created)

	sort.SliceStable(created, func(i, j int) bool {
		return created[i].PlannedStartAt.Before(created[j].PlannedStartAt)
	})
	resp := schedule.GenerateShiftsResponse{
		Shifts: make([]attendance.ShiftResponse, 0, len(created)),
		Stats:  stats,
	}
	for _, sh := range created {
		resp.Shifts = append(resp.Shifts, attendance.NewShiftResponse(sh))
	}

	slog.Info("shifts generated",
		"company_id", comp.ID,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"employees_processed", stats.EmployeesProcessed,
		"shifts_created", stats.ShiftsCreated,
		"employees_without_schedule", stats.EmployeesWithoutSchedule,
		"skipped_existing", stats.SkippedExisting,
	)

	return resp, nil
}

// checkRequestedEmployees reports requested ids that are not active
// employees of the company.
func checkRequestedEmployees(requested []string, found []employee.Employee) error {
	if len(requested) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(found))
	for _, e := range found {
		known[e.ID] = struct{}{}
	}
	var errs validator.ValidationErrors
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			errs.Add("employeeIds", fmt.Sprintf("employee %s is not an active employee of this company", id))
		}
	}
	return errs.OrNil()
}

func assignmentOn(assignments []schedule.EmployeeSchedule, d time.Time) (schedule.EmployeeSchedule, bool) {
	for _, a := range assignments {
		if a.ValidOn(d) {
			return a, true
		}
	}
	return schedule.EmployeeSchedule{}, false
}

func dayKey(employeeID string, t time.Time) string {
	return employeeID + "|" + t.Format(validator.DateLayout)
}

// localMidnight places a calendar date at 00:00 in loc.
func localMidnight(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func NewShiftGenerator(
	tx database.Transactor,
	locker keylock.Locker,
	companyRepo company.CompanyRepository,
	employeeRepo employee.EmployeeRepository,
	assignmentRepo schedule.EmployeeScheduleRepository,
	shiftRepo attendance.ShiftRepository,
) schedule.ShiftGenerator {
	return &shiftGeneratorImpl{
		tx:             tx,
		locker:         locker,
		companyRepo:    companyRepo,
		employeeRepo:   employeeRepo,
		assignmentRepo: assignmentRepo,
		shiftRepo:      shiftRepo,
	}
}
