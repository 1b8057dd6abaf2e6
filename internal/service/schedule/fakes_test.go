package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/jackc/pgx/v5/pgconn"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeCompanyRepo struct {
	companies map[string]company.Company
	calls     int
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	f.calls++
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) List(ctx context.Context) ([]company.Company, error) {
	out := make([]company.Company, 0, len(f.companies))
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetByTelegramID(ctx context.Context, telegramID int64) (employee.Employee, error) {
	return employee.Employee{}, errors.New("not used")
}

func (f *fakeEmployeeRepo) ListByCompany(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID != companyID || !e.IsActive {
			continue
		}
		if len(ids) > 0 && !want[e.ID] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeTemplateRepo struct {
	templates []schedule.ScheduleTemplate
}

func (f *fakeTemplateRepo) Create(ctx context.Context, t schedule.ScheduleTemplate) (schedule.ScheduleTemplate, error) {
	for _, existing := range f.templates {
		if existing.CompanyID == t.CompanyID && existing.Name == t.Name {
			return schedule.ScheduleTemplate{}, &pgconn.PgError{Code: "23505", ConstraintName: "uq_schedule_templates_name"}
		}
	}
	t.ID = fmt.Sprintf("tpl-%d", len(f.templates)+1)
	f.templates = append(f.templates, t)
	return t, nil
}

func (f *fakeTemplateRepo) GetByID(ctx context.Context, id string, companyID string) (schedule.ScheduleTemplate, error) {
	for _, t := range f.templates {
		if t.ID == id && t.CompanyID == companyID {
			return t, nil
		}
	}
	return schedule.ScheduleTemplate{}, schedule.ErrScheduleTemplateNotFound
}

func (f *fakeTemplateRepo) ListByCompany(ctx context.Context, companyID string) ([]schedule.ScheduleTemplate, error) {
	var out []schedule.ScheduleTemplate
	for _, t := range f.templates {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	assignments []schedule.EmployeeSchedule
	templates   *fakeTemplateRepo
}

func farFuture() time.Time { return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC) }

func windowEnd(a schedule.EmployeeSchedule) time.Time {
	if a.ValidTo == nil {
		return farFuture()
	}
	return *a.ValidTo
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, a schedule.EmployeeSchedule) (schedule.EmployeeSchedule, error) {
	for _, existing := range f.assignments {
		if existing.EmployeeID == a.EmployeeID &&
			!existing.ValidFrom.After(windowEnd(a)) && !a.ValidFrom.After(windowEnd(existing)) {
			return schedule.EmployeeSchedule{}, &pgconn.PgError{Code: "23P01", ConstraintName: "no_overlapping_schedules"}
		}
	}
	a.ID = fmt.Sprintf("asg-%d", len(f.assignments)+1)
	for _, t := range f.templates.templates {
		if t.ID == a.TemplateID {
			a.Template = t
		}
	}
	f.assignments = append(f.assignments, a)
	return a, nil
}

func (f *fakeAssignmentRepo) ListOverlapping(ctx context.Context, employeeIDs []string, from, to time.Time) ([]schedule.EmployeeSchedule, error) {
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	var out []schedule.EmployeeSchedule
	for _, a := range f.assignments {
		if want[a.EmployeeID] && !a.ValidFrom.After(to) && !windowEnd(a).Before(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeShiftRepo struct {
	shifts []attendance.Shift
}

func (f *fakeShiftRepo) Create(ctx context.Context, sh attendance.Shift) (attendance.Shift, error) {
	sh.ID = fmt.Sprintf("shift-%d", len(f.shifts)+1)
	f.shifts = append(f.shifts, sh)
	return sh, nil
}

func (f *fakeShiftRepo) CreateBatch(ctx context.Context, shifts []attendance.Shift) ([]attendance.Shift, error) {
	out := make([]attendance.Shift, 0, len(shifts))
	for _, sh := range shifts {
		c, _ := f.Create(ctx, sh)
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeShiftRepo) Update(ctx context.Context, sh attendance.Shift) error {
	return errors.New("not used")
}

func (f *fakeShiftRepo) FindActive(ctx context.Context, employeeID string) (*attendance.Shift, error) {
	return nil, errors.New("not used")
}

func (f *fakeShiftRepo) ListStaleActive(ctx context.Context, endedBefore time.Time) ([]attendance.Shift, error) {
	return nil, errors.New("not used")
}

func (f *fakeShiftRepo) FindScheduledInWindow(ctx context.Context, employeeID string, from, to time.Time) (*attendance.Shift, error) {
	return nil, errors.New("not used")
}

func (f *fakeShiftRepo) ListByEmployeesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.Shift, error) {
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	var out []attendance.Shift
	for _, sh := range f.shifts {
		if want[sh.EmployeeID] && !sh.PlannedStartAt.Before(from) && sh.PlannedStartAt.Before(to) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) ListByCompanyInRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Shift, error) {
	var out []attendance.Shift
	for _, sh := range f.shifts {
		if sh.CompanyID == companyID && !sh.PlannedStartAt.Before(from) && sh.PlannedStartAt.Before(to) {
			out = append(out, sh)
		}
	}
	return out, nil
}
