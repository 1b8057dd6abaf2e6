package schedule

import (
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

// MaxGenerationSpanDays bounds a single generation request.
const MaxGenerationSpanDays = 365

// ========================================
// SCHEDULE TEMPLATE DTOs
// ========================================

type CreateScheduleTemplateRequest struct {
	CompanyID  string `json:"-"`
	Name       string `json:"name"`
	ShiftStart string `json:"shift_start"` // HH:MM
	ShiftEnd   string `json:"shift_end"`   // HH:MM
	Workdays   []int  `json:"workdays"`    // 0 = Sunday
}

func (r *CreateScheduleTemplateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if _, ok := validator.IsValidTimeOfDay(r.ShiftStart); !ok {
		errs.Add("shift_start", "shift_start must be in HH:MM format")
	}
	if _, ok := validator.IsValidTimeOfDay(r.ShiftEnd); !ok {
		errs.Add("shift_end", "shift_end must be in HH:MM format")
	}
	if r.ShiftStart != "" && r.ShiftStart == r.ShiftEnd {
		errs.Add("shift_end", "shift_end must differ from shift_start")
	}
	if len(r.Workdays) == 0 {
		errs.Add("workdays", "at least one workday is required")
	}
	for _, d := range r.Workdays {
		if !validator.IsValidWeekday(d) {
			errs.Add("workdays", "workdays must be weekday numbers between 0 (Sunday) and 6 (Saturday)")
			break
		}
	}

	return errs.OrNil()
}

type ScheduleTemplateResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	ShiftStart string `json:"shift_start"`
	ShiftEnd   string `json:"shift_end"`
	Workdays   []int  `json:"workdays"`
}

func NewScheduleTemplateResponse(t ScheduleTemplate) ScheduleTemplateResponse {
	return ScheduleTemplateResponse{
		ID:         t.ID,
		CompanyID:  t.CompanyID,
		Name:       t.Name,
		ShiftStart: t.ShiftStart.String(),
		ShiftEnd:   t.ShiftEnd.String(),
		Workdays:   t.Workdays,
	}
}

// ========================================
// EMPLOYEE SCHEDULE DTOs
// ========================================

type AssignScheduleRequest struct {
	CompanyID  string  `json:"-"`
	EmployeeID string  `json:"-"`
	TemplateID string  `json:"template_id"`
	ValidFrom  string  `json:"valid_from"`         // YYYY-MM-DD
	ValidTo    *string `json:"valid_to,omitempty"` // YYYY-MM-DD, open ended when omitted
}

func (r *AssignScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.TemplateID) {
		errs.Add("template_id", "template_id must be a valid UUID")
	}

	from, fromOK := validator.IsValidDate(r.ValidFrom)
	if !fromOK {
		errs.Add("valid_from", "valid_from must be in YYYY-MM-DD format")
	}
	if r.ValidTo != nil && *r.ValidTo != "" {
		to, ok := validator.IsValidDate(*r.ValidTo)
		if !ok {
			errs.Add("valid_to", "valid_to must be in YYYY-MM-DD format")
		} else if fromOK && to.Before(from) {
			errs.Add("valid_to", "valid_to must not be before valid_from")
		}
	}

	return errs.OrNil()
}

type EmployeeScheduleResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	TemplateID string  `json:"template_id"`
	ValidFrom  string  `json:"valid_from"`
	ValidTo    *string `json:"valid_to,omitempty"`
}

func NewEmployeeScheduleResponse(a EmployeeSchedule) EmployeeScheduleResponse {
	resp := EmployeeScheduleResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		TemplateID: a.TemplateID,
		ValidFrom:  a.ValidFrom.Format(validator.DateLayout),
	}
	if a.ValidTo != nil {
		s := a.ValidTo.Format(validator.DateLayout)
		resp.ValidTo = &s
	}
	return resp
}

// ========================================
// SHIFT GENERATION DTOs
// ========================================

type GenerateShiftsRequest struct {
	CompanyID   string   `json:"-"`
	StartDate   string   `json:"startDate"` // YYYY-MM-DD, inclusive
	EndDate     string   `json:"endDate"`   // YYYY-MM-DD, inclusive
	EmployeeIDs []string `json:"employeeIds,omitempty"`
}

// Validate checks formats and the range bounds. It never touches the store.
func (r *GenerateShiftsRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("startDate", "startDate must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("endDate", "endDate must be in YYYY-MM-DD format")
	}
	for _, id := range r.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs.Add("employeeIds", "employeeIds must contain valid UUIDs")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if end.Before(start) {
		return ErrInvalidDateRange
	}
	if end.Sub(start) > MaxGenerationSpanDays*24*time.Hour {
		return ErrDateRangeTooLarge
	}
	return nil
}

// Dates returns the parsed range. Call after Validate.
func (r *GenerateShiftsRequest) Dates() (time.Time, time.Time) {
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	return start, end
}

type GenerationStats struct {
	EmployeesProcessed       int `json:"employeesProcessed"`
	ShiftsCreated            int `json:"shiftsCreated"`
	EmployeesWithoutSchedule int `json:"employeesWithoutSchedule"`
	SkippedExisting          int `json:"skippedExisting"`
}

type GenerateShiftsResponse struct {
	Shifts []attendance.ShiftResponse `json:"shifts"`
	Stats  GenerationStats            `json:"stats"`
}

// ========================================
// SHIFT LISTING DTOs
// ========================================

type ListShiftsRequest struct {
	CompanyID string
	StartDate string
	EndDate   string
}

func (r *ListShiftsRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("startDate", "startDate must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("endDate", "endDate must be in YYYY-MM-DD format")
	}
	if startOK && endOK {
		if end.Before(start) {
			errs.Add("endDate", "endDate must not be before startDate")
		} else if end.Sub(start) > MaxGenerationSpanDays*24*time.Hour {
			errs.Add("endDate", "range must not exceed 365 days")
		}
	}

	return errs.OrNil()
}

type ShiftListItem = attendance.ShiftResponse
