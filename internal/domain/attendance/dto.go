package attendance

import (
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

// ActionRequest is the body of every attendance command sent by the client.
type ActionRequest struct {
	TelegramID int64 `json:"telegramId"`
}

func (r *ActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.TelegramID <= 0 {
		errs.Add("telegramId", "telegramId is required")
	}

	return errs.OrNil()
}

type EmployeeResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
}

type ShiftResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	PlannedStartAt string  `json:"planned_start_at"`
	PlannedEndAt   string  `json:"planned_end_at"`
	ActualStartAt  *string `json:"actual_start_at,omitempty"`
	ActualEndAt    *string `json:"actual_end_at,omitempty"`
	Status         string  `json:"status"`
}

type IntervalResponse struct {
	ID      string  `json:"id"`
	ShiftID string  `json:"shift_id"`
	StartAt string  `json:"start_at"`
	EndAt   *string `json:"end_at,omitempty"`
}

type EmployeeStateResponse struct {
	Employee       EmployeeResponse   `json:"employee"`
	ActiveShift    *ShiftResponse     `json:"activeShift"`
	WorkIntervals  []IntervalResponse `json:"workIntervals"`
	BreakIntervals []IntervalResponse `json:"breakIntervals"`
	Status         Status             `json:"status"`
}

type StartShiftResponse struct {
	Shift        ShiftResponse    `json:"shift"`
	WorkInterval IntervalResponse `json:"workInterval"`
}

type EndShiftResponse struct {
	Shift ShiftResponse `json:"shift"`
}

type StartBreakResponse struct {
	BreakInterval IntervalResponse `json:"breakInterval"`
}

type EndBreakResponse struct {
	WorkInterval IntervalResponse `json:"workInterval"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:             s.ID,
		EmployeeID:     s.EmployeeID,
		PlannedStartAt: formatTime(s.PlannedStartAt),
		PlannedEndAt:   formatTime(s.PlannedEndAt),
		ActualStartAt:  formatTimePtr(s.ActualStartAt),
		ActualEndAt:    formatTimePtr(s.ActualEndAt),
		Status:         string(s.Status),
	}
}

func NewIntervalResponse(i Interval) IntervalResponse {
	return IntervalResponse{
		ID:      i.ID,
		ShiftID: i.ShiftID,
		StartAt: formatTime(i.StartAt),
		EndAt:   formatTimePtr(i.EndAt),
	}
}
