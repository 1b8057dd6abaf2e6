package attendance

import (
	"time"
)

type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "scheduled"
	ShiftStatusActive    ShiftStatus = "active"
	ShiftStatusCompleted ShiftStatus = "completed"
)

type Shift struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	ScheduleTemplateID *string
	PlannedStartAt     time.Time
	PlannedEndAt       time.Time
	ActualStartAt      *time.Time
	ActualEndAt        *time.Time
	Status             ShiftStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Interval is a sub-period of a shift. A nil EndAt means it is still open.
type Interval struct {
	ID        string
	ShiftID   string
	StartAt   time.Time
	EndAt     *time.Time
	CreatedAt time.Time
}

func (i Interval) IsOpen() bool {
	return i.EndAt == nil
}

type WorkInterval struct {
	Interval
}

type BreakInterval struct {
	Interval
}
