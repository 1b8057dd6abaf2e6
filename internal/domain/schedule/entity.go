package schedule

import (
	"sort"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored as minutes since midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}

// On combines the time of day with a calendar date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// ScheduleTemplate is a recurring weekly rule. Workdays holds weekday numbers,
// 0 = Sunday, and is never empty.
type ScheduleTemplate struct {
	ID         string
	CompanyID  string
	Name       string
	ShiftStart TimeOfDay
	ShiftEnd   TimeOfDay
	Workdays   []int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t ScheduleTemplate) WorksOn(day time.Weekday) bool {
	for _, d := range t.Workdays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// PlannedTimes returns the planned start and end of a shift on date. A shift
// whose end is not after its start finishes on the following day.
func (t ScheduleTemplate) PlannedTimes(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := t.ShiftStart.On(date, loc)
	end := t.ShiftEnd.On(date, loc)
	if t.ShiftEnd.Minutes() <= t.ShiftStart.Minutes() {
		end = t.ShiftEnd.On(date.AddDate(0, 0, 1), loc)
	}
	return start, end
}

// NormalizeWorkdays sorts and de-duplicates weekday numbers.
func NormalizeWorkdays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// EmployeeSchedule assigns a template to an employee for a validity window.
// A nil ValidTo means open ended.
type EmployeeSchedule struct {
	ID         string
	EmployeeID string
	TemplateID string
	ValidFrom  time.Time
	ValidTo    *time.Time
	CreatedAt  time.Time

	Template ScheduleTemplate
}

// ValidOn reports whether the assignment applies on the calendar date d.
func (a EmployeeSchedule) ValidOn(d time.Time) bool {
	day := dateOnly(d)
	if dateOnly(a.ValidFrom).After(day) {
		return false
	}
	return a.ValidTo == nil || !dateOnly(*a.ValidTo).Before(day)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
