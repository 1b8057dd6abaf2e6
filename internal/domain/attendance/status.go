package attendance

import "time"

// Status is the employee's current attendance state. It is always derived from
// shift and interval rows and never persisted.
type Status string

const (
	StatusOffWork Status = "off_work"
	StatusWorking Status = "working"
	StatusOnBreak Status = "on_break"
	// StatusUnknown means an active shift has no open interval at all.
	StatusUnknown Status = "unknown"
)

// DeriveStatus computes the status from today's active shift (nil when there
// is none) and that shift's intervals.
func DeriveStatus(activeShift *Shift, work []WorkInterval, breaks []BreakInterval) Status {
	if activeShift == nil || activeShift.Status != ShiftStatusActive {
		return StatusOffWork
	}
	if _, ok := OpenBreak(breaks); ok {
		return StatusOnBreak
	}
	if _, ok := OpenWork(work); ok {
		return StatusWorking
	}
	return StatusUnknown
}

// OpenWork returns the open work interval, if any.
func OpenWork(work []WorkInterval) (WorkInterval, bool) {
	for _, w := range work {
		if w.IsOpen() {
			return w, true
		}
	}
	return WorkInterval{}, false
}

// OpenBreak returns the open break interval, if any.
func OpenBreak(breaks []BreakInterval) (BreakInterval, bool) {
	for _, b := range breaks {
		if b.IsOpen() {
			return b, true
		}
	}
	return BreakInterval{}, false
}

// DayWindow returns [start of local day, start of next day) for t in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
