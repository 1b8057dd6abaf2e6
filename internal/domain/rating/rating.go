package rating

import "time"

const (
	BaseRating = 100
	MinRating  = 0
	MaxRating  = 100
)

type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandLow       Band = "low"
	BandCritical  Band = "critical"
)

// Compute applies penalties and adjustments to the base rating and clamps the
// result to [0, 100]. The clamp only ever happens here, at read time.
func Compute(t Totals) int {
	v := BaseRating - t.Penalty + t.Adjustment
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

// BandFor classifies a rating. Lower bounds are inclusive.
func BandFor(value int) Band {
	switch {
	case value >= 80:
		return BandExcellent
	case value >= 60:
		return BandGood
	case value >= 40:
		return BandLow
	default:
		return BandCritical
	}
}

// TerminationRisk flags a rating at or below zero.
func TerminationRisk(value int) bool {
	return value <= 0
}

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// Bounds converts the period to the half-open instant range
// [start of Start, start of the day after End) in loc.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(p.End.Year(), p.End.Month(), p.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, to
}

// MonthOf returns the calendar month containing t in loc.
func MonthOf(t time.Time, loc *time.Location) Period {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}
