package employee

import "time"

type Employee struct {
	ID         string
	CompanyID  string
	TelegramID int64
	FullName   string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Timezone of the owning company, joined on read.
	Timezone string
}

// Location resolves the employee's company time zone, falling back to UTC.
func (e Employee) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
