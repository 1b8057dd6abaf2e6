package rating

import "time"

type ViolationSource string

const (
	SourceManual ViolationSource = "manual"
	SourceAuto   ViolationSource = "auto"
)

var ViolationSourceValues = []string{string(SourceManual), string(SourceAuto)}

type ViolationRule struct {
	ID             string
	CompanyID      string
	Code           string
	Name           string
	PenaltyPercent int
	IsActive       bool
	AutoDetectable bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Violation is append-only. PenaltyPercent is copied from the rule when the
// violation is recorded so later rule edits leave history untouched.
type Violation struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	RuleID         string
	Source         ViolationSource
	Reason         *string
	PenaltyPercent int
	OccurredAt     time.Time
	CreatedAt      time.Time

	// DTO
	RuleCode *string
}

// Adjustment is a manual rating change scoped to a period. Append-only.
type Adjustment struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Delta       int
	PeriodStart time.Time
	PeriodEnd   time.Time
	Reason      *string
	CreatedAt   time.Time
}

// Totals aggregates one employee's violations and adjustments for a period.
type Totals struct {
	Penalty        int
	ViolationCount int
	Adjustment     int
}
