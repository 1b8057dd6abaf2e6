package rating

import (
	"context"
	"time"
)

type ViolationRuleRepository interface {
	Create(ctx context.Context, rule ViolationRule) (ViolationRule, error)
	GetByID(ctx context.Context, id string, companyID string) (ViolationRule, error)
	GetByCode(ctx context.Context, companyID string, code string) (ViolationRule, error)
	ListByCompany(ctx context.Context, companyID string) ([]ViolationRule, error)
}

// ViolationRepository is append-only: there is no update or delete.
type ViolationRepository interface {
	Create(ctx context.Context, violation Violation) (Violation, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Violation, error)
	// SumPenalties totals penalties of violations with occurred_at in [from, to).
	SumPenalties(ctx context.Context, employeeID string, from, to time.Time) (penalty int, count int, err error)
	SumPenaltiesByCompany(ctx context.Context, companyID string, from, to time.Time) (map[string]Totals, error)
}

// AdjustmentRepository is append-only.
type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment Adjustment) (Adjustment, error)
	// SumDeltas totals adjustments whose period lies inside p.
	SumDeltas(ctx context.Context, employeeID string, p Period) (int, error)
	SumDeltasByCompany(ctx context.Context, companyID string, p Period) (map[string]int, error)
}
