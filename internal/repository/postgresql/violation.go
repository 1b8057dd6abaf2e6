package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type violationRepositoryImpl struct {
	db *database.DB
}

// Create implements rating.ViolationRepository.
func (r *violationRepositoryImpl) Create(ctx context.Context, v rating.Violation) (rating.Violation, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return rating.Violation{}, fmt.Errorf("failed to generate violation id: %w", err)
	}
	v.ID = id.String()

	query := `
		INSERT INTO violations (id, company_id, employee_id, rule_id, source, reason, penalty_percent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = q.QueryRow(ctx, query,
		v.ID, v.CompanyID, v.EmployeeID, v.RuleID, v.Source, v.Reason, v.PenaltyPercent, v.OccurredAt,
	).Scan(&v.CreatedAt)
	if err != nil {
		return rating.Violation{}, fmt.Errorf("failed to create violation: %w", err)
	}

	return v, nil
}

// ListByEmployee implements rating.ViolationRepository.
func (r *violationRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]rating.Violation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT v.id, v.company_id, v.employee_id, v.rule_id, v.source, v.reason,
			   v.penalty_percent, v.occurred_at, v.created_at, vr.code
		FROM violations v
		JOIN violation_rules vr ON vr.id = v.rule_id
		WHERE v.employee_id = $1
		  AND v.occurred_at >= $2
		  AND v.occurred_at < $3
		ORDER BY v.occurred_at
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var violations []rating.Violation
	for rows.Next() {
		var (
			v       rating.Violation
			penalty int16
		)
		err := rows.Scan(
			&v.ID, &v.CompanyID, &v.EmployeeID, &v.RuleID, &v.Source, &v.Reason,
			&penalty, &v.OccurredAt, &v.CreatedAt, &v.RuleCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.PenaltyPercent = int(penalty)
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// SumPenalties implements rating.ViolationRepository. Inactive rules still
// count: the penalty was snapshotted when the violation was recorded.
func (r *violationRepositoryImpl) SumPenalties(ctx context.Context, employeeID string, from, to time.Time) (int, int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(penalty_percent), 0)::int, COUNT(*)::int
		FROM violations
		WHERE employee_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
	`

	var penalty, count int
	if err := q.QueryRow(ctx, query, employeeID, from, to).Scan(&penalty, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to sum penalties: %w", err)
	}
	return penalty, count, nil
}

// SumPenaltiesByCompany implements rating.ViolationRepository.
func (r *violationRepositoryImpl) SumPenaltiesByCompany(ctx context.Context, companyID string, from, to time.Time) (map[string]rating.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, COALESCE(SUM(penalty_percent), 0)::int, COUNT(*)::int
		FROM violations
		WHERE company_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		GROUP BY employee_id
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum company penalties: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]rating.Totals)
	for rows.Next() {
		var (
			employeeID string
			t          rating.Totals
		)
		if err := rows.Scan(&employeeID, &t.Penalty, &t.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan penalty totals: %w", err)
		}
		totals[employeeID] = t
	}
	return totals, rows.Err()
}

func NewViolationRepository(db *database.DB) rating.ViolationRepository {
	return &violationRepositoryImpl{db: db}
}
