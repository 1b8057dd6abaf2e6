package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type ratingAdjustmentRepositoryImpl struct {
	db *database.DB
}

// Create implements rating.AdjustmentRepository.
func (r *ratingAdjustmentRepositoryImpl) Create(ctx context.Context, a rating.Adjustment) (rating.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return rating.Adjustment{}, fmt.Errorf("failed to generate adjustment id: %w", err)
	}
	a.ID = id.String()

	query := `
		INSERT INTO rating_adjustments (id, company_id, employee_id, delta, period_start, period_end, reason)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, $7)
		RETURNING created_at
	`

	err = q.QueryRow(ctx, query,
		a.ID, a.CompanyID, a.EmployeeID, a.Delta, a.PeriodStart, a.PeriodEnd, a.Reason,
	).Scan(&a.CreatedAt)
	if err != nil {
		return rating.Adjustment{}, fmt.Errorf("failed to create rating adjustment: %w", err)
	}

	return a, nil
}

// SumDeltas implements rating.AdjustmentRepository.
func (r *ratingAdjustmentRepositoryImpl) SumDeltas(ctx context.Context, employeeID string, p rating.Period) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(delta), 0)::int
		FROM rating_adjustments
		WHERE employee_id = $1
		  AND period_start >= $2::date
		  AND period_end <= $3::date
	`

	var sum int
	if err := q.QueryRow(ctx, query, employeeID, p.Start, p.End).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum rating adjustments: %w", err)
	}
	return sum, nil
}

// SumDeltasByCompany implements rating.AdjustmentRepository.
func (r *ratingAdjustmentRepositoryImpl) SumDeltasByCompany(ctx context.Context, companyID string, p rating.Period) (map[string]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, COALESCE(SUM(delta), 0)::int
		FROM rating_adjustments
		WHERE company_id = $1
		  AND period_start >= $2::date
		  AND period_end <= $3::date
		GROUP BY employee_id
	`

	rows, err := q.Query(ctx, query, companyID, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("failed to sum company rating adjustments: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]int)
	for rows.Next() {
		var (
			employeeID string
			sum        int
		)
		if err := rows.Scan(&employeeID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment totals: %w", err)
		}
		sums[employeeID] = sum
	}
	return sums, rows.Err()
}

func NewRatingAdjustmentRepository(db *database.DB) rating.AdjustmentRepository {
	return &ratingAdjustmentRepositoryImpl{db: db}
}
