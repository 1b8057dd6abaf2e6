package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type violationRuleRepositoryImpl struct {
	db *database.DB
}

const violationRuleColumns = `
	id, company_id, code, name, penalty_percent, is_active, auto_detectable, created_at, updated_at
`

func scanViolationRule(row pgx.Row) (rating.ViolationRule, error) {
	var (
		r       rating.ViolationRule
		penalty int16
	)
	err := row.Scan(&r.ID, &r.CompanyID, &r.Code, &r.Name, &penalty, &r.IsActive, &r.AutoDetectable, &r.CreatedAt, &r.UpdatedAt)
	r.PenaltyPercent = int(penalty)
	return r, err
}

// Create implements rating.ViolationRuleRepository.
func (r *violationRuleRepositoryImpl) Create(ctx context.Context, rule rating.ViolationRule) (rating.ViolationRule, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return rating.ViolationRule{}, fmt.Errorf("failed to generate rule id: %w", err)
	}
	rule.ID = id.String()

	query := `
		INSERT INTO violation_rules (id, company_id, code, name, penalty_percent, is_active, auto_detectable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		rule.ID, rule.CompanyID, rule.Code, rule.Name, rule.PenaltyPercent, rule.IsActive, rule.AutoDetectable,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_violation_rules_code" {
			return rating.ViolationRule{}, rating.ErrRuleCodeExists
		}
		return rating.ViolationRule{}, fmt.Errorf("failed to create violation rule: %w", err)
	}

	return rule, nil
}

// GetByID implements rating.ViolationRuleRepository.
func (r *violationRuleRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (rating.ViolationRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + violationRuleColumns + `
		FROM violation_rules
		WHERE id = $1 AND company_id = $2
	`

	rule, err := scanViolationRule(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.ViolationRule{}, rating.ErrNoActiveRule
		}
		return rating.ViolationRule{}, fmt.Errorf("failed to get violation rule %s: %w", id, err)
	}
	return rule, nil
}

// GetByCode implements rating.ViolationRuleRepository.
func (r *violationRuleRepositoryImpl) GetByCode(ctx context.Context, companyID string, code string) (rating.ViolationRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + violationRuleColumns + `
		FROM violation_rules
		WHERE company_id = $1 AND code = $2
	`

	rule, err := scanViolationRule(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.ViolationRule{}, rating.ErrNoActiveRule
		}
		return rating.ViolationRule{}, fmt.Errorf("failed to get violation rule %s: %w", code, err)
	}
	return rule, nil
}

// ListByCompany implements rating.ViolationRuleRepository.
func (r *violationRuleRepositoryImpl) ListByCompany(ctx context.Context, companyID string) ([]rating.ViolationRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + violationRuleColumns + `
		FROM violation_rules
		WHERE company_id = $1
		ORDER BY code
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violation rules: %w", err)
	}
	defer rows.Close()

	var rules []rating.ViolationRule
	for rows.Next() {
		rule, err := scanViolationRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func NewViolationRuleRepository(db *database.DB) rating.ViolationRuleRepository {
	return &violationRuleRepositoryImpl{db: db}
}
