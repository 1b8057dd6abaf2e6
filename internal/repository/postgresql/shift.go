package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

const shiftColumns = `
	id, company_id, employee_id, schedule_template_id,
	planned_start_at, planned_end_at, actual_start_at, actual_end_at,
	status, created_at, updated_at
`

func scanShift(row pgx.Row) (attendance.Shift, error) {
	var s attendance.Shift
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.ScheduleTemplateID,
		&s.PlannedStartAt, &s.PlannedEndAt, &s.ActualStartAt, &s.ActualEndAt,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func scanShifts(rows pgx.Rows) ([]attendance.Shift, error) {
	defer rows.Close()

	var shifts []attendance.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Create implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, shift attendance.Shift) (attendance.Shift, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Shift{}, fmt.Errorf("failed to generate shift id: %w", err)
	}
	shift.ID = id.String()

	query := `
		INSERT INTO shifts (
			id, company_id, employee_id, schedule_template_id,
			planned_start_at, planned_end_at, actual_start_at, actual_end_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		shift.ID, shift.CompanyID, shift.EmployeeID, shift.ScheduleTemplateID,
		shift.PlannedStartAt, shift.PlannedEndAt, shift.ActualStartAt, shift.ActualEndAt, shift.Status,
	).Scan(&shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		return attendance.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return shift, nil
}

// CreateBatch implements attendance.ShiftRepository. Callers run it inside a
// transaction so a failure leaves no partial batch behind.
func (r *shiftRepositoryImpl) CreateBatch(ctx context.Context, shifts []attendance.Shift) ([]attendance.Shift, error) {
	created := make([]attendance.Shift, 0, len(shifts))
	for _, s := range shifts {
		c, err := r.Create(ctx, s)
		if err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	return created, nil
}

// Update implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, shift attendance.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET actual_start_at = $2,
			actual_end_at = $3,
			status = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, shift.ID, shift.ActualStartAt, shift.ActualEndAt, shift.Status)
	if err != nil {
		return fmt.Errorf("failed to update shift %s: %w", shift.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shift %s not found", shift.ID)
	}
	return nil
}

// FindActive implements attendance.ShiftRepository. FOR UPDATE serializes
// transitions that reach the row through different application instances.
func (r *shiftRepositoryImpl) FindActive(ctx context.Context, employeeID string) (*attendance.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE employee_id = $1
		  AND status = $2
		LIMIT 1
		FOR UPDATE
	`

	s, err := scanShift(q.QueryRow(ctx, query, employeeID, attendance.ShiftStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active shift: %w", err)
	}
	return &s, nil
}

// FindScheduledInWindow implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) FindScheduledInWindow(ctx context.Context, employeeID string, from, to time.Time) (*attendance.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE employee_id = $1
		  AND status = $2
		  AND planned_start_at >= $3
		  AND planned_start_at < $4
		ORDER BY planned_start_at
		LIMIT 1
		FOR UPDATE
	`

	s, err := scanShift(q.QueryRow(ctx, query, employeeID, attendance.ShiftStatusScheduled, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find scheduled shift: %w", err)
	}
	return &s, nil
}

// ListStaleActive implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) ListStaleActive(ctx context.Context, endedBefore time.Time) ([]attendance.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE status = $1
		  AND planned_end_at < $2
		ORDER BY planned_end_at
	`

	rows, err := q.Query(ctx, query, attendance.ShiftStatusActive, endedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale shifts: %w", err)
	}
	return scanShifts(rows)
}

// ListByEmployeesInRange implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) ListByEmployeesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]attendance.Shift, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE employee_id = ANY($1::uuid[])
		  AND planned_start_at >= $2
		  AND planned_start_at < $3
		ORDER BY employee_id, planned_start_at
	`

	rows, err := q.Query(ctx, query, employeeIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return scanShifts(rows)
}

// ListByCompanyInRange implements attendance.ShiftRepository.
func (r *shiftRepositoryImpl) ListByCompanyInRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE company_id = $1
		  AND planned_start_at >= $2
		  AND planned_start_at < $3
		ORDER BY planned_start_at, employee_id
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts of company %s: %w", companyID, err)
	}
	return scanShifts(rows)
}

func NewShiftRepository(db *database.DB) attendance.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}
