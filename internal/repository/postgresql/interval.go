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

type intervalRepositoryImpl struct {
	db *database.DB
}

// Both interval tables share one shape; table names below are constants,
// never user input.
const (
	workIntervalsTable  = "work_intervals"
	breakIntervalsTable = "break_intervals"
)

func (r *intervalRepositoryImpl) list(ctx context.Context, table, shiftID string) ([]attendance.Interval, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT id, shift_id, start_at, end_at, created_at
		FROM %s
		WHERE shift_id = $1
		ORDER BY start_at
	`, table)

	rows, err := q.Query(ctx, query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var intervals []attendance.Interval
	for rows.Next() {
		var i attendance.Interval
		if err := rows.Scan(&i.ID, &i.ShiftID, &i.StartAt, &i.EndAt, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		intervals = append(intervals, i)
	}
	return intervals, rows.Err()
}

func (r *intervalRepositoryImpl) open(ctx context.Context, table, shiftID string, at time.Time) (attendance.Interval, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Interval{}, fmt.Errorf("failed to generate interval id: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, shift_id, start_at)
		VALUES ($1, $2, $3)
		RETURNING id, shift_id, start_at, end_at, created_at
	`, table)

	var i attendance.Interval
	err = q.QueryRow(ctx, query, id.String(), shiftID, at).Scan(&i.ID, &i.ShiftID, &i.StartAt, &i.EndAt, &i.CreatedAt)
	if err != nil {
		return attendance.Interval{}, fmt.Errorf("failed to open %s row: %w", table, err)
	}
	return i, nil
}

func (r *intervalRepositoryImpl) closeOpen(ctx context.Context, table, shiftID string, at time.Time) (*attendance.Interval, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s
		SET end_at = $2
		WHERE shift_id = $1 AND end_at IS NULL
		RETURNING id, shift_id, start_at, end_at, created_at
	`, table)

	var i attendance.Interval
	err := q.QueryRow(ctx, query, shiftID, at).Scan(&i.ID, &i.ShiftID, &i.StartAt, &i.EndAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to close %s row: %w", table, err)
	}
	return &i, nil
}

// ListWork implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) ListWork(ctx context.Context, shiftID string) ([]attendance.WorkInterval, error) {
	rows, err := r.list(ctx, workIntervalsTable, shiftID)
	if err != nil {
		return nil, err
	}
	work := make([]attendance.WorkInterval, 0, len(rows))
	for _, i := range rows {
		work = append(work, attendance.WorkInterval{Interval: i})
	}
	return work, nil
}

// ListBreaks implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) ListBreaks(ctx context.Context, shiftID string) ([]attendance.BreakInterval, error) {
	rows, err := r.list(ctx, breakIntervalsTable, shiftID)
	if err != nil {
		return nil, err
	}
	breaks := make([]attendance.BreakInterval, 0, len(rows))
	for _, i := range rows {
		breaks = append(breaks, attendance.BreakInterval{Interval: i})
	}
	return breaks, nil
}

// OpenWork implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) OpenWork(ctx context.Context, shiftID string, at time.Time) (attendance.WorkInterval, error) {
	i, err := r.open(ctx, workIntervalsTable, shiftID, at)
	return attendance.WorkInterval{Interval: i}, err
}

// OpenBreak implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) OpenBreak(ctx context.Context, shiftID string, at time.Time) (attendance.BreakInterval, error) {
	i, err := r.open(ctx, breakIntervalsTable, shiftID, at)
	return attendance.BreakInterval{Interval: i}, err
}

// CloseOpenWork implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) CloseOpenWork(ctx context.Context, shiftID string, at time.Time) (*attendance.WorkInterval, error) {
	i, err := r.closeOpen(ctx, workIntervalsTable, shiftID, at)
	if err != nil || i == nil {
		return nil, err
	}
	return &attendance.WorkInterval{Interval: *i}, nil
}

// CloseOpenBreak implements attendance.IntervalRepository.
func (r *intervalRepositoryImpl) CloseOpenBreak(ctx context.Context, shiftID string, at time.Time) (*attendance.BreakInterval, error) {
	i, err := r.closeOpen(ctx, breakIntervalsTable, shiftID, at)
	if err != nil || i == nil {
		return nil, err
	}
	return &attendance.BreakInterval{Interval: *i}, nil
}

func NewIntervalRepository(db *database.DB) attendance.IntervalRepository {
	return &intervalRepositoryImpl{db: db}
}
