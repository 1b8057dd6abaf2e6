package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type scheduleTemplateRepositoryImpl struct {
	db *database.DB
}

const scheduleTemplateColumns = `
	id, company_id, name, to_char(shift_start, 'HH24:MI'), to_char(shift_end, 'HH24:MI'),
	workdays, created_at, updated_at
`

func parseTimeOfDay(s string) (schedule.TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return schedule.TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return schedule.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func scanScheduleTemplate(row pgx.Row) (schedule.ScheduleTemplate, error) {
	var (
		t          schedule.ScheduleTemplate
		start, end string
		workdays   []int16
	)
	if err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &start, &end, &workdays, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return schedule.ScheduleTemplate{}, err
	}

	var err error
	if t.ShiftStart, err = parseTimeOfDay(start); err != nil {
		return schedule.ScheduleTemplate{}, err
	}
	if t.ShiftEnd, err = parseTimeOfDay(end); err != nil {
		return schedule.ScheduleTemplate{}, err
	}
	t.Workdays = make([]int, 0, len(workdays))
	for _, d := range workdays {
		t.Workdays = append(t.Workdays, int(d))
	}
	return t, nil
}

// Create implements schedule.ScheduleTemplateRepository.
func (r *scheduleTemplateRepositoryImpl) Create(ctx context.Context, template schedule.ScheduleTemplate) (schedule.ScheduleTemplate, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return schedule.ScheduleTemplate{}, fmt.Errorf("failed to generate template id: %w", err)
	}
	template.ID = id.String()

	workdays := make([]int16, 0, len(template.Workdays))
	for _, d := range template.Workdays {
		workdays = append(workdays, int16(d))
	}

	query := `
		INSERT INTO schedule_templates (id, company_id, name, shift_start, shift_end, workdays)
		VALUES ($1, $2, $3, $4::time, $5::time, $6)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		template.ID, template.CompanyID, template.Name,
		template.ShiftStart.String(), template.ShiftEnd.String(), workdays,
	).Scan(&template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return schedule.ScheduleTemplate{}, err
	}

	return template, nil
}

// GetByID implements schedule.ScheduleTemplateRepository.
func (r *scheduleTemplateRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.ScheduleTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + scheduleTemplateColumns + `
		FROM schedule_templates
		WHERE id = $1 AND company_id = $2
	`

	t, err := scanScheduleTemplate(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ScheduleTemplate{}, schedule.ErrScheduleTemplateNotFound
		}
		return schedule.ScheduleTemplate{}, fmt.Errorf("failed to get schedule template %s: %w", id, err)
	}
	return t, nil
}

// ListByCompany implements schedule.ScheduleTemplateRepository.
func (r *scheduleTemplateRepositoryImpl) ListByCompany(ctx context.Context, companyID string) ([]schedule.ScheduleTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + scheduleTemplateColumns + `
		FROM schedule_templates
		WHERE company_id = $1
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule templates: %w", err)
	}
	defer rows.Close()

	var templates []schedule.ScheduleTemplate
	for rows.Next() {
		t, err := scanScheduleTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func NewScheduleTemplateRepository(db *database.DB) schedule.ScheduleTemplateRepository {
	return &scheduleTemplateRepositoryImpl{db: db}
}
