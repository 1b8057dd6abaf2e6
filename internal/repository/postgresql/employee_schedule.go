package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type employeeScheduleRepositoryImpl struct {
	db *database.DB
}

// Create implements schedule.EmployeeScheduleRepository. An overlapping
// window surfaces as the no_overlapping_schedules exclusion violation.
func (r *employeeScheduleRepositoryImpl) Create(ctx context.Context, assignment schedule.EmployeeSchedule) (schedule.EmployeeSchedule, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return schedule.EmployeeSchedule{}, fmt.Errorf("failed to generate assignment id: %w", err)
	}
	assignment.ID = id.String()

	query := `
		INSERT INTO employee_schedules (id, employee_id, template_id, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err = q.QueryRow(ctx, query,
		assignment.ID, assignment.EmployeeID, assignment.TemplateID,
		assignment.ValidFrom, assignment.ValidTo,
	).Scan(&assignment.CreatedAt)
	if err != nil {
		return schedule.EmployeeSchedule{}, err
	}

	return assignment, nil
}

// ListOverlapping implements schedule.EmployeeScheduleRepository.
func (r *employeeScheduleRepositoryImpl) ListOverlapping(ctx context.Context, employeeIDs []string, from, to time.Time) ([]schedule.EmployeeSchedule, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT es.id, es.employee_id, es.template_id, es.valid_from, es.valid_to, es.created_at,
			   ` + scheduleTemplateColumnsAliased + `
		FROM employee_schedules es
		JOIN schedule_templates st ON st.id = es.template_id
		WHERE es.employee_id = ANY($1::uuid[])
		  AND es.valid_from <= $3
		  AND (es.valid_to IS NULL OR es.valid_to >= $2)
		ORDER BY es.employee_id, es.valid_from
	`

	rows, err := q.Query(ctx, query, employeeIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee schedules: %w", err)
	}
	defer rows.Close()

	var assignments []schedule.EmployeeSchedule
	for rows.Next() {
		var (
			a          schedule.EmployeeSchedule
			start, end string
			workdays   []int16
		)
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.TemplateID, &a.ValidFrom, &a.ValidTo, &a.CreatedAt,
			&a.Template.ID, &a.Template.CompanyID, &a.Template.Name, &start, &end,
			&workdays, &a.Template.CreatedAt, &a.Template.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee schedule: %w", err)
		}
		if a.Template.ShiftStart, err = parseTimeOfDay(start); err != nil {
			return nil, err
		}
		if a.Template.ShiftEnd, err = parseTimeOfDay(end); err != nil {
			return nil, err
		}
		for _, d := range workdays {
			a.Template.Workdays = append(a.Template.Workdays, int(d))
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

const scheduleTemplateColumnsAliased = `
	st.id, st.company_id, st.name, to_char(st.shift_start, 'HH24:MI'), to_char(st.shift_end, 'HH24:MI'),
	st.workdays, st.created_at, st.updated_at
`

func NewEmployeeScheduleRepository(db *database.DB) schedule.EmployeeScheduleRepository {
	return &employeeScheduleRepositoryImpl{db: db}
}
