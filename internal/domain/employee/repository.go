package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (Employee, error)
	// ListByCompany returns active employees of a company. A non-empty ids
	// slice narrows the result to those employees.
	ListByCompany(ctx context.Context, companyID string, ids []string) ([]Employee, error)
}
