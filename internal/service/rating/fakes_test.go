package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
)

type fakeCompanyRepo struct {
	companies map[string]company.Company
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) List(ctx context.Context) ([]company.Company, error) {
	out := make([]company.Company, 0, len(f.companies))
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetByTelegramID(ctx context.Context, telegramID int64) (employee.Employee, error) {
	return employee.Employee{}, errors.New("not used")
}

func (f *fakeEmployeeRepo) ListByCompany(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID == companyID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRuleRepo struct {
	rules []rating.ViolationRule
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule rating.ViolationRule) (rating.ViolationRule, error) {
	for _, r := range f.rules {
		if r.CompanyID == rule.CompanyID && r.Code == rule.Code {
			return rating.ViolationRule{}, rating.ErrRuleCodeExists
		}
	}
	rule.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", len(f.rules)+900)
	f.rules = append(f.rules, rule)
	return rule, nil
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id string, companyID string) (rating.ViolationRule, error) {
	for _, r := range f.rules {
		if r.ID == id && r.CompanyID == companyID {
			return r, nil
		}
	}
	return rating.ViolationRule{}, rating.ErrNoActiveRule
}

func (f *fakeRuleRepo) GetByCode(ctx context.Context, companyID string, code string) (rating.ViolationRule, error) {
	for _, r := range f.rules {
		if r.Code == code && r.CompanyID == companyID {
			return r, nil
		}
	}
	return rating.ViolationRule{}, rating.ErrNoActiveRule
}

func (f *fakeRuleRepo) ListByCompany(ctx context.Context, companyID string) ([]rating.ViolationRule, error) {
	var out []rating.ViolationRule
	for _, r := range f.rules {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeViolationRepo struct {
	mu         sync.Mutex
	violations []rating.Violation
	sumCalls   int
	// gate, when set, blocks SumPenalties until closed.
	gate chan struct{}
}

func (f *fakeViolationRepo) Create(ctx context.Context, v rating.Violation) (rating.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = fmt.Sprintf("v-%d", len(f.violations)+1)
	v.CreatedAt = v.OccurredAt
	f.violations = append(f.violations, v)
	return v, nil
}

func (f *fakeViolationRepo) inRange(v rating.Violation, from, to time.Time) bool {
	return !v.OccurredAt.Before(from) && v.OccurredAt.Before(to)
}

func (f *fakeViolationRepo) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]rating.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rating.Violation
	for _, v := range f.violations {
		if v.EmployeeID == employeeID && f.inRange(v, from, to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeViolationRepo) SumPenalties(ctx context.Context, employeeID string, from, to time.Time) (int, int, error) {
	if f.gate != nil {
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sumCalls++
	penalty, count := 0, 0
	for _, v := range f.violations {
		if v.EmployeeID == employeeID && f.inRange(v, from, to) {
			penalty += v.PenaltyPercent
			count++
		}
	}
	return penalty, count, nil
}

func (f *fakeViolationRepo) SumPenaltiesByCompany(ctx context.Context, companyID string, from, to time.Time) (map[string]rating.Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]rating.Totals)
	for _, v := range f.violations {
		if v.CompanyID == companyID && f.inRange(v, from, to) {
			t := out[v.EmployeeID]
			t.Penalty += v.PenaltyPercent
			t.ViolationCount++
			out[v.EmployeeID] = t
		}
	}
	return out, nil
}

type fakeAdjustmentRepo struct {
	adjustments []rating.Adjustment
}

func (f *fakeAdjustmentRepo) Create(ctx context.Context, a rating.Adjustment) (rating.Adjustment, error) {
	a.ID = fmt.Sprintf("a-%d", len(f.adjustments)+1)
	f.adjustments = append(f.adjustments, a)
	return a, nil
}

func inside(a rating.Adjustment, p rating.Period) bool {
	return !a.PeriodStart.Before(p.Start) && !a.PeriodEnd.After(p.End)
}

func (f *fakeAdjustmentRepo) SumDeltas(ctx context.Context, employeeID string, p rating.Period) (int, error) {
	total := 0
	for _, a := range f.adjustments {
		if a.EmployeeID == employeeID && inside(a, p) {
			total += a.Delta
		}
	}
	return total, nil
}

func (f *fakeAdjustmentRepo) SumDeltasByCompany(ctx context.Context, companyID string, p rating.Period) (map[string]int, error) {
	out := make(map[string]int)
	for _, a := range f.adjustments {
		if a.CompanyID == companyID && inside(a, p) {
			out[a.EmployeeID] += a.Delta
		}
	}
	return out, nil
}
