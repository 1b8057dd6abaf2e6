package rating

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
	"golang.org/x/sync/singleflight"
)

type ratingServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	companyRepo    company.CompanyRepository
	ruleRepo       rating.ViolationRuleRepository
	violationRepo  rating.ViolationRepository
	adjustmentRepo rating.AdjustmentRepository

	// reads coalesces identical concurrent rating reads.
	reads singleflight.Group
	now   func() time.Time
}

// employeeInCompany loads an employee and hides employees of other companies.
func (s *ratingServiceImpl) employeeInCompany(ctx context.Context, employeeID, companyID string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if emp.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *ratingServiceImpl) computeView(ctx context.Context, emp employee.Employee, p rating.Period) (rating.RatingView, error) {
	from, to := p.Bounds(emp.Location())

	penalty, count, err := s.violationRepo.SumPenalties(ctx, emp.ID, from, to)
	if err != nil {
		return rating.RatingView{}, fmt.Errorf("failed to sum penalties: %w", err)
	}
	adjustment, err := s.adjustmentRepo.SumDeltas(ctx, emp.ID, p)
	if err != nil {
		return rating.RatingView{}, fmt.Errorf("failed to sum adjustments: %w", err)
	}

	return rating.NewRatingView(emp.ID, emp.FullName, p, rating.Totals{
		Penalty:        penalty,
		ViolationCount: count,
		Adjustment:     adjustment,
	}), nil
}

// ComputeRating implements rating.RatingService.
func (s *ratingServiceImpl) ComputeRating(ctx context.Context, req rating.GetRatingRequest) (rating.RatingView, error) {
	if err := req.Validate(); err != nil {
		return rating.RatingView{}, err
	}

	emp, err := s.employeeInCompany(ctx, req.EmployeeID, req.CompanyID)
	if err != nil {
		return rating.RatingView{}, err
	}
	p := req.Period(s.now(), emp.Location())

	key := fmt.Sprintf("employee:%s:%s:%s", emp.ID, p.Start.Format(validator.DateLayout), p.End.Format(validator.DateLayout))
	// The shared read must outlive any one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.reads.Do(key, func() (interface{}, error) {
		return s.computeView(shared, emp, p)
	})
	if err != nil {
		return rating.RatingView{}, err
	}
	return v.(rating.RatingView), nil
}

// ListCompanyRatings implements rating.RatingService.
func (s *ratingServiceImpl) ListCompanyRatings(ctx context.Context, req rating.ListCompanyRatingsRequest) ([]rating.RatingView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comp, err := s.companyRepo.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	loc := comp.Location()
	p := req.Period(s.now(), loc)

	key := fmt.Sprintf("company:%s:%s:%s", comp.ID, p.Start.Format(validator.DateLayout), p.End.Format(validator.DateLayout))
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.reads.Do(key, func() (interface{}, error) {
		employees, err := s.employeeRepo.ListByCompany(shared, comp.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list employees: %w", err)
		}

		from, to := p.Bounds(loc)
		penalties, err := s.violationRepo.SumPenaltiesByCompany(shared, comp.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to sum penalties: %w", err)
		}
		adjustments, err := s.adjustmentRepo.SumDeltasByCompany(shared, comp.ID, p)
		if err != nil {
			return nil, fmt.Errorf("failed to sum adjustments: %w", err)
		}

		views := make([]rating.RatingView, 0, len(employees))
		for _, emp := range employees {
			totals := penalties[emp.ID]
			totals.Adjustment = adjustments[emp.ID]
			views = append(views, rating.NewRatingView(emp.ID, emp.FullName, p, totals))
		}
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]rating.RatingView), nil
}

// ExportCompanyRatings implements rating.RatingService.
func (s *ratingServiceImpl) ExportCompanyRatings(ctx context.Context, req rating.ListCompanyRatingsRequest) (*bytes.Buffer, string, error) {
	views, err := s.ListCompanyRatings(ctx, req)
	if err != nil {
		return nil, "", err
	}

	var periodStart, periodEnd string
	if len(views) > 0 {
		periodStart, periodEnd = views[0].PeriodStart, views[0].PeriodEnd
	} else {
		comp, err := s.companyRepo.GetByID(ctx, req.CompanyID)
		if err != nil {
			return nil, "", err
		}
		p := req.Period(s.now(), comp.Location())
		periodStart, periodEnd = p.Start.Format(validator.DateLayout), p.End.Format(validator.DateLayout)
	}

	rows := make([][]interface{}, 0, len(views))
	for _, v := range views {
		risk := "no"
		if v.TerminationRisk {
			risk = "yes"
		}
		rows = append(rows, []interface{}{
			v.EmployeeName, v.Rating, string(v.Band), v.ViolationCount, v.PenaltyTotal, v.AdjustmentTotal, risk,
		})
	}

	buf, err := export.WriteXLSX(export.Table{
		Sheet:   "Ratings",
		Title:   fmt.Sprintf("Discipline ratings %s to %s", periodStart, periodEnd),
		Headers: []string{"Employee", "Rating", "Band", "Violations", "Penalty %", "Adjustment", "Termination risk"},
		Widths:  []float64{30, 10, 12, 12, 12, 12, 18},
		Rows:    rows,
	})
	if err != nil {
		slog.Error("failed to render rating export", "company_id", req.CompanyID, "error", err)
		return nil, "", err
	}

	filename := fmt.Sprintf("ratings_%s_%s.xlsx", periodStart, periodEnd)
	return buf, filename, nil
}

// AddViolation implements rating.RatingService.
func (s *ratingServiceImpl) AddViolation(ctx context.Context, req rating.CreateViolationRequest) (rating.ViolationResponse, error) {
	if err := req.Validate(); err != nil {
		return rating.ViolationResponse{}, err
	}
	if req.ScopeCompanyID != "" && req.CompanyID != req.ScopeCompanyID {
		return rating.ViolationResponse{}, company.ErrCompanyMismatch
	}

	emp, err := s.employeeInCompany(ctx, req.EmployeeID, req.CompanyID)
	if err != nil {
		return rating.ViolationResponse{}, err
	}

	rule, err := s.ruleRepo.GetByID(ctx, req.RuleID, req.CompanyID)
	if err != nil {
		return rating.ViolationResponse{}, err
	}

	source := rating.ViolationSource(req.Source)
	v, err := s.appendViolation(ctx, emp, rule, source, req.Reason, s.now())
	if err != nil {
		return rating.ViolationResponse{}, err
	}
	return rating.NewViolationResponse(v), nil
}

// RecordAutoViolation implements rating.RatingService and lets the
// attendance state machine raise violations it detects.
func (s *ratingServiceImpl) RecordAutoViolation(ctx context.Context, companyID, employeeID, ruleCode, reason string, at time.Time) error {
	emp, err := s.employeeInCompany(ctx, employeeID, companyID)
	if err != nil {
		return err
	}
	rule, err := s.ruleRepo.GetByCode(ctx, companyID, ruleCode)
	if err != nil {
		return err
	}

	v, err := s.appendViolation(ctx, emp, rule, rating.SourceAuto, &reason, at)
	if err != nil {
		return err
	}
	slog.Info("auto violation recorded", "employee_id", emp.ID, "rule_code", rule.Code, "violation_id", v.ID)
	return nil
}

func (s *ratingServiceImpl) appendViolation(ctx context.Context, emp employee.Employee, rule rating.ViolationRule, source rating.ViolationSource, reason *string, at time.Time) (rating.Violation, error) {
	if !rule.IsActive {
		return rating.Violation{}, rating.ErrNoActiveRule
	}
	if source == rating.SourceAuto && !rule.AutoDetectable {
		return rating.Violation{}, rating.ErrRuleNotAutoDetectable
	}

	v, err := s.violationRepo.Create(ctx, rating.Violation{
		CompanyID:      emp.CompanyID,
		EmployeeID:     emp.ID,
		RuleID:         rule.ID,
		Source:         source,
		Reason:         reason,
		PenaltyPercent: rule.PenaltyPercent,
		OccurredAt:     at,
	})
	if err != nil {
		return rating.Violation{}, err
	}
	code := rule.Code
	v.RuleCode = &code
	return v, nil
}

// ListViolations implements rating.RatingService.
func (s *ratingServiceImpl) ListViolations(ctx context.Context, req rating.GetRatingRequest) ([]rating.ViolationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	emp, err := s.employeeInCompany(ctx, req.EmployeeID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	from, to := req.Period(s.now(), emp.Location()).Bounds(emp.Location())

	violations, err := s.violationRepo.ListByEmployee(ctx, emp.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	resp := make([]rating.ViolationResponse, 0, len(violations))
	for _, v := range violations {
		resp = append(resp, rating.NewViolationResponse(v))
	}
	return resp, nil
}

// AdjustRating implements rating.RatingService. The returned view is
// computed after the write and never shared with in-flight reads.
func (s *ratingServiceImpl) AdjustRating(ctx context.Context, req rating.AdjustRatingRequest) (rating.RatingView, error) {
	if err := req.Validate(); err != nil {
		return rating.RatingView{}, err
	}

	emp, err := s.employeeInCompany(ctx, req.EmployeeID, req.CompanyID)
	if err != nil {
		return rating.RatingView{}, err
	}
	p := req.Period()

	if _, err := s.adjustmentRepo.Create(ctx, rating.Adjustment{
		CompanyID:   emp.CompanyID,
		EmployeeID:  emp.ID,
		Delta:       req.Delta,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		Reason:      req.Reason,
	}); err != nil {
		return rating.RatingView{}, err
	}

	return s.computeView(ctx, emp, p)
}

// CreateRule implements rating.RatingService.
func (s *ratingServiceImpl) CreateRule(ctx context.Context, req rating.CreateViolationRuleRequest) (rating.ViolationRuleResponse, error) {
	if err := req.Validate(); err != nil {
		return rating.ViolationRuleResponse{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule, err := s.ruleRepo.Create(ctx, rating.ViolationRule{
		CompanyID:      req.CompanyID,
		Code:           req.Code,
		Name:           req.Name,
		PenaltyPercent: req.PenaltyPercent,
		IsActive:       isActive,
		AutoDetectable: req.AutoDetectable,
	})
	if err != nil {
		return rating.ViolationRuleResponse{}, err
	}
	return rating.NewViolationRuleResponse(rule), nil
}

// ListRules implements rating.RatingService.
func (s *ratingServiceImpl) ListRules(ctx context.Context, companyID string) ([]rating.ViolationRuleResponse, error) {
	rules, err := s.ruleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]rating.ViolationRuleResponse, 0, len(rules))
	for _, r := range rules {
		resp = append(resp, rating.NewViolationRuleResponse(r))
	}
	return resp, nil
}

func NewRatingService(
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	ruleRepo rating.ViolationRuleRepository,
	violationRepo rating.ViolationRepository,
	adjustmentRepo rating.AdjustmentRepository,
) rating.RatingService {
	return &ratingServiceImpl{
		employeeRepo:   employeeRepo,
		companyRepo:    companyRepo,
		ruleRepo:       ruleRepo,
		violationRepo:  violationRepo,
		adjustmentRepo: adjustmentRepo,
		now:            time.Now,
	}
}
