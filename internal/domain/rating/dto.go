package rating

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

// validatePeriod checks an optional YYYY-MM-DD period. Both bounds must be
// given together.
func validatePeriod(errs *validator.ValidationErrors, start, end string, required bool) {
	if start == "" && end == "" && !required {
		return
	}
	s, sOK := validator.IsValidDate(start)
	if !sOK {
		errs.Add("periodStart", "periodStart must be in YYYY-MM-DD format")
	}
	e, eOK := validator.IsValidDate(end)
	if !eOK {
		errs.Add("periodEnd", "periodEnd must be in YYYY-MM-DD format")
	}
	if sOK && eOK && e.Before(s) {
		errs.Add("periodEnd", ErrInvalidPeriod.Error())
	}
}

// resolvePeriod parses the period, defaulting to the month containing now.
func resolvePeriod(start, end string, now time.Time, loc *time.Location) Period {
	if start == "" && end == "" {
		return MonthOf(now, loc)
	}
	s, _ := validator.IsValidDate(start)
	e, _ := validator.IsValidDate(end)
	return Period{Start: s, End: e}
}

// ========================================
// RATING DTOs
// ========================================

type GetRatingRequest struct {
	CompanyID   string `json:"-"`
	EmployeeID  string `json:"-"`
	PeriodStart string `json:"periodStart"` // YYYY-MM-DD, defaults to the current month
	PeriodEnd   string `json:"periodEnd"`
}

func (r *GetRatingRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	validatePeriod(&errs, r.PeriodStart, r.PeriodEnd, false)

	return errs.OrNil()
}

func (r *GetRatingRequest) Period(now time.Time, loc *time.Location) Period {
	return resolvePeriod(r.PeriodStart, r.PeriodEnd, now, loc)
}

type ListCompanyRatingsRequest struct {
	CompanyID   string
	PeriodStart string
	PeriodEnd   string
}

func (r *ListCompanyRatingsRequest) Validate() error {
	var errs validator.ValidationErrors
	validatePeriod(&errs, r.PeriodStart, r.PeriodEnd, false)
	return errs.OrNil()
}

func (r *ListCompanyRatingsRequest) Period(now time.Time, loc *time.Location) Period {
	return resolvePeriod(r.PeriodStart, r.PeriodEnd, now, loc)
}

type RatingView struct {
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	Rating          int    `json:"rating"`
	Band            Band   `json:"band"`
	TerminationRisk bool   `json:"termination_risk"`
	PenaltyTotal    int    `json:"penalty_total"`
	AdjustmentTotal int    `json:"adjustment_total"`
	ViolationCount  int    `json:"violation_count"`
}

func NewRatingView(employeeID, employeeName string, p Period, t Totals) RatingView {
	value := Compute(t)
	return RatingView{
		EmployeeID:      employeeID,
		EmployeeName:    employeeName,
		PeriodStart:     p.Start.Format(validator.DateLayout),
		PeriodEnd:       p.End.Format(validator.DateLayout),
		Rating:          value,
		Band:            BandFor(value),
		TerminationRisk: TerminationRisk(value),
		PenaltyTotal:    t.Penalty,
		AdjustmentTotal: t.Adjustment,
		ViolationCount:  t.ViolationCount,
	}
}

type AdjustRatingRequest struct {
	CompanyID   string  `json:"-"`
	EmployeeID  string  `json:"-"`
	Delta       int     `json:"delta"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
	Reason      *string `json:"reason,omitempty"`
}

func (r *AdjustRatingRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if r.Delta == 0 {
		errs.Add("delta", "delta must not be zero")
	} else if r.Delta < -MaxRating || r.Delta > MaxRating {
		errs.Add("delta", "delta must be between -100 and 100")
	}
	validatePeriod(&errs, r.PeriodStart, r.PeriodEnd, true)

	return errs.OrNil()
}

func (r *AdjustRatingRequest) Period() Period {
	s, _ := validator.IsValidDate(r.PeriodStart)
	e, _ := validator.IsValidDate(r.PeriodEnd)
	return Period{Start: s, End: e}
}

// ========================================
// VIOLATION DTOs
// ========================================

type CreateViolationRequest struct {
	EmployeeID string  `json:"employee_id"`
	CompanyID  string  `json:"company_id"`
	RuleID     string  `json:"rule_id"`
	Source     string  `json:"source"`
	Reason     *string `json:"reason,omitempty"`

	// ScopeCompanyID is the company of the authenticated caller.
	ScopeCompanyID string `json:"-"`
}

func (r *CreateViolationRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.CompanyID) {
		errs.Add("company_id", "company_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.RuleID) {
		errs.Add("rule_id", "rule_id is required")
	}
	if r.Source == "" {
		r.Source = string(SourceManual)
	}
	if !validator.IsInSlice(r.Source, ViolationSourceValues) {
		errs.Add("source", "source must be one of: manual, auto")
	}
	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.OrNil()
}

type ViolationResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	CompanyID      string  `json:"company_id"`
	RuleID         string  `json:"rule_id"`
	RuleCode       *string `json:"rule_code,omitempty"`
	Source         string  `json:"source"`
	Reason         *string `json:"reason,omitempty"`
	PenaltyPercent int     `json:"penalty_percent"`
	OccurredAt     string  `json:"occurred_at"`
}

func NewViolationResponse(v Violation) ViolationResponse {
	return ViolationResponse{
		ID:             v.ID,
		EmployeeID:     v.EmployeeID,
		CompanyID:      v.CompanyID,
		RuleID:         v.RuleID,
		RuleCode:       v.RuleCode,
		Source:         string(v.Source),
		Reason:         v.Reason,
		PenaltyPercent: v.PenaltyPercent,
		OccurredAt:     v.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// ========================================
// VIOLATION RULE DTOs
// ========================================

type CreateViolationRuleRequest struct {
	CompanyID      string `json:"-"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	PenaltyPercent int    `json:"penalty_percent"`
	IsActive       *bool  `json:"is_active,omitempty"`
	AutoDetectable bool   `json:"auto_detectable"`
}

func (r *CreateViolationRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if validator.IsEmpty(r.Code) {
		errs.Add("code", "code is required")
	} else if len(r.Code) > 50 {
		errs.Add("code", "code must not exceed 50 characters")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if r.PenaltyPercent < 1 || r.PenaltyPercent > 100 {
		errs.Add("penalty_percent", "penalty_percent must be between 1 and 100")
	}

	return errs.OrNil()
}

type ViolationRuleResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	PenaltyPercent int    `json:"penalty_percent"`
	IsActive       bool   `json:"is_active"`
	AutoDetectable bool   `json:"auto_detectable"`
}

func NewViolationRuleResponse(r ViolationRule) ViolationRuleResponse {
	return ViolationRuleResponse{
		ID:             r.ID,
		CompanyID:      r.CompanyID,
		Code:           r.Code,
		Name:           r.Name,
		PenaltyPercent: r.PenaltyPercent,
		IsActive:       r.IsActive,
		AutoDetectable: r.AutoDetectable,
	}
}
