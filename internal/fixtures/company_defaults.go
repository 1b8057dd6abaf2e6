package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
)

func boolPtr(b bool) *bool { return &b }

// ==========================================
// SEEDED DATA RESULT
// ==========================================

// SeededDataIDs holds IDs of the default data seeded for a company.
type SeededDataIDs struct {
	// Violation rule IDs by code
	RuleIDs map[string]string // e.g., "LATE_START" -> "uuid"

	// Schedule template IDs by name
	TemplateIDs map[string]string // e.g., "Morning" -> "uuid"

	// Defaults that already existed and were left untouched
	Skipped []string
}

func NewSeededDataIDs() *SeededDataIDs {
	return &SeededDataIDs{
		RuleIDs:     make(map[string]string),
		TemplateIDs: make(map[string]string),
	}
}

// ==========================================
// VIOLATION RULES
// ==========================================

// DefaultViolationRules returns the starter rule set. LATE_START is the rule
// the attendance state machine raises on its own.
func DefaultViolationRules(companyID string) []rating.CreateViolationRuleRequest {
	return []rating.CreateViolationRuleRequest{
		{
			CompanyID:      companyID,
			Code:           "LATE_START",
			Name:           "Started shift late",
			PenaltyPercent: 5,
			IsActive:       boolPtr(true),
			AutoDetectable: true,
		},
		{
			CompanyID:      companyID,
			Code:           "NO_SHOW",
			Name:           "Did not show up for a scheduled shift",
			PenaltyPercent: 30,
			IsActive:       boolPtr(true),
		},
		{
			CompanyID:      companyID,
			Code:           "EARLY_LEAVE",
			Name:           "Left before the end of the shift",
			PenaltyPercent: 10,
			IsActive:       boolPtr(true),
		},
		{
			CompanyID:      companyID,
			Code:           "LONG_BREAK",
			Name:           "Break longer than allowed",
			PenaltyPercent: 5,
			IsActive:       boolPtr(true),
		},
		{
			CompanyID:      companyID,
			Code:           "UNIFORM",
			Name:           "Uniform or hygiene standard not met",
			PenaltyPercent: 3,
			IsActive:       boolPtr(false),
		},
	}
}

// ==========================================
// SCHEDULE TEMPLATES
// ==========================================

// DefaultScheduleTemplates returns common retail/F&B shift patterns.
func DefaultScheduleTemplates(companyID string) []schedule.CreateScheduleTemplateRequest {
	return []schedule.CreateScheduleTemplateRequest{
		{
			CompanyID:  companyID,
			Name:       "Morning",
			ShiftStart: "07:00",
			ShiftEnd:   "15:00",
			Workdays:   []int{1, 2, 3, 4, 5, 6},
		},
		{
			CompanyID:  companyID,
			Name:       "Evening",
			ShiftStart: "15:00",
			ShiftEnd:   "23:00",
			Workdays:   []int{1, 2, 3, 4, 5, 6},
		},
		{
			CompanyID:  companyID,
			Name:       "Night",
			ShiftStart: "23:00",
			ShiftEnd:   "07:00",
			Workdays:   []int{0, 1, 2, 3, 4, 5},
		},
		{
			CompanyID:  companyID,
			Name:       "Weekend",
			ShiftStart: "09:00",
			ShiftEnd:   "17:00",
			Workdays:   []int{0, 6},
		},
	}
}

// ==========================================
// SEEDING
// ==========================================

type RuleCreator interface {
	CreateRule(ctx context.Context, req rating.CreateViolationRuleRequest) (rating.ViolationRuleResponse, error)
}

type TemplateCreator interface {
	CreateTemplate(ctx context.Context, req schedule.CreateScheduleTemplateRequest) (schedule.ScheduleTemplateResponse, error)
}

// SeedCompanyDefaults creates the default rules and templates for a company.
// Defaults that already exist are skipped, so seeding twice is harmless.
func SeedCompanyDefaults(ctx context.Context, rules RuleCreator, templates TemplateCreator, companyID string) (*SeededDataIDs, error) {
	seeded := NewSeededDataIDs()

	for _, req := range DefaultViolationRules(companyID) {
		rule, err := rules.CreateRule(ctx, req)
		if errors.Is(err, rating.ErrRuleCodeExists) {
			seeded.Skipped = append(seeded.Skipped, "rule:"+req.Code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed rule %s: %w", req.Code, err)
		}
		seeded.RuleIDs[rule.Code] = rule.ID
	}

	for _, req := range DefaultScheduleTemplates(companyID) {
		tpl, err := templates.CreateTemplate(ctx, req)
		if errors.Is(err, schedule.ErrScheduleTemplateNameExists) {
			seeded.Skipped = append(seeded.Skipped, "template:"+req.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed template %s: %w", req.Name, err)
		}
		seeded.TemplateIDs[tpl.Name] = tpl.ID
	}

	return seeded, nil
}
