package rating

import (
	"bytes"
	"context"
	"time"
)

type RatingService interface {
	ComputeRating(ctx context.Context, req GetRatingRequest) (RatingView, error)
	ListCompanyRatings(ctx context.Context, req ListCompanyRatingsRequest) ([]RatingView, error)
	ExportCompanyRatings(ctx context.Context, req ListCompanyRatingsRequest) (*bytes.Buffer, string, error)

	AddViolation(ctx context.Context, req CreateViolationRequest) (ViolationResponse, error)
	ListViolations(ctx context.Context, req GetRatingRequest) ([]ViolationResponse, error)
	AdjustRating(ctx context.Context, req AdjustRatingRequest) (RatingView, error)

	// RecordAutoViolation appends a system-detected violation for the
	// company's rule with the given code.
	RecordAutoViolation(ctx context.Context, companyID, employeeID, ruleCode, reason string, at time.Time) error

	CreateRule(ctx context.Context, req CreateViolationRuleRequest) (ViolationRuleResponse, error)
	ListRules(ctx context.Context, companyID string) ([]ViolationRuleResponse, error)
}
