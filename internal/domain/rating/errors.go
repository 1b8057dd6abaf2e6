package rating

import "errors"

var (
	// Rule errors
	ErrNoActiveRule          = errors.New("no active rule")
	ErrRuleNotAutoDetectable = errors.New("rule cannot be raised automatically")
	ErrRuleCodeExists        = errors.New("violation rule with this code already exists")

	// Period errors
	ErrInvalidPeriod = errors.New("periodEnd must not be before periodStart")
)
