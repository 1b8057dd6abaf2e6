package schedule

import "errors"

var (
	// Schedule template errors
	ErrScheduleTemplateNotFound   = errors.New("schedule template not found")
	ErrScheduleTemplateNameExists = errors.New("schedule template with this name already exists")

	// Employee schedule errors
	ErrOverlappingScheduleAssignment = errors.New("overlapping schedule assignment detected")

	// Generation errors
	ErrInvalidDateRange     = errors.New("endDate must not be before startDate")
	ErrDateRangeTooLarge    = errors.New("date range must not exceed 365 days")
	ErrGenerationInProgress = errors.New("shift generation already running for this company")
)
