package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance transition conflicts
	case errors.Is(err, attendance.ErrShiftAlreadyActive):
		BadRequest(w, "Shift already active", nil)
	case errors.Is(err, attendance.ErrNoActiveShift):
		BadRequest(w, "No active shift", nil)
	case errors.Is(err, attendance.ErrBreakAlreadyActive):
		BadRequest(w, "Break already active", nil)
	case errors.Is(err, attendance.ErrNoActiveBreak):
		BadRequest(w, "No active break", nil)
	case errors.Is(err, attendance.ErrNoActiveShiftToEnd):
		BadRequest(w, "No active shift for ending", nil)
	case errors.Is(err, attendance.ErrConcurrentTransition):
		Conflict(w, "Another attendance action is in progress")

	// Employee and company errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, "Unauthorized to access this employee")
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrCompanyMismatch):
		Forbidden(w, "Resource does not belong to this company")

	// Schedule errors
	case errors.Is(err, schedule.ErrScheduleTemplateNotFound):
		NotFound(w, "Schedule template not found")
	case errors.Is(err, schedule.ErrScheduleTemplateNameExists):
		Conflict(w, "Schedule template name already exists")
	case errors.Is(err, schedule.ErrOverlappingScheduleAssignment):
		Conflict(w, "Schedule assignment overlaps an existing one")
	case errors.Is(err, schedule.ErrInvalidDateRange),
		errors.Is(err, schedule.ErrDateRangeTooLarge):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, schedule.ErrGenerationInProgress):
		Conflict(w, "Shift generation already running for this company")

	// Rating errors
	case errors.Is(err, rating.ErrNoActiveRule):
		BadRequest(w, "No active rule", nil)
	case errors.Is(err, rating.ErrRuleNotAutoDetectable):
		BadRequest(w, "Rule cannot be raised automatically", nil)
	case errors.Is(err, rating.ErrRuleCodeExists):
		Conflict(w, "Violation rule code already exists")
	case errors.Is(err, rating.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, export.ErrGenerateFailed):
		InternalServerError(w, "Failed to generate export")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
