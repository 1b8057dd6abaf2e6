package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	// Schedule templates
	CreateTemplate(w http.ResponseWriter, r *http.Request)
	ListTemplates(w http.ResponseWriter, r *http.Request)

	// Employee schedule assignment
	AssignSchedule(w http.ResponseWriter, r *http.Request)

	// Shifts
	GenerateShifts(w http.ResponseWriter, r *http.Request)
	ListShifts(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
	generator       schedule.ShiftGenerator
}

func NewScheduleHandler(scheduleService schedule.ScheduleService, generator schedule.ShiftGenerator) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
		generator:       generator,
	}
}

// ==================== SCHEDULE TEMPLATE HANDLERS ====================

func (h *scheduleHandlerImpl) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateScheduleTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = chi.URLParam(r, "companyID")

	result, err := h.scheduleService.CreateTemplate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule template created successfully", result)
}

func (h *scheduleHandlerImpl) ListTemplates(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListTemplates(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ==================== EMPLOYEE SCHEDULE HANDLERS ====================

// AssignSchedule implements ScheduleHandler.
func (h *scheduleHandlerImpl) AssignSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedule.AssignScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = chi.URLParam(r, "companyID")
	req.EmployeeID = chi.URLParam(r, "employeeID")

	result, err := h.scheduleService.AssignSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Schedule assigned successfully", result)
}

// ==================== SHIFT HANDLERS ====================

// GenerateShifts implements ScheduleHandler.
func (h *scheduleHandlerImpl) GenerateShifts(w http.ResponseWriter, r *http.Request) {
	var req schedule.GenerateShiftsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = chi.URLParam(r, "companyID")

	result, err := h.generator.GenerateShifts(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shifts generated", result)
}

// ListShifts implements ScheduleHandler.
func (h *scheduleHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	req := schedule.ListShiftsRequest{
		CompanyID: chi.URLParam(r, "companyID"),
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}

	result, err := h.scheduleService.ListShifts(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}
