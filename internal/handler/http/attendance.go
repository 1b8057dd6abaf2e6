package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// AttendanceHandler serves the Telegram Mini App. Bodies are flat objects with
// a top-level success flag rather than the data envelope.
type AttendanceHandler interface {
	GetEmployee(w http.ResponseWriter, r *http.Request)
	StartShift(w http.ResponseWriter, r *http.Request)
	EndShift(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

type employeeStateBody struct {
	Success bool `json:"success"`
	attendance.EmployeeStateResponse
}

type startShiftBody struct {
	Success bool `json:"success"`
	attendance.StartShiftResponse
}

type endShiftBody struct {
	Success bool `json:"success"`
	attendance.EndShiftResponse
}

type startBreakBody struct {
	Success bool `json:"success"`
	attendance.StartBreakResponse
}

type endBreakBody struct {
	Success bool `json:"success"`
	attendance.EndBreakResponse
}

// sameTelegramUser rejects a request acting for someone other than the
// authenticated Telegram user. Without an authenticated user (auth bypass)
// every telegramId is accepted.
func sameTelegramUser(w http.ResponseWriter, r *http.Request, telegramID int64) bool {
	u, ok := middleware.TelegramUserFromContext(r.Context())
	if ok && u.ID != telegramID {
		response.Forbidden(w, "telegramId does not match the authenticated user")
		return false
	}
	return true
}

// decodeAction parses and checks the shared command body.
func decodeAction(w http.ResponseWriter, r *http.Request) (attendance.ActionRequest, bool) {
	var req attendance.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode attendance request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return req, false
	}
	if !sameTelegramUser(w, r, req.TelegramID) {
		return req, false
	}
	return req, true
}

// GetEmployee implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	if err != nil || telegramID <= 0 {
		response.BadRequest(w, "Invalid telegramId", nil)
		return
	}
	if !sameTelegramUser(w, r, telegramID) {
		return
	}

	result, err := h.attendanceService.GetEmployeeState(r.Context(), telegramID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, employeeStateBody{Success: true, EmployeeStateResponse: result})
}

// StartShift implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartShift(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.StartShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, startShiftBody{Success: true, StartShiftResponse: result})
}

// EndShift implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndShift(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.EndShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, endShiftBody{Success: true, EndShiftResponse: result})
}

// StartBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.StartBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, startBreakBody{Success: true, StartBreakResponse: result})
}

// EndBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.EndBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, endBreakBody{Success: true, EndBreakResponse: result})
}
