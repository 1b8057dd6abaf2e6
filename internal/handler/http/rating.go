package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/export"
	"github.com/go-chi/chi/v5"
)

type RatingHandler interface {
	// Ratings
	GetEmployeeRating(w http.ResponseWriter, r *http.Request)
	AdjustRating(w http.ResponseWriter, r *http.Request)
	ListCompanyRatings(w http.ResponseWriter, r *http.Request)
	ExportCompanyRatings(w http.ResponseWriter, r *http.Request)

	// Violations
	CreateViolation(w http.ResponseWriter, r *http.Request)
	ListEmployeeViolations(w http.ResponseWriter, r *http.Request)

	// Violation rules
	CreateRule(w http.ResponseWriter, r *http.Request)
	ListRules(w http.ResponseWriter, r *http.Request)
}

type ratingHandlerImpl struct {
	ratingService rating.RatingService
}

func NewRatingHandler(ratingService rating.RatingService) RatingHandler {
	return &ratingHandlerImpl{
		ratingService: ratingService,
	}
}

// callerCompany returns the company of the authenticated manager.
func callerCompany(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return "", false
	}
	return claims.CompanyID, true
}

func (h *ratingHandlerImpl) ratingRequest(w http.ResponseWriter, r *http.Request) (rating.GetRatingRequest, bool) {
	companyID, ok := callerCompany(w, r)
	if !ok {
		return rating.GetRatingRequest{}, false
	}
	return rating.GetRatingRequest{
		CompanyID:   companyID,
		EmployeeID:  chi.URLParam(r, "employeeID"),
		PeriodStart: r.URL.Query().Get("periodStart"),
		PeriodEnd:   r.URL.Query().Get("periodEnd"),
	}, true
}

// ==================== RATING HANDLERS ====================

// GetEmployeeRating implements RatingHandler.
func (h *ratingHandlerImpl) GetEmployeeRating(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ratingRequest(w, r)
	if !ok {
		return
	}

	result, err := h.ratingService.ComputeRating(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// AdjustRating implements RatingHandler.
func (h *ratingHandlerImpl) AdjustRating(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompany(w, r)
	if !ok {
		return
	}

	var req rating.AdjustRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = companyID
	req.EmployeeID = chi.URLParam(r, "employeeID")

	result, err := h.ratingService.AdjustRating(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Rating adjusted", result)
}

func companyRatingsRequest(r *http.Request) rating.ListCompanyRatingsRequest {
	return rating.ListCompanyRatingsRequest{
		CompanyID:   chi.URLParam(r, "companyID"),
		PeriodStart: r.URL.Query().Get("periodStart"),
		PeriodEnd:   r.URL.Query().Get("periodEnd"),
	}
}

// ListCompanyRatings implements RatingHandler.
func (h *ratingHandlerImpl) ListCompanyRatings(w http.ResponseWriter, r *http.Request) {
	result, err := h.ratingService.ListCompanyRatings(r.Context(), companyRatingsRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

// ExportCompanyRatings implements RatingHandler.
func (h *ratingHandlerImpl) ExportCompanyRatings(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.ratingService.ExportCompanyRatings(r.Context(), companyRatingsRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write rating export", "error", err)
	}
}

// ==================== VIOLATION HANDLERS ====================

// CreateViolation implements RatingHandler.
func (h *ratingHandlerImpl) CreateViolation(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompany(w, r)
	if !ok {
		return
	}

	var req rating.CreateViolationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ScopeCompanyID = companyID

	result, err := h.ratingService.AddViolation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Violation recorded", result)
}

// ListEmployeeViolations implements RatingHandler.
func (h *ratingHandlerImpl) ListEmployeeViolations(w http.ResponseWriter, r *http.Request) {
	req, ok := h.ratingRequest(w, r)
	if !ok {
		return
	}

	result, err := h.ratingService.ListViolations(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ==================== VIOLATION RULE HANDLERS ====================

func (h *ratingHandlerImpl) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req rating.CreateViolationRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = chi.URLParam(r, "companyID")

	result, err := h.ratingService.CreateRule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Violation rule created successfully", result)
}

func (h *ratingHandlerImpl) ListRules(w http.ResponseWriter, r *http.Request) {
	result, err := h.ratingService.ListRules(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
