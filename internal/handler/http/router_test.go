package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/rating"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testBotToken  = "123456:test-bot-token"
	testJWTSecret = "test-secret-key-for-jwt"
	testCompanyID = "0190a8e8-0000-7000-8000-000000000001"
	testEmployee  = "0190a8e8-0000-7000-8000-000000000101"
	testTelegram  = int64(777001)
)

// ==================== FAKE SERVICES ====================

type fakeAttendanceService struct {
	startErr error
	calls    int
}

func (f *fakeAttendanceService) GetEmployeeState(ctx context.Context, telegramID int64) (attendance.EmployeeStateResponse, error) {
	if telegramID != testTelegram {
		return attendance.EmployeeStateResponse{}, employee.ErrEmployeeNotFound
	}
	return attendance.EmployeeStateResponse{
		Employee:       attendance.EmployeeResponse{ID: testEmployee, TelegramID: telegramID, FullName: "Ayu"},
		WorkIntervals:  []attendance.IntervalResponse{},
		BreakIntervals: []attendance.IntervalResponse{},
		Status:         attendance.StatusOffWork,
	}, nil
}

func (f *fakeAttendanceService) StartShift(ctx context.Context, req attendance.ActionRequest) (attendance.StartShiftResponse, error) {
	f.calls++
	if f.startErr != nil {
		return attendance.StartShiftResponse{}, f.startErr
	}
	return attendance.StartShiftResponse{
		Shift:        attendance.ShiftResponse{ID: "shift-1", EmployeeID: testEmployee, Status: "active"},
		WorkInterval: attendance.IntervalResponse{ID: "work-1", ShiftID: "shift-1"},
	}, nil
}

func (f *fakeAttendanceService) StartBreak(ctx context.Context, req attendance.ActionRequest) (attendance.StartBreakResponse, error) {
	return attendance.StartBreakResponse{}, attendance.ErrNoActiveShift
}

func (f *fakeAttendanceService) EndBreak(ctx context.Context, req attendance.ActionRequest) (attendance.EndBreakResponse, error) {
	return attendance.EndBreakResponse{}, attendance.ErrNoActiveBreak
}

func (f *fakeAttendanceService) EndShift(ctx context.Context, req attendance.ActionRequest) (attendance.EndShiftResponse, error) {
	return attendance.EndShiftResponse{}, attendance.ErrNoActiveShiftToEnd
}

func (f *fakeAttendanceService) AutoCloseStaleShifts(ctx context.Context) (int, error) {
	return 0, nil
}

type fakeScheduleService struct{}

func (fakeScheduleService) CreateTemplate(ctx context.Context, req schedule.CreateScheduleTemplateRequest) (schedule.ScheduleTemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleTemplateResponse{}, err
	}
	return schedule.ScheduleTemplateResponse{ID: "tpl-1", CompanyID: req.CompanyID, Name: req.Name}, nil
}

func (fakeScheduleService) ListTemplates(ctx context.Context, companyID string) ([]schedule.ScheduleTemplateResponse, error) {
	return []schedule.ScheduleTemplateResponse{}, nil
}

func (fakeScheduleService) AssignSchedule(ctx context.Context, req schedule.AssignScheduleRequest) (schedule.EmployeeScheduleResponse, error) {
	return schedule.EmployeeScheduleResponse{}, schedule.ErrOverlappingScheduleAssignment
}

func (fakeScheduleService) ListShifts(ctx context.Context, req schedule.ListShiftsRequest) ([]schedule.ShiftListItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return []schedule.ShiftListItem{
		{ID: "shift-1", Status: "scheduled"},
		{ID: "shift-2", Status: "completed"},
	}, nil
}

type fakeGenerator struct {
	got schedule.GenerateShiftsRequest
}

func (f *fakeGenerator) GenerateShifts(ctx context.Context, req schedule.GenerateShiftsRequest) (schedule.GenerateShiftsResponse, error) {
	f.got = req
	if err := req.Validate(); err != nil {
		return schedule.GenerateShiftsResponse{}, err
	}
	return schedule.GenerateShiftsResponse{
		Shifts: []attendance.ShiftResponse{},
		Stats:  schedule.GenerationStats{EmployeesProcessed: 1},
	}, nil
}

type fakeRatingService struct {
	rating.RatingService
	violationReq rating.CreateViolationRequest
}

func (f *fakeRatingService) ComputeRating(ctx context.Context, req rating.GetRatingRequest) (rating.RatingView, error) {
	if req.CompanyID != testCompanyID {
		return rating.RatingView{}, employee.ErrEmployeeNotFound
	}
	return rating.RatingView{EmployeeID: req.EmployeeID, Rating: 85, Band: rating.BandExcellent}, nil
}

func (f *fakeRatingService) ListCompanyRatings(ctx context.Context, req rating.ListCompanyRatingsRequest) ([]rating.RatingView, error) {
	return []rating.RatingView{
		{EmployeeID: "emp-1", Rating: 100, Band: rating.BandExcellent},
		{EmployeeID: "emp-2", Rating: 35, Band: rating.BandCritical},
		{EmployeeID: "emp-3", Rating: 0, Band: rating.BandCritical, TerminationRisk: true},
	}, nil
}

func (f *fakeRatingService) AddViolation(ctx context.Context, req rating.CreateViolationRequest) (rating.ViolationResponse, error) {
	f.violationReq = req
	return rating.ViolationResponse{}, rating.ErrNoActiveRule
}

func (f *fakeRatingService) ExportCompanyRatings(ctx context.Context, req rating.ListCompanyRatingsRequest) (*bytes.Buffer, string, error) {
	return bytes.NewBufferString("xlsx"), "ratings_2026-03-01_2026-03-31.xlsx", nil
}

// ==================== HELPERS ====================

type testServer struct {
	router     http.Handler
	jwt        jwt.Service
	validator  *telegram.Validator
	attendance *fakeAttendanceService
	generator  *fakeGenerator
	rating     *fakeRatingService
}

func newTestServer(t *testing.T, bypass bool) *testServer {
	t.Helper()
	s := &testServer{
		jwt:        jwt.NewJWTService(testJWTSecret, time.Hour),
		validator:  telegram.NewValidator(testBotToken, time.Hour),
		attendance: &fakeAttendanceService{},
		generator:  &fakeGenerator{},
		rating:     &fakeRatingService{},
	}
	s.router = NewRouter(
		RouterOptions{
			Env:            "test",
			AllowedOrigins: []string{"*"},
			Telegram:       s.validator,
			TelegramBypass: bypass,
			ClientRate:     rate.Limit(1),
			ClientBurst:    5,
		},
		s.jwt,
		NewAttendanceHandler(s.attendance),
		NewScheduleHandler(fakeScheduleService{}, s.generator),
		NewRatingHandler(s.rating),
	)
	return s
}

func (s *testServer) initData(telegramID int64) string {
	return s.validator.Sign(url.Values{
		"auth_date": {fmt.Sprint(time.Now().Unix())},
		"user":      {fmt.Sprintf(`{"id":%d,"first_name":"Ayu"}`, telegramID)},
	})
}

func (s *testServer) token(t *testing.T, companyID string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken("user-1", companyID, "manager")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %s", rec.Body.String())
	msg, _ := errObj["message"].(string)
	return msg
}

// ==================== EMPLOYEE CLIENT ====================

func TestClient_TelegramAuth(t *testing.T) {
	s := newTestServer(t, false)
	body := attendance.ActionRequest{TelegramID: testTelegram}

	t.Run("missing init data", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/shift/start", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("forged init data", func(t *testing.T) {
		forged := telegram.NewValidator("999:other-bot", 0).Sign(url.Values{
			"auth_date": {fmt.Sprint(time.Now().Unix())},
			"user":      {fmt.Sprintf(`{"id":%d}`, testTelegram)},
		})
		rec := s.do(http.MethodPost, "/api/v1/shift/start", "tma "+forged, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("acting for another user", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/shift/start", "tma "+s.initData(testTelegram+1), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, s.attendance.calls)
	})

	t.Run("valid", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/shift/start", "tma "+s.initData(testTelegram), body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decodeBody(t, rec)
		assert.Equal(t, true, out["success"])
		assert.Contains(t, out, "shift")
		assert.Contains(t, out, "workInterval")
	})
}

func TestClient_BypassAllowsMissingInitData(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/v1/employee/%d", testTelegram), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	assert.Equal(t, "off_work", out["status"])
	assert.Nil(t, out["activeShift"])
	assert.Equal(t, []interface{}{}, out["workIntervals"])
}

func TestClient_UnknownEmployeeIs404(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(http.MethodGet, "/api/v1/employee/42", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClient_TransitionConflicts(t *testing.T) {
	s := newTestServer(t, true)
	body := attendance.ActionRequest{TelegramID: testTelegram}

	s.attendance.startErr = attendance.ErrShiftAlreadyActive
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/shift/start", "Shift already active"},
		{"/api/v1/shift/end", "No active shift for ending"},
		{"/api/v1/break/start", "No active shift"},
		{"/api/v1/break/end", "No active break"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := s.do(http.MethodPost, tc.path, "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, errorMessage(t, rec))
		})
	}
}

func TestClient_ValidationError(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(http.MethodPost, "/api/v1/shift/start", "", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errObj := decodeBody(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Contains(t, errObj["details"], "telegramId")
}

func TestClient_RateLimitPerTelegramUser(t *testing.T) {
	s := newTestServer(t, false)
	auth := "tma " + s.initData(testTelegram)
	path := fmt.Sprintf("/api/v1/employee/%d", testTelegram)

	for i := 0; i < 5; i++ {
		rec := s.do(http.MethodGet, path, auth, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(http.MethodGet, path, auth, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another user has their own bucket.
	other := "tma " + s.initData(testTelegram+1)
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/v1/employee/%d", testTelegram+1), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== MANAGER SURFACE ====================

func TestManager_RequiresToken(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/generate-shifts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManager_CompanyScope(t *testing.T) {
	s := newTestServer(t, true)
	other := "0190a8e8-0000-7000-8000-000000000002"
	auth := "Bearer " + s.token(t, other)

	rec := s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/generate-shifts", auth,
		schedule.GenerateShiftsRequest{StartDate: "2026-03-01", EndDate: "2026-03-07"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, s.generator.got.CompanyID)
}

func TestManager_GenerateShifts(t *testing.T) {
	s := newTestServer(t, true)
	auth := "Bearer " + s.token(t, testCompanyID)

	t.Run("ok", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/generate-shifts", auth,
			schedule.GenerateShiftsRequest{StartDate: "2026-03-01", EndDate: "2026-03-07"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, testCompanyID, s.generator.got.CompanyID)

		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Contains(t, data, "shifts")
		assert.Contains(t, data, "stats")
	})

	t.Run("reversed range", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/generate-shifts", auth,
			schedule.GenerateShiftsRequest{StartDate: "2026-03-07", EndDate: "2026-03-01"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestManager_ScheduleErrors(t *testing.T) {
	s := newTestServer(t, true)
	auth := "Bearer " + s.token(t, testCompanyID)

	rec := s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/schedule-templates", auth,
		schedule.CreateScheduleTemplateRequest{Name: "Morning", ShiftStart: "07:00", ShiftEnd: "15:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/companies/"+testCompanyID+"/employees/"+testEmployee+"/schedules", auth,
		schedule.AssignScheduleRequest{TemplateID: testEmployee, ValidFrom: "2026-03-01"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestManager_CreateViolation(t *testing.T) {
	s := newTestServer(t, true)
	auth := "Bearer " + s.token(t, testCompanyID)

	rec := s.do(http.MethodPost, "/api/v1/violations", auth, rating.CreateViolationRequest{
		EmployeeID: testEmployee, CompanyID: testCompanyID, RuleID: testEmployee,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No active rule", errorMessage(t, rec))
	assert.Equal(t, testCompanyID, s.rating.violationReq.ScopeCompanyID)
}

func TestManager_GetRatingUsesTokenCompany(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/v1/rating/employees/"+testEmployee, "Bearer "+s.token(t, testCompanyID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(85), data["rating"])

	other := "0190a8e8-0000-7000-8000-000000000002"
	rec = s.do(http.MethodGet, "/api/v1/rating/employees/"+testEmployee, "Bearer "+s.token(t, other), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManager_ExportRatings(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(http.MethodGet, "/api/v1/rating/companies/"+testCompanyID+"/export", "Bearer "+s.token(t, testCompanyID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ratings_2026-03-01_2026-03-31.xlsx")
	assert.Equal(t, "xlsx", rec.Body.String())
}

func TestManager_ListsCarryTotals(t *testing.T) {
	s := newTestServer(t, false)
	auth := "Bearer " + s.token(t, testCompanyID)

	rec := s.do(http.MethodGet, "/api/v1/companies/"+testCompanyID+"/shifts?startDate=2026-03-01&endDate=2026-03-07", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["data"], 2)
	assert.Equal(t, float64(2), body["meta"].(map[string]interface{})["total_items"])

	rec = s.do(http.MethodGet, "/api/v1/rating/companies/"+testCompanyID, auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Len(t, body["data"], 3)
	assert.Equal(t, float64(3), body["meta"].(map[string]interface{})["total_items"])
}
