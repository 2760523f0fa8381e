package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/timeclock-backend-go/internal/config"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/handler/http/response"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/jwt"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/sse"
	"github.com/shiftdesk/timeclock-backend-go/internal/service/worktime"
)

// stubService returns canned results; handlers are tested for routing,
// auth, and error mapping, not business logic.
type stubService struct {
	checkInResp attendance.RecordResponse
	checkInErr  error
	checkOutErr error
	todayResp   attendance.TodayStatusResponse
	approveResp attendance.RecordResponse
	approveErr  error
	historyResp attendance.ListRecordsResponse
	lastUserID  string
	startBreak  error
}

func (s *stubService) CheckIn(_ context.Context, userID string) (attendance.RecordResponse, error) {
	s.lastUserID = userID
	return s.checkInResp, s.checkInErr
}

func (s *stubService) CheckOut(_ context.Context, userID string) (attendance.RecordResponse, error) {
	s.lastUserID = userID
	return attendance.RecordResponse{}, s.checkOutErr
}

func (s *stubService) StartBreak(_ context.Context, userID string) error {
	s.lastUserID = userID
	return s.startBreak
}

func (s *stubService) EndBreak(_ context.Context, userID string) error {
	s.lastUserID = userID
	return nil
}

func (s *stubService) Today(_ context.Context, userID string) (attendance.TodayStatusResponse, error) {
	s.lastUserID = userID
	return s.todayResp, nil
}

func (s *stubService) History(_ context.Context, userID string, _ attendance.HistoryFilter) (attendance.ListRecordsResponse, error) {
	s.lastUserID = userID
	return s.historyResp, nil
}

func (s *stubService) ExportHistory(context.Context, string, attendance.HistoryFilter) ([]byte, error) {
	return []byte("xlsx"), nil
}

func (s *stubService) ApplyLeave(_ context.Context, req attendance.ApplyLeaveRequest) (attendance.RecordResponse, error) {
	s.lastUserID = req.UserID
	return attendance.RecordResponse{UserID: req.UserID, IsOnLeave: true}, nil
}

func (s *stubService) ApproveLeave(context.Context, string) (attendance.RecordResponse, error) {
	return s.approveResp, s.approveErr
}

func (s *stubService) RejectLeave(context.Context, attendance.RejectLeaveRequest) (attendance.RecordResponse, error) {
	return attendance.RecordResponse{}, nil
}

func testRouter(t *testing.T, svc attendance.Service) (http.Handler, jwt.Service) {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", FrontendURL: "http://localhost:3000"},
	}
	jwtService := jwt.NewJWTService("test-secret", "1h")

	hub := sse.NewHub()
	live := worktime.NewLiveService(svc, hub, 50*time.Millisecond)

	router := NewRouter(
		cfg,
		jwtService,
		NewAttendanceHandler(svc),
		NewLeaveHandler(svc),
		NewLiveHandler(live),
	)
	return router, jwtService
}

func bearerToken(t *testing.T, jwtService jwt.Service, userID string, isAdmin bool) string {
	t.Helper()
	token, _, err := jwtService.GenerateAccessToken(userID, isAdmin)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCheckInEndpoint(t *testing.T) {
	svc := &stubService{checkInResp: attendance.RecordResponse{ID: "rec-1", UserID: "user-1"}}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", svc.lastUserID)

	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestCheckInEndpoint_RequiresToken(t *testing.T) {
	svc := &stubService{}
	router, _ := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckInEndpoint_DuplicateSessionConflict(t *testing.T) {
	svc := &stubService{checkInErr: attendance.ErrDuplicateOpenSession}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckOutEndpoint_NoActiveSessionConflict(t *testing.T) {
	svc := &stubService{checkOutErr: attendance.ErrNoActiveSession}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-out", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckOutEndpoint_StoreUnavailable(t *testing.T) {
	svc := &stubService{checkOutErr: attendance.ErrStoreUnavailable}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-out", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTodayEndpoint(t *testing.T) {
	svc := &stubService{todayResp: attendance.TodayStatusResponse{
		HasOpenSession: true,
		WorkedHours:    4.5,
		RemainingHours: 4.5,
		CanCheckOut:    true,
	}}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"has_open_session":true`)
}

func TestApplyLeaveEndpoint(t *testing.T) {
	svc := &stubService{}
	router, jwtService := testRouter(t, svc)

	payload := `{"date":"2025-03-14","leave_type":"annual","reason":"family trip"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", svc.lastUserID, "user comes from the token, not the body")
}

func TestApproveLeaveEndpoint_AdminOnly(t *testing.T) {
	svc := &stubService{approveResp: attendance.RecordResponse{ID: "rec-1"}}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/leaves/0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-2", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/leaves/0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "admin-1", true))
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveLeaveEndpoint_AlreadyProcessed(t *testing.T) {
	svc := &stubService{approveErr: attendance.ErrLeaveAlreadyProcessed}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/leaves/0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "admin-1", true))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	svc := &stubService{}
	router, jwtService := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/export", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtService, "user-1", false))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
}
