package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/config"
	"github.com/jlayese/translator-service-application/internal/dto"
	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/service"
	pkgerrors "github.com/jlayese/translator-service-application/pkg/errors"
	"github.com/jlayese/translator-service-application/pkg/jwt"
	"github.com/jlayese/translator-service-application/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	tokenResult   *dto.TokenResponse
	err           error
	meResult      *dto.MeResponse
	gotRefresh    string
	gotLogoutJTI  string
	logoutRefresh string
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.tokenResult, m.err
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.tokenResult, m.err
}
func (m *mockAuthService) RefreshToken(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.gotRefresh = token
	return m.tokenResult, m.err
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims, refreshToken string) error {
	m.gotLogoutJTI = claims.ID
	m.logoutRefresh = refreshToken
	return m.err
}
func (m *mockAuthService) Me(_ context.Context, _ service.Actor) (*dto.MeResponse, error) {
	return m.meResult, m.err
}

// ── Mock LanguageService ──

type mockLanguageService struct {
	list    []dto.LanguageResponse
	one     *dto.LanguageResponse
	err     error
	gotCode string
}

func (m *mockLanguageService) List(_ context.Context) ([]dto.LanguageResponse, error) {
	return m.list, m.err
}
func (m *mockLanguageService) GetByID(_ context.Context, _ string) (*dto.LanguageResponse, error) {
	return m.one, m.err
}
func (m *mockLanguageService) GetByCode(_ context.Context, code string) (*dto.LanguageResponse, error) {
	m.gotCode = code
	return m.one, m.err
}

// ── Mock ProfileService ──

type mockProfileService struct {
	profile    *dto.ProfileResponse
	translator *dto.TranslatorResponse
	err        error
	gotActor   service.Actor
}

func (m *mockProfileService) GetProfile(_ context.Context, _ string) (*dto.ProfileResponse, error) {
	return m.profile, m.err
}
func (m *mockProfileService) UpdateProfile(_ context.Context, _ *dto.UpdateProfileRequest, actor service.Actor) (*dto.ProfileResponse, error) {
	m.gotActor = actor
	return m.profile, m.err
}
func (m *mockProfileService) GetCapability(_ context.Context, _ string) (*dto.TranslatorResponse, error) {
	return m.translator, m.err
}
func (m *mockProfileService) UpdateCapability(_ context.Context, _ *dto.UpdateTranslatorRequest, actor service.Actor) (*dto.TranslatorResponse, error) {
	m.gotActor = actor
	return m.translator, m.err
}

// ── Mock RequestService ──

type mockRequestService struct {
	result   *dto.RequestResponse
	list     []dto.RequestResponse
	total    int64
	err      error
	gotActor service.Actor
	gotID    string
	gotMine  *dto.ListMyRequestsRequest
	gotOpen  *dto.ListOpenRequestsRequest
}

func (m *mockRequestService) CreateRequest(_ context.Context, _ *dto.CreateRequestRequest, actor service.Actor) (*dto.RequestResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockRequestService) SubmitDraft(_ context.Context, id string, actor service.Actor) (*dto.RequestResponse, error) {
	m.gotID, m.gotActor = id, actor
	return m.result, m.err
}
func (m *mockRequestService) CancelRequest(_ context.Context, id string, actor service.Actor) (*dto.RequestResponse, error) {
	m.gotID, m.gotActor = id, actor
	return m.result, m.err
}
func (m *mockRequestService) MarkInProgress(_ context.Context, _ string) error { return m.err }
func (m *mockRequestService) MarkCompleted(_ context.Context, _ string) error  { return m.err }
func (m *mockRequestService) GetRequest(_ context.Context, id string, actor service.Actor) (*dto.RequestResponse, error) {
	m.gotID, m.gotActor = id, actor
	return m.result, m.err
}
func (m *mockRequestService) ListMyRequests(_ context.Context, req *dto.ListMyRequestsRequest, _ service.Actor) ([]dto.RequestResponse, int64, error) {
	m.gotMine = req
	return m.list, m.total, m.err
}
func (m *mockRequestService) ListOpenRequests(_ context.Context, req *dto.ListOpenRequestsRequest, _ service.Actor) ([]dto.RequestResponse, int64, error) {
	m.gotOpen = req
	return m.list, m.total, m.err
}

// ── Mock MatchingService ──

type mockMatchingService struct {
	assignment *dto.AssignmentResponse
	accept     *dto.AcceptResponse
	eligible   []dto.EligibleTranslatorResponse
	list       []dto.AssignmentResponse
	total      int64
	err        error
	gotID      string
}

func (m *mockMatchingService) ListEligibleTranslators(_ context.Context, id string, _ service.Actor) ([]dto.EligibleTranslatorResponse, error) {
	m.gotID = id
	return m.eligible, m.err
}
func (m *mockMatchingService) Apply(_ context.Context, id string, _ service.Actor) (*dto.AssignmentResponse, error) {
	m.gotID = id
	return m.assignment, m.err
}
func (m *mockMatchingService) Accept(_ context.Context, id string, _ service.Actor) (*dto.AcceptResponse, error) {
	m.gotID = id
	return m.accept, m.err
}
func (m *mockMatchingService) StartWork(_ context.Context, id string, _ service.Actor) (*dto.AssignmentResponse, error) {
	m.gotID = id
	return m.assignment, m.err
}
func (m *mockMatchingService) ListApplications(_ context.Context, id string, _ service.Actor) ([]dto.AssignmentResponse, error) {
	m.gotID = id
	return m.list, m.err
}
func (m *mockMatchingService) ListMyAssignments(_ context.Context, _ *dto.PaginationRequest, _ service.Actor) ([]dto.AssignmentResponse, int64, error) {
	return m.list, m.total, m.err
}

// ── Mock RatingService ──

type mockRatingService struct {
	result     *dto.RatingResponse
	reputation *dto.ReputationResponse
	err        error
	gotRating  *dto.SubmitRatingRequest
}

func (m *mockRatingService) CompleteAssignment(_ context.Context, _ string, req *dto.SubmitRatingRequest, _ service.Actor) (*dto.RatingResponse, error) {
	m.gotRating = req
	return m.result, m.err
}
func (m *mockRatingService) FinalizeOverdue(_ context.Context, _ time.Time) (int, error) {
	return 0, m.err
}
func (m *mockRatingService) TranslatorReputation(_ context.Context, _ string) (*dto.ReputationResponse, error) {
	return m.reputation, m.err
}
func (m *mockRatingService) ClientReputation(_ context.Context, _ string) (*dto.ReputationResponse, error) {
	return m.reputation, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRequests(_ context.Context, _ service.Actor) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportCalendar(_ context.Context, _ service.Actor) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	testUserID    = "user-1"
	testProfileID = "profile-1"
)

func setAuth(c *gin.Context, userType model.UserType) {
	c.Set(CtxUserID, testUserID)
	c.Set(CtxProfileID, testProfileID)
	c.Set(CtxUserType, string(userType))
	c.Set(CtxClaims, &jwt.Claims{UserID: testUserID, ProfileID: testProfileID, UserType: string(userType), TokenType: jwt.TokenTypeAccess})
}

// serve 注册单个路由并执行请求；userType 为空时模拟未认证
func serve(method, route, target string, body io.Reader, userType model.UserType, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if userType != "" {
			setAuth(c, userType)
		}
		h(c)
	})

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("期望 HTTP %d，实际 %d，body=%s", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("期望业务码 %d，实际 %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Context Helper Tests
// ═══════════════════════════════════════════════════════════

func TestMustGetActor_Unauthenticated(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := MustGetActor(c); ok {
		t.Fatal("未注入身份时应返回 false")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestMustGetActor_RejectsUnknownUserType(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(CtxUserID, testUserID)
	c.Set(CtxProfileID, testProfileID)
	c.Set(CtxUserType, "admin")

	if _, ok := MustGetActor(c); ok {
		t.Fatal("未知身份类型不应通过")
	}
}

func TestMustGetActor_Success(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setAuth(c, model.UserTypeTranslator)

	actor, ok := MustGetActor(c)
	if !ok {
		t.Fatal("应成功提取身份")
	}
	if actor.ProfileID != testProfileID || !actor.IsTranslator() {
		t.Errorf("身份不符: %+v", actor)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func testHandlerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://lingua.example.com"},
		Auth:   config.AuthConfig{RefreshTokenTTL: 7 * 24 * time.Hour},
	}
}

func TestAuthHandler_Register_SetsCookie(t *testing.T) {
	mock := &mockAuthService{tokenResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}}
	h := NewAuthHandler(mock, testHandlerConfig())

	w := serve("POST", "/auth/register", "/auth/register", jsonBody(dto.RegisterRequest{
		Email: "ana@example.com", Password: "secret123", FullName: "Ana", UserType: "client",
	}), "", h.Register)

	expectStatus(t, w, http.StatusCreated, 0)
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			found = c
		}
	}
	if found == nil || found.Value != "r" || !found.HttpOnly || !found.Secure {
		t.Errorf("应写入 HttpOnly + Secure 的 refresh_token Cookie，实际 %+v", found)
	}
}

func TestAuthHandler_Register_BindingRejectsBadUserType(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/register", "/auth/register", jsonBody(map[string]string{
		"email": "ana@example.com", "password": "secret123", "full_name": "Ana", "user_type": "admin",
	}), "", h.Register)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{err: service.ErrEmailTaken}, nil)

	w := serve("POST", "/auth/register", "/auth/register", jsonBody(dto.RegisterRequest{
		Email: "ana@example.com", Password: "secret123", FullName: "Ana", UserType: "translator",
	}), "", h.Register)

	expectStatus(t, w, http.StatusConflict, 11002)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{err: service.ErrInvalidCredentials}, nil)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Email: "ana@example.com", Password: "wrong",
	}), "", h.Login)

	expectStatus(t, w, http.StatusUnauthorized, 11001)
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/login", "/auth/login", strings.NewReader("invalid json"), "", h.Login)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
}

func TestAuthHandler_RefreshToken_FromCookie(t *testing.T) {
	mock := &mockAuthService{tokenResult: &dto.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}}
	h := NewAuthHandler(mock, nil)

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotRefresh != "cookie-refresh" {
		t.Errorf("应读取 Cookie 中的 refresh_token，实际 %q", mock.gotRefresh)
	}
}

func TestAuthHandler_RefreshToken_Missing(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(map[string]string{}), "", h.RefreshToken)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
}

func TestAuthHandler_RefreshToken_Revoked(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{err: service.ErrTokenRevoked}, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}), "", h.RefreshToken)

	expectStatus(t, w, http.StatusUnauthorized, 11004)
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, testHandlerConfig())

	w := serve("POST", "/auth/logout", "/auth/logout", jsonBody(dto.RefreshTokenRequest{RefreshToken: "r"}), model.UserTypeClient, h.Logout)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.logoutRefresh != "r" {
		t.Errorf("应把请求体中的 refresh_token 一并注销，实际 %q", mock.logoutRefresh)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName && c.MaxAge >= 0 {
			t.Error("refresh_token Cookie 应被清除")
		}
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("GET", "/auth/me", "/auth/me", nil, "", h.Me)

	expectStatus(t, w, http.StatusUnauthorized, response.CodeUnauthorized)
}

// ═══════════════════════════════════════════════════════════
// LanguageHandler / ProfileHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLanguageHandler_ListByCode(t *testing.T) {
	mock := &mockLanguageService{one: &dto.LanguageResponse{ID: "lang-ja", Code: "ja", Name: "Japanese"}}
	h := NewLanguageHandler(mock)

	w := serve("GET", "/languages", "/languages?code=ja", nil, "", h.ListLanguages)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotCode != "ja" {
		t.Errorf("应按 code 查询，实际 %q", mock.gotCode)
	}
}

func TestLanguageHandler_NotFound(t *testing.T) {
	h := NewLanguageHandler(&mockLanguageService{err: service.ErrLanguageNotFound})

	w := serve("GET", "/languages/:id", "/languages/nope", nil, "", h.GetLanguage)

	expectStatus(t, w, http.StatusNotFound, 13001)
}

func TestProfileHandler_UpdateCapability_ClientForbidden(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{err: pkgerrors.ErrForbidden})

	w := serve("PUT", "/translators/me", "/translators/me", jsonBody(dto.UpdateTranslatorRequest{}), model.UserTypeClient, h.UpdateMyCapability)

	expectStatus(t, w, http.StatusForbidden, 12001)
}

func TestProfileHandler_UpdateCapability_Validation(t *testing.T) {
	ve := &pkgerrors.ValidationError{}
	ve.Add("hourly_rate", "不能为负数")
	ve.Add("language_pairs[0].target_language_id", "不能与源语言相同")
	h := NewProfileHandler(&mockProfileService{err: ve})

	w := serve("PUT", "/translators/me", "/translators/me", jsonBody(dto.UpdateTranslatorRequest{}), model.UserTypeTranslator, h.UpdateMyCapability)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
	var body struct {
		Data struct {
			Violations []pkgerrors.Violation `json:"violations"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.Violations) != 2 {
		t.Errorf("应返回全部违规字段，实际 %+v", body.Data.Violations)
	}
}

func TestProfileHandler_GetTranslator_NotFound(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{err: service.ErrTranslatorNotFound})

	w := serve("GET", "/translators/:id", "/translators/x", nil, model.UserTypeClient, h.GetTranslator)

	expectStatus(t, w, http.StatusNotFound, 12002)
}

// ═══════════════════════════════════════════════════════════
// RequestHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRequestHandler_Create_Success(t *testing.T) {
	mock := &mockRequestService{result: &dto.RequestResponse{ID: "req-1", Status: "pending"}}
	h := NewRequestHandler(mock)

	w := serve("POST", "/requests", "/requests", jsonBody(map[string]interface{}{
		"title": "Contract review", "request_type": "document",
		"source_language_id": "lang-en", "target_language_id": "lang-ja",
	}), model.UserTypeClient, h.CreateRequest)

	expectStatus(t, w, http.StatusCreated, 0)
	if mock.gotActor.ProfileID != testProfileID || !mock.gotActor.IsClient() {
		t.Errorf("应传入当前客户身份，实际 %+v", mock.gotActor)
	}
}

func TestRequestHandler_Create_BadDate(t *testing.T) {
	h := NewRequestHandler(&mockRequestService{})

	w := serve("POST", "/requests", "/requests", strings.NewReader(`{"title":"x","scheduled_date":"tomorrow"}`), model.UserTypeClient, h.CreateRequest)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
}

func TestRequestHandler_Cancel_ForbiddenBeforeTransition(t *testing.T) {
	forbidden := &pkgerrors.TransitionError{Entity: "request", From: "pending", To: "cancelled", Cause: pkgerrors.ErrForbidden}
	h := NewRequestHandler(&mockRequestService{err: forbidden})

	w := serve("POST", "/requests/:id/cancel", "/requests/req-1/cancel", nil, model.UserTypeClient, h.CancelRequest)

	expectStatus(t, w, http.StatusForbidden, 14001)
}

func TestRequestHandler_Cancel_InvalidTransition(t *testing.T) {
	mock := &mockRequestService{err: pkgerrors.NewTransitionError("request", "in_progress", "cancelled")}
	h := NewRequestHandler(mock)

	w := serve("POST", "/requests/:id/cancel", "/requests/req-1/cancel", nil, model.UserTypeClient, h.CancelRequest)

	expectStatus(t, w, http.StatusConflict, 14003)
	if mock.gotID != "req-1" {
		t.Errorf("应传入路径参数 id，实际 %q", mock.gotID)
	}
	if resp := parseResponse(w); !strings.Contains(resp.Details, "in_progress") {
		t.Errorf("details 应包含当前状态，实际 %q", resp.Details)
	}
}

func TestRequestHandler_Get_NotFound(t *testing.T) {
	h := NewRequestHandler(&mockRequestService{err: service.ErrRequestNotFound})

	w := serve("GET", "/requests/:id", "/requests/nope", nil, model.UserTypeTranslator, h.GetRequest)

	expectStatus(t, w, http.StatusNotFound, 14002)
}

func TestRequestHandler_StorageUnavailable(t *testing.T) {
	err := fmt.Errorf("%w: %w", pkgerrors.ErrStorageUnavailable, context.DeadlineExceeded)
	h := NewRequestHandler(&mockRequestService{err: err})

	w := serve("GET", "/requests/:id", "/requests/req-1", nil, model.UserTypeClient, h.GetRequest)

	expectStatus(t, w, http.StatusServiceUnavailable, response.CodeUnavailable)
}

func TestRequestHandler_ListMine_Pagination(t *testing.T) {
	mock := &mockRequestService{list: []dto.RequestResponse{{ID: "req-1"}}, total: 41}
	h := NewRequestHandler(mock)

	w := serve("GET", "/requests/mine", "/requests/mine?status=pending&page=2&page_size=20", nil, model.UserTypeClient, h.ListMyRequests)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotMine == nil || mock.gotMine.Status != "pending" || mock.gotMine.GetPage() != 2 {
		t.Errorf("查询参数绑定不符: %+v", mock.gotMine)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 {
		t.Errorf("期望 3 页，实际 %d", body.Data.Pagination.TotalPages)
	}
}

func TestRequestHandler_ListOpen_BindsFilters(t *testing.T) {
	mock := &mockRequestService{}
	h := NewRequestHandler(mock)

	w := serve("GET", "/requests/open", "/requests/open?eligible_only=true&request_type=live", nil, model.UserTypeTranslator, h.ListOpenRequests)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotOpen == nil || !mock.gotOpen.EligibleOnly || mock.gotOpen.RequestType != "live" {
		t.Errorf("筛选参数绑定不符: %+v", mock.gotOpen)
	}
}

func TestRequestHandler_ListOpen_PageSizeTooLarge(t *testing.T) {
	h := NewRequestHandler(&mockRequestService{})

	w := serve("GET", "/requests/open", "/requests/open?page_size=500", nil, model.UserTypeTranslator, h.ListOpenRequests)

	expectStatus(t, w, http.StatusBadRequest, response.CodeInvalidParams)
}

// ═══════════════════════════════════════════════════════════
// AssignmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAssignmentHandler_Accept_Success(t *testing.T) {
	mock := &mockMatchingService{accept: &dto.AcceptResponse{
		Request:    dto.RequestResponse{ID: "req-1", Status: "matched"},
		Assignment: dto.AssignmentResponse{ID: "asg-1", Status: "accepted"},
		Rejected:   2,
	}}
	h := NewAssignmentHandler(mock)

	w := serve("POST", "/assignments/:id/accept", "/assignments/asg-1/accept", nil, model.UserTypeClient, h.Accept)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotID != "asg-1" {
		t.Errorf("应传入路径参数 id，实际 %q", mock.gotID)
	}
}

func TestAssignmentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"抢单失败", pkgerrors.ErrAlreadyAssigned, http.StatusConflict, 15004},
		{"重复申请", pkgerrors.ErrDuplicateApplication, http.StatusConflict, 15005},
		{"不具备资格", pkgerrors.ErrIneligibleTranslator, http.StatusConflict, 15006},
		{"状态不允许", pkgerrors.NewTransitionError("request", "matched", "matched"), http.StatusConflict, 15007},
		{"非所有者", &pkgerrors.TransitionError{Entity: "assignment", From: "pending", To: "accepted", Cause: pkgerrors.ErrForbidden}, http.StatusForbidden, 15001},
		{"申请不存在", service.ErrAssignmentNotFound, http.StatusNotFound, 15002},
		{"需求不存在", service.ErrRequestNotFound, http.StatusNotFound, 15003},
		{"未知错误", fmt.Errorf("boom"), http.StatusInternalServerError, response.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAssignmentHandler(&mockMatchingService{err: tc.err})
			w := serve("POST", "/requests/:id/apply", "/requests/req-1/apply", nil, model.UserTypeTranslator, h.Apply)
			expectStatus(t, w, tc.status, tc.code)
		})
	}
}

func TestAssignmentHandler_Apply_Created(t *testing.T) {
	mock := &mockMatchingService{assignment: &dto.AssignmentResponse{ID: "asg-1", Status: "pending"}}
	h := NewAssignmentHandler(mock)

	w := serve("POST", "/requests/:id/apply", "/requests/req-9/apply", nil, model.UserTypeTranslator, h.Apply)

	expectStatus(t, w, http.StatusCreated, 0)
	if mock.gotID != "req-9" {
		t.Errorf("应传入需求 id，实际 %q", mock.gotID)
	}
}

func TestAssignmentHandler_ListMine(t *testing.T) {
	h := NewAssignmentHandler(&mockMatchingService{list: []dto.AssignmentResponse{{ID: "asg-1"}}, total: 1})

	w := serve("GET", "/assignments/mine", "/assignments/mine", nil, model.UserTypeTranslator, h.ListMyAssignments)

	expectStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// RatingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRatingHandler_Submit_Success(t *testing.T) {
	mock := &mockRatingService{result: &dto.RatingResponse{Completed: true}}
	h := NewRatingHandler(mock)

	w := serve("POST", "/assignments/:id/rating", "/assignments/asg-1/rating", jsonBody(map[string]interface{}{
		"rating": 5, "review": "great",
	}), model.UserTypeClient, h.SubmitRating)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.gotRating == nil || mock.gotRating.Rating != 5 || mock.gotRating.Review == nil || *mock.gotRating.Review != "great" {
		t.Errorf("评价参数绑定不符: %+v", mock.gotRating)
	}
}

func TestRatingHandler_Submit_NotInProgress(t *testing.T) {
	h := NewRatingHandler(&mockRatingService{err: pkgerrors.NewTransitionError("request", "matched", "completed")})

	w := serve("POST", "/assignments/:id/rating", "/assignments/asg-1/rating", jsonBody(map[string]int{"rating": 4}), model.UserTypeTranslator, h.SubmitRating)

	expectStatus(t, w, http.StatusConflict, 16003)
}

func TestRatingHandler_Reputation(t *testing.T) {
	avg := 4.5
	h := NewRatingHandler(&mockRatingService{reputation: &dto.ReputationResponse{Average: &avg, Count: 2}})

	w := serve("GET", "/translators/:id/reputation", "/translators/t-1/reputation", nil, model.UserTypeClient, h.TranslatorReputation)

	expectStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Requests_Headers(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "需求记录_20250101.xlsx"})

	w := serve("GET", "/export/requests", "/export/requests", nil, model.UserTypeClient, h.ExportRequests)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("Content-Type 不符: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") || !strings.HasSuffix(cd, ".xlsx") {
		t.Errorf("Content-Disposition 不符: %s", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Error("应原样返回文件内容")
	}
}

func TestExportHandler_Calendar_ContentType(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "lingua_schedule.ics"})

	w := serve("GET", "/export/calendar", "/export/calendar", nil, model.UserTypeTranslator, h.ExportCalendar)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type 不符: %s", ct)
	}
}

func TestExportHandler_Errors(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoData})
	w := serve("GET", "/export/requests", "/export/requests", nil, model.UserTypeClient, h.ExportRequests)
	expectStatus(t, w, http.StatusNotFound, 17002)

	h = NewExportHandler(&mockExportService{err: pkgerrors.ErrForbidden})
	w = serve("GET", "/export/calendar", "/export/calendar", nil, model.UserTypeClient, h.ExportCalendar)
	expectStatus(t, w, http.StatusForbidden, 17001)
}
