package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/fintrack-auth/internal/application"
	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/internal/infrastructure/memory"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
	"github.com/oksasatya/fintrack-auth/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type captureNotifier struct {
	mu   sync.Mutex
	code string
	sent []string
}

func (n *captureNotifier) Send(_ context.Context, _, msg string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return true, nil
}

func (n *captureNotifier) GenerateCode() (string, error) { return n.code, nil }

type env struct {
	engine   *gin.Engine
	notifier *captureNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	users := memory.NewUserStore()
	sessions := memory.NewSessionStore()
	tokens := memory.NewRefreshTokenStore()
	codes := memory.NewResetCodeStore()
	hasher := helpers.NewBcryptHasher(bcrypt.MinCost)
	jwt := helpers.NewJWTManager(helpers.JWTConfig{Secret: "handler-test-secret", Issuer: "fintrack-test"})
	notifier := &captureNotifier{code: "424242"}

	authSvc := application.NewAuthService(users, sessions, tokens, hasher, jwt, logger)
	resetSvc := application.NewPasswordResetService(users, codes, sessions, tokens, notifier, hasher, logger)
	userSvc := application.NewUserService(users, sessions, tokens, hasher, logger)
	cookies := helpers.NewCookieManager("localhost", false)

	ah := NewAuthHandler(authSvc, resetSvc, userSvc, logger, cookies)
	uh := NewUserHandler(userSvc, logger, cookies)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", ah.Register)
	api.POST("/auth/login", ah.Login)
	api.POST("/auth/refresh", ah.Refresh)
	api.POST("/auth/logout", ah.Logout)
	api.POST("/auth/request-password-reset", ah.RequestPasswordReset)
	api.POST("/auth/verify-reset-code", ah.VerifyResetCode)
	authed := api.Group("/", middleware.Auth(authSvc))
	authed.GET("/auth/me", ah.Me)
	authed.GET("/auth/me/sessions", ah.Sessions)
	authed.DELETE("/auth/me/sessions/:id", ah.RevokeSession)
	authed.PUT("/users/me", uh.UpdateProfile)
	authed.POST("/users/me/password", uh.ChangePassword)
	return &env{engine: r, notifier: notifier}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("User-Agent", "handler-test")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (e *env) register(t *testing.T, email, password, phone string) string {
	t.Helper()
	w, out := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "Jane", "last_name": "Doe", "email": email, "password": password, "phone_number": phone,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var u userView
	require.NoError(t, json.Unmarshal(out.Data, &u))
	return u.ID
}

func (e *env) login(t *testing.T, email, password string) tokenView {
	t.Helper()
	w, out := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tv tokenView
	require.NoError(t, json.Unmarshal(out.Data, &tv))
	return tv
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(apperr.KindBadRequest))
	assert.Equal(t, http.StatusUnauthorized, statusOf(apperr.KindUnauthorized))
	assert.Equal(t, http.StatusNotFound, statusOf(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusOf(apperr.KindConflict))
	assert.Equal(t, http.StatusBadRequest, statusOf(apperr.KindAlreadyRevoked))
	assert.Equal(t, http.StatusInternalServerError, statusOf(apperr.KindInternal))
}

func TestWriteErrorLogsOnlyInternal(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, logger, apperr.Conflict("taken"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, hook.Entries)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, logger, apperr.Internal("boom", errors.New("db down")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	id := e.register(t, "jane@example.com", "s3cret-pass", "")
	assert.NotEmpty(t, id)

	w, out := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "J", "last_name": "D", "email": "JANE@example.com", "password": "another-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, out.Success)

	w, out = e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"first_name": "J", "email": "nope", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(out.Error), "email")

	w, out = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", out.Message)

	w, out = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", out.Message)

	tv := e.login(t, "jane@example.com", "s3cret-pass")
	assert.Equal(t, application.TokenTypeBearer, tv.TokenType)
	assert.NotEmpty(t, tv.AccessToken)
	assert.NotEmpty(t, tv.RefreshToken)
	assert.Greater(t, tv.ExpiresIn, int64(0))

	w, out = e.do(t, http.MethodGet, "/api/auth/me", tv.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me userView
	require.NoError(t, json.Unmarshal(out.Data, &me))
	assert.Equal(t, id, me.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestLoginForm(t *testing.T) {
	e := newEnv(t)
	e.register(t, "form@example.com", "s3cret-pass", "")

	form := url.Values{"username": {"form@example.com"}, "password": {"s3cret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	names := map[string]bool{}
	for _, ck := range w.Result().Cookies() {
		names[ck.Name] = ck.HttpOnly
	}
	assert.True(t, names[helpers.AccessCookie])
	assert.True(t, names[helpers.RefreshCookie])
}

func TestRefreshSessionsAndLogout(t *testing.T) {
	e := newEnv(t)
	e.register(t, "s@example.com", "s3cret-pass", "")
	first := e.login(t, "s@example.com", "s3cret-pass")
	second := e.login(t, "s@example.com", "s3cret-pass")

	w, out := e.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed tokenView
	require.NoError(t, json.Unmarshal(out.Data, &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	w, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out = e.do(t, http.MethodGet, "/api/auth/me/sessions", second.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []sessionView
	require.NoError(t, json.Unmarshal(out.Data, &sessions))
	require.Len(t, sessions, 2)
	assert.NotContains(t, w.Body.String(), first.RefreshToken)
	assert.Equal(t, "handler-test", sessions[0].UserAgent)

	// revoke every session, then the first refresh token no longer works
	for _, s := range sessions {
		w, _ = e.do(t, http.MethodDelete, "/api/auth/me/sessions/"+s.ID, second.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, out = e.do(t, http.MethodDelete, "/api/auth/me/sessions/"+sessions[0].ID, second.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(out.Error), "already_revoked")

	w, _ = e.do(t, http.MethodDelete, "/api/auth/me/sessions/does-not-exist", second.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/auth/logout", "", gin.H{"refresh_token": second.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(t, http.MethodPost, "/api/auth/logout", "", gin.H{"refresh_token": second.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/auth/me/sessions"},
		{http.MethodPut, "/api/users/me"},
		{http.MethodPost, "/api/users/me/password"},
	} {
		w, _ := e.do(t, tc.method, tc.path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	e.register(t, "r@example.com", "old-password", "+33612345678")
	tv := e.login(t, "r@example.com", "old-password")

	w, out := e.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"email": "r@example.com", "phone_number": "+33612345678"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "provide either an email or a phone number", out.Message)

	w, out = e.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", out.Message)

	w, _ = e.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"phone_number": "+33612345678"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, e.notifier.sent, 1)
	assert.Contains(t, e.notifier.sent[0], "424242")

	w, out = e.do(t, http.MethodPost, "/api/auth/verify-reset-code", "", gin.H{"code": "000000", "new_password": "new-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired code", out.Message)

	w, _ = e.do(t, http.MethodPost, "/api/auth/verify-reset-code", "", gin.H{"code": "424242", "new_password": "new-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, out = e.do(t, http.MethodPost, "/api/auth/verify-reset-code", "", gin.H{"code": "424242", "new_password": "newer-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired code", out.Message)

	w, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": tv.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "r@example.com", "password": "old-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e.login(t, "r@example.com", "new-password")
}

func TestProfileAndPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "taken@example.com", "s3cret-pass", "")
	e.register(t, "p@example.com", "s3cret-pass", "+33600000001")
	tv := e.login(t, "p@example.com", "s3cret-pass")

	w, out := e.do(t, http.MethodPut, "/api/users/me", tv.AccessToken, gin.H{"first_name": "Janet", "phone_number": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u userView
	require.NoError(t, json.Unmarshal(out.Data, &u))
	assert.Equal(t, "Janet", u.FirstName)
	assert.Equal(t, "Doe", u.LastName)
	assert.Empty(t, u.PhoneNumber)

	w, _ = e.do(t, http.MethodPut, "/api/users/me", tv.AccessToken, gin.H{"email": "taken@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, out = e.do(t, http.MethodPost, "/api/users/me/password", tv.AccessToken, gin.H{"current_password": "nope-nope", "new_password": "brand-new-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "current password is incorrect", out.Message)

	w, _ = e.do(t, http.MethodPost, "/api/users/me/password", tv.AccessToken, gin.H{"current_password": "s3cret-pass", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/users/me/password", tv.AccessToken, gin.H{"current_password": "s3cret-pass", "new_password": "brand-new-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": tv.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e.login(t, "p@example.com", "brand-new-pass")
}
