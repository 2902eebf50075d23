package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/container"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
	"github.com/oksasatya/fintrack-auth/pkg/validation"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	container.Reset()
	t.Cleanup(container.Reset)

	cfg := config.Load()
	cfg.StoreBackend = "memory"
	cfg.SMSProvider = "log"
	cfg.BcryptCost = 4
	cfg.LoginRateLimit = 3

	logger, _ := logtest.NewNullLogger()
	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager(helpers.JWTConfig{Secret: "router-test", Issuer: cfg.JWTIssuer}))

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	reg := NewRegistry(r)
	require.NoError(t, InitModules(reg))
	reg.RegisterAll()
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesAreWired(t *testing.T) {
	r := setup(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)

	w = serve(r, http.MethodPost, "/api/auth/register",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"analytical"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = serve(r, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"analytical"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(r, http.MethodPut, "/api/users/me", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fintrack_auth_events_total{outcome="success",type="login"} 1`)
	assert.Contains(t, w.Body.String(), `fintrack_auth_events_total{outcome="success",type="register"} 1`)
}

func TestLoginIsRateLimited(t *testing.T) {
	r := setup(t)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := serve(r, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"whatever"}`)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{401, 401, 401, 429}, codes)
}
