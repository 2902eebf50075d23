package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/fintrack-auth/internal/interface/http"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
)

// Limits are per-client-IP request budgets per Window. Zero disables a limit.
type Limits struct {
	Login   int
	Refresh int
	Reset   int
	Window  time.Duration
}

type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    middleware.Authenticator
	Redis   *redis.Client
	Limits  Limits
}

func NewAuthModule(h *handlers.AuthHandler, auth middleware.Authenticator, rdb *redis.Client, limits Limits) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth, Redis: rdb, Limits: limits}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	loginLimiter := middleware.RateLimit(m.Redis, m.Limits.Login, m.Limits.Window, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.Redis, m.Limits.Refresh, m.Limits.Window, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(m.Redis, m.Limits.Reset, m.Limits.Window, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", loginLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/logout", refreshLimiter, m.Handler.Logout)
	rg.POST("/auth/request-password-reset", resetLimiter, m.Handler.RequestPasswordReset)
	rg.POST("/auth/verify-reset-code", resetLimiter, m.Handler.VerifyResetCode)

	auth := rg.Group("/auth/me")
	auth.Use(middleware.Auth(m.Auth))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("", m.Handler.Me)
		auth.GET("/sessions", m.Handler.Sessions)
		auth.DELETE("/sessions/:id", m.Handler.RevokeSession)
	}
}
