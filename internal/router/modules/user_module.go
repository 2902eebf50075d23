package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/fintrack-auth/internal/interface/http"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
)

// UserModule wires the signed-in user's profile routes.
// Protected: PUT /api/users/me, POST /api/users/me/password
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    middleware.Authenticator
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, auth middleware.Authenticator, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users/me")
	auth.Use(middleware.Auth(m.Auth))
	auth.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.PUT("", m.Handler.UpdateProfile)
		auth.POST("/password", m.Handler.ChangePassword)
	}
}
