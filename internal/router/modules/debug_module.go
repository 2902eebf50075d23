package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
)

// Pinger reports whether a backing service answers.
type Pinger func(ctx context.Context) error

// DebugModule serves /health always and /metrics when a registry is set.
// Both live outside /api.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	Redis    *redis.Client
	Checks   map[string]Pinger
}

func NewDebugModule(g prometheus.Gatherer, rdb *redis.Client, checks map[string]Pinger) *DebugModule {
	return &DebugModule{Gatherer: g, Redis: rdb, Checks: checks}
}

func (m *DebugModule) RegisterRoot(engine *gin.Engine) {
	engine.GET("/health", m.health)
	if m.Gatherer != nil {
		// Public metrics endpoint, rate-limited per IP
		rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
		engine.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (m *DebugModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, ping := range m.Checks {
		if err := ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
