package container

import (
	"sync"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/fintrack-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	jwtManager  *helpers.JWTManager
	rabbitPub   *helpers.RabbitPublisher
	esClient    *es.Client
	registry    *prometheus.Registry

	reposOnce sync.Once
	repos     Repositories
)

// Repositories is the storage backend chosen by STORE_BACKEND.
type Repositories struct {
	Users      repository.UserRepository
	Sessions   repository.SessionRepository
	Tokens     repository.RefreshTokenRepository
	ResetCodes repository.PasswordResetCodeRepository
}

func SetConfig(c *config.Config)                { cfg = c }
func GetConfig() *config.Config                 { return cfg }
func SetLogger(l *logrus.Logger)                { logger = l }
func GetLogger() *logrus.Logger                 { return logger }
func SetPGPool(p *pgxpool.Pool)                 { pgPool = p }
func GetPGPool() *pgxpool.Pool                  { return pgPool }
func SetRedis(r *redis.Client)                  { redisClient = r }
func GetRedis() *redis.Client                   { return redisClient }
func SetJWT(m *helpers.JWTManager)              { jwtManager = m }
func GetJWT() *helpers.JWTManager               { return jwtManager }
func SetRabbitPub(p *helpers.RabbitPublisher)   { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher    { return rabbitPub }
func SetES(c *es.Client)                        { esClient = c }
func GetES() *es.Client                         { return esClient }
func SetMetricsRegistry(r *prometheus.Registry) { registry = r }

// GetMetricsRegistry returns the registry served on /metrics, creating one on first use.
func GetMetricsRegistry() *prometheus.Registry {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// GetRepositories builds the stores once: Postgres when a pool is set and
// STORE_BACKEND is not memory, in-memory otherwise.
func GetRepositories() Repositories {
	reposOnce.Do(func() {
		if pgPool != nil && (cfg == nil || cfg.StoreBackend != "memory") {
			repos = Repositories{
				Users:      pginfra.NewUserRepository(pgPool),
				Sessions:   pginfra.NewSessionRepository(pgPool),
				Tokens:     pginfra.NewRefreshTokenRepository(pgPool),
				ResetCodes: pginfra.NewPasswordResetCodeRepository(pgPool),
			}
			return
		}
		repos = Repositories{
			Users:      memory.NewUserStore(),
			Sessions:   memory.NewSessionStore(),
			Tokens:     memory.NewRefreshTokenStore(),
			ResetCodes: memory.NewResetCodeStore(),
		}
	})
	return repos
}

// Reset clears every singleton. Tests only.
func Reset() {
	cfg, logger, pgPool, redisClient = nil, nil, nil, nil
	jwtManager, rabbitPub, esClient, registry = nil, nil, nil, nil
	reposOnce = sync.Once{}
	repos = Repositories{}
}
