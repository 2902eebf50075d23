package router

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/application"
	"github.com/oksasatya/fintrack-auth/internal/container"
	esinfra "github.com/oksasatya/fintrack-auth/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/fintrack-auth/internal/infrastructure/metrics"
	"github.com/oksasatya/fintrack-auth/internal/infrastructure/sms"
	handlers "github.com/oksasatya/fintrack-auth/internal/interface/http"
	"github.com/oksasatya/fintrack-auth/internal/router/modules"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
	"github.com/oksasatya/fintrack-auth/pkg/mailer"
	"github.com/oksasatya/fintrack-auth/pkg/mailer/templates"
)

// Services are the application services shared by HTTP modules and binaries.
type Services struct {
	Auth  *application.AuthService
	Reset *application.PasswordResetService
	Users *application.UserService
}

func emailQueue(cfg *config.Config, logger *logrus.Logger) application.EmailQueue {
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		return &mailer.RabbitQueue{Publisher: pub, Queue: cfg.RabbitMQEmailQueue}
	}
	return &mailer.LogQueue{Logger: logger}
}

func auditTrail(cfg *config.Config, logger *logrus.Logger) application.AuditRecorder {
	trail := application.MultiRecorder{metrics.NewAuthMetrics(container.GetMetricsRegistry())}
	if cfg.AuditEnabled && container.GetES() != nil {
		trail = append(trail, esinfra.NewAuditIndexer(container.GetES(), cfg.ESAuditIndex, logger))
	}
	return trail
}

// BuildServices wires the services from the container singletons.
func BuildServices() (*Services, error) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repos := container.GetRepositories()

	var pub sms.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	notifier, err := sms.NewNotifier(sms.Options{
		Provider:         cfg.SMSProvider,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFrom:       cfg.TwilioFromNumber,
		Queue:            cfg.RabbitMQSMSQueue,
	}, pub, logger)
	if err != nil {
		return nil, err
	}

	hasher := helpers.NewBcryptHasher(cfg.BcryptCost)
	alerts := application.NewSecurityAlerts(emailQueue(cfg, logger), templates.Brand{
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		SupportURL:     cfg.SupportURL,
	}, logger)
	audit := auditTrail(cfg, logger)

	authSvc := application.NewAuthService(repos.Users, repos.Sessions, repos.Tokens, hasher, container.GetJWT(), logger)
	authSvc.RotateRefresh = cfg.JWTRefreshRotation
	authSvc.Audit = audit
	authSvc.Alerts = alerts

	resetSvc := application.NewPasswordResetService(repos.Users, repos.ResetCodes, repos.Sessions, repos.Tokens, notifier, hasher, logger)
	resetSvc.CodeTTL = cfg.ResetCodeTTL
	resetSvc.Audit = audit
	resetSvc.Alerts = alerts

	userSvc := application.NewUserService(repos.Users, repos.Sessions, repos.Tokens, hasher, logger)
	userSvc.Audit = audit
	userSvc.Alerts = alerts

	return &Services{Auth: authSvc, Reset: resetSvc, Users: userSvc}, nil
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) error {
	svc, err := BuildServices()
	if err != nil {
		return err
	}
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	cookies := helpers.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure)

	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Reset, svc.Users, logger, cookies)
	userHandler := handlers.NewUserHandler(svc.Users, logger, cookies)

	r.Add(modules.NewAuthModule(authHandler, svc.Auth, rdb, modules.Limits{
		Login:   cfg.LoginRateLimit,
		Refresh: cfg.RefreshRateLimit,
		Reset:   cfg.ResetRateLimit,
		Window:  cfg.RateLimitWindow,
	}))
	r.Add(modules.NewUserModule(userHandler, svc.Auth, rdb))

	checks := map[string]modules.Pinger{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return helpers.PingRedis(ctx, rdb) }
	}
	var debug *modules.DebugModule
	if cfg.DebugMetricsEnabled {
		debug = modules.NewDebugModule(container.GetMetricsRegistry(), rdb, checks)
	} else {
		debug = modules.NewDebugModule(nil, rdb, checks)
	}
	r.AddRoot(debug)
	return nil
}
