package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/application"
	pginfra "github.com/oksasatya/fintrack-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// sweeper deletes expired password reset codes every SWEEP_INTERVAL.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-sweeper", cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	svc := &application.PasswordResetService{
		Codes:  pginfra.NewPasswordResetCodeRepository(pool),
		Logger: logger,
	}

	sweep(ctx, svc, logger)
	if *once {
		return
	}
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, svc, logger)
		}
	}
}

func sweep(ctx context.Context, svc *application.PasswordResetService, logger *logrus.Logger) {
	n, err := svc.DeleteExpiredCodes(ctx)
	if err != nil {
		logger.WithError(err).Error("sweep failed")
		return
	}
	logger.WithField("deleted", n).Info("expired reset codes swept")
}
