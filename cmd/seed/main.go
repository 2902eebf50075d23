package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/application"
	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	pginfra "github.com/oksasatya/fintrack-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// seed creates a demo account through the regular registration flow.
func main() {
	email := flag.String("email", "demo@fintrack.local", "demo account email")
	password := flag.String("password", "password123", "demo account password")
	phone := flag.String("phone", "+15005550006", "demo account phone number (E.164, empty for none)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	svc := application.NewAuthService(
		pginfra.NewUserRepository(pool),
		pginfra.NewSessionRepository(pool),
		pginfra.NewRefreshTokenRepository(pool),
		helpers.NewBcryptHasher(cfg.BcryptCost),
		helpers.NewJWTManager(helpers.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}),
		logger,
	)
	u, err := svc.Register(ctx, application.RegisterInput{
		FirstName:   "Demo",
		LastName:    "User",
		Email:       *email,
		Password:    *password,
		PhoneNumber: *phone,
	})
	if errors.Is(err, apperr.ErrConflict) {
		fmt.Printf("demo user already exists: email=%s\n", *email)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", u.ID, u.Email, *password)
}
