// Package postgres implements the domain repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

// poolIface is the part of *pgxpool.Pool the repositories use, so
// pgxmock can stand in for it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ poolIface = (*pgxpool.Pool)(nil)

// NewPool opens the pool and fails unless the database answers a ping
// within five seconds. Non-positive limits keep the pgxpool defaults.
func NewPool(ctx context.Context, dsn string, maxConns, minConns int32, maxConnLife time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 && minConns <= cfg.MaxConns {
		cfg.MinConns = minConns
	}
	if maxConnLife > 0 {
		cfg.MaxConnLifetime = maxConnLife
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "fintrack-auth"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// mapPgErr translates constraint violations and unparseable ids into repository sentinels and
// wraps everything with the failing operation.
func mapPgErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return oops.Code("DB_CONFLICT").
				With("operation", op).
				With("constraint", pgErr.ConstraintName).
				Wrap(repository.ErrConflict)
		case pgerrcode.ForeignKeyViolation:
			return oops.Code("DB_MISSING_PARENT").
				With("operation", op).
				With("constraint", pgErr.ConstraintName).
				Wrap(repository.ErrNotFound)
		case pgerrcode.InvalidTextRepresentation:
			// A malformed id names no row.
			return oops.Code("DB_BAD_ID").
				With("operation", op).
				Wrap(repository.ErrNotFound)
		}
	}
	return oops.Code("DB_ERROR").With("operation", op).Wrap(err)
}

func notFound(op string) error {
	return oops.Code("DB_NOT_FOUND").With("operation", op).Wrap(repository.ErrNotFound)
}
