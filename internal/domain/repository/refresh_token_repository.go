package repository

import (
	"context"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
)

// RefreshTokenRepository persists issued refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	ListByUser(ctx context.Context, userID string) ([]entity.RefreshToken, error)
	// Revoke is idempotent: unknown or already revoked tokens are not an error.
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	IsValid(ctx context.Context, token string) (bool, error)
}
