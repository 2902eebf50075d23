package repository

import (
	"context"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
)

// SessionRepository tracks one record per login.
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*entity.Session, error)
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	// ListByUser returns the user's sessions newest first.
	ListByUser(ctx context.Context, userID string) ([]entity.Session, error)
	// Revoke marks the session holding token as revoked. ErrNotFound if none.
	Revoke(ctx context.Context, token string) error
	// RevokeByID returns ErrNotFound when the session is missing or owned by
	// another user, and ErrAlreadyRevoked when it was revoked before.
	RevokeByID(ctx context.Context, id, userID string) error
	// RevokeAllForUser revokes every live session of the user.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	// RotateRefreshToken swaps the token of a live session. ErrNotFound if
	// no unrevoked session holds oldToken.
	RotateRefreshToken(ctx context.Context, oldToken, newToken string) error
}
