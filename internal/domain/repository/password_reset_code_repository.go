package repository

import (
	"context"
	"time"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
)

// PasswordResetCodeRepository stores one-time reset codes.
type PasswordResetCodeRepository interface {
	// Issue marks every unused code of c.UserID as used and stores c, as one
	// unit. It returns the number of superseded codes.
	Issue(ctx context.Context, c *entity.PasswordResetCode) (int64, error)
	// GetByCode returns an unused code with this value, expired or not.
	GetByCode(ctx context.Context, code string) (*entity.PasswordResetCode, error)
	// MarkUsed atomically flips used for an unused code that is still valid
	// at now. ErrCodeUnavailable when no row qualifies.
	MarkUsed(ctx context.Context, id string, now time.Time) error
	// DeleteExpired removes codes that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
