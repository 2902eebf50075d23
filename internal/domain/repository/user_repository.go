package repository

import (
	"context"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
)

// UserRepository defines the user directory consumed by the auth flows.
// Lookups return ErrNotFound on absence; Create and Update return ErrConflict
// on a duplicate email or phone number.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}
