package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

const userColumns = `id::text, first_name, last_name, email, coalesce(phone_number, ''), password_hash, created_at, updated_at`

type UserRepository struct {
	pool poolIface
}

func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		insert into users (id, first_name, last_name, email, phone_number, password_hash, created_at, updated_at)
		values ($1::uuid, $2, $3, $4, nullif($5, ''), $6, $7, $8)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return mapPgErr(err, "insert user")
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "get user by id", `select `+userColumns+` from users where id = $1::uuid`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "get user by email", `select `+userColumns+` from users where email = $1`, entity.NormalizeEmail(email))
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	if phone == "" {
		return nil, notFound("get user by phone")
	}
	return r.getOne(ctx, "get user by phone", `select `+userColumns+` from users where phone_number = $1`, phone)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(op)
		}
		return nil, mapPgErr(err, op)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.pool.Exec(ctx, `
		update users
		set first_name = $1, last_name = $2, email = $3, phone_number = nullif($4, ''), password_hash = $5, updated_at = $6
		where id = $7::uuid
	`, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		return mapPgErr(err, "update user")
	}
	if res.RowsAffected() == 0 {
		return notFound("update user")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `delete from users where id = $1::uuid`, id)
	if err != nil {
		return mapPgErr(err, "delete user")
	}
	if res.RowsAffected() == 0 {
		return notFound("delete user")
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
