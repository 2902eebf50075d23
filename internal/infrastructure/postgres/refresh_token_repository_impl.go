package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

type RefreshTokenRepository struct {
	pool poolIface
}

func NewRefreshTokenRepository(pool poolIface) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *entity.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		insert into refresh_tokens (token, user_id, created_at, revoked)
		values ($1, $2::uuid, $3, $4)
	`, t.Token, t.UserID, t.CreatedAt, t.Revoked)
	return mapPgErr(err, "insert refresh token")
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	t := &entity.RefreshToken{}
	err := r.pool.QueryRow(ctx, `
		select token, user_id::text, created_at, revoked from refresh_tokens where token = $1
	`, token).Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get refresh token")
		}
		return nil, mapPgErr(err, "get refresh token")
	}
	return t, nil
}

func (r *RefreshTokenRepository) ListByUser(ctx context.Context, userID string) ([]entity.RefreshToken, error) {
	rows, err := r.pool.Query(ctx, `
		select token, user_id::text, created_at, revoked
		from refresh_tokens
		where user_id = $1::uuid
		order by created_at desc
	`, userID)
	if err != nil {
		return nil, mapPgErr(err, "list refresh tokens")
	}
	defer rows.Close()

	out := make([]entity.RefreshToken, 0)
	for rows.Next() {
		var t entity.RefreshToken
		if err := rows.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.Revoked); err != nil {
			return nil, mapPgErr(err, "scan refresh token")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err, "list refresh tokens")
	}
	return out, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `update refresh_tokens set revoked = true where token = $1`, token)
	return mapPgErr(err, "revoke refresh token")
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.pool.Exec(ctx, `update refresh_tokens set revoked = true where user_id = $1::uuid and revoked = false`, userID)
	if err != nil {
		return 0, mapPgErr(err, "revoke user refresh tokens")
	}
	return res.RowsAffected(), nil
}

func (r *RefreshTokenRepository) IsValid(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx, `select revoked from refresh_tokens where token = $1`, token).Scan(&revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapPgErr(err, "check refresh token")
	}
	return !revoked, nil
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
