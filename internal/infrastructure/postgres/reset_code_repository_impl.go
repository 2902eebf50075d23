package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

const resetCodeColumns = `id::text, user_id::text, code, expires_at, created_at, used`

// PasswordResetCodeRepository relies on two partial unique indexes over
// unused rows: one per user and one per code value.
type PasswordResetCodeRepository struct {
	pool poolIface
}

func NewPasswordResetCodeRepository(pool poolIface) *PasswordResetCodeRepository {
	return &PasswordResetCodeRepository{pool: pool}
}

func (r *PasswordResetCodeRepository) Issue(ctx context.Context, c *entity.PasswordResetCode) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, mapPgErr(err, "begin issue reset code")
	}
	res, err := tx.Exec(ctx, `
		update password_reset_codes set used = true
		where user_id = $1::uuid and used = false
	`, c.UserID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, mapPgErr(err, "supersede reset codes")
	}
	superseded := res.RowsAffected()

	_, err = tx.Exec(ctx, `
		insert into password_reset_codes (id, user_id, code, expires_at, created_at, used)
		values ($1::uuid, $2::uuid, $3, $4, $5, false)
	`, c.ID, c.UserID, c.Code, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, mapPgErr(err, "insert reset code")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, mapPgErr(err, "commit issue reset code")
	}
	return superseded, nil
}

func scanResetCode(row pgx.Row) (*entity.PasswordResetCode, error) {
	c := &entity.PasswordResetCode{}
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.ExpiresAt, &c.CreatedAt, &c.Used)
	return c, err
}

func (r *PasswordResetCodeRepository) GetByCode(ctx context.Context, code string) (*entity.PasswordResetCode, error) {
	c, err := scanResetCode(r.pool.QueryRow(ctx, `
		select `+resetCodeColumns+`
		from password_reset_codes
		where code = $1 and used = false
		order by created_at desc
		limit 1
	`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get reset code")
		}
		return nil, mapPgErr(err, "get reset code")
	}
	return c, nil
}

// MarkUsed is the single-use claim: the conditional update succeeds for
// exactly one caller.
func (r *PasswordResetCodeRepository) MarkUsed(ctx context.Context, id string, now time.Time) error {
	res, err := r.pool.Exec(ctx, `
		update password_reset_codes set used = true
		where id = $1::uuid and used = false and expires_at >= $2
	`, id, now)
	if err != nil {
		return mapPgErr(err, "claim reset code")
	}
	if res.RowsAffected() == 0 {
		return oops.Code("RESET_CODE_UNAVAILABLE").With("code_id", id).Wrap(repository.ErrCodeUnavailable)
	}
	return nil
}

func (r *PasswordResetCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `delete from password_reset_codes where expires_at < $1`, now)
	if err != nil {
		return 0, mapPgErr(err, "delete expired reset codes")
	}
	return res.RowsAffected(), nil
}

var _ repository.PasswordResetCodeRepository = (*PasswordResetCodeRepository)(nil)
