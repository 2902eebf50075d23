package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

const sessionColumns = `id::text, user_id::text, refresh_token, user_agent, ip_address, created_at, revoked`

type SessionRepository struct {
	pool poolIface
}

func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	_, err := r.pool.Exec(ctx, `
		insert into sessions (id, user_id, refresh_token, user_agent, ip_address, created_at, revoked)
		values ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
	`, s.ID, s.UserID, s.RefreshToken, s.UserAgent, s.IPAddress, s.CreatedAt, s.Revoked)
	return mapPgErr(err, "insert session")
}

func scanSession(row pgx.Row) (*entity.Session, error) {
	s := &entity.Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.IPAddress, &s.CreatedAt, &s.Revoked)
	return s, err
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (*entity.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx, `select `+sessionColumns+` from sessions where refresh_token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get session by token")
		}
		return nil, mapPgErr(err, "get session by token")
	}
	return s, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx, `select `+sessionColumns+` from sessions where id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get session by id")
		}
		return nil, mapPgErr(err, "get session by id")
	}
	return s, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]entity.Session, error) {
	rows, err := r.pool.Query(ctx, `
		select `+sessionColumns+`
		from sessions
		where user_id = $1::uuid
		order by created_at desc, id desc
	`, userID)
	if err != nil {
		return nil, mapPgErr(err, "list sessions")
	}
	defer rows.Close()

	out := make([]entity.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, mapPgErr(err, "scan session")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err, "list sessions")
	}
	return out, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	res, err := r.pool.Exec(ctx, `update sessions set revoked = true where refresh_token = $1`, token)
	if err != nil {
		return mapPgErr(err, "revoke session")
	}
	if res.RowsAffected() == 0 {
		return notFound("revoke session")
	}
	return nil
}

func (r *SessionRepository) RevokeByID(ctx context.Context, id, userID string) error {
	res, err := r.pool.Exec(ctx, `
		update sessions set revoked = true
		where id = $1::uuid and user_id = $2::uuid and revoked = false
	`, id, userID)
	if err != nil {
		return mapPgErr(err, "revoke session by id")
	}
	if res.RowsAffected() == 1 {
		return nil
	}

	var revoked bool
	err = r.pool.QueryRow(ctx, `select revoked from sessions where id = $1::uuid and user_id = $2::uuid`, id, userID).Scan(&revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("revoke session by id")
		}
		return mapPgErr(err, "revoke session by id")
	}
	if revoked {
		return oops.Code("SESSION_ALREADY_REVOKED").With("session_id", id).Wrap(repository.ErrAlreadyRevoked)
	}
	return oops.Code("SESSION_REVOKE_RACE").With("session_id", id).Errorf("session %s neither updated nor revoked", id)
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.pool.Exec(ctx, `update sessions set revoked = true where user_id = $1::uuid and revoked = false`, userID)
	if err != nil {
		return 0, mapPgErr(err, "revoke user sessions")
	}
	return res.RowsAffected(), nil
}

func (r *SessionRepository) RotateRefreshToken(ctx context.Context, oldToken, newToken string) error {
	res, err := r.pool.Exec(ctx, `
		update sessions set refresh_token = $2
		where refresh_token = $1 and revoked = false
	`, oldToken, newToken)
	if err != nil {
		return mapPgErr(err, "rotate session token")
	}
	if res.RowsAffected() == 0 {
		return notFound("rotate session token")
	}
	return nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
