package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

func TestUserStore(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	u := &entity.User{ID: "u1", Email: "a@example.com", PhoneNumber: "+15550001"}
	require.NoError(t, s.Create(ctx, u))

	// duplicate email
	err := s.Create(ctx, &entity.User{ID: "u2", Email: "a@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	// duplicate phone
	err = s.Create(ctx, &entity.User{ID: "u2", Email: "b@example.com", PhoneNumber: "+15550001"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	require.NoError(t, s.Create(ctx, &entity.User{ID: "u2", Email: "b@example.com"}))

	got, err := s.GetByEmail(ctx, "  A@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = s.GetByPhone(ctx, "+15550001")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = s.GetByPhone(ctx, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// returned values are copies
	got.FirstName = "mutated"
	again, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.FirstName)

	again.Email = "b@example.com"
	assert.ErrorIs(t, s.Update(ctx, again), repository.ErrConflict)
	again.Email = "a@example.com"
	again.FirstName = "Ann"
	require.NoError(t, s.Update(ctx, again))

	assert.ErrorIs(t, s.Update(ctx, &entity.User{ID: "missing"}), repository.ErrNotFound)
	require.NoError(t, s.Delete(ctx, "u2"))
	assert.ErrorIs(t, s.Delete(ctx, "u2"), repository.ErrNotFound)
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, &entity.Session{ID: "s1", UserID: "u1", RefreshToken: "r1", CreatedAt: base}))
	require.NoError(t, s.Create(ctx, &entity.Session{ID: "s2", UserID: "u1", RefreshToken: "r2", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Create(ctx, &entity.Session{ID: "s3", UserID: "u2", RefreshToken: "r3", CreatedAt: base}))

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)

	list, err = s.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.RevokeByID(ctx, "s3", "u1"), repository.ErrNotFound)
	assert.ErrorIs(t, s.RevokeByID(ctx, "missing", "u1"), repository.ErrNotFound)
	require.NoError(t, s.RevokeByID(ctx, "s1", "u1"))
	assert.ErrorIs(t, s.RevokeByID(ctx, "s1", "u1"), repository.ErrAlreadyRevoked)

	require.NoError(t, s.RotateRefreshToken(ctx, "r2", "r2b"))
	_, err = s.GetByRefreshToken(ctx, "r2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.RotateRefreshToken(ctx, "r1", "r1b"), repository.ErrNotFound)

	n, err := s.RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, s.Revoke(ctx, "unknown"), repository.ErrNotFound)
}

func TestRefreshTokenStore(t *testing.T) {
	s := NewRefreshTokenStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &entity.RefreshToken{Token: "t1", UserID: "u1"}))
	assert.ErrorIs(t, s.Create(ctx, &entity.RefreshToken{Token: "t1", UserID: "u1"}), repository.ErrConflict)

	ok, err := s.IsValid(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Revoke(ctx, "t1"))
	require.NoError(t, s.Revoke(ctx, "t1"))
	require.NoError(t, s.Revoke(ctx, "never-issued"))

	ok, err = s.IsValid(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IsValid(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetCodeStore_IssueSupersedes(t *testing.T) {
	s := NewResetCodeStore()
	ctx := context.Background()
	now := time.Now()

	n, err := s.Issue(ctx, &entity.PasswordResetCode{ID: "c1", UserID: "u1", Code: "111111", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Issue(ctx, &entity.PasswordResetCode{ID: "c2", UserID: "u1", Code: "222222", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetByCode(ctx, "111111")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	active, err := s.GetByCode(ctx, "222222")
	require.NoError(t, err)
	assert.Equal(t, "c2", active.ID)

	// another user's active code value is taken
	_, err = s.Issue(ctx, &entity.PasswordResetCode{ID: "c3", UserID: "u2", Code: "222222", ExpiresAt: now.Add(time.Minute)})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestResetCodeStore_MarkUsedSingleWinner(t *testing.T) {
	s := NewResetCodeStore()
	ctx := context.Background()
	now := time.Now()
	_, err := s.Issue(ctx, &entity.PasswordResetCode{ID: "c1", UserID: "u1", Code: "123456", ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkUsed(ctx, "c1", now) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.ErrorIs(t, s.MarkUsed(ctx, "c1", now), repository.ErrCodeUnavailable)
}

func TestResetCodeStore_ExpiredCodes(t *testing.T) {
	s := NewResetCodeStore()
	ctx := context.Background()
	now := time.Now()
	_, err := s.Issue(ctx, &entity.PasswordResetCode{ID: "old", UserID: "u1", Code: "000001", ExpiresAt: now.Add(-time.Second)})
	require.NoError(t, err)
	_, err = s.Issue(ctx, &entity.PasswordResetCode{ID: "new", UserID: "u2", Code: "000002", ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	assert.ErrorIs(t, s.MarkUsed(ctx, "old", now), repository.ErrCodeUnavailable)

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetByCode(ctx, "000002")
	require.NoError(t, err)
}
