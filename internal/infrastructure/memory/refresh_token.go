package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

type RefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]entity.RefreshToken
}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{tokens: make(map[string]entity.RefreshToken)}
}

func (s *RefreshTokenStore) Create(_ context.Context, t *entity.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[t.Token]; ok {
		return repository.ErrConflict
	}
	s.tokens[t.Token] = *t
	return nil
}

func (s *RefreshTokenStore) GetByToken(_ context.Context, token string) (*entity.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *RefreshTokenStore) ListByUser(_ context.Context, userID string) ([]entity.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.RefreshToken, 0)
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *RefreshTokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[token]; ok {
		t.Revoked = true
		s.tokens[token] = t
	}
	return nil
}

func (s *RefreshTokenStore) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			s.tokens[k] = t
			n++
		}
	}
	return n, nil
}

func (s *RefreshTokenStore) IsValid(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	return ok && t.IsValid(), nil
}

var _ repository.RefreshTokenRepository = (*RefreshTokenStore)(nil)
