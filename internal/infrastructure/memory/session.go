package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]entity.Session)}
}

func (s *SessionStore) Create(_ context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return repository.ErrConflict
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *SessionStore) GetByRefreshToken(_ context.Context, token string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTokenLocked(token)
	if !ok {
		return nil, repository.ErrNotFound
	}
	sess := s.sessions[id]
	return &sess, nil
}

func (s *SessionStore) GetByID(_ context.Context, id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (s *SessionStore) ListByUser(_ context.Context, userID string) ([]entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTokenLocked(token)
	if !ok {
		return repository.ErrNotFound
	}
	sess := s.sessions[id]
	sess.Revoked = true
	s.sessions[id] = sess
	return nil
}

func (s *SessionStore) RevokeByID(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return repository.ErrNotFound
	}
	if sess.Revoked {
		return repository.ErrAlreadyRevoked
	}
	sess.Revoked = true
	s.sessions[id] = sess
	return nil
}

func (s *SessionStore) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && !sess.Revoked {
			sess.Revoked = true
			s.sessions[id] = sess
			n++
		}
	}
	return n, nil
}

func (s *SessionStore) RotateRefreshToken(_ context.Context, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTokenLocked(oldToken)
	if !ok || s.sessions[id].Revoked {
		return repository.ErrNotFound
	}
	sess := s.sessions[id]
	sess.RefreshToken = newToken
	s.sessions[id] = sess
	return nil
}

func (s *SessionStore) byTokenLocked(token string) (string, bool) {
	for id, sess := range s.sessions {
		if sess.RefreshToken == token {
			return id, true
		}
	}
	return "", false
}

var _ repository.SessionRepository = (*SessionStore)(nil)
