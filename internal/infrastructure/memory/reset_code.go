package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

// ResetCodeStore serializes supersede, insert and claim under one mutex.
type ResetCodeStore struct {
	mu    sync.Mutex
	codes map[string]entity.PasswordResetCode
}

func NewResetCodeStore() *ResetCodeStore {
	return &ResetCodeStore{codes: make(map[string]entity.PasswordResetCode)}
}

func (s *ResetCodeStore) Issue(_ context.Context, c *entity.PasswordResetCode) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.ID]; ok {
		return 0, repository.ErrConflict
	}
	for _, other := range s.codes {
		if !other.Used && other.Code == c.Code && other.UserID != c.UserID {
			return 0, repository.ErrConflict
		}
	}
	var superseded int64
	for id, other := range s.codes {
		if other.UserID == c.UserID && !other.Used {
			other.Used = true
			s.codes[id] = other
			superseded++
		}
	}
	s.codes[c.ID] = *c
	return superseded, nil
}

func (s *ResetCodeStore) GetByCode(_ context.Context, code string) (*entity.PasswordResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.codes {
		if c.Code == code && !c.Used {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *ResetCodeStore) MarkUsed(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[id]
	if !ok || !c.IsActive(now) {
		return repository.ErrCodeUnavailable
	}
	c.Used = true
	s.codes[id] = c
	return nil
}

func (s *ResetCodeStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.codes {
		if c.IsExpired(now) {
			delete(s.codes, id)
			n++
		}
	}
	return n, nil
}

var _ repository.PasswordResetCodeRepository = (*ResetCodeStore)(nil)
