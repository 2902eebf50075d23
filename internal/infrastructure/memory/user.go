// Package memory holds mutex guarded, process local implementations of the
// domain repositories. They back STORE_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

type UserStore struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]entity.User)}
}

func (s *UserStore) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return repository.ErrConflict
	}
	if s.takenLocked(u, "") {
		return repository.ErrConflict
	}
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = entity.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if phone == "" {
		return nil, repository.ErrNotFound
	}
	for _, u := range s.users {
		if u.PhoneNumber == phone {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) Update(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	if s.takenLocked(u, u.ID) {
		return repository.ErrConflict
	}
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// takenLocked reports whether another user (not self) holds u's email or phone.
func (s *UserStore) takenLocked(u *entity.User, self string) bool {
	for id, other := range s.users {
		if id == self {
			continue
		}
		if other.Email == u.Email {
			return true
		}
		if u.PhoneNumber != "" && other.PhoneNumber == u.PhoneNumber {
			return true
		}
	}
	return false
}

var _ repository.UserRepository = (*UserStore)(nil)
