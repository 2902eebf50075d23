package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	repo "github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

// UserService exposes the signed-in user's own profile.
type UserService struct {
	Users    repo.UserRepository
	Sessions repo.SessionRepository
	Tokens   repo.RefreshTokenRepository
	Hasher   PasswordHasher
	Logger   *logrus.Logger
	Audit    AuditRecorder
	Alerts   *SecurityAlerts
	Now      func() time.Time
}

func NewUserService(users repo.UserRepository, sessions repo.SessionRepository, tokens repo.RefreshTokenRepository,
	hasher PasswordHasher, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = discardLogger()
	}
	return &UserService{
		Users:    users,
		Sessions: sessions,
		Tokens:   tokens,
		Hasher:   hasher,
		Logger:   logger,
		Audit:    nopRecorder{},
	}
}

func (s *UserService) now() time.Time { return clock(s.Now) }

func (s *UserService) record(ctx context.Context, e AuditEvent) {
	if s.Audit == nil {
		return
	}
	e.At = s.now()
	s.Audit.Record(ctx, e)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errUserNotFound
		}
		s.Logger.WithError(err).WithField("user_id", userID).Error("get profile failed")
		return nil, apperr.Internal("get profile failed", err)
	}
	return u, nil
}

// UpdateProfileInput changes only the non-nil fields. An empty PhoneNumber clears it.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if err := checkName("first name", v); err != nil {
			return nil, err
		}
		u.FirstName = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if err := checkName("last name", v); err != nil {
			return nil, err
		}
		u.LastName = v
	}
	if in.Email != nil {
		v := entity.NormalizeEmail(*in.Email)
		if !validEmail(v) {
			return nil, apperr.BadRequest("invalid email address")
		}
		u.Email = v
	}
	if in.PhoneNumber != nil {
		v := strings.TrimSpace(*in.PhoneNumber)
		if v != "" && !validPhone(v) {
			return nil, apperr.BadRequest("phone number must be in E.164 format")
		}
		u.PhoneNumber = v
	}
	u.UpdatedAt = s.now()
	if err := s.Users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return nil, apperr.Conflict("email or phone number already in use")
		case errors.Is(err, repo.ErrNotFound):
			return nil, errUserNotFound
		}
		s.Logger.WithError(err).WithField("user_id", userID).Error("update profile failed")
		return nil, apperr.Internal("update profile failed", err)
	}
	s.record(ctx, AuditEvent{Type: EventProfileUpdated, UserID: userID, Success: true})
	return u, nil
}

// ChangePassword requires the current password and signs out every session.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Hasher.Verify(current, u.PasswordHash) {
		s.record(ctx, AuditEvent{Type: EventPasswordChanged, UserID: userID, Reason: "wrong password"})
		return apperr.Unauthorized("current password is incorrect")
	}
	if err := checkNewPassword(next); err != nil {
		return err
	}
	hash, err := s.Hasher.Hash(next)
	if err != nil {
		s.Logger.WithError(err).Error("hash password failed")
		return apperr.Internal("hash password failed", err)
	}
	now := s.now()
	u.PasswordHash = hash
	u.UpdatedAt = now
	if err := s.Users.Update(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("change password failed")
		return apperr.Internal("change password failed", err)
	}
	if err := revokeCredentials(ctx, s.Tokens, s.Sessions, userID); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("revoke credentials failed")
		return apperr.Internal("revoke credentials failed", err)
	}
	s.record(ctx, AuditEvent{Type: EventPasswordChanged, UserID: userID, Success: true})
	s.Alerts.PasswordChanged(ctx, u, now)
	return nil
}
