package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	repo "github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

// DefaultResetCodeTTL is how long a reset code stays valid.
const DefaultResetCodeTTL = 10 * time.Minute

// issueAttempts bounds regeneration when a code value collides with another live code.
const issueAttempts = 5

var errInvalidCode = apperr.BadRequest("invalid or expired code")

type ResetRequestInput struct {
	Email       string
	PhoneNumber string
}

// PasswordResetService runs the SMS one-time-code reset flow.
//
// A request supersedes every earlier unused code of the user. Verification
// claims the code with a conditional update before the new password is
// written, so a code can reset a password at most once.
type PasswordResetService struct {
	Users    repo.UserRepository
	Codes    repo.PasswordResetCodeRepository
	Sessions repo.SessionRepository
	Tokens   repo.RefreshTokenRepository
	Notifier repo.Notifier
	Hasher   PasswordHasher
	Logger   *logrus.Logger
	Audit    AuditRecorder
	Alerts   *SecurityAlerts
	CodeTTL  time.Duration
	Now      func() time.Time
}

func NewPasswordResetService(users repo.UserRepository, codes repo.PasswordResetCodeRepository,
	sessions repo.SessionRepository, tokens repo.RefreshTokenRepository,
	notifier repo.Notifier, hasher PasswordHasher, logger *logrus.Logger) *PasswordResetService {
	if logger == nil {
		logger = discardLogger()
	}
	return &PasswordResetService{
		Users:    users,
		Codes:    codes,
		Sessions: sessions,
		Tokens:   tokens,
		Notifier: notifier,
		Hasher:   hasher,
		Logger:   logger,
		Audit:    nopRecorder{},
		CodeTTL:  DefaultResetCodeTTL,
	}
}

func (s *PasswordResetService) now() time.Time { return clock(s.Now) }

func (s *PasswordResetService) ttl() time.Duration {
	if s.CodeTTL <= 0 {
		return DefaultResetCodeTTL
	}
	return s.CodeTTL
}

func (s *PasswordResetService) record(ctx context.Context, e AuditEvent) {
	if s.Audit == nil {
		return
	}
	e.At = s.now()
	s.Audit.Record(ctx, e)
}

func (s *PasswordResetService) internal(op string, err error, fields logrus.Fields) error {
	s.Logger.WithError(err).WithFields(fields).Error(op + " failed")
	return apperr.Internal(op+" failed", err)
}

// RequestReset issues a new code for the user identified by exactly one of
// email or phone number and texts it to the user's phone.
func (s *PasswordResetService) RequestReset(ctx context.Context, in ResetRequestInput) error {
	email := entity.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.PhoneNumber)
	if (email == "") == (phone == "") {
		return apperr.BadRequest("provide either an email or a phone number")
	}

	var (
		u   *entity.User
		err error
	)
	if email != "" {
		u, err = s.Users.GetByEmail(ctx, email)
	} else {
		u, err = s.Users.GetByPhone(ctx, phone)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errUserNotFound
		}
		return s.internal("lookup user", err, logrus.Fields{"op": "request_reset"})
	}
	if !u.HasPhone() {
		return apperr.BadRequest("no phone number configured for this account")
	}

	now := s.now()
	code, superseded, err := s.issue(ctx, u.ID, now)
	if err != nil {
		return err
	}
	if superseded > 0 {
		s.Logger.WithField("user_id", u.ID).WithField("superseded", superseded).Debug("previous reset codes superseded")
	}

	minutes := int(s.ttl().Round(time.Minute) / time.Minute)
	msg := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code.Code, minutes)
	delivered, err := s.Notifier.Send(ctx, u.PhoneNumber, msg)
	if err != nil {
		s.retire(ctx, code, now)
		return s.internal("send reset code", err, logrus.Fields{"user_id": u.ID})
	}
	if !delivered {
		s.retire(ctx, code, now)
		s.record(ctx, AuditEvent{Type: EventResetRequested, UserID: u.ID, Reason: "undeliverable"})
		return apperr.BadRequest("could not deliver code to this phone number")
	}
	s.record(ctx, AuditEvent{Type: EventResetRequested, UserID: u.ID, Success: true})
	return nil
}

func (s *PasswordResetService) issue(ctx context.Context, userID string, now time.Time) (*entity.PasswordResetCode, int64, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		value, err := s.Notifier.GenerateCode()
		if err != nil {
			return nil, 0, s.internal("generate reset code", err, nil)
		}
		c := &entity.PasswordResetCode{
			ID:        uuid.NewString(),
			UserID:    userID,
			Code:      value,
			ExpiresAt: now.Add(s.ttl()),
			CreatedAt: now,
		}
		superseded, err := s.Codes.Issue(ctx, c)
		if errors.Is(err, repo.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, 0, s.internal("store reset code", err, logrus.Fields{"user_id": userID})
		}
		return c, superseded, nil
	}
	s.Logger.WithField("user_id", userID).Warn("reset code allocation kept colliding")
	return nil, 0, apperr.Conflict("could not issue a reset code, try again")
}

// retire burns a code that never reached the user.
func (s *PasswordResetService) retire(ctx context.Context, c *entity.PasswordResetCode, now time.Time) {
	if err := s.Codes.MarkUsed(ctx, c.ID, now); err != nil && !errors.Is(err, repo.ErrCodeUnavailable) {
		s.Logger.WithError(err).WithField("user_id", c.UserID).Warn("retire undelivered reset code failed")
	}
}

// VerifyAndReset consumes code and sets newPassword on its owner. Unknown,
// used, superseded and expired codes all fail with the same message.
func (s *PasswordResetService) VerifyAndReset(ctx context.Context, code, newPassword string) error {
	if err := checkNewPassword(newPassword); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errInvalidCode
	}
	rc, err := s.Codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errInvalidCode
		}
		return s.internal("lookup reset code", err, nil)
	}
	now := s.now()
	if !rc.IsActive(now) {
		return errInvalidCode
	}
	u, err := s.Users.GetByID(ctx, rc.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errUserNotFound
		}
		return s.internal("lookup user", err, logrus.Fields{"op": "verify_reset"})
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return s.internal("hash password", err, nil)
	}
	if err := s.Codes.MarkUsed(ctx, rc.ID, now); err != nil {
		if errors.Is(err, repo.ErrCodeUnavailable) {
			return errInvalidCode
		}
		return s.internal("claim reset code", err, logrus.Fields{"user_id": u.ID})
	}

	u.PasswordHash = hash
	u.UpdatedAt = now
	if err := s.Users.Update(ctx, u); err != nil {
		return s.internal("update password", err, logrus.Fields{"user_id": u.ID})
	}
	if err := revokeCredentials(ctx, s.Tokens, s.Sessions, u.ID); err != nil {
		return s.internal("revoke credentials", err, logrus.Fields{"user_id": u.ID})
	}
	s.record(ctx, AuditEvent{Type: EventResetCompleted, UserID: u.ID, Success: true})
	s.Alerts.PasswordChanged(ctx, u, now)
	s.Logger.WithField("user_id", u.ID).Info("password reset completed")
	return nil
}

// DeleteExpiredCodes removes codes whose expiry has passed. Such codes can no
// longer be claimed, so the sweep is safe alongside live traffic.
func (s *PasswordResetService) DeleteExpiredCodes(ctx context.Context) (int64, error) {
	n, err := s.Codes.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, s.internal("delete expired codes", err, nil)
	}
	return n, nil
}
