package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	repo "github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// TokenTypeBearer is returned with every token pair.
const TokenTypeBearer = "Bearer"

const maxUserAgentLength = 512

var (
	errInvalidCredentials = apperr.Unauthorized("invalid credentials")
	errInvalidRefresh     = apperr.Unauthorized("invalid or revoked refresh token")
	errInvalidAccess      = apperr.Unauthorized("invalid or expired token")
	errUserNotFound       = apperr.NotFound("user not found")
	errSessionNotFound    = apperr.NotFound("session not found")
)

type TokenPair struct {
	UserID             string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
	TokenType          string
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

// AuthService owns registration, login, refresh and session lifecycle.
type AuthService struct {
	Users    repo.UserRepository
	Sessions repo.SessionRepository
	Tokens   repo.RefreshTokenRepository
	Hasher   PasswordHasher
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger
	Audit    AuditRecorder
	Alerts   *SecurityAlerts
	// RotateRefresh issues a new refresh token on every refresh and revokes the old one.
	RotateRefresh bool
	Now           func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repo.UserRepository, sessions repo.SessionRepository, tokens repo.RefreshTokenRepository,
	hasher PasswordHasher, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = discardLogger()
	}
	return &AuthService{
		Users:    users,
		Sessions: sessions,
		Tokens:   tokens,
		Hasher:   hasher,
		JWT:      jwt,
		Logger:   logger,
		Audit:    nopRecorder{},
	}
}

func (s *AuthService) now() time.Time { return clock(s.Now) }

func (s *AuthService) record(ctx context.Context, e AuditEvent) {
	if s.Audit == nil {
		return
	}
	e.At = s.now()
	s.Audit.Record(ctx, e)
}

func (s *AuthService) internal(op string, err error, fields logrus.Fields) error {
	s.Logger.WithError(err).WithFields(fields).Error(op + " failed")
	return apperr.Internal(op+" failed", err)
}

// Register creates an account. The returned user still carries the hash;
// the HTTP layer never serializes it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	email := entity.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.PhoneNumber)

	if first == "" || last == "" || email == "" || in.Password == "" {
		return nil, apperr.BadRequest("first name, last name, email and password are required")
	}
	if err := checkName("first name", first); err != nil {
		return nil, err
	}
	if err := checkName("last name", last); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, apperr.BadRequest("invalid email address")
	}
	if phone != "" && !validPhone(phone) {
		return nil, apperr.BadRequest("phone number must be in E.164 format")
	}
	if err := checkPasswordBytes(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.internal("lookup user", err, logrus.Fields{"op": "register"})
	}
	if phone != "" {
		if _, err := s.Users.GetByPhone(ctx, phone); err == nil {
			return nil, apperr.Conflict("phone number already registered")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, s.internal("lookup user", err, logrus.Fields{"op": "register"})
		}
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal("hash password", err, nil)
	}
	now := s.now()
	u := &entity.User{
		ID:           uuid.NewString(),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, apperr.Conflict("email or phone number already registered")
		}
		return nil, s.internal("create user", err, logrus.Fields{"email": email})
	}
	s.record(ctx, AuditEvent{Type: EventRegister, UserID: u.ID, Success: true})
	s.Logger.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, s.internal("lookup user", err, logrus.Fields{"op": "login"})
		}
		// burn comparable time so unknown emails are not distinguishable by latency
		s.Hasher.Verify(password, s.dummyDigest())
		s.record(ctx, AuditEvent{Type: EventLogin, Reason: "unknown email"})
		return nil, errInvalidCredentials
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		s.record(ctx, AuditEvent{Type: EventLogin, UserID: u.ID, Reason: "wrong password"})
		return nil, errInvalidCredentials
	}
	s.upgradeHash(ctx, u, password)

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, s.internal("issue tokens", err, logrus.Fields{"user_id": u.ID})
	}
	rt := &entity.RefreshToken{Token: pair.RefreshToken, UserID: u.ID, CreatedAt: s.now()}
	if err := s.Tokens.Create(ctx, rt); err != nil {
		return nil, s.internal("store refresh token", err, logrus.Fields{"user_id": u.ID})
	}
	s.record(ctx, AuditEvent{Type: EventLogin, UserID: u.ID, Success: true})
	return pair, nil
}

// CreateSession records the login that produced refreshToken.
func (s *AuthService) CreateSession(ctx context.Context, userID, refreshToken, userAgent, ip string) (*entity.Session, error) {
	if userID == "" || refreshToken == "" {
		return nil, apperr.BadRequest("user id and refresh token are required")
	}
	now := s.now()
	sess := &entity.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		RefreshToken: refreshToken,
		UserAgent:    truncate(userAgent, maxUserAgentLength),
		IPAddress:    strings.TrimSpace(ip),
		CreatedAt:    now,
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, s.internal("create session", err, logrus.Fields{"user_id": userID})
	}
	s.record(ctx, AuditEvent{Type: EventSessionCreated, UserID: userID, Success: true, IP: sess.IPAddress, UserAgent: sess.UserAgent})

	if s.Alerts != nil {
		if u, err := s.Users.GetByID(ctx, userID); err == nil {
			s.Alerts.NewSignIn(ctx, u, sess.UserAgent, sess.IPAddress, now)
		}
	}
	return sess, nil
}

// RefreshAccessToken exchanges a live refresh token for a new access token.
// The session holding the token gates the exchange, so revoking the session
// is enough to stop further refreshes.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.JWT.DecodeRefresh(refreshToken)
	if err != nil {
		s.record(ctx, AuditEvent{Type: EventRefresh, Reason: "invalid token"})
		return nil, errInvalidRefresh
	}
	sess, err := s.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.record(ctx, AuditEvent{Type: EventRefresh, UserID: claims.Subject, Reason: "no session"})
			return nil, errInvalidRefresh
		}
		return nil, s.internal("lookup session", err, nil)
	}
	if sess.Revoked || sess.UserID != claims.Subject {
		s.record(ctx, AuditEvent{Type: EventRefresh, UserID: claims.Subject, Reason: "session revoked"})
		return nil, errInvalidRefresh
	}
	valid, err := s.Tokens.IsValid(ctx, refreshToken)
	if err != nil {
		return nil, s.internal("check refresh token", err, nil)
	}
	if !valid {
		s.record(ctx, AuditEvent{Type: EventRefresh, UserID: claims.Subject, Reason: "token revoked"})
		return nil, errInvalidRefresh
	}
	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, s.internal("lookup user", err, nil)
	}

	access, aexp, err := s.JWT.CreateAccessToken(u.ID)
	if err != nil {
		return nil, s.internal("issue access token", err, logrus.Fields{"user_id": u.ID})
	}
	pair := &TokenPair{
		UserID:            u.ID,
		AccessToken:       access,
		AccessTokenExpiry: aexp,
		RefreshToken:      refreshToken,
		TokenType:         TokenTypeBearer,
	}
	if claims.ExpiresAt != nil {
		pair.RefreshTokenExpiry = claims.ExpiresAt.Time
	}
	if s.RotateRefresh {
		if err := s.rotate(ctx, u.ID, pair); err != nil {
			return nil, err
		}
	}
	s.record(ctx, AuditEvent{Type: EventRefresh, UserID: u.ID, Success: true})
	return pair, nil
}

// rotate swaps pair.RefreshToken for a fresh one. The session swap is
// conditional, so of two concurrent refreshes with the same token only one wins.
func (s *AuthService) rotate(ctx context.Context, userID string, pair *TokenPair) error {
	old := pair.RefreshToken
	next, rexp, err := s.JWT.CreateRefreshToken(userID)
	if err != nil {
		return s.internal("issue refresh token", err, logrus.Fields{"user_id": userID})
	}
	if err := s.Tokens.Create(ctx, &entity.RefreshToken{Token: next, UserID: userID, CreatedAt: s.now()}); err != nil {
		return s.internal("store refresh token", err, logrus.Fields{"user_id": userID})
	}
	if err := s.Sessions.RotateRefreshToken(ctx, old, next); err != nil {
		_ = s.Tokens.Revoke(ctx, next)
		if errors.Is(err, repo.ErrNotFound) {
			return errInvalidRefresh
		}
		return s.internal("rotate session token", err, logrus.Fields{"user_id": userID})
	}
	if err := s.Tokens.Revoke(ctx, old); err != nil {
		return s.internal("revoke refresh token", err, logrus.Fields{"user_id": userID})
	}
	pair.RefreshToken = next
	pair.RefreshTokenExpiry = rexp
	return nil
}

// Logout revokes the refresh token and the session holding it. Unknown or
// already revoked tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	if err := s.Tokens.Revoke(ctx, refreshToken); err != nil {
		return s.internal("revoke refresh token", err, nil)
	}
	if err := s.Sessions.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return s.internal("revoke session", err, nil)
	}
	s.record(ctx, AuditEvent{Type: EventLogout, Success: true})
	return nil
}

// ListSessions returns the user's sessions, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]entity.Session, error) {
	list, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.internal("list sessions", err, logrus.Fields{"user_id": userID})
	}
	if list == nil {
		list = []entity.Session{}
	}
	return list, nil
}

// RevokeSession revokes one of the caller's sessions along with its refresh
// token. Sessions of other users look exactly like missing ones.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, userID string) error {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errSessionNotFound
		}
		return s.internal("lookup session", err, nil)
	}
	if sess.UserID != userID {
		return errSessionNotFound
	}
	if err := s.Sessions.RevokeByID(ctx, sessionID, userID); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errSessionNotFound
		case errors.Is(err, repo.ErrAlreadyRevoked):
			return apperr.AlreadyRevoked("session already revoked")
		default:
			return s.internal("revoke session", err, logrus.Fields{"session_id": sessionID})
		}
	}
	if err := s.Tokens.Revoke(ctx, sess.RefreshToken); err != nil {
		return s.internal("revoke refresh token", err, logrus.Fields{"session_id": sessionID})
	}
	s.record(ctx, AuditEvent{Type: EventSessionRevoked, UserID: userID, Success: true})
	return nil
}

// Authenticate resolves an access token to its user id.
func (s *AuthService) Authenticate(_ context.Context, accessToken string) (string, error) {
	claims, err := s.JWT.DecodeAccess(accessToken)
	if err != nil {
		return "", errInvalidAccess
	}
	return claims.Subject, nil
}

func (s *AuthService) issuePair(userID string) (*TokenPair, error) {
	access, aexp, err := s.JWT.CreateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, rexp, err := s.JWT.CreateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		UserID:             userID,
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
		TokenType:          TokenTypeBearer,
	}, nil
}

// upgradeHash replaces legacy or weak digests after a successful login.
func (s *AuthService) upgradeHash(ctx context.Context, u *entity.User, password string) {
	if !s.Hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("rehash password failed")
		return
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	if err := s.Users.Update(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("store upgraded hash failed")
		return
	}
	s.Logger.WithField("user_id", u.ID).Info("password hash upgraded")
}

func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// revokeCredentials revokes every refresh token and session of a user.
func revokeCredentials(ctx context.Context, tokens repo.RefreshTokenRepository, sessions repo.SessionRepository, userID string) error {
	if _, err := tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	if _, err := sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	return nil
}
