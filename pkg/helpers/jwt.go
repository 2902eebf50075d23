package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeRefresh marks refresh tokens; access tokens carry no type claim.
const TokenTypeRefresh = "refresh"

// ErrInvalidToken covers bad signatures, malformed input, expiry and wrong token type.
var ErrInvalidToken = errors.New("invalid token")

// JWTConfig configures a JWTManager. Now defaults to time.Now.
type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// JWTManager handles generation and validation of JWT tokens.
// Tokens prove who signed them and when they expire; whether a refresh token
// still counts is decided by the session registry.
type JWTManager struct {
	secret     []byte
	issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewJWTManager(cfg JWTConfig) *JWTManager {
	m := &JWTManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}
	if m.AccessTTL <= 0 {
		m.AccessTTL = 30 * time.Minute
	}
	if m.RefreshTTL <= 0 {
		m.RefreshTTL = 7 * 24 * time.Hour
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.Type == TokenTypeRefresh }

func (m *JWTManager) CreateAccessToken(subject string) (string, time.Time, error) {
	return m.sign(subject, "", m.AccessTTL)
}

func (m *JWTManager) CreateRefreshToken(subject string) (string, time.Time, error) {
	return m.sign(subject, TokenTypeRefresh, m.RefreshTTL)
}

func (m *JWTManager) sign(subject, typ string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("empty token subject")
	}
	now := m.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	return s, exp, err
}

// Decode validates signature, algorithm and expiry and returns the claims.
func (m *JWTManager) Decode(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeAccess decodes a token and rejects refresh tokens.
func (m *JWTManager) DecodeAccess(tokenStr string) (*Claims, error) {
	claims, err := m.Decode(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, fmt.Errorf("%w: refresh token used as access token", ErrInvalidToken)
	}
	return claims, nil
}

// DecodeRefresh decodes a token and requires the refresh type marker.
func (m *JWTManager) DecodeRefresh(tokenStr string) (*Claims, error) {
	claims, err := m.Decode(tokenStr)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}
