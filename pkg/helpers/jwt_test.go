package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestJWT(secret string, now time.Time) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:     secret,
		Issuer:     "fintrack-auth",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        fixedClock(now),
	})
}

func TestJWTManager_AccessToken(t *testing.T) {
	now := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	m := newTestJWT("secret-a", now)

	tok, exp, err := m.CreateAccessToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), exp)

	claims, err := m.DecodeAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.False(t, claims.IsRefresh())
	assert.Equal(t, 30*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.NotEmpty(t, claims.ID)

	_, err = m.DecodeRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RefreshToken(t *testing.T) {
	now := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	m := newTestJWT("secret-a", now)

	tok, exp, err := m.CreateRefreshToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), exp)

	claims, err := m.DecodeRefresh(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh())
	assert.Equal(t, "user-1", claims.Subject)

	_, err = m.DecodeAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_TokensAreUnique(t *testing.T) {
	m := newTestJWT("secret-a", time.Now())

	a, _, err := m.CreateRefreshToken("user-1")
	require.NoError(t, err)
	b, _, err := m.CreateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestJWTManager_DecodeFailures(t *testing.T) {
	now := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	m := newTestJWT("secret-a", now)
	tok, _, err := m.CreateAccessToken("user-1")
	require.NoError(t, err)
	other, _, err := m.CreateAccessToken("user-2")
	require.NoError(t, err)
	parts, otherParts := strings.Split(tok, "."), strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]

	tests := []struct {
		name  string
		mgr   *JWTManager
		token string
	}{
		{name: "wrong secret", mgr: newTestJWT("secret-b", now), token: tok},
		{name: "malformed", mgr: m, token: "not.a.jwt"},
		{name: "empty", mgr: m, token: ""},
		{name: "expired", mgr: newTestJWT("secret-a", now.Add(31*time.Minute)), token: tok},
		{name: "tampered payload", mgr: m, token: tampered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mgr.Decode(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTManager_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	m := newTestJWT("secret-a", now)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "fintrack-auth",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret-a"))
	require.NoError(t, err)

	_, err = m.Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RequiresExpiry(t *testing.T) {
	m := newTestJWT("secret-a", time.Now())
	claims := jwt.RegisteredClaims{Subject: "user-1", Issuer: "fintrack-auth"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret-a"))
	require.NoError(t, err)

	_, err = m.Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Defaults(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s"})
	assert.Equal(t, 30*time.Minute, m.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, m.RefreshTTL)

	_, _, err := m.CreateAccessToken("")
	assert.Error(t, err)
}
