package helpers

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))

	assert.True(t, h.Verify("Secret123", digest))
	assert.False(t, h.Verify("WrongPass", digest))

	other, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other, "salt must differ per hash")
}

func TestBcryptHasher_AcceptsOtherMinorVersions(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	digest, err := h.Hash("Secret123")
	require.NoError(t, err)

	for _, prefix := range []string{"$2b$", "$2y$"} {
		legacy := prefix + strings.TrimPrefix(digest, "$2a$")
		assert.True(t, h.Verify("Secret123", legacy), prefix)
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, digest := range []string{
		"", "plain", "$2a$", "$argon2id$v=19$bad", "$argon2id$v=19$m=1,t=1,p=1$!!$!!",
		"$argon2id$v=19$m=65536,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNo",
		"$argon2id$v=19$m=65536,t=1,p=0$c2FsdHNhbHQ$aGFzaGhhc2hoYXNo",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNo",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNo",
		"$argon2id$v=19$m=65536,t=100000,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNo",
	} {
		assert.NotPanics(t, func() { assert.False(t, h.Verify("Secret123", digest), digest) }, digest)
	}
}

func TestBcryptHasher_Argon2idDigest(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("Secret123"), salt, 1, 64*1024, 4, 32)
	digest := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 64*1024, 1, 4,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	h := NewBcryptHasher(bcrypt.MinCost)
	assert.True(t, h.Verify("Secret123", digest))
	assert.False(t, h.Verify("WrongPass", digest))
	assert.True(t, h.NeedsRehash(digest))
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	weak := NewBcryptHasher(bcrypt.MinCost)
	digest, err := weak.Hash("Secret123")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(digest))
	assert.True(t, NewBcryptHasher(bcrypt.MinCost+1).NeedsRehash(digest))
	assert.False(t, weak.NeedsRehash("not-a-digest"))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
	assert.Equal(t, 12, NewBcryptHasher(12).Cost)
}
