package helpers

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

const argon2idPrefix = "$argon2id$"

// BcryptHasher hashes credentials with bcrypt at a fixed cost.
// Verify also accepts any bcrypt minor version ($2a$, $2b$, $2y$) and
// argon2id PHC strings imported from older deployments.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher; out of range costs fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash hashes the plain text password using bcrypt
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest. Malformed digests never match.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	if strings.HasPrefix(digest, argon2idPrefix) {
		return verifyArgon2id(plain, digest)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NeedsRehash is true for argon2id digests and bcrypt digests weaker than h.Cost.
func (h *BcryptHasher) NeedsRehash(digest string) bool {
	if strings.HasPrefix(digest, argon2idPrefix) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false
	}
	return cost < h.Cost
}

// Limits on legacy argon2id parameters so a bad stored digest cannot stall a login.
const (
	argon2MaxMemoryKiB  = 1 << 22
	argon2MaxIterations = 64
)

// verifyArgon2id checks a $argon2id$v=19$m=..,t=..,p=..$<salt>$<hash> digest.
func verifyArgon2id(plain, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	// argon2.IDKey panics on zero rounds or threads.
	if iterations < 1 || iterations > argon2MaxIterations || threads < 1 || memory < 1 || memory > argon2MaxMemoryKiB {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false
	}
	computed := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
