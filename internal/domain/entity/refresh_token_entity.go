package entity

import "time"

// RefreshToken is a persisted bearer credential exchanged for access tokens.
type RefreshToken struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	Revoked   bool
}

// IsValid is false forever once the token is revoked.
func (t *RefreshToken) IsValid() bool {
	return t != nil && !t.Revoked
}
