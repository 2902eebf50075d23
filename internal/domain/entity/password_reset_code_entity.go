package entity

import "time"

// PasswordResetCode is a single-use numeric code delivered by SMS.
type PasswordResetCode struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired reports whether the code is past its expiry at now.
func (c *PasswordResetCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// IsActive is true for an unused, unexpired code.
func (c *PasswordResetCode) IsActive(now time.Time) bool {
	return !c.Used && !c.IsExpired(now)
}
