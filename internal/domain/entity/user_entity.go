package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the auth domain.
// PasswordHash holds a bcrypt digest; legacy argon2id digests are still accepted
// on verification and upgraded on the next successful login.
//
// PhoneNumber is optional (empty when unset) and stored in E.164 form.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasPhone reports whether a reset code can be delivered to the user.
func (u *User) HasPhone() bool {
	return strings.TrimSpace(u.PhoneNumber) != ""
}

// NormalizeEmail lower-cases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
