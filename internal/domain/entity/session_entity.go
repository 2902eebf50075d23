package entity

import "time"

// Session is one tracked login. Revoked only ever moves false -> true.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	UserAgent    string
	IPAddress    string
	CreatedAt    time.Time
	Revoked      bool
}
