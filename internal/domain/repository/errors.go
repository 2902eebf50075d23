package repository

import "errors"

// Store-level sentinels. Implementations wrap them; callers match with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyRevoked = errors.New("already revoked")
	// ErrCodeUnavailable means a reset code could not be claimed: it was
	// already used, superseded, or expired by the time of the update.
	ErrCodeUnavailable = errors.New("reset code unavailable")
)
