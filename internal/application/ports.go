package application

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/pkg/mailer"
)

// PasswordHasher is satisfied by helpers.BcryptHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	NeedsRehash(digest string) bool
}

// EmailQueue hands security notifications to the email worker.
type EmailQueue interface {
	Enqueue(ctx context.Context, job mailer.EmailJob) error
}

// Audit event types.
const (
	EventRegister        = "register"
	EventLogin           = "login"
	EventSessionCreated  = "session_created"
	EventRefresh         = "refresh"
	EventLogout          = "logout"
	EventSessionRevoked  = "session_revoked"
	EventResetRequested  = "password_reset_requested"
	EventResetCompleted  = "password_reset_completed"
	EventPasswordChanged = "password_changed"
	EventProfileUpdated  = "profile_updated"
)

// AuditEvent describes one security relevant outcome. It never carries
// passwords, tokens or reset codes.
type AuditEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	At        time.Time `json:"at"`
}

// AuditRecorder consumes audit events. Record must not fail the request;
// implementations log their own errors.
type AuditRecorder interface {
	Record(ctx context.Context, e AuditEvent)
}

// MultiRecorder fans an event out to every recorder.
type MultiRecorder []AuditRecorder

func (m MultiRecorder) Record(ctx context.Context, e AuditEvent) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, e)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, AuditEvent) {}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
