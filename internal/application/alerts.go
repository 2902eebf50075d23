package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/entity"
	"github.com/oksasatya/fintrack-auth/pkg/mailer"
	"github.com/oksasatya/fintrack-auth/pkg/mailer/templates"
)

// SecurityAlerts enqueues account notification emails. A nil *SecurityAlerts
// sends nothing. Enqueue failures are logged and never fail the caller.
type SecurityAlerts struct {
	Queue  EmailQueue
	Brand  templates.Brand
	Logger *logrus.Logger
}

func NewSecurityAlerts(q EmailQueue, brand templates.Brand, logger *logrus.Logger) *SecurityAlerts {
	if logger == nil {
		logger = discardLogger()
	}
	return &SecurityAlerts{Queue: q, Brand: brand, Logger: logger}
}

func (a *SecurityAlerts) NewSignIn(ctx context.Context, u *entity.User, userAgent, ip string, at time.Time) {
	if a == nil || a.Queue == nil || u == nil {
		return
	}
	data := templates.NewSignInData(a.Brand, u.FullName(), u.Email,
		templates.WithIP(ip), templates.WithUserAgent(userAgent), templates.WithTime(at))
	a.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: templates.NewSignIn, Data: data}, u.ID)
}

func (a *SecurityAlerts) PasswordChanged(ctx context.Context, u *entity.User, at time.Time) {
	if a == nil || a.Queue == nil || u == nil {
		return
	}
	data := templates.NewPasswordChangedData(a.Brand, u.FullName(), u.Email, templates.WithTime(at))
	a.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: templates.PasswordChanged, Data: data}, u.ID)
}

func (a *SecurityAlerts) enqueue(ctx context.Context, job mailer.EmailJob, userID string) {
	if err := a.Queue.Enqueue(ctx, job); err != nil {
		a.Logger.WithError(err).
			WithField("user_id", userID).
			WithField("template", job.Template).
			Warn("enqueue security email failed")
	}
}
