package mailer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, queue string, body any) error
}

// RabbitQueue enqueues jobs for cmd/email_worker.
type RabbitQueue struct {
	Publisher JSONPublisher
	Queue     string
}

func (q *RabbitQueue) Enqueue(ctx context.Context, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return errors.New("email job without recipient")
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	return q.Publisher.PublishJSON(ctx, q.Queue, job)
}

// LogQueue only logs jobs. Used when MAIL_SEND_ENABLED=false.
type LogQueue struct {
	Logger *logrus.Logger
}

func (q *LogQueue) Enqueue(_ context.Context, job EmailJob) error {
	q.Logger.WithField("to", job.To).WithField("template", job.Template).Info("email suppressed (mail sending disabled)")
	return nil
}
