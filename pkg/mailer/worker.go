package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPermanent marks jobs that must be dropped rather than requeued.
var ErrPermanent = errors.New("permanent email job failure")

// Worker renders queued jobs and hands them to a Sender.
type Worker struct {
	Sender  Sender
	Logger  *logrus.Logger
	Timeout time.Duration
}

// Handle processes one queue message body. Errors wrapping ErrPermanent mean
// the message is malformed and should not be retried.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}
	subject, text, html, err := job.Content()
	if err != nil {
		return err
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if w.Logger != nil {
		entry := w.Logger.WithField("to", job.To).WithField("template", job.Template)
		if !job.QueuedAt.IsZero() {
			entry = entry.WithField("queued_for", time.Since(job.QueuedAt).Round(time.Millisecond).String())
		}
		entry.Info("email sent")
	}
	return nil
}
