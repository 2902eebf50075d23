package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrPermanent marks queue messages that must be dropped rather than requeued.
var ErrPermanent = errors.New("permanent sms job failure")

// TextSender is the delivery half of repository.Notifier.
type TextSender interface {
	Send(ctx context.Context, phoneNumber, message string) (bool, error)
}

// Worker delivers queued SMS jobs.
type Worker struct {
	Sender TextSender
	Logger *logrus.Logger
}

func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job SMSJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}
	if job.To == "" || job.Body == "" {
		return fmt.Errorf("%w: incomplete job", ErrPermanent)
	}
	ok, err := w.Sender.Send(ctx, job.To, job.Body)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: recipient %s refused", ErrPermanent, job.To)
	}
	return nil
}
