// Package sms implements the one-time-code notifier: a logging notifier for
// development, a direct Twilio notifier and a RabbitMQ backed one drained by
// cmd/sms_worker.
package sms

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// LogNotifier writes messages to the log instead of sending them. Every send succeeds.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, phoneNumber, message string) (bool, error) {
	n.Logger.WithField("to", phoneNumber).WithField("message", message).Info("sms (log provider)")
	return true, nil
}

func (n *LogNotifier) GenerateCode() (string, error) { return helpers.GenOTPCode() }

var _ repository.Notifier = (*LogNotifier)(nil)
