package sms

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
)

// Providers accepted by SMS_PROVIDER.
const (
	ProviderLog      = "log"
	ProviderTwilio   = "twilio"
	ProviderRabbitMQ = "rabbitmq"
)

type Options struct {
	Provider         string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	Queue            string
}

// NewNotifier builds the notifier selected by opts.Provider. pub is only
// needed for the rabbitmq provider.
func NewNotifier(opts Options, pub Publisher, logger *logrus.Logger) (repository.Notifier, error) {
	switch opts.Provider {
	case "", ProviderLog:
		return NewLogNotifier(logger), nil
	case ProviderTwilio:
		if opts.TwilioAccountSID == "" || opts.TwilioAuthToken == "" || opts.TwilioFrom == "" {
			return nil, errors.New("twilio provider needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		}
		return NewTwilioClient(opts.TwilioAccountSID, opts.TwilioAuthToken, opts.TwilioFrom, logger), nil
	case ProviderRabbitMQ:
		if pub == nil || opts.Queue == "" {
			return nil, errors.New("rabbitmq provider needs RABBITMQ_URL and RABBITMQ_SMS_QUEUE")
		}
		return NewQueueNotifier(pub, opts.Queue), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", opts.Provider)
	}
}
