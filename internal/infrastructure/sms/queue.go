package sms

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// SMSJob is the JSON payload put on the SMS queue.
type SMSJob struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, body any) error
}

// QueueNotifier hands messages to cmd/sms_worker. Numbers that are not valid
// E.164 are refused up front since the worker could never deliver them.
type QueueNotifier struct {
	Publisher Publisher
	Queue     string
	validate  *validator.Validate
}

func NewQueueNotifier(p Publisher, queue string) *QueueNotifier {
	return &QueueNotifier{Publisher: p, Queue: queue, validate: validator.New()}
}

func (n *QueueNotifier) Send(ctx context.Context, phoneNumber, message string) (bool, error) {
	if n.validate.Var(phoneNumber, "required,e164") != nil {
		return false, nil
	}
	if err := n.Publisher.PublishJSON(ctx, n.Queue, SMSJob{To: phoneNumber, Body: message}); err != nil {
		return false, err
	}
	return true, nil
}

func (n *QueueNotifier) GenerateCode() (string, error) { return helpers.GenOTPCode() }

var _ repository.Notifier = (*QueueNotifier)(nil)
