package helpers

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one message body.
type HandlerFunc func(ctx context.Context, body []byte) error

// Drain handles deliveries until msgs closes or ctx ends. Success acks,
// errors wrapping permanent are dropped, anything else is requeued.
func Drain(ctx context.Context, msgs <-chan amqp.Delivery, handle HandlerFunc, permanent error, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			err := handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case permanent != nil && errors.Is(err, permanent):
				logger.WithError(err).WithField("delivery_tag", msg.DeliveryTag).Warn("dropping message")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).WithField("delivery_tag", msg.DeliveryTag).Error("message failed, requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}
}
