package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/internal/infrastructure/sms"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// sms_worker drains the SMS queue filled by SMS_PROVIDER=rabbitmq and
// delivers through Twilio.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-sms-worker", cfg.Env, cfg.LogLevel)
	if cfg.RabbitMQURL == "" || cfg.RabbitMQSMSQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		log.Fatal("Twilio not configured")
	}

	conn, msgs, err := helpers.ConsumeQueue(cfg.RabbitMQURL, cfg.RabbitMQSMSQueue, "", 8)
	if err != nil {
		logger.WithError(err).Fatal("amqp consume")
	}
	defer func() { _ = conn.Close() }()

	twilio := sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	if cfg.TwilioBaseURL != "" {
		twilio.BaseURL = cfg.TwilioBaseURL
	}
	worker := &sms.Worker{Sender: twilio, Logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", cfg.RabbitMQSMSQueue).Info("sms worker listening")
	helpers.Drain(ctx, msgs, worker.Handle, sms.ErrPermanent, logger)
	logger.Info("sms worker stopped")
}
