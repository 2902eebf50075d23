package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/fintrack-auth/config"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
	"github.com/oksasatya/fintrack-auth/pkg/mailer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)
	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	// Prefetch 16 for fair dispatch between workers
	conn, msgs, err := helpers.ConsumeQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, "", 16)
	if err != nil {
		logger.WithError(err).Fatal("amqp consume")
	}
	defer func() { _ = conn.Close() }()

	worker := &mailer.Worker{
		Sender:  mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase),
		Logger:  logger,
		Timeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	helpers.Drain(ctx, msgs, worker.Handle, mailer.ErrPermanent, logger)
	logger.Info("email worker stopped")
}
