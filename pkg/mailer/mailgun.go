package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends through the Mailgun messages API.
type Mailgun struct {
	Sender  string
	Tags    []string
	Timeout time.Duration
	client  mg.Mailgun
}

// NewMailgun builds a sender for domain. apiBase is optional (for example the EU endpoint).
func NewMailgun(domain, apiKey, sender string, apiBase ...string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if len(apiBase) > 0 && apiBase[0] != "" {
		client.SetAPIBase(apiBase[0])
	}
	return &Mailgun{Sender: sender, Tags: []string{"security-alert"}, Timeout: 10 * time.Second, client: client}
}

// Send sends one email. html is optional. Client errors other than 429 are
// returned wrapped in ErrPermanent so the worker drops the job.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if len(m.Tags) > 0 {
		_ = msg.AddTag(m.Tags...)
	}
	c, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return classifyMailgunErr(err)
}

func classifyMailgunErr(err error) error {
	if err == nil {
		return nil
	}
	var ure *mg.UnexpectedResponseError
	if errors.As(err, &ure) && ure.Actual >= 400 && ure.Actual < 500 && ure.Actual != http.StatusTooManyRequests {
		return fmt.Errorf("%w: mailgun status %d: %v", ErrPermanent, ure.Actual, err)
	}
	return err
}
