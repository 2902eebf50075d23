package mailer

import (
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/fintrack-auth/pkg/mailer/templates"
)

// EmailJob is the JSON payload on the email queue.
// Either Template (with Data) or Subject plus Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	QueuedAt time.Time      `json:"queued_at,omitempty"`
}

// Content resolves the subject and bodies to send. Every error it returns wraps
// ErrPermanent since retrying a malformed job cannot fix it.
func (j EmailJob) Content() (subject, text, html string, err error) {
	if strings.TrimSpace(j.To) == "" {
		return "", "", "", fmt.Errorf("%w: missing recipient", ErrPermanent)
	}
	subject, text, html = j.Subject, j.Text, j.HTML
	if j.Template != "" {
		subject, text, html, err = mailtpl.Render(j.Template, j.Data)
		if err != nil {
			return "", "", "", fmt.Errorf("%w: render %s: %v", ErrPermanent, j.Template, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return "", "", "", fmt.Errorf("%w: empty email", ErrPermanent)
	}
	return subject, text, html, nil
}
