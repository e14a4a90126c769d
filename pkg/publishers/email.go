package publishers

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// sendFunc matches smtp.SendMail; injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// emailPublisher sends one HTML message per processed document.
type emailPublisher struct {
	id       string
	typ      string
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	send     sendFunc
	log      Logger
}

func newEmailPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Email == nil {
		return nil, fmt.Errorf("publisher %q missing email configuration", cfg.ID)
	}

	return &emailPublisher{
		id:       cfg.ID,
		typ:      TypeEmail,
		host:     cfg.Email.Host,
		port:     cfg.Email.Port,
		username: cfg.Email.Username,
		password: cfg.Email.Password,
		from:     cfg.Email.From,
		to:       cfg.Email.To,
		send:     smtp.SendMail,
		log:      ensureLogger(log),
	}, nil
}

func (e *emailPublisher) ID() string   { return e.id }
func (e *emailPublisher) Type() string { return e.typ }

// Publish sends the message and returns the recipient list as the
// receipt.
func (e *emailPublisher) Publish(_ context.Context, evt Event) (string, error) {
	subject := fmt.Sprintf("Digest: %s", evt.Document.Title)
	msg := buildEmailMessage(e.from, e.to, subject, buildEmailBody(evt))

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	if err := e.send(addr, auth, e.from, e.to, msg); err != nil {
		e.log.ErrorObj("email send failed", "publisher_email_error", map[string]any{
			"publisher_id": e.id,
			"document_id":  evt.Document.ID,
			"error":        err.Error(),
		})
		return "", fmt.Errorf("send email: %w", err)
	}
	return strings.Join(e.to, ","), nil
}

func buildEmailMessage(from string, to []string, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from,
		strings.Join(to, ","),
		subject,
		body,
	)
	return []byte(msg)
}

func buildEmailBody(evt Event) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html><head><style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; color: #333; }
h2 { color: #1a1a2e; }
.meta { color: #666; font-size: 0.9em; margin-bottom: 10px; }
.key-points li { margin-bottom: 5px; }
</style></head><body>`)

	sb.WriteString(fmt.Sprintf(`<h2><a href="%s">%s</a></h2>`, evt.Document.URL, evt.Document.Title))
	if meta := entryMeta(evt); meta != "" {
		sb.WriteString(fmt.Sprintf(`<div class="meta">%s</div>`, meta))
	}
	sb.WriteString(fmt.Sprintf("<p>%s</p>", evt.Summary.Synopsis))

	if len(evt.Summary.KeyPoints) > 0 {
		sb.WriteString(`<div class="key-points"><strong>Key Points:</strong><ul>`)
		for _, kp := range evt.Summary.KeyPoints {
			sb.WriteString(fmt.Sprintf("<li>%s</li>", kp))
		}
		sb.WriteString("</ul></div>")
	}

	sb.WriteString("</body></html>")
	return sb.String()
}
