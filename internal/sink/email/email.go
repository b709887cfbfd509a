// Package email implements an SMTP-based notification sink.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/threshold-labs/sentry/internal/core"
)

// Email delivers notification events over SMTP.
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new email sink.
func New(host string, port int, username, password, from string, to []string) (*Email, error) {
	if host == "" || from == "" || len(to) == 0 {
		return nil, fmt.Errorf("email: host, from, and to are required")
	}
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
	}, nil
}

func (e *Email) Name() string { return "email" }

func (e *Email) Emit(ctx context.Context, event core.NotificationEvent) error {
	subject := fmt.Sprintf("[%s] Signal %s: %s", strings.ToUpper(string(event.Urgency)),
		event.ToStatus, event.SignalName)
	return e.sendMail(subject, formatEvent(event))
}

func formatEvent(event core.NotificationEvent) string {
	return fmt.Sprintf(`Signal Notification

Signal:     %s
Thesis:     %s
Transition: %s -> %s
Value:      %.4f
Threshold:  %.4f
Urgency:    %s
Time:       %s

%s
`,
		event.SignalName,
		event.ThesisID,
		event.FromStatus,
		event.ToStatus,
		event.CurrentValue,
		event.ThresholdValue,
		event.Urgency,
		event.CreatedAt.Format("2006-01-02 15:04:05"),
		event.Message,
	)
}

func (e *Email) sendMail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		body,
	)

	return e.send(addr, auth, e.from, e.to, []byte(msg))
}
