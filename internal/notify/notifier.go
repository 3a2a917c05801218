// Package notify turns marketplace events into mail for administrators and vendors.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, m Message) error
}

type SMTPNotifier struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (n *SMTPNotifier) Send(_ context.Context, m Message) error {
	if len(m.To) == 0 {
		return nil
	}
	var auth smtp.Auth
	if n.Username != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(m.Body)

	addr := net.JoinHostPort(n.Host, n.Port)
	if err := smtp.SendMail(addr, auth, n.From, m.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of sending them. Used when
// SMTP_HOST is empty.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, m Message) error {
	logging.FromContext(ctx).Info("notification", "to", strings.Join(m.To, ","), "subject", m.Subject)
	return nil
}
