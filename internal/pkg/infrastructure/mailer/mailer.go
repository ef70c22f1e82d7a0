package mailer

import (
	"context"
	"fmt"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/wneessen/go-mail"
)

// Maximum text lengths enforced at this boundary. Longer subjects or bodies
// are truncated here rather than in the composition logic.
const (
	MaxSubjectLen = 128
	MaxBodyLen    = 4096
)

// Notifier delivers one notification to the configured recipient set.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

var _ Notifier = (*SMTP)(nil)

// SMTP sends notifications as plain-text email over SMTPS.
type SMTP struct {
	host       string
	port       int
	fromName   string
	from       string
	password   string
	recipients []string
}

func NewSMTP(host string, port int, fromName, from, password string, recipients []string) *SMTP {
	// An empty recipient slot is allowed in config (optional second
	// address, e.g. an email-to-SMS gateway) and skipped here.
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r != "" {
			to = append(to, r)
		}
	}

	return &SMTP{
		host:       host,
		port:       port,
		fromName:   fromName,
		from:       from,
		password:   password,
		recipients: to,
	}
}

func (s *SMTP) Send(ctx context.Context, subject, body string) error {
	log := logging.GetFromContext(ctx)

	subject = Truncate(subject, MaxSubjectLen)
	body = Truncate(body, MaxBodyLen)

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.from),
		mail.WithPassword(s.password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	log.Info().Str("subject", subject).Int("recipients", len(s.recipients)).Msg("notification sent")

	return nil
}

// Truncate shortens s to at most max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
