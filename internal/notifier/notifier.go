// Package notifier delivers out-of-band messages to users.
package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/rs/zerolog"
)

// Notifier sends one message to a user.
//
//go:generate mockgen -source notifier.go -destination notifier_mock.go -package notifier
type Notifier interface {
	Notify(ctx context.Context, username, subject, body string) error
}

// Directory resolves the email address of a user.
type Directory interface {
	Email(ctx context.Context, username string) (string, error)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain text emails.
type SMTPNotifier struct {
	directory Directory
	addr      string
	host      string
	auth      smtp.Auth
	from      string
	send      sendFunc
}

// NewSMTPNotifier returns SMTPNotifier for the configured server.
func NewSMTPNotifier(directory Directory, config configpkg.Config) *SMTPNotifier {
	n := &SMTPNotifier{
		directory: directory,
		addr:      net.JoinHostPort(config.SMTPHost, strconv.Itoa(config.SMTPPort)),
		host:      config.SMTPHost,
		from:      config.SMTPFrom,
		send:      smtp.SendMail,
	}

	if config.SMTPUsername != "" {
		n.auth = smtp.PlainAuth("", config.SMTPUsername, config.SMTPPassword, config.SMTPHost)
	}

	return n
}

func message(from, to, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}

// Notify emails the user.
func (n *SMTPNotifier) Notify(ctx context.Context, username, subject, body string) error {
	to, err := n.directory.Email(ctx, username)
	if err != nil {
		return fmt.Errorf("resolve email of %s: %w", username, err)
	}

	if err := n.send(n.addr, n.auth, n.from, []string{to}, message(n.from, to, subject, body)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	return nil
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, username, subject, body string) error {
	n.logger.Info().
		Str("username", username).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")

	return nil
}

// New returns SMTPNotifier when an SMTP host is configured and LogNotifier otherwise.
func New(directory Directory, logger zerolog.Logger, config configpkg.Config) Notifier {
	if config.SMTPHost == "" {
		return NewLogNotifier(logger)
	}

	return NewSMTPNotifier(directory, config)
}
