package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// HTMLMailer is satisfied by *mailer.Mailer.
type HTMLMailer interface {
	SendHTML(to []string, subject, htmlBody, textBody string) error
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	mailer HTMLMailer
}

// NewEmailSender creates a new EmailSender instance.
func NewEmailSender(mailer HTMLMailer) *EmailSender {
	return &EmailSender{mailer: mailer}
}

func (s *EmailSender) Deliver(ctx context.Context, recipient string, msg Rendered) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.mailer.SendHTML([]string{recipient}, msg.Subject, msg.HTML, msg.Text)
}

// LogSender writes notifications to the log instead of delivering them.
// It stands in for a channel in development when no transport is configured.
type LogSender struct {
	channel Channel
	logger  *zerolog.Logger
}

// NewLogSender creates a new LogSender instance.
func NewLogSender(channel Channel, logger *zerolog.Logger) *LogSender {
	return &LogSender{channel: channel, logger: logger}
}

func (s *LogSender) Deliver(_ context.Context, recipient string, msg Rendered) error {
	s.logger.Info().
		Str("channel", string(s.channel)).
		Str("recipient", recipient).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("notification not delivered, no transport configured")
	return nil
}
