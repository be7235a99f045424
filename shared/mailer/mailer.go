package mailer

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer represents an email sender.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"     envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Enabled reports whether an SMTP host is configured at all.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks if the Mailer configuration is complete.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return errors.New("missing SMTP_PORT environment variable")
	}
	if c.From == "" {
		return errors.New("missing SMTP_FROM environment variable")
	}

	return nil
}

// NewMailer creates a new Mailer instance with the given configuration.
func NewMailer(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mailer configuration: %w", err)
	}

	return &Mailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}

	return m.dialer.DialAndSend(m.buildMessage(email))
}

// SendHTML sends an HTML email with a plain text alternative.
func (m *Mailer) SendHTML(to []string, subject, htmlBody, textBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		Body:     textBody,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) buildMessage(email Email) *gomail.Message {
	msg := gomail.NewMessage()

	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)

	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}

	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}

	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	return msg
}
