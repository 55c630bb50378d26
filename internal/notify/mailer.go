package notify

import (
	"training-passport/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends a single HTML email. Fire-and-forget: callers log failures and
// move on, nothing is retried.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// smtpMailer implements Mailer over plain SMTP.
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a Mailer from the SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}
