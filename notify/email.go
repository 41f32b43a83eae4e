package notify

import (
	"fmt"
	"net/smtp"

	"narya-api/config"
)

// EmailSender delivers a single HTML email. Implementations are best-effort;
// the caller logs and swallows failures.
type EmailSender interface {
	Send(to, subject, html string) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
}

// NewSMTPSender reads the relay settings from the environment.
func NewSMTPSender() EmailSender {
	return &smtpSender{
		from:     config.GetEnv("SMTP_USER", ""),
		password: config.GetEnv("SMTP_PASS", ""),
		host:     config.GetEnv("SMTP_HOST", "smtp.gmail.com"),
		port:     config.GetEnv("SMTP_PORT", "587"),
	}
}

func (s *smtpSender) Send(to, subject, html string) error {
	if to == "" {
		return fmt.Errorf("recipient email address is missing")
	}

	headers := "From: Narya Baby <" + s.from + ">\n" +
		"To: " + to + "\n" +
		"Subject: " + subject + "\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(headers + html)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %v", err)
	}
	return nil
}
