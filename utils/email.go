package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"servana/config"
)

// EmailSender delivers transactional email. Implementations are expected to
// be fire-and-forget from the caller's perspective.
type EmailSender interface {
	Send(to, subject, html string) error
}

// SMTPEmailSender sends mail through the SMTP relay from AppConfig.
type SMTPEmailSender struct{}

func NewSMTPEmailSender() *SMTPEmailSender {
	return &SMTPEmailSender{}
}

func (s *SMTPEmailSender) Send(to, subject, html string) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" {
		return fmt.Errorf("smtp: host not configured")
	}

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	var msg strings.Builder
	msg.WriteString("From: " + cfg.SMTPFrom + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	if err := smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp: failed to send to %s: %w", to, err)
	}
	return nil
}
