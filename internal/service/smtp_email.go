package service

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SMTPEmailService sends plain-text mail through an SMTP relay.
type SMTPEmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *slog.Logger
}

func NewSMTPEmailService(host, port, username, password, from string, logger *slog.Logger) *SMTPEmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPEmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

func (s *SMTPEmailService) SendEmail(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\n\nWealth Manager")

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("Email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}
