package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/config"
	"github.com/aml-forge/sar-engine/pkg/retry"
)

// EmailSender dispatches a notification email. Implementations are
// best-effort: a send failure is reported but never blocks alert creation.
type EmailSender interface {
	Send(subject, body string) error
}

// SMTPSender sends mail through a plain-auth SMTP relay.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPSender creates an SMTPSender from configuration.
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger.Named("email")}
}

var _ EmailSender = (*SMTPSender)(nil)

// Send dispatches one message to the configured compliance address.
func (s *SMTPSender) Send(subject, body string) error {
	if s.cfg.Username == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.FromEmail,
		"To: " + s.cfg.ToEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)

	// Relays greylist and drop connections transiently; one short retry
	// round covers that without holding up the caller for long.
	err := retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		return smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{s.cfg.ToEmail}, []byte(msg))
	})
	if err != nil {
		return fmt.Errorf("send mail via %s: %w", s.cfg.Server, err)
	}

	s.logger.Debug("Notification email sent", zap.String("subject", subject))
	return nil
}

// NoopSender discards all messages. Used when SMTP is not configured.
type NoopSender struct{}

var _ EmailSender = (*NoopSender)(nil)

func (NoopSender) Send(subject, body string) error { return nil }
