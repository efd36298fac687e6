// Package notify delivers user notifications by e-mail or, when no SMTP
// server is configured, to the application log.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
)

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// MailNotifier sends notifications over SMTP
type MailNotifier struct {
	from   string
	sender sender
	logger *zap.Logger
}

// NewMailNotifier creates a notifier that dials the SMTP server per message.
// Port 587 servers must offer STARTTLS.
func NewMailNotifier(cfg SMTPConfig, logger *zap.Logger) *MailNotifier {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return &MailNotifier{from: cfg.From, sender: d, logger: logger}
}

// Send delivers one plain text message
func (n *MailNotifier) Send(ctx context.Context, msg port.Message) error {
	if msg.To == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := n.sender.DialAndSend(m); err != nil {
		n.logger.Error("Failed to send mail", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("failed to send mail: %w", err)
	}

	n.logger.Info("Mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogNotifier writes notifications to the log instead of sending them
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message
func (n *LogNotifier) Send(ctx context.Context, msg port.Message) error {
	n.logger.Info("Notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}

var (
	_ port.Notifier = (*MailNotifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)
