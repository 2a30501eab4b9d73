package mail

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/config"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
)

// Sender отправляет письма пользователям.
type Sender interface {
	Send(ctx context.Context, subject string, recipients []string, body string) error
}

// SMTPSender отправляет письма через SMTP сервер.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender создаёт отправителя по настройкам почты.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.DefaultSender,
	}
}

// Send формирует и отправляет письмо.
func (s *SMTPSender) Send(ctx context.Context, subject string, recipients []string, body string) error {
	if len(recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: send %q: %w", subject, err)
	}

	return nil
}

// LogSender только пишет письма в лог. Используется без SMTP настроек.
type LogSender struct{}

func (LogSender) Send(_ context.Context, subject string, recipients []string, body string) error {
	logger.WithFields(logrus.Fields{
		"subject":    subject,
		"recipients": recipients,
		"length":     len(body),
	}).Info("mail: smtp not configured, message logged only")
	return nil
}

// NewSender выбирает реализацию по конфигурации.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return LogSender{}
}
