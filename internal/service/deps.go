package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
)

// Transactor открывает единицу работы. Вложенные вызовы присоединяются к
// внешней транзакции, а AfterCommit откладывает действие до её фиксации.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
}

// Notifier принимает уведомления для пользователей.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, url string) error
}

// Mailer отправляет письма. Реализация - mail.Sender.
type Mailer interface {
	Send(ctx context.Context, subject string, recipients []string, body string) error
}

// ActivityRecorder пишет журнал действий.
type ActivityRecorder interface {
	Log(ctx context.Context, entry ActivityEntry)
}

// Clock возвращает текущее время; в тестах подменяется.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// notifyQuietly отправляет уведомление; ошибка только логируется.
func notifyQuietly(ctx context.Context, n Notifier, userID uuid.UUID, title, message, url string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, title, message, url); err != nil {
		metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
			"error":   err.Error(),
		}).Warn("notification failed")
	}
}

// mailQuietly отправляет письмо; ошибка только логируется.
func mailQuietly(ctx context.Context, m Mailer, subject, to, body string) {
	if m == nil || to == "" {
		return
	}
	if err := m.Send(ctx, subject, []string{to}, body); err != nil {
		metrics.SideEffectFailures.WithLabelValues("email").Inc()
		logger.WithFields(logrus.Fields{
			"subject": subject,
			"error":   err.Error(),
		}).Warn("email failed")
	}
}

func recordActivity(ctx context.Context, r ActivityRecorder, entry ActivityEntry) {
	if r == nil {
		return
	}
	r.Log(ctx, entry)
}
