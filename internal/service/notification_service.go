package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

// NotificationListLimit - сколько последних уведомлений показывается пользователю.
const NotificationListLimit = 20

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	DeleteByTitleAndURL(ctx context.Context, userID uuid.UUID, title, url string) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo NotificationRepository
}

// NotificationFeed - список уведомлений и число непрочитанных.
type NotificationFeed struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify создаёт непрочитанное уведомление.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message, url string) error {
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		URL:     url,
	})
}

// List возвращает последние уведомления и счётчик непрочитанных.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) (*NotificationFeed, error) {
	items, err := s.repo.List(ctx, userID, NotificationListLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationFeed{Notifications: items, UnreadCount: unread}, nil
}

// MarkAsRead отмечает уведомление пользователя как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "notification not found")
		}
		return err
	}
	return nil
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// DeleteStale удаляет уведомления, потерявшие смысл.
func (s *NotificationService) DeleteStale(ctx context.Context, userID uuid.UUID, title, url string) (int64, error) {
	return s.repo.DeleteByTitleAndURL(ctx, userID, title, url)
}
