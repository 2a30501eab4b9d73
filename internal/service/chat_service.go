package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/storage"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200

	previewRunes = 120
)

// ConversationRepository описывает хранилище переписок и сообщений.
type ConversationRepository interface {
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID, now time.Time) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ConversationPreview, error)
	Touch(ctx context.Context, id uuid.UUID, now time.Time) error
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, sinceID *uuid.UUID, limit int) ([]models.Message, error)
}

// ChatGate проверяет право писать в чат.
type ChatGate interface {
	RequireChat(ctx context.Context, userID uuid.UUID) error
}

// AttachmentStore сохраняет вложения после проверки сигнатуры.
type AttachmentStore interface {
	Store(ctx context.Context, userID uuid.UUID, r io.Reader, allowed map[string]struct{}) (*storage.StoredFile, error)
	Delete(ctx context.Context, relativePath string) error
}

// SendMessageInput - текст и необязательное вложение.
type SendMessageInput struct {
	Content    string
	Attachment io.Reader
}

// ChatService - переписка пользователей по запросу (без постоянного соединения).
type ChatService struct {
	repo        ConversationRepository
	users       UserReader
	listings    ListingReader
	gate        ChatGate
	attachments AttachmentStore
	notifier    Notifier
	activity    ActivityRecorder
	now         Clock
}

// NewChatService создаёт сервис чата.
func NewChatService(
	repo ConversationRepository,
	users UserReader,
	listings ListingReader,
	gate ChatGate,
	attachments AttachmentStore,
	notifier Notifier,
	activity ActivityRecorder,
) *ChatService {
	return &ChatService{
		repo:        repo,
		users:       users,
		listings:    listings,
		gate:        gate,
		attachments: attachments,
		notifier:    notifier,
		activity:    activity,
		now:         systemClock,
	}
}

// CanonicalPair упорядочивает пару так, чтобы первый id был меньше второго.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// ClampMessageLimit приводит limit к диапазону 1..200; 0 означает значение по умолчанию.
func ClampMessageLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultMessageLimit
	case limit < 1:
		return 1
	case limit > MaxMessageLimit:
		return MaxMessageLimit
	default:
		return limit
	}
}

// Start возвращает переписку с пользователем, создавая её при необходимости.
func (s *ChatService) Start(ctx context.Context, me, other uuid.UUID) (*models.Conversation, error) {
	if me == other {
		return nil, apperror.Validation("cannot start conversation with yourself")
	}
	if _, err := s.users.GetByID(ctx, other); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	a, b := CanonicalPair(me, other)
	conv, err := s.repo.GetOrCreate(ctx, a, b, s.now())
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      me,
		Type:        models.ActivityChatStarted,
		Description: "Opened conversation",
		Metadata:    map[string]interface{}{"conversation_id": conv.ID.String()},
	})

	return conv, nil
}

// StartFromListing открывает переписку с автором объявления.
func (s *ChatService) StartFromListing(ctx context.Context, me, listingID uuid.UUID) (*models.Conversation, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapListingErr(err)
	}
	if listing.OwnerID == nil {
		return nil, apperror.New(apperror.ErrCodeNotFound, "item not found or has no reporter")
	}
	if *listing.OwnerID == me {
		return nil, apperror.Validation("cannot start chat with yourself")
	}
	return s.Start(ctx, me, *listing.OwnerID)
}

// List возвращает переписки пользователя.
func (s *ChatService) List(ctx context.Context, me uuid.UUID) ([]models.ConversationPreview, error) {
	previews, err := s.repo.ListForUser(ctx, me)
	if err != nil {
		return nil, err
	}
	if previews == nil {
		previews = []models.ConversationPreview{}
	}
	return previews, nil
}

func (s *ChatService) participantConversation(ctx context.Context, id, me uuid.UUID) (*models.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(me) {
		return nil, apperror.ErrConversationNotFound
	}
	return conv, nil
}

// Messages возвращает сообщения по возрастанию; sinceID исключается из выборки.
func (s *ChatService) Messages(ctx context.Context, conversationID, me uuid.UUID, sinceID *uuid.UUID, limit int) ([]models.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, me); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, sinceID, ClampMessageLimit(limit))
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Send отправляет сообщение участнику переписки.
func (s *ChatService) Send(ctx context.Context, conversationID, me uuid.UUID, in SendMessageInput) (*models.Message, error) {
	if err := s.gate.RequireChat(ctx, me); err != nil {
		return nil, err
	}

	conv, err := s.participantConversation(ctx, conversationID, me)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" && in.Attachment == nil {
		return nil, apperror.Validation("message content or file required")
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       me,
		Content:        content,
	}

	if in.Attachment != nil {
		stored, err := s.attachments.Store(ctx, me, in.Attachment, storage.AttachmentTypes)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUnsupportedType):
				return nil, apperror.Validation("file type not allowed")
			case errors.Is(err, storage.ErrTooLarge):
				return nil, apperror.Validation("file is too large")
			case errors.Is(err, storage.ErrEmptyFile):
				if content == "" {
					return nil, apperror.Validation("message content or file required")
				}
			default:
				return nil, err
			}
		} else {
			msg.AttachmentPath = &stored.Path
			msg.AttachmentType = &stored.MIME
		}
	}

	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		if msg.AttachmentPath != nil {
			s.discardAttachment(ctx, *msg.AttachmentPath)
		}
		return nil, err
	}
	if err := s.repo.Touch(ctx, conv.ID, s.now()); err != nil {
		return nil, err
	}

	other := conv.Counterpart(me)
	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      me,
		Type:        models.ActivityMessageSent,
		Description: "Sent message",
		Metadata: map[string]interface{}{
			"conversation_id": conv.ID.String(),
			"message_length":  utf8.RuneCountInString(content),
			"has_attachment":  msg.AttachmentPath != nil,
			"other_user_id":   other.String(),
		},
	})
	notifyQuietly(ctx, s.notifier, other, "New message", MessagePreview(content), "/chat")

	return msg, nil
}

// MessagePreview обрезает текст до 120 символов и добавляет многоточие.
func MessagePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return fmt.Sprintf("%s…", string(runes[:previewRunes]))
}

// discardAttachment удаляет файл сообщения, которое не удалось сохранить.
func (s *ChatService) discardAttachment(ctx context.Context, path string) {
	if err := s.attachments.Delete(ctx, path); err != nil {
		logger.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Warn("failed to remove orphaned attachment")
	}
}
