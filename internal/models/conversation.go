package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation - переписка двух пользователей. Пара хранится упорядоченной:
// UserAID < UserBID.
type Conversation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserAID   uuid.UUID `db:"user_a_id" json:"user_a_id"`
	UserBID   uuid.UUID `db:"user_b_id" json:"user_b_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant проверяет, участвует ли пользователь в переписке.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Counterpart возвращает собеседника пользователя.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// ConversationPreview - строка списка чатов с данными собеседника.
type ConversationPreview struct {
	Conversation
	OtherUserID   uuid.UUID `db:"other_user_id" json:"other_user_id"`
	OtherUsername string    `db:"other_username" json:"other_username"`
}

// Message описывает сообщение в чате. Сообщения не редактируются.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	AttachmentPath *string   `db:"attachment_path" json:"attachment_path,omitempty"`
	AttachmentType *string   `db:"attachment_type" json:"attachment_type,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Notification описывает уведомление пользователю.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	URL       string    `db:"url" json:"url"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
