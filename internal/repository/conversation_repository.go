package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

// ErrConversationNotFound возвращается, когда переписка не найдена.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository отвечает за переписки и сообщения.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт экземпляр репозитория.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate возвращает переписку пары (a < b), создавая её при первом обращении.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userA, userB uuid.UUID, now time.Time) (*models.Conversation, error) {
	var conv models.Conversation
	query := `
		INSERT INTO conversations (user_a_id, user_b_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_a_id, user_b_id) DO UPDATE SET user_a_id = EXCLUDED.user_a_id
		RETURNING *
	`
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &conv, query, userA, userB, now); err != nil {
		return nil, fmt.Errorf("conversation repository: get or create %w", err)
	}

	return &conv, nil
}

// GetByID возвращает переписку по идентификатору.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, common.Executor(ctx, r.db), "conversations", id, ErrConversationNotFound)
}

// ListForUser возвращает переписки пользователя, свежие сверху.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ConversationPreview, error) {
	query := `
		SELECT c.*, u.id AS other_user_id, u.username AS other_username
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user_a_id = $1 THEN c.user_b_id ELSE c.user_a_id END
		WHERE c.user_a_id = $1 OR c.user_b_id = $1
		ORDER BY c.updated_at DESC
	`

	var previews []models.ConversationPreview
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &previews, query, userID); err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}

	return previews, nil
}

// Touch обновляет время последней активности переписки.
func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	if _, err := common.Executor(ctx, r.db).ExecContext(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("conversation repository: touch %w", err)
	}

	return nil
}

// CreateMessage сохраняет сообщение.
func (r *ConversationRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, attachment_path, attachment_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		m.ConversationID,
		m.SenderID,
		m.Content,
		m.AttachmentPath,
		m.AttachmentType,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("conversation repository: create message %w", err)
	}

	return nil
}

// ListMessages возвращает сообщения по возрастанию времени. С sinceID - только
// более новые, чем указанное; без него - последние limit сообщений.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, sinceID *uuid.UUID, limit int) ([]models.Message, error) {
	var (
		query string
		args  []interface{}
	)

	if sinceID != nil {
		query = `
			SELECT m.* FROM messages m
			WHERE m.conversation_id = $1
			  AND (m.created_at, m.id) > (SELECT s.created_at, s.id FROM messages s WHERE s.id = $2 AND s.conversation_id = $1)
			ORDER BY m.created_at ASC, m.id ASC
			LIMIT $3
		`
		args = []interface{}{conversationID, *sinceID, limit}
	} else {
		query = `
			SELECT * FROM (
				SELECT * FROM messages WHERE conversation_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			) recent
			ORDER BY created_at ASC, id ASC
		`
		args = []interface{}{conversationID, limit}
	}

	var messages []models.Message
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &messages, query, args...); err != nil {
		return nil, fmt.Errorf("conversation repository: list messages %w", err)
	}

	return messages, nil
}
