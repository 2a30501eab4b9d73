package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

var ErrVerificationCodeNotFound = errors.New("verification code not found")

// activeCodeFilter - действующий неиспользованный код пользователя для сценария.
const activeCodeFilter = `user_id = $1 AND purpose = $2 AND code = $3 AND used_at IS NULL AND expires_at > $4`

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// CreateCode сохраняет код. Пустой Payload пишется как {}.
func (r *VerificationRepository) CreateCode(ctx context.Context, v *models.EmailVerification) error {
	payload := v.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO email_verifications (user_id, purpose, email, code, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, v.UserID, v.Purpose, v.Email, v.Code, payload, v.ExpiresAt).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("verification repository: create code %w", err)
	}
	return nil
}

// FindActiveCode проверяет код, не расходуя его.
func (r *VerificationRepository) FindActiveCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error) {
	var ev models.EmailVerification
	err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &ev, `
		SELECT * FROM email_verifications
		WHERE `+activeCodeFilter+`
		ORDER BY created_at DESC LIMIT 1
	`, userID, purpose, code, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification repository: find code %w", err)
	}
	return &ev, nil
}

// ConsumeCode находит действующий неиспользованный код и помечает его использованным.
func (r *VerificationRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error) {
	var ev models.EmailVerification
	err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &ev, `
		UPDATE email_verifications SET used_at = $4
		WHERE id = (
			SELECT id FROM email_verifications
			WHERE `+activeCodeFilter+`
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING *
	`, userID, purpose, code, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification repository: consume code %w", err)
	}
	return &ev, nil
}

// LastIssuedAt возвращает время последнего кода для сценария; nil, если кодов не было.
func (r *VerificationRepository) LastIssuedAt(ctx context.Context, userID uuid.UUID, purpose string) (*time.Time, error) {
	var at sql.NullTime
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		SELECT MAX(created_at) FROM email_verifications WHERE user_id = $1 AND purpose = $2
	`, userID, purpose).Scan(&at)
	if err != nil {
		return nil, fmt.Errorf("verification repository: last issued %w", err)
	}
	if !at.Valid {
		return nil, nil
	}
	return &at.Time, nil
}

// DeleteExpired удаляет просроченные коды.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM email_verifications WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired %w", err)
	}
	return result.RowsAffected()
}
