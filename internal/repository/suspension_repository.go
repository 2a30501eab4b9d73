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

// ErrSuspensionNotFound возвращается, когда ограничение не найдено.
var ErrSuspensionNotFound = errors.New("suspension not found")

// SuspensionRepository работает с журналом ограничений user_suspensions.
type SuspensionRepository struct {
	db *sqlx.DB
}

// NewSuspensionRepository создаёт экземпляр репозитория.
func NewSuspensionRepository(db *sqlx.DB) *SuspensionRepository {
	return &SuspensionRepository{db: db}
}

// Create добавляет ограничение. Существующие строки не трогаются.
func (r *SuspensionRepository) Create(ctx context.Context, s *models.Suspension) error {
	query := `
		INSERT INTO user_suspensions (user_id, suspension_type, reason, report_count, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $5)
		RETURNING id, created_at
	`

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		s.UserID,
		s.SuspensionType,
		s.Reason,
		s.ReportCount,
		s.StartDate,
		s.EndDate,
		s.IsActive,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("suspension repository: create %w", err)
	}

	return nil
}

// GetByID возвращает ограничение по идентификатору.
func (r *SuspensionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Suspension, error) {
	return common.GetByID[models.Suspension](ctx, common.Executor(ctx, r.db), "user_suspensions", id, ErrSuspensionNotFound)
}

// ListActive возвращает ограничения пользователя, действующие в момент now.
func (r *SuspensionRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Suspension, error) {
	var suspensions []models.Suspension
	query := `
		SELECT * FROM user_suspensions
		WHERE user_id = $1 AND is_active = TRUE AND end_date > $2
		ORDER BY end_date DESC
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &suspensions, query, userID, now); err != nil {
		return nil, fmt.Errorf("suspension repository: list active %w", err)
	}

	return suspensions, nil
}

// Deactivate снимает флаг активности.
func (r *SuspensionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `UPDATE user_suspensions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("suspension repository: deactivate %w", err)
	}

	return requireAffected(result, ErrSuspensionNotFound, "suspension repository: deactivate")
}
