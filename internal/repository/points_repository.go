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

// PointsRepository отвечает за баллы, значки и историю возвратов.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository создаёт экземпляр репозитория.
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// AddPoints увеличивает оба счётчика и возвращает обновлённую строку.
func (r *PointsRepository) AddPoints(ctx context.Context, userID uuid.UUID, points int, now time.Time) (*models.UserPoints, error) {
	var up models.UserPoints
	query := `
		INSERT INTO user_points (user_id, return_points, total_points, updated_at)
		VALUES ($1, $2, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET return_points = user_points.return_points + EXCLUDED.return_points,
		    total_points = user_points.total_points + EXCLUDED.total_points,
		    updated_at = EXCLUDED.updated_at
		RETURNING *
	`
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &up, query, userID, points, now); err != nil {
		return nil, fmt.Errorf("points repository: add points %w", err)
	}

	return &up, nil
}

// Get возвращает баллы пользователя; для нового пользователя - нули.
func (r *PointsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error) {
	var up models.UserPoints
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &up, `SELECT * FROM user_points WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserPoints{UserID: userID}, nil
		}
		return nil, fmt.Errorf("points repository: get %w", err)
	}

	return &up, nil
}

// ListBadges возвращает значки пользователя по времени получения.
func (r *PointsRepository) ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	var badges []models.Badge
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &badges,
		`SELECT * FROM user_badges WHERE user_id = $1 ORDER BY earned_at`, userID); err != nil {
		return nil, fmt.Errorf("points repository: list badges %w", err)
	}

	return badges, nil
}

// CreateBadge сохраняет значок. Возвращает false, если такой тип уже есть.
func (r *PointsRepository) CreateBadge(ctx context.Context, b *models.Badge) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, badge_type, badge_name, description, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_type) DO NOTHING
		RETURNING id
	`
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, query, b.UserID, b.BadgeType, b.BadgeName, b.Description, b.EarnedAt).Scan(&b.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("points repository: create badge %w", err)
	}

	return true, nil
}

// CreateReturn записывает факт возврата вещи.
func (r *PointsRepository) CreateReturn(ctx context.Context, ir *models.ItemReturn) error {
	query := `
		INSERT INTO item_returns (listing_name, finder_id, owner_id, return_type, helper_type, helper_identifier, points_awarded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		ir.ListingName,
		ir.FinderID,
		ir.OwnerID,
		ir.ReturnType,
		ir.HelperType,
		ir.HelperIdentifier,
		ir.PointsAwarded,
		ir.CreatedAt,
	).Scan(&ir.ID); err != nil {
		return fmt.Errorf("points repository: create return %w", err)
	}

	return nil
}

// ListReturns возвращает последние возвраты, где пользователь владелец или нашедший.
func (r *PointsRepository) ListReturns(ctx context.Context, userID uuid.UUID, limit int) ([]models.ItemReturn, error) {
	var returns []models.ItemReturn
	query := `
		SELECT * FROM item_returns
		WHERE owner_id = $1 OR finder_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &returns, query, userID, limit); err != nil {
		return nil, fmt.Errorf("points repository: list returns %w", err)
	}

	return returns, nil
}
