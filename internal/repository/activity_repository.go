package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

// ActivityRepository отвечает за журнал действий пользователей.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository создаёт экземпляр репозитория.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create добавляет запись в журнал.
func (r *ActivityRepository) Create(ctx context.Context, a *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (user_id, activity_type, description, listing_id, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		a.UserID,
		a.ActivityType,
		a.Description,
		a.ListingID,
		a.IPAddress,
		a.UserAgent,
		a.Metadata,
		a.CreatedAt,
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("activity repository: create %w", err)
	}

	return nil
}

// List возвращает записи пользователя по фильтру, свежие сверху.
func (r *ActivityRepository) List(ctx context.Context, userID uuid.UUID, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	query, args := activityWhere(userID, filter)
	query = "SELECT * FROM activity_logs" + query + " ORDER BY created_at DESC"
	argIndex := len(args) + 1

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	var logs []models.ActivityLog
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &logs, query, args...); err != nil {
		return nil, fmt.Errorf("activity repository: list %w", err)
	}

	return logs, nil
}

// CountSince считает записи пользователя начиная с момента since.
func (r *ActivityRepository) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &count,
		`SELECT COUNT(*) FROM activity_logs WHERE user_id = $1 AND created_at >= $2`, userID, since); err != nil {
		return 0, fmt.Errorf("activity repository: count since %w", err)
	}

	return count, nil
}

// CountByType группирует записи пользователя по типу.
func (r *ActivityRepository) CountByType(ctx context.Context, userID uuid.UUID) ([]models.TypeCount, error) {
	var counts []models.TypeCount
	query := `
		SELECT activity_type, COUNT(*) AS count
		FROM activity_logs
		WHERE user_id = $1
		GROUP BY activity_type
		ORDER BY count DESC
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &counts, query, userID); err != nil {
		return nil, fmt.Errorf("activity repository: count by type %w", err)
	}

	return counts, nil
}

// MostActiveDays возвращает дни с наибольшим числом действий.
func (r *ActivityRepository) MostActiveDays(ctx context.Context, userID uuid.UUID, limit int) ([]models.DayCount, error) {
	var days []models.DayCount
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*) AS count
		FROM activity_logs
		WHERE user_id = $1
		GROUP BY day
		ORDER BY count DESC, day DESC
		LIMIT $2
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &days, query, userID, limit); err != nil {
		return nil, fmt.Errorf("activity repository: most active days %w", err)
	}

	return days, nil
}

func activityWhere(userID uuid.UUID, filter models.ActivityFilter) (string, []interface{}) {
	where := " WHERE user_id = $1"
	args := []interface{}{userID}
	argIndex := 2

	if filter.ActivityType != "" {
		where += fmt.Sprintf(" AND activity_type = $%d", argIndex)
		args = append(args, filter.ActivityType)
		argIndex++
	}

	if filter.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		where += fmt.Sprintf(" AND created_at < $%d", argIndex)
		args = append(args, *filter.To)
	}

	return where, args
}
