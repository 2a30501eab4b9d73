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

// ErrListingNotFound возвращается, когда объявление не найдено.
var ErrListingNotFound = errors.New("listing not found")

// ListingRepository отвечает за таблицу listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository создаёт экземпляр репозитория.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create сохраняет объявление. CreatedAt и WarehouseDeadline задаёт вызывающий.
func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (owner_id, name, value, description, location, photos, status, created_at, warehouse_deadline, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8)
		RETURNING id, updated_at
	`

	if l.Photos == nil {
		l.Photos = []string{}
	}

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		l.OwnerID,
		l.Name,
		l.Value,
		l.Description,
		l.Location,
		l.Photos,
		l.Status,
		l.CreatedAt,
		l.WarehouseDeadline,
	).Scan(&l.ID, &l.UpdatedAt); err != nil {
		return fmt.Errorf("listing repository: create %w", err)
	}

	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return common.GetByID[models.Listing](ctx, common.Executor(ctx, r.db), "listings", id, ErrListingNotFound)
}

// Update меняет редактируемые поля. Дедлайн склада не трогается никогда.
func (r *ListingRepository) Update(ctx context.Context, l *models.Listing, now time.Time) error {
	query := `
		UPDATE listings
		SET name = $2, value = $3, description = $4, location = $5, photos = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := common.Executor(ctx, r.db).ExecContext(ctx, query, l.ID, l.Name, l.Value, l.Description, l.Location, l.Photos, now)
	if err != nil {
		return fmt.Errorf("listing repository: update %w", err)
	}

	return requireAffected(result, ErrListingNotFound, "listing repository: update")
}

// UpdateStatus меняет статус и запоминает предыдущий (для отмены удаления).
func (r *ListingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, previous *string, now time.Time) error {
	query := `UPDATE listings SET status = $2, previous_status = $3, updated_at = $4 WHERE id = $1`

	result, err := common.Executor(ctx, r.db).ExecContext(ctx, query, id, status, previous, now)
	if err != nil {
		return fmt.Errorf("listing repository: update status %w", err)
	}

	return requireAffected(result, ErrListingNotFound, "listing repository: update status")
}

// Delete удаляет объявление физически.
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("listing repository: delete %w", err)
	}

	return requireAffected(result, ErrListingNotFound, "listing repository: delete")
}

// ListRecentByStatus возвращает самые свежие объявления со статусом.
func (r *ListingRepository) ListRecentByStatus(ctx context.Context, status string, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	query := `SELECT * FROM listings WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &listings, query, status, limit); err != nil {
		return nil, fmt.Errorf("listing repository: list recent by status %w", err)
	}

	return listings, nil
}

// Search возвращает объявления со статусом, отфильтрованные для главной.
// limit <= 0 означает без ограничения.
func (r *ListingRepository) Search(ctx context.Context, status string, filter models.ListingFilter, limit int) ([]models.Listing, error) {
	query := `SELECT * FROM listings WHERE status = $1`
	args := []interface{}{status}
	argIndex := 2

	if filter.ItemName != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIndex)
		args = append(args, "%"+filter.ItemName+"%")
		argIndex++
	}

	if filter.Location != "" {
		query += fmt.Sprintf(" AND location ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Location+"%")
		argIndex++
	}

	if filter.Keyword != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+filter.Keyword+"%")
		argIndex++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.DateFrom)
		argIndex++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argIndex)
		args = append(args, *filter.DateTo)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	var listings []models.Listing
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing repository: search %w", err)
	}

	return listings, nil
}

// ListPendingByOwner возвращает lost/found объявления пользователя.
func (r *ListingRepository) ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	query := `
		SELECT * FROM listings
		WHERE owner_id = $1 AND status IN ('lost', 'found')
		ORDER BY created_at DESC
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &listings, query, ownerID); err != nil {
		return nil, fmt.Errorf("listing repository: list pending by owner %w", err)
	}

	return listings, nil
}

// FindLostTwin ищет lost-объявление владельца с тем же названием и описанием.
func (r *ListingRepository) FindLostTwin(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Listing, error) {
	var listing models.Listing
	query := `
		SELECT * FROM listings
		WHERE owner_id = $1 AND status = 'lost' AND name = $2 AND description = $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &listing, query, ownerID, name, description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: find lost twin %w", err)
	}

	return &listing, nil
}

// MoveExpiredToWarehouse переводит на склад все lost/found объявления с истёкшим дедлайном
// и возвращает переведённые строки; прежний статус остаётся в previous_status.
func (r *ListingRepository) MoveExpiredToWarehouse(ctx context.Context, now time.Time) ([]models.Listing, error) {
	query := `
		UPDATE listings
		SET status = 'warehouse', previous_status = status, updated_at = $1
		WHERE status IN ('lost', 'found') AND warehouse_deadline <= $1
		RETURNING *
	`

	var moved []models.Listing
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &moved, query, now); err != nil {
		return nil, fmt.Errorf("listing repository: move expired to warehouse %w", err)
	}

	return moved, nil
}

// ListDueBefore возвращает lost/found объявления, чей дедлайн наступит до before.
func (r *ListingRepository) ListDueBefore(ctx context.Context, before time.Time) ([]models.Listing, error) {
	var listings []models.Listing
	query := `
		SELECT * FROM listings
		WHERE status IN ('lost', 'found') AND warehouse_deadline <= $1
		ORDER BY warehouse_deadline ASC
	`
	if err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &listings, query, before); err != nil {
		return nil, fmt.Errorf("listing repository: list due before %w", err)
	}

	return listings, nil
}

// CountCreatedBy возвращает количество объявлений, созданных пользователем.
func (r *ListingRepository) CountCreatedBy(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &count, `SELECT COUNT(*) FROM listings WHERE owner_id = $1`, ownerID); err != nil {
		return 0, fmt.Errorf("listing repository: count created by %w", err)
	}

	return count, nil
}

// requireAffected превращает ноль затронутых строк в notFound.
func requireAffected(result sql.Result, notFound error, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected %w", op, err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
