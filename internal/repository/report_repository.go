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

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO reports (reporter_id, reported_user_id, listing_id, report_type, reason, evidence, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, report.ReporterID, report.ReportedUserID, report.ListingID, report.ReportType, report.Reason, report.Evidence, report.Status, report.CreatedAt).
		Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return common.GetByID[models.Report](ctx, common.Executor(ctx, r.db), "reports", id, ErrReportNotFound)
}

// ExistsPending проверяет, есть ли уже нерассмотренная жалоба с той же тройкой.
func (r *ReportRepository) ExistsPending(ctx context.Context, reporterID, reportedUserID uuid.UUID, listingID *uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &exists, `
		SELECT EXISTS (
			SELECT 1 FROM reports
			WHERE reporter_id = $1 AND reported_user_id = $2
			  AND listing_id IS NOT DISTINCT FROM $3
			  AND status = 'pending'
		)
	`, reporterID, reportedUserID, listingID)
	if err != nil {
		return false, fmt.Errorf("report repository: exists pending %w", err)
	}
	return exists, nil
}

// CountPendingAgainst считает нерассмотренные жалобы на пользователя.
func (r *ReportRepository) CountPendingAgainst(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &count,
		`SELECT COUNT(*) FROM reports WHERE reported_user_id = $1 AND status = 'pending'`, userID)
	if err != nil {
		return 0, fmt.Errorf("report repository: count pending %w", err)
	}
	return count, nil
}

func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &reports, `
		SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reporterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list by reporter %w", err)
	}
	return reports, nil
}

// ListAgainst возвращает последние жалобы на пользователя.
func (r *ReportRepository) ListAgainst(ctx context.Context, userID uuid.UUID, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &reports, `
		SELECT * FROM reports WHERE reported_user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository: list against %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := sqlx.SelectContext(ctx, common.Executor(ctx, r.db), &reports, `
		SELECT * FROM reports WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list pending %w", err)
	}
	return reports, nil
}

// Review фиксирует решение модератора.
func (r *ReportRepository) Review(ctx context.Context, id uuid.UUID, status string, notes *string, reviewerID uuid.UUID, at time.Time) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE reports SET status = $2, admin_notes = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1
	`, id, status, notes, reviewerID, at)
	if err != nil {
		return fmt.Errorf("report repository: review %w", err)
	}
	return requireAffected(result, ErrReportNotFound, "report repository: review")
}
