package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

const (
	activityDefaultLimit = 50
	activityMaxLimit     = 500
	activityTopDays      = 5
)

// ActivityRepository описывает хранилище журнала действий.
type ActivityRepository interface {
	Create(ctx context.Context, a *models.ActivityLog) error
	List(ctx context.Context, userID uuid.UUID, filter models.ActivityFilter) ([]models.ActivityLog, error)
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountByType(ctx context.Context, userID uuid.UUID) ([]models.TypeCount, error)
	MostActiveDays(ctx context.Context, userID uuid.UUID, limit int) ([]models.DayCount, error)
}

// ListingCounter считает созданные пользователем объявления.
type ListingCounter interface {
	CountCreatedBy(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// ActivityEntry - данные одной записи журнала.
type ActivityEntry struct {
	UserID      uuid.UUID
	Type        string
	Description string
	ListingID   *uuid.UUID
	IPAddress   string
	UserAgent   string
	Metadata    map[string]interface{}
}

// ActivityService ведёт журнал действий и строит по нему отчёты.
type ActivityService struct {
	repo     ActivityRepository
	listings ListingCounter
	now      Clock
}

// NewActivityService создаёт сервис журнала.
func NewActivityService(repo ActivityRepository, listings ListingCounter) *ActivityService {
	return &ActivityService{repo: repo, listings: listings, now: systemClock}
}

// Log сохраняет запись. Ошибки не возвращаются: журнал не должен ломать основное действие.
func (s *ActivityService) Log(ctx context.Context, entry ActivityEntry) {
	record := &models.ActivityLog{
		UserID:       entry.UserID,
		ActivityType: entry.Type,
		Description:  entry.Description,
		ListingID:    entry.ListingID,
		CreatedAt:    s.now(),
	}
	if entry.IPAddress != "" {
		ip := entry.IPAddress
		record.IPAddress = &ip
	}
	if entry.UserAgent != "" {
		ua := entry.UserAgent
		record.UserAgent = &ua
	}
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err == nil {
			record.Metadata = raw
		}
	}

	if err := s.repo.Create(ctx, record); err != nil {
		metrics.SideEffectFailures.WithLabelValues("activity").Inc()
		logger.WithFields(logrus.Fields{
			"user_id":       entry.UserID,
			"activity_type": entry.Type,
			"error":         err.Error(),
		}).Warn("activity service: failed to log activity")
	}
}

// List возвращает журнал пользователя по фильтру.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = activityDefaultLimit
	}
	if filter.Limit > activityMaxLimit {
		filter.Limit = activityMaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}
	return logs, nil
}

// Stats собирает сводку по журналу пользователя.
func (s *ActivityService) Stats(ctx context.Context, userID uuid.UUID) (*models.ActivityStats, error) {
	now := s.now()
	stats := &models.ActivityStats{}

	var err error
	if stats.Total, err = s.repo.CountSince(ctx, userID, time.Time{}); err != nil {
		return nil, err
	}
	if stats.LastWeek, err = s.repo.CountSince(ctx, userID, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if stats.LastMonth, err = s.repo.CountSince(ctx, userID, now.AddDate(0, -1, 0)); err != nil {
		return nil, err
	}
	if stats.LastYear, err = s.repo.CountSince(ctx, userID, now.AddDate(-1, 0, 0)); err != nil {
		return nil, err
	}
	if stats.ByType, err = s.repo.CountByType(ctx, userID); err != nil {
		return nil, err
	}
	if stats.MostActive, err = s.repo.MostActiveDays(ctx, userID, activityTopDays); err != nil {
		return nil, err
	}
	if s.listings != nil {
		if stats.ItemsCreated, err = s.listings.CountCreatedBy(ctx, userID); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// ExportCSV пишет журнал пользователя в формате CSV.
func (s *ActivityService) ExportCSV(ctx context.Context, userID uuid.UUID, filter models.ActivityFilter, w io.Writer) error {
	filter.Limit = 0
	filter.Offset = 0

	logs, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "activity_type", "description", "listing_id", "ip_address"}); err != nil {
		return err
	}

	for _, entry := range logs {
		listingID := ""
		if entry.ListingID != nil {
			listingID = entry.ListingID.String()
		}
		ip := ""
		if entry.IPAddress != nil {
			ip = *entry.IPAddress
		}
		row := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.ActivityType,
			entry.Description,
			listingID,
			ip,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
