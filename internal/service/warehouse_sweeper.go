package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

// ExpiredListingMover переводит просроченные объявления на склад.
type ExpiredListingMover interface {
	MoveExpiredToWarehouse(ctx context.Context, now time.Time) ([]models.Listing, error)
}

// WarehouseSweeper переводит объявления с истёкшим дедлайном в статус warehouse.
type WarehouseSweeper struct {
	listings ExpiredListingMover
	users    UserReader
	notifier Notifier
	mailer   Mailer
	activity ActivityRecorder
}

// NewWarehouseSweeper создаёт экземпляр.
func NewWarehouseSweeper(listings ExpiredListingMover, users UserReader, notifier Notifier, mailer Mailer, activity ActivityRecorder) *WarehouseSweeper {
	return &WarehouseSweeper{
		listings: listings,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		activity: activity,
	}
}

// Sweep переводит на склад все lost/found объявления с дедлайном <= now.
// Повторный вызов с тем же now ничего не меняет. Смена статуса фиксируется
// независимо от писем и уведомлений.
func (w *WarehouseSweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	moved, err := w.listings.MoveExpiredToWarehouse(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("warehouse sweeper: %w", err)
	}

	if len(moved) == 0 {
		return 0, nil
	}

	metrics.ListingsSwept.Add(float64(len(moved)))
	logger.WithFields(logrus.Fields{
		"count": len(moved),
		"now":   now,
	}).Info("warehouse sweeper: listings moved to warehouse")

	for i := range moved {
		w.announce(ctx, &moved[i])
	}

	return len(moved), nil
}

func (w *WarehouseSweeper) announce(ctx context.Context, listing *models.Listing) {
	if listing.OwnerID == nil {
		return
	}
	ownerID := *listing.OwnerID

	if w.users != nil && w.mailer != nil {
		owner, err := w.users.GetByID(ctx, ownerID)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"owner_id":   ownerID,
				"error":      err.Error(),
			}).Warn("warehouse sweeper: owner lookup failed")
		} else {
			previous := "pending"
			if listing.PreviousStatus != nil {
				previous = *listing.PreviousStatus
			}
			subject, body := statusEmail(owner, listing, previous, models.ListingStatusWarehouse)
			mailQuietly(ctx, w.mailer, subject, owner.Email, body)
		}
	}

	notifyQuietly(ctx, w.notifier, ownerID, "Item moved to warehouse",
		fmt.Sprintf("Your item '%s' has been moved to the warehouse.", listing.Name),
		fmt.Sprintf("/#item-%s", listing.ID))

	listingID := listing.ID
	recordActivity(ctx, w.activity, ActivityEntry{
		UserID:      ownerID,
		Type:        models.ActivityItemWarehoused,
		Description: fmt.Sprintf("Item moved to warehouse: %s", listing.Name),
		ListingID:   &listingID,
	})
}

// DueListingLister перечисляет объявления с приближающимся дедлайном.
type DueListingLister interface {
	ListDueBefore(ctx context.Context, before time.Time) ([]models.Listing, error)
}

// ExpiryLine - строка отчёта о предстоящих переводах на склад.
type ExpiryLine struct {
	ListingID uuid.UUID `json:"listing_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Deadline  time.Time `json:"warehouse_deadline"`
	Remaining string    `json:"time_remaining"`
}

// ExpiryReport собирает объявления, которые уйдут на склад в ближайшие within.
// Уже просроченные тоже попадают в отчёт.
func ExpiryReport(ctx context.Context, listings DueListingLister, now time.Time, within time.Duration) ([]ExpiryLine, error) {
	if within < 0 {
		within = 0
	}
	due, err := listings.ListDueBefore(ctx, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("warehouse sweeper: expiry report %w", err)
	}

	lines := make([]ExpiryLine, 0, len(due))
	for _, l := range due {
		lines = append(lines, ExpiryLine{
			ListingID: l.ID,
			Name:      l.Name,
			Status:    l.Status,
			Deadline:  l.WarehouseDeadline,
			Remaining: FormatTimeRemaining(l.WarehouseDeadline, now),
		})
	}
	return lines, nil
}
