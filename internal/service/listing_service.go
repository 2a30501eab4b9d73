package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/matching"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/validation"
)

const (
	// warehousePreviewLimit - размер блока склада на главной без фильтров.
	warehousePreviewLimit = 6

	removedTitle = "Item removed"
)

// ListingRepository описывает хранилище объявлений.
type ListingRepository interface {
	Create(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Update(ctx context.Context, l *models.Listing, now time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, previous *string, now time.Time) error
	ListRecentByStatus(ctx context.Context, status string, limit int) ([]models.Listing, error)
	Search(ctx context.Context, status string, filter models.ListingFilter, limit int) ([]models.Listing, error)
	ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error)
}

// PostingGate проверяет право публиковать объявления.
type PostingGate interface {
	RequirePost(ctx context.Context, userID uuid.UUID) error
}

// Sweeper переводит просроченные объявления на склад.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// NotificationSink - уведомления плюс удаление устаревших.
type NotificationSink interface {
	Notifier
	DeleteStale(ctx context.Context, userID uuid.UUID, title, url string) (int64, error)
}

// CreateListingInput - данные нового объявления.
type CreateListingInput struct {
	OwnerID     uuid.UUID
	Status      string
	Name        string
	Value       *float64
	Description string
	Location    *string
	Photos      []string
}

// UpdateListingInput - редактируемые поля; nil означает «не менять».
type UpdateListingInput struct {
	Name        *string
	Value       *float64
	Description *string
	Location    *string
}

// Suggestion - кандидаты для одного из объявлений пользователя.
type Suggestion struct {
	Listing models.Listing       `json:"listing"`
	Matches []matching.Candidate `json:"matches"`
}

// ListingIndex - содержимое главной страницы.
type ListingIndex struct {
	Lost        []models.Listing `json:"lost"`
	Found       []models.Listing `json:"found"`
	Warehouse   []models.Listing `json:"warehouse"`
	Suggestions []Suggestion     `json:"suggestions"`
}

// TimeRemaining - остаток до дедлайна склада.
type TimeRemaining struct {
	TimeRemaining     string    `json:"time_remaining"`
	CreatedAt         time.Time `json:"created_at"`
	WarehouseDeadline time.Time `json:"warehouse_deadline"`
}

// ListingService управляет объявлениями о потерянных и найденных вещах.
type ListingService struct {
	repo          ListingRepository
	users         UserReader
	gate          PostingGate
	sweeper       Sweeper
	notifications NotificationSink
	mailer        Mailer
	activity      ActivityRecorder
	publicBaseURL string
	now           Clock
}

// NewListingService создаёт сервис объявлений.
func NewListingService(
	repo ListingRepository,
	users UserReader,
	gate PostingGate,
	sweeper Sweeper,
	notifications NotificationSink,
	mailer Mailer,
	activity ActivityRecorder,
	publicBaseURL string,
) *ListingService {
	return &ListingService{
		repo:          repo,
		users:         users,
		gate:          gate,
		sweeper:       sweeper,
		notifications: notifications,
		mailer:        mailer,
		activity:      activity,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           systemClock,
	}
}

func itemURL(id uuid.UUID) string {
	return fmt.Sprintf("/#item-%s", id)
}

func undoURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/listings/%s/undo", id)
}

func mapListingErr(err error) error {
	if errors.Is(err, repository.ErrListingNotFound) {
		return apperror.ErrListingNotFound
	}
	return err
}

// Create публикует объявление и рассылает уведомления о возможных совпадениях.
func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if in.Status != models.ListingStatusLost && in.Status != models.ListingStatusFound {
		return nil, apperror.Validation("status must be lost or found")
	}
	if err := validation.ValidateListing(in.Name, in.Description, in.Location); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if in.Value != nil && *in.Value < 0 {
		return nil, apperror.Validation("value must not be negative")
	}

	if err := s.gate.RequirePost(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	now := s.now()
	ownerID := in.OwnerID
	listing := &models.Listing{
		OwnerID:           &ownerID,
		Name:              name,
		Value:             in.Value,
		Description:       description,
		Location:          trimmedOrNil(in.Location),
		Photos:            in.Photos,
		Status:            in.Status,
		CreatedAt:         now,
		WarehouseDeadline: models.WarehouseDeadlineFor(now),
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	listingID := listing.ID
	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      ownerID,
		Type:        models.ActivityItemCreated,
		Description: fmt.Sprintf("Reported %s item: %s", listing.Status, listing.Name),
		ListingID:   &listingID,
		Metadata: map[string]interface{}{
			"status":       listing.Status,
			"photos_count": len(listing.Photos),
		},
	})

	if owner := s.lookupUser(ctx, ownerID); owner != nil {
		subject, body := submissionEmail(owner, listing)
		mailQuietly(ctx, s.mailer, subject, owner.Email, body)
	}
	notifyQuietly(ctx, s.notifications, ownerID,
		fmt.Sprintf("%s item submitted", capitalize(listing.Status)),
		fmt.Sprintf("Your %s item '%s' was submitted.", listing.Status, listing.Name),
		itemURL(listing.ID))

	s.fanOutMatches(ctx, listing)

	return listing, nil
}

// fanOutMatches уведомляет владельцев похожих объявлений противоположного статуса.
func (s *ListingService) fanOutMatches(ctx context.Context, listing *models.Listing) {
	opposite := models.OppositeStatus(listing.Status)
	pool, err := s.repo.ListRecentByStatus(ctx, opposite, matching.PoolSize)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"listing_id": listing.ID,
			"error":      err.Error(),
		}).Warn("listing service: match pool lookup failed")
		return
	}

	for _, candidate := range matching.Rank(listing, pool) {
		match := candidate.Listing
		if match.OwnerID == nil || listing.IsOwnedBy(*match.OwnerID) {
			continue
		}

		var title, message string
		if listing.Status == models.ListingStatusLost {
			title = "Potential match for your found item"
			message = fmt.Sprintf("A new lost report '%s' may match your found item '%s'.", listing.Name, match.Name)
		} else {
			title = "Potential match for your lost item"
			message = fmt.Sprintf("A new found item '%s' may match your lost item '%s'.", listing.Name, match.Name)
		}

		notifyQuietly(ctx, s.notifications, *match.OwnerID, title, message, itemURL(listing.ID))
		metrics.MatchNotifications.WithLabelValues(listing.Status).Inc()
	}
}

// Get возвращает объявление.
func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapListingErr(err)
	}
	return listing, nil
}

func (s *ListingService) getOwned(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(userID) {
		return nil, apperror.ErrNotOwner
	}
	return listing, nil
}

// Update редактирует объявление владельца. Дедлайн склада не меняется.
func (s *ListingService) Update(ctx context.Context, id, userID uuid.UUID, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.Validation("item name must not be empty")
		}
		listing.Name = name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, apperror.Validation("description must not be empty")
		}
		listing.Description = description
	}
	if in.Value != nil {
		if *in.Value < 0 {
			return nil, apperror.Validation("value must not be negative")
		}
		listing.Value = in.Value
	}
	if in.Location != nil {
		listing.Location = trimmedOrNil(in.Location)
	}

	now := s.now()
	if err := s.repo.Update(ctx, listing, now); err != nil {
		return nil, mapListingErr(err)
	}
	listing.UpdatedAt = now

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityItemUpdated,
		Description: fmt.Sprintf("Updated item: %s", listing.Name),
		ListingID:   &listing.ID,
	})

	return listing, nil
}

// MarkFound переводит lost объявление владельца в found.
func (s *ListingService) MarkFound(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusLost {
		return nil, apperror.Validation("only lost items can be marked as found")
	}

	previous := listing.Status
	if err := s.changeStatus(ctx, listing, models.ListingStatusFound, nil); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityItemMarkedFound,
		Description: fmt.Sprintf("Changed item status: %s from %s to found", listing.Name, previous),
		ListingID:   &listing.ID,
	})
	s.announceStatus(ctx, userID, listing, previous)
	notifyQuietly(ctx, s.notifications, userID, "Item status updated",
		fmt.Sprintf("Your item '%s' status changed from %s to found.", listing.Name, previous),
		itemURL(listing.ID))

	return listing, nil
}

// SoftDelete скрывает объявление, запоминая статус для отмены.
func (s *ListingService) SoftDelete(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !listing.IsPending() {
		return nil, apperror.Validation("only lost or found items can be removed")
	}

	previous := listing.Status
	if err := s.changeStatus(ctx, listing, models.ListingStatusDeleted, &previous); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityItemDeleted,
		Description: fmt.Sprintf("Deleted item: %s (previous status: %s)", listing.Name, previous),
		ListingID:   &listing.ID,
	})
	notifyQuietly(ctx, s.notifications, userID, removedTitle,
		fmt.Sprintf("Your item '%s' was removed. Click to undo.", listing.Name),
		undoURL(listing.ID))
	if owner := s.lookupUser(ctx, userID); owner != nil {
		subject, body := deletedEmail(owner, listing, previous, s.publicBaseURL+undoURL(listing.ID))
		mailQuietly(ctx, s.mailer, subject, owner.Email, body)
	}

	return listing, nil
}

// Undo восстанавливает удалённое объявление в прежний статус.
func (s *ListingService) Undo(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusDeleted {
		return nil, apperror.Validation("this item is not deleted or has already been restored")
	}

	restored := restoredStatus(listing)
	if err := s.changeStatus(ctx, listing, restored, nil); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityItemRestored,
		Description: fmt.Sprintf("Restored item: %s to status: %s", listing.Name, restored),
		ListingID:   &listing.ID,
	})

	if s.notifications != nil {
		if _, err := s.notifications.DeleteStale(ctx, userID, removedTitle, undoURL(listing.ID)); err != nil {
			logger.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"error":      err.Error(),
			}).Warn("listing service: failed to remove stale notifications")
		}
	}
	notifyQuietly(ctx, s.notifications, userID, "Item restored",
		fmt.Sprintf("Your item '%s' has been restored to '%s'.", listing.Name, restored),
		itemURL(listing.ID))
	s.announceStatus(ctx, userID, listing, models.ListingStatusDeleted)

	return listing, nil
}

// restoredStatus берёт сохранённый статус, а для старых строк угадывает по месту.
func restoredStatus(l *models.Listing) string {
	if l.PreviousStatus != nil {
		switch *l.PreviousStatus {
		case models.ListingStatusLost, models.ListingStatusFound:
			return *l.PreviousStatus
		}
	}
	if l.HasLocation() {
		return models.ListingStatusFound
	}
	return models.ListingStatusLost
}

func (s *ListingService) changeStatus(ctx context.Context, listing *models.Listing, status string, previous *string) error {
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, listing.ID, status, previous, now); err != nil {
		return mapListingErr(err)
	}
	listing.Status = status
	listing.PreviousStatus = previous
	listing.UpdatedAt = now
	return nil
}

func (s *ListingService) announceStatus(ctx context.Context, userID uuid.UUID, listing *models.Listing, previous string) {
	owner := s.lookupUser(ctx, userID)
	if owner == nil {
		return
	}
	subject, body := statusEmail(owner, listing, previous, listing.Status)
	mailQuietly(ctx, s.mailer, subject, owner.Email, body)
}

func (s *ListingService) lookupUser(ctx context.Context, userID uuid.UUID) *models.User {
	if s.users == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("listing service: user lookup failed")
		return nil
	}
	return user
}

// Index переводит просроченные объявления на склад и собирает главную страницу.
// viewerID может быть nil для анонимного просмотра.
func (s *ListingService) Index(ctx context.Context, filter models.ListingFilter, viewerID *uuid.UUID) (*ListingIndex, error) {
	if _, err := s.sweeper.Sweep(ctx, s.now()); err != nil {
		return nil, err
	}

	lost, err := s.repo.Search(ctx, models.ListingStatusLost, filter, 0)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.Search(ctx, models.ListingStatusFound, filter, 0)
	if err != nil {
		return nil, err
	}

	warehouseLimit := 0
	if filter.IsEmpty() {
		warehouseLimit = warehousePreviewLimit
	}
	warehouse, err := s.repo.Search(ctx, models.ListingStatusWarehouse, filter, warehouseLimit)
	if err != nil {
		return nil, err
	}

	index := &ListingIndex{
		Lost:        nonNilListings(lost),
		Found:       nonNilListings(found),
		Warehouse:   nonNilListings(warehouse),
		Suggestions: []Suggestion{},
	}

	if viewerID != nil {
		index.Suggestions = s.suggestionsFor(ctx, *viewerID)
	}

	return index, nil
}

// suggestionsFor пересчитывает подсказки для lost/found объявлений пользователя.
// Ошибки не прерывают показ главной.
func (s *ListingService) suggestionsFor(ctx context.Context, userID uuid.UUID) []Suggestion {
	suggestions := []Suggestion{}

	own, err := s.repo.ListPendingByOwner(ctx, userID)
	if err != nil {
		logger.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("listing service: suggestions skipped")
		return suggestions
	}

	pools := make(map[string][]models.Listing, 2)
	for i := range own {
		target := &own[i]
		opposite := models.OppositeStatus(target.Status)
		pool, ok := pools[opposite]
		if !ok {
			pool, err = s.repo.ListRecentByStatus(ctx, opposite, matching.SuggestionPoolSize)
			if err != nil {
				logger.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("listing service: suggestions skipped")
				return suggestions
			}
			pools[opposite] = pool
		}

		if matches := matching.Rank(target, pool); len(matches) > 0 {
			suggestions = append(suggestions, Suggestion{Listing: *target, Matches: matches})
		}
	}

	return suggestions
}

// Warehouse возвращает все объявления на складе.
func (s *ListingService) Warehouse(ctx context.Context) ([]models.Listing, error) {
	if _, err := s.sweeper.Sweep(ctx, s.now()); err != nil {
		return nil, err
	}
	listings, err := s.repo.Search(ctx, models.ListingStatusWarehouse, models.ListingFilter{}, 0)
	if err != nil {
		return nil, err
	}
	return nonNilListings(listings), nil
}

// ContactInfo возвращает контакты автора объявления.
func (s *ListingService) ContactInfo(ctx context.Context, id, viewerID uuid.UUID) (*models.ContactInfo, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == nil {
		return nil, apperror.New(apperror.ErrCodeNotFound, "owner information not available")
	}

	var role, message string
	switch listing.Status {
	case models.ListingStatusFound:
		role, message = "finder", "This person found the item and can help you locate it."
	case models.ListingStatusLost:
		role, message = "owner", "This person lost the item and is looking for it."
	default:
		return nil, apperror.Validation("item status not supported for contact information")
	}

	owner, err := s.users.GetByID(ctx, *listing.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "owner information not available")
		}
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      viewerID,
		Type:        models.ActivityContactRequested,
		Description: fmt.Sprintf("Requested contact info for item: %s", listing.Name),
		ListingID:   &listing.ID,
	})

	return &models.ContactInfo{
		Role:     role,
		UserID:   owner.ID,
		Username: owner.Username,
		Email:    owner.Email,
		ItemName: listing.Name,
		Message:  message,
	}, nil
}

// TimeRemaining считает остаток до перевода на склад.
func (s *ListingService) TimeRemaining(ctx context.Context, id uuid.UUID) (*TimeRemaining, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TimeRemaining{
		TimeRemaining:     FormatTimeRemaining(listing.WarehouseDeadline, s.now()),
		CreatedAt:         listing.CreatedAt,
		WarehouseDeadline: listing.WarehouseDeadline,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nonNilListings(l []models.Listing) []models.Listing {
	if l == nil {
		return []models.Listing{}
	}
	return l
}
