package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

// ReturnPoints - сколько баллов получает нашедший за возврат.
const ReturnPoints = 1

// ReturnListingRepository - операции с объявлениями, нужные для возврата.
type ReturnListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindLostTwin(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReturnRecorder сохраняет факты возврата.
type ReturnRecorder interface {
	CreateReturn(ctx context.Context, ir *models.ItemReturn) error
}

// PointsAwarder начисляет баллы.
type PointsAwarder interface {
	Award(ctx context.Context, userID uuid.UUID, points int) (*AwardResult, error)
}

// UserFinder ищет пользователя по id или email.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// RecoveryInput - кто помог вернуть вещь.
type RecoveryInput struct {
	HelperType       string
	HelperIdentifier string
}

// ReturnOutcome - итог возврата для ответа клиенту.
type ReturnOutcome struct {
	Return        *models.ItemReturn `json:"return"`
	PointsAwarded int                `json:"points_awarded"`
	Message       string             `json:"message"`
}

// ReturnService закрывает объявления после возврата вещи.
type ReturnService struct {
	listings ReturnListingRepository
	returns  ReturnRecorder
	points   PointsAwarder
	users    UserFinder
	tx       Transactor
	notifier Notifier
	activity ActivityRecorder
	now      Clock
}

// NewReturnService создаёт сервис возвратов.
func NewReturnService(
	listings ReturnListingRepository,
	returns ReturnRecorder,
	points PointsAwarder,
	users UserFinder,
	tx Transactor,
	notifier Notifier,
	activity ActivityRecorder,
) *ReturnService {
	return &ReturnService{
		listings: listings,
		returns:  returns,
		points:   points,
		users:    users,
		tx:       tx,
		notifier: notifier,
		activity: activity,
		now:      systemClock,
	}
}

// Claim - владелец забирает найденную вещь, совпадающую с его lost объявлением.
// Баллы нашедшему, запись о возврате и удаление обоих объявлений идут одной транзакцией.
func (s *ReturnService) Claim(ctx context.Context, foundID, claimantID uuid.UUID) (*ReturnOutcome, error) {
	found, err := s.listings.GetByID(ctx, foundID)
	if err != nil {
		return nil, mapListingErr(err)
	}
	if found.Status != models.ListingStatusFound || found.OwnerID == nil {
		return nil, apperror.Validation("this item cannot be claimed")
	}
	finderID := *found.OwnerID
	if finderID == claimantID {
		return nil, apperror.Validation("you cannot claim an item you found yourself")
	}

	lost, err := s.listings.FindLostTwin(ctx, claimantID, found.Name, found.Description)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.Validation("no matching lost item found for your account")
		}
		return nil, err
	}

	record := &models.ItemReturn{
		ListingName:   found.Name,
		FinderID:      &finderID,
		OwnerID:       claimantID,
		ReturnType:    models.ReturnTypeClaimed,
		HelperType:    models.HelperTypeUser,
		PointsAwarded: ReturnPoints,
		CreatedAt:     s.now(),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.points.Award(ctx, finderID, ReturnPoints); err != nil {
			return err
		}
		if err := s.returns.CreateReturn(ctx, record); err != nil {
			return err
		}
		if err := s.listings.Delete(ctx, lost.ID); err != nil {
			return err
		}
		return s.listings.Delete(ctx, found.ID)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, apperror.ErrRetry.Message)
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      claimantID,
		Type:        models.ActivityItemClaimed,
		Description: fmt.Sprintf("Claimed found item: %s", found.Name),
		Metadata: map[string]interface{}{
			"listing_id":     found.ID.String(),
			"finder_id":      finderID.String(),
			"points_awarded": ReturnPoints,
		},
	})

	return &ReturnOutcome{
		Return:        record,
		PointsAwarded: ReturnPoints,
		Message:       "Item claimed successfully! The finder has been awarded 1 return point.",
	}, nil
}

// MarkRecovered - владелец закрывает своё lost объявление и указывает, кто помог.
func (s *ReturnService) MarkRecovered(ctx context.Context, listingID, ownerID uuid.UUID, in RecoveryInput) (*ReturnOutcome, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapListingErr(err)
	}
	if !listing.IsOwnedBy(ownerID) {
		return nil, apperror.ErrNotOwner
	}
	if listing.Status != models.ListingStatusLost {
		return nil, apperror.Validation("this item is not marked as lost")
	}

	identifier := strings.TrimSpace(in.HelperIdentifier)
	switch in.HelperType {
	case models.HelperTypeUser:
		if identifier == "" {
			return nil, apperror.Validation("please provide the user id or email of who helped you")
		}
	case models.HelperTypeNonUser:
	default:
		return nil, apperror.Validation("please select who helped you recover the item")
	}

	var helper *models.User
	if in.HelperType == models.HelperTypeUser {
		helper, err = s.resolveHelper(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if helper != nil && helper.ID == ownerID {
			return nil, apperror.Validation("you cannot credit yourself for recovering your item")
		}
	}

	record := &models.ItemReturn{
		ListingName: listing.Name,
		OwnerID:     ownerID,
		ReturnType:  models.ReturnTypeFound,
		HelperType:  in.HelperType,
		CreatedAt:   s.now(),
	}
	if identifier != "" {
		record.HelperIdentifier = &identifier
	}
	if helper != nil {
		record.FinderID = &helper.ID
		record.PointsAwarded = ReturnPoints
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if helper != nil {
			if _, err := s.points.Award(ctx, helper.ID, ReturnPoints); err != nil {
				return err
			}
			helperID, itemName := helper.ID, listing.Name
			s.tx.AfterCommit(ctx, func(ctx context.Context) {
				notifyQuietly(ctx, s.notifier, helperID, "Item Marked as Found",
					fmt.Sprintf("Your help in finding \"%s\" has been acknowledged! You earned 1 return point.", itemName),
					"/profile")
			})
		}
		if err := s.returns.CreateReturn(ctx, record); err != nil {
			return err
		}
		return s.listings.Delete(ctx, listing.ID)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, apperror.ErrRetry.Message)
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      ownerID,
		Type:        models.ActivityItemRecovered,
		Description: fmt.Sprintf("Marked lost item as found: %s", listing.Name),
		Metadata: map[string]interface{}{
			"listing_id":        listing.ID.String(),
			"helper_type":       in.HelperType,
			"helper_identifier": identifier,
		},
	})

	outcome := &ReturnOutcome{Return: record, PointsAwarded: record.PointsAwarded}
	switch {
	case helper != nil:
		outcome.Message = fmt.Sprintf("Item marked as found! %s has been awarded 1 return point.", helper.Username)
	case in.HelperType == models.HelperTypeUser:
		outcome.Message = "User not found. Item marked as found without awarding points."
	default:
		outcome.Message = "Item marked as found! Thank you for updating the status."
	}

	return outcome, nil
}

// resolveHelper ищет помощника по uuid или email. Не найден - nil без ошибки.
func (s *ReturnService) resolveHelper(ctx context.Context, identifier string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		user, err = s.users.GetByID(ctx, id)
	} else {
		user, err = s.users.GetByEmail(ctx, identifier)
	}

	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
