package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

// PointsRepository описывает хранилище баллов, значков и возвратов.
type PointsRepository interface {
	AddPoints(ctx context.Context, userID uuid.UUID, points int, now time.Time) (*models.UserPoints, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error)
	ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
	CreateBadge(ctx context.Context, b *models.Badge) (bool, error)
	CreateReturn(ctx context.Context, ir *models.ItemReturn) error
	ListReturns(ctx context.Context, userID uuid.UUID, limit int) ([]models.ItemReturn, error)
}

type badgeRule struct {
	Threshold   int
	Type        string
	Name        string
	Description string
}

// badgeRules упорядочены по возрастанию порога.
var badgeRules = []badgeRule{
	{1, models.BadgeFirstReturn, "First Return", "Successfully returned your first item"},
	{5, models.BadgeTrustedFinder, "Trusted Finder", "Returned 5 items - you are trusted by the community"},
	{10, models.BadgeCommunityHero, "Community Hero", "Returned 10 items - you are a community hero!"},
}

// AwardResult - итог начисления.
type AwardResult struct {
	Points    *models.UserPoints
	NewBadges []models.Badge
}

// PointsService начисляет баллы и выдаёт значки.
type PointsService struct {
	repo     PointsRepository
	tx       Transactor
	notifier Notifier
	now      Clock
}

// NewPointsService создаёт сервис наград.
func NewPointsService(repo PointsRepository, tx Transactor, notifier Notifier) *PointsService {
	return &PointsService{repo: repo, tx: tx, notifier: notifier, now: systemClock}
}

// Award начисляет баллы и выдаёт новые значки в одной транзакции.
// Внутри внешней транзакции Award присоединяется к ней, а уведомления
// уходят только после её коммита.
func (s *PointsService) Award(ctx context.Context, userID uuid.UUID, points int) (*AwardResult, error) {
	if points <= 0 {
		return nil, fmt.Errorf("points service: points must be positive, got %d", points)
	}

	result := &AwardResult{}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		updated, err := s.repo.AddPoints(ctx, userID, points, now)
		if err != nil {
			return err
		}
		result.Points = updated

		owned, err := s.repo.ListBadges(ctx, userID)
		if err != nil {
			return err
		}
		have := make(map[string]struct{}, len(owned))
		for _, b := range owned {
			have[b.BadgeType] = struct{}{}
		}

		for _, rule := range badgeRules {
			if updated.TotalPoints < rule.Threshold {
				break
			}
			if _, ok := have[rule.Type]; ok {
				continue
			}

			badge := models.Badge{
				UserID:      userID,
				BadgeType:   rule.Type,
				BadgeName:   rule.Name,
				Description: rule.Description,
				EarnedAt:    now,
			}
			created, err := s.repo.CreateBadge(ctx, &badge)
			if err != nil {
				return err
			}
			if !created {
				continue
			}
			result.NewBadges = append(result.NewBadges, badge)

			threshold := rule.Threshold
			s.tx.AfterCommit(ctx, func(ctx context.Context) {
				metrics.BadgesAwarded.WithLabelValues(badge.BadgeType).Inc()
				notifyQuietly(ctx, s.notifier, userID,
					fmt.Sprintf("New Badge Unlocked: %s", badge.BadgeName),
					fmt.Sprintf("Congratulations! You've earned the %s badge for returning %d items.", badge.BadgeName, threshold),
					"/profile",
				)
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Summary - баллы, значки и последние возвраты для профиля.
type Summary struct {
	Points  *models.UserPoints  `json:"points"`
	Badges  []models.Badge      `json:"badges"`
	Returns []models.ItemReturn `json:"recent_returns"`
}

// Summary собирает данные о наградах пользователя.
func (s *PointsService) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	points, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.ListBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	returns, err := s.repo.ListReturns(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	if returns == nil {
		returns = []models.ItemReturn{}
	}

	return &Summary{Points: points, Badges: badges, Returns: returns}, nil
}
