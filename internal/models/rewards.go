package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BadgeFirstReturn   = "first_return"
	BadgeTrustedFinder = "trusted_finder"
	BadgeCommunityHero = "community_hero"

	ReturnTypeClaimed = "claimed"
	ReturnTypeFound   = "found"

	HelperTypeUser    = "user"
	HelperTypeNonUser = "non_user"
)

// UserPoints хранит счётчики баллов за возвращённые вещи.
type UserPoints struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	ReturnPoints int       `db:"return_points" json:"return_points"`
	TotalPoints  int       `db:"total_points" json:"total_points"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Badge - полученный пользователем значок. Один значок каждого типа.
type Badge struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	BadgeType   string    `db:"badge_type" json:"badge_type"`
	BadgeName   string    `db:"badge_name" json:"badge_name"`
	Description string    `db:"description" json:"description"`
	EarnedAt    time.Time `db:"earned_at" json:"earned_at"`
}

// ItemReturn фиксирует факт возврата вещи владельцу.
type ItemReturn struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ListingName      string     `db:"listing_name" json:"listing_name"`
	FinderID         *uuid.UUID `db:"finder_id" json:"finder_id,omitempty"`
	OwnerID          uuid.UUID  `db:"owner_id" json:"owner_id"`
	ReturnType       string     `db:"return_type" json:"return_type"`
	HelperType       string     `db:"helper_type" json:"helper_type"`
	HelperIdentifier *string    `db:"helper_identifier" json:"helper_identifier,omitempty"`
	PointsAwarded    int        `db:"points_awarded" json:"points_awarded"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
