package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityLog - запись журнала действий пользователя.
type ActivityLog struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	ActivityType string          `db:"activity_type" json:"activity_type"`
	Description  string          `db:"description" json:"description"`
	ListingID    *uuid.UUID      `db:"listing_id" json:"listing_id,omitempty"`
	IPAddress    *string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `db:"user_agent" json:"user_agent,omitempty"`
	Metadata     json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// ActivityFilter задаёт выборку журнала.
type ActivityFilter struct {
	ActivityType string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// TypeCount - количество действий одного типа.
type TypeCount struct {
	ActivityType string `db:"activity_type" json:"activity_type"`
	Count        int    `db:"count" json:"count"`
}

// DayCount - количество действий за день.
type DayCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int       `db:"count" json:"count"`
}

// ActivityStats - сводка по журналу.
type ActivityStats struct {
	Total        int         `json:"total"`
	LastWeek     int         `json:"last_week"`
	LastMonth    int         `json:"last_month"`
	LastYear     int         `json:"last_year"`
	ByType       []TypeCount `json:"by_type"`
	MostActive   []DayCount  `json:"most_active_days"`
	ItemsCreated int         `json:"items_created"`
}
