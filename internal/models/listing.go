package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WarehouseWindow - сколько объявление живёт до передачи на склад.
const WarehouseWindow = 150 * time.Hour

// Listing описывает объявление о потерянной или найденной вещи.
type Listing struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	OwnerID           *uuid.UUID     `db:"owner_id" json:"owner_id,omitempty"`
	Name              string         `db:"name" json:"name"`
	Value             *float64       `db:"value" json:"value,omitempty"`
	Description       string         `db:"description" json:"description"`
	Location          *string        `db:"location" json:"location,omitempty"`
	Photos            pq.StringArray `db:"photos" json:"photos"`
	Status            string         `db:"status" json:"status"`
	PreviousStatus    *string        `db:"previous_status" json:"-"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	WarehouseDeadline time.Time      `db:"warehouse_deadline" json:"warehouse_deadline"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// WarehouseDeadlineFor вычисляет дедлайн склада от момента создания.
func WarehouseDeadlineFor(createdAt time.Time) time.Time {
	return createdAt.Add(WarehouseWindow)
}

// IsOwnedBy сообщает, принадлежит ли объявление пользователю.
func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}

// IsPending - объявление ещё ждёт владельца (lost или found).
func (l *Listing) IsPending() bool {
	return l.Status == ListingStatusLost || l.Status == ListingStatusFound
}

// HasLocation сообщает, указано ли непустое место.
func (l *Listing) HasLocation() bool {
	return l.Location != nil && strings.TrimSpace(*l.Location) != ""
}

// OppositeStatus возвращает статус, среди которого ищутся совпадения.
func OppositeStatus(status string) string {
	if status == ListingStatusLost {
		return ListingStatusFound
	}
	return ListingStatusLost
}

// ListingFilter задаёт фильтры главной страницы.
type ListingFilter struct {
	ItemName string
	Location string
	Keyword  string
	DateFrom *time.Time
	DateTo   *time.Time
}

// IsEmpty сообщает, что ни один фильтр не задан.
func (f ListingFilter) IsEmpty() bool {
	return f.ItemName == "" && f.Location == "" && f.Keyword == "" && f.DateFrom == nil && f.DateTo == nil
}
