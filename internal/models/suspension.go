package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SuspensionPostingBan = "posting_ban"
	SuspensionChatBan    = "chat_ban"
	SuspensionFull       = "full_suspension"
)

// Suspension - ограничение на публикацию или чат, действующее до EndDate.
// Строки не удаляются: истёкшие просто перестают попадать под условие.
type Suspension struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	SuspensionType string    `db:"suspension_type" json:"suspension_type"`
	Reason         string    `db:"reason" json:"reason"`
	ReportCount    int       `db:"report_count" json:"report_count"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ActiveAt сообщает, действует ли ограничение в момент now.
func (s *Suspension) ActiveAt(now time.Time) bool {
	return s.IsActive && s.EndDate.After(now)
}
