package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// User описывает пользователя портала.
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	Username      string     `db:"username" json:"username"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Role          string     `db:"role" json:"role"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// IsAdmin сообщает, есть ли у пользователя права модератора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EmailVerification - одноразовый код, отправленный на Email.
// Purpose отделяет коды разных сценариев, Payload хранит отложенные изменения.
type EmailVerification struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	UserID    uuid.UUID      `db:"user_id" json:"user_id"`
	Purpose   string         `db:"purpose" json:"purpose"`
	Email     string         `db:"email" json:"email"`
	Code      string         `db:"code" json:"-"`
	Payload   types.JSONText `db:"payload" json:"-"`
	ExpiresAt time.Time      `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time     `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ProfileChange - изменения профиля, ждущие подтверждения кодом.
type ProfileChange struct {
	Username string `json:"username"`
}

// ContactInfo - контакты, которые видит другой пользователь.
// Role: finder для found, owner для lost.
type ContactInfo struct {
	Role     string    `json:"contact_type"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"contact_name"`
	Email    string    `json:"email"`
	ItemName string    `json:"item_name"`
	Message  string    `json:"message"`
}
