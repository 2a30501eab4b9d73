package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound возвращается, когда refresh-сессия не найдена.
var ErrSessionNotFound = errors.New("session not found")

// UserRepository отвечает за работу с таблицами users и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, is_active, email_verified)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
		RETURNING id, is_active, created_at, updated_at
	`

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &user,
		`SELECT * FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, common.Executor(ctx, r.db), "users", id, ErrUserNotFound)
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if _, err := common.Executor(ctx, r.db).ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}

// MarkEmailVerified отмечает почту пользователя подтверждённой.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: mark email verified %w", err)
	}

	return requireAffected(result, ErrUserNotFound, "user repository: mark email verified")
}

// UpdatePassword меняет хэш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}

	return requireAffected(result, ErrUserNotFound, "user repository: update password")
}

// UpdateEmail меняет адрес; новый адрес уже подтверждён кодом.
func (r *UserRepository) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET email = $2, email_verified = TRUE, updated_at = NOW() WHERE id = $1`,
		userID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: update email %w", err)
	}

	return requireAffected(result, ErrUserNotFound, "user repository: update email")
}

// UpdateUsername меняет имя пользователя.
func (r *UserRepository) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET username = $2, updated_at = NOW() WHERE id = $1`, userID, username)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: update username %w", err)
	}

	return requireAffected(result, ErrUserNotFound, "user repository: update username")
}

// DeleteSessions завершает все сессии пользователя.
func (r *UserRepository) DeleteSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete sessions %w", err)
	}
	return result.RowsAffected()
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := common.Executor(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	result, err := common.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	return requireAffected(result, ErrSessionNotFound, "user repository: delete session")
}
