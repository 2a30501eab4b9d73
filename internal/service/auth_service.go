package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/validation"
)

// VerificationCodeTTL - срок действия кода подтверждения почты.
const VerificationCodeTTL = 10 * time.Minute

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID, at time.Time) error
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error
	CreateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteSessions(ctx context.Context, userID uuid.UUID) (int64, error)
}

// VerificationRepository хранит одноразовые коды, отправленные на почту.
type VerificationRepository interface {
	CreateCode(ctx context.Context, v *models.EmailVerification) error
	FindActiveCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error)
	ConsumeCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error)
	LastIssuedAt(ctx context.Context, userID uuid.UUID, purpose string) (*time.Time, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// ClientMeta - сведения о клиенте для сессии и журнала.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User `json:"user"`
	TokenPair *TokenPair   `json:"tokens"`
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	repo          AuthRepository
	verifications VerificationRepository
	tokenManager  *TokenManager
	mailer        Mailer
	activity      ActivityRecorder
	now           Clock
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, verifications VerificationRepository, tokenManager *TokenManager, mailer Mailer, activity ActivityRecorder) *AuthService {
	return &AuthService{
		repo:          repo,
		verifications: verifications,
		tokenManager:  tokenManager,
		mailer:        mailer,
		activity:      activity,
		now:           systemClock,
	}
}

// Register создаёт пользователя, отправляет код подтверждения и открывает сессию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = deriveUsername(email)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passHash),
		Role:         models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
		}
		return nil, err
	}

	if err := s.sendVerificationCode(ctx, user); err != nil {
		logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: failed to issue verification code")
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      user.ID,
		Type:        models.ActivityRegister,
		Description: "Registered account",
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})

	pair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// ResendVerification выпускает новый код подтверждения.
func (s *AuthService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return apperror.Validation("email is already verified")
	}
	return s.sendVerificationCode(ctx, user)
}

func (s *AuthService) sendVerificationCode(ctx context.Context, user *models.User) error {
	code, err := s.issueCode(ctx, user.ID, models.CodePurposeEmailVerify, user.Email, nil)
	if err != nil {
		return err
	}

	subject, body := verificationEmail(code)
	mailQuietly(ctx, s.mailer, subject, user.Email, body)
	return nil
}

// VerifyEmail подтверждает почту одноразовым кодом.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error {
	if _, err := s.consumeCode(ctx, userID, models.CodePurposeEmailVerify, code); err != nil {
		return err
	}

	return s.repo.MarkEmailVerified(ctx, userID)
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is disabled")
	}

	now := s.now()
	if err := s.repo.UpdateLastLoginAt(ctx, user.ID, now); err != nil {
		// Не прерываем вход
		logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: failed to update last_login_at")
	} else {
		user.LastLoginAt = &now
	}

	pair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      user.ID,
		Type:        models.ActivityLogin,
		Description: "Logged in",
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh меняет refresh токен на новую пару. Старая сессия удаляется.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta ClientMeta) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "session has expired, please log in again")
		}
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is disabled")
	}

	return s.openSession(ctx, user, meta)
}

// Logout удаляет сессию.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityLogout,
		Description: "Logged out",
	})
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta ClientMeta) (*TokenPair, error) {
	pair, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		session.UserAgent = &ua
	}
	if meta.IP != "" {
		ip := meta.IP
		session.IPAddress = &ip
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return pair, nil
}

// generateVerificationCode возвращает случайный шестизначный код.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("auth service: generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// deriveUsername формирует username из email.
func deriveUsername(email string) string {
	name := strings.Split(email, "@")[0]
	name = strings.NewReplacer(".", "_", "+", "_", "-", "_").Replace(name)
	name = strings.ToLower(name)
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "u_" + name
	}
	if len(name) < 3 {
		name = "user_" + uuid.NewString()[:6]
	}
	if len(name) > validation.MaxUsernameLength {
		name = name[:validation.MaxUsernameLength]
	}
	return name
}
