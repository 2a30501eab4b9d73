package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// CodeResendInterval - пауза между кодами одного сценария.
const CodeResendInterval = time.Minute

var (
	errInvalidCode   = apperror.Validation("invalid or expired verification code")
	errCodeTooSoon   = apperror.New(apperror.ErrCodeTooManyTries, "please wait a moment before requesting another code")
	errEmailTaken    = apperror.New(apperror.ErrCodeConflict, "email already in use by another account")
	errUsernameTaken = apperror.New(apperror.ErrCodeConflict, "username is already taken")
)

// ResetPasswordInput - последний шаг восстановления пароля.
type ResetPasswordInput struct {
	Email           string
	Code            string
	Password        string
	ConfirmPassword string
}

// issueCode выпускает код для сценария. Просроченные коды попутно удаляются.
func (s *AuthService) issueCode(ctx context.Context, userID uuid.UUID, purpose, email string, payload []byte) (string, error) {
	now := s.now()
	if _, err := s.verifications.DeleteExpired(ctx, now); err != nil {
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("auth service: failed to delete expired codes")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return "", err
	}

	v := &models.EmailVerification{
		UserID:    userID,
		Purpose:   purpose,
		Email:     email,
		Code:      code,
		Payload:   payload,
		ExpiresAt: now.Add(VerificationCodeTTL),
	}
	if err := s.verifications.CreateCode(ctx, v); err != nil {
		return "", err
	}
	return code, nil
}

// throttle не даёт выпускать коды чаще CodeResendInterval.
func (s *AuthService) throttle(ctx context.Context, userID uuid.UUID, purpose string) error {
	last, err := s.verifications.LastIssuedAt(ctx, userID, purpose)
	if err != nil {
		return err
	}
	if last != nil && s.now().Sub(*last) < CodeResendInterval {
		return errCodeTooSoon
	}
	return nil
}

func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return "", apperror.Validation("verification code must be 6 digits")
	}
	return code, nil
}

// checkCode проверяет код без расходования.
func (s *AuthService) checkCode(ctx context.Context, userID uuid.UUID, purpose, code string) error {
	code, err := normalizeCode(code)
	if err != nil {
		return err
	}
	if _, err := s.verifications.FindActiveCode(ctx, userID, purpose, code, s.now()); err != nil {
		if errors.Is(err, repository.ErrVerificationCodeNotFound) {
			return errInvalidCode
		}
		return err
	}
	return nil
}

func (s *AuthService) consumeCode(ctx context.Context, userID uuid.UUID, purpose, code string) (*models.EmailVerification, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	v, err := s.verifications.ConsumeCode(ctx, userID, purpose, code, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrVerificationCodeNotFound) {
			return nil, errInvalidCode
		}
		return nil, err
	}
	return v, nil
}

func (s *AuthService) currentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// resetCandidate ищет пользователя по адресу. Неизвестный адрес даёт nil без ошибки.
func (s *AuthService) resetCandidate(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword отправляет код сброса пароля. Ответ одинаков для известных
// и неизвестных адресов; повтор раньше CodeResendInterval молча пропускается.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.resetCandidate(ctx, email)
	if err != nil || user == nil {
		return err
	}

	if err := s.throttle(ctx, user.ID, models.CodePurposePasswordReset); err != nil {
		if errors.Is(err, errCodeTooSoon) {
			return nil
		}
		return err
	}

	code, err := s.issueCode(ctx, user.ID, models.CodePurposePasswordReset, user.Email, nil)
	if err != nil {
		return err
	}
	subject, body := passwordResetEmail(code)
	mailQuietly(ctx, s.mailer, subject, user.Email, body)
	return nil
}

// VerifyPasswordReset проверяет код сброса; код остаётся действующим до ResetPassword.
func (s *AuthService) VerifyPasswordReset(ctx context.Context, email, code string) error {
	user, err := s.resetCandidate(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return errInvalidCode
	}
	return s.checkCode(ctx, user.ID, models.CodePurposePasswordReset, code)
}

// ResetPassword меняет пароль по коду и завершает все сессии пользователя.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput, meta ClientMeta) error {
	if in.Password != in.ConfirmPassword {
		return apperror.Validation("passwords do not match")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.resetCandidate(ctx, in.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return errInvalidCode
	}

	if _, err := s.consumeCode(ctx, user.ID, models.CodePurposePasswordReset, in.Code); err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth service: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(passHash)); err != nil {
		return err
	}
	if _, err := s.repo.DeleteSessions(ctx, user.ID); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      user.ID,
		Type:        models.ActivityPasswordReset,
		Description: "Password reset completed",
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	})
	return nil
}

// RequestEmailChange отправляет код подтверждения личности на текущий адрес.
func (s *AuthService) RequestEmailChange(ctx context.Context, userID uuid.UUID) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.throttle(ctx, user.ID, models.CodePurposeEmailIdentity); err != nil {
		return err
	}

	code, err := s.issueCode(ctx, user.ID, models.CodePurposeEmailIdentity, user.Email, nil)
	if err != nil {
		return err
	}
	subject, body := identityEmail(code)
	mailQuietly(ctx, s.mailer, subject, user.Email, body)
	return nil
}

// VerifyEmailChangeIdentity проверяет код с текущего адреса, не расходуя его.
func (s *AuthService) VerifyEmailChangeIdentity(ctx context.Context, userID uuid.UUID, code string) error {
	return s.checkCode(ctx, userID, models.CodePurposeEmailIdentity, code)
}

// SubmitNewEmail расходует код личности и отправляет код на новый адрес.
func (s *AuthService) SubmitNewEmail(ctx context.Context, userID uuid.UUID, identityCode, newEmail string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if err := validation.ValidateEmail(newEmail); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	if newEmail == user.Email {
		return apperror.Validation("new email must differ from the current one")
	}

	if other, err := s.repo.GetByEmail(ctx, newEmail); err == nil && other.ID != user.ID {
		return errEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	if _, err := s.consumeCode(ctx, user.ID, models.CodePurposeEmailIdentity, identityCode); err != nil {
		return err
	}

	code, err := s.issueCode(ctx, user.ID, models.CodePurposeEmailConfirm, newEmail, nil)
	if err != nil {
		return err
	}
	subject, body := newEmailVerificationEmail(code)
	mailQuietly(ctx, s.mailer, subject, newEmail, body)
	return nil
}

// ConfirmNewEmail применяет новый адрес по коду, пришедшему на него.
func (s *AuthService) ConfirmNewEmail(ctx context.Context, userID uuid.UUID, code string, meta ClientMeta) (*models.User, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	v, err := s.consumeCode(ctx, user.ID, models.CodePurposeEmailConfirm, code)
	if err != nil {
		return nil, err
	}

	oldEmail := user.Email
	if err := s.repo.UpdateEmail(ctx, user.ID, v.Email); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, errEmailTaken
		}
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      user.ID,
		Type:        models.ActivityEmailChanged,
		Description: fmt.Sprintf("Email changed to: %s", v.Email),
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		Metadata: map[string]interface{}{
			"old_email": oldEmail,
			"new_email": v.Email,
		},
	})

	return s.currentUser(ctx, user.ID)
}

// RequestProfileUpdate откладывает изменения профиля до подтверждения кодом с текущего адреса.
func (s *AuthService) RequestProfileUpdate(ctx context.Context, userID uuid.UUID, change models.ProfileChange) error {
	change.Username = strings.TrimSpace(change.Username)
	if err := validation.ValidateUsername(change.Username); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	if change.Username == user.Username {
		return apperror.Validation("nothing to update")
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("auth service: encode profile change: %w", err)
	}
	code, err := s.issueCode(ctx, user.ID, models.CodePurposeProfileUpdate, user.Email, payload)
	if err != nil {
		return err
	}
	subject, body := profileUpdateEmail(code)
	mailQuietly(ctx, s.mailer, subject, user.Email, body)
	return nil
}

// ConfirmProfileUpdate применяет изменения, сохранённые вместе с кодом.
func (s *AuthService) ConfirmProfileUpdate(ctx context.Context, userID uuid.UUID, code string, meta ClientMeta) (*models.User, error) {
	v, err := s.consumeCode(ctx, userID, models.CodePurposeProfileUpdate, code)
	if err != nil {
		return nil, err
	}

	var change models.ProfileChange
	if err := v.Payload.Unmarshal(&change); err != nil {
		return nil, fmt.Errorf("auth service: decode profile change: %w", err)
	}
	if err := validation.ValidateUsername(change.Username); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.repo.UpdateUsername(ctx, userID, change.Username); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, errUsernameTaken
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityProfileUpdated,
		Description: "Updated profile information",
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		Metadata: map[string]interface{}{
			"updated_fields": []string{"username"},
			"username":       change.Username,
		},
	})

	return s.currentUser(ctx, userID)
}
