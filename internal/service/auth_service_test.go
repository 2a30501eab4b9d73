package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository/common"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return common.ErrAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = testNow
	user.UpdatedAt = testNow
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID, at time.Time) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (m *mockAuthRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.EmailVerified = true
	return nil
}

func (m *mockAuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepository) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if other, taken := m.usersByEmail[email]; taken && other.ID != userID {
		return common.ErrAlreadyExists
	}
	delete(m.usersByEmail, user.Email)
	user.Email = email
	user.EmailVerified = true
	m.usersByEmail[email] = user
	return nil
}

func (m *mockAuthRepository) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for _, other := range m.usersByID {
		if other.ID != userID && other.Username == username {
			return common.ErrAlreadyExists
		}
	}
	user.Username = username
	return nil
}

func (m *mockAuthRepository) DeleteSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var removed int64
	for token, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	if _, ok := m.sessions[refreshToken]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, refreshToken)
	return nil
}

// memVerifications хранит коды в памяти с той же семантикой, что и репозиторий.
type memVerifications struct {
	codes []models.EmailVerification
}

func (m *memVerifications) CreateCode(ctx context.Context, v *models.EmailVerification) error {
	v.ID = uuid.New()
	v.CreatedAt = v.ExpiresAt.Add(-VerificationCodeTTL)
	m.codes = append(m.codes, *v)
	return nil
}

func (m *memVerifications) active(userID uuid.UUID, purpose, code string, now time.Time) *models.EmailVerification {
	for i := len(m.codes) - 1; i >= 0; i-- {
		v := &m.codes[i]
		if v.UserID == userID && v.Purpose == purpose && v.Code == code && v.UsedAt == nil && v.ExpiresAt.After(now) {
			return v
		}
	}
	return nil
}

func (m *memVerifications) FindActiveCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error) {
	v := m.active(userID, purpose, code, now)
	if v == nil {
		return nil, repository.ErrVerificationCodeNotFound
	}
	found := *v
	return &found, nil
}

func (m *memVerifications) ConsumeCode(ctx context.Context, userID uuid.UUID, purpose, code string, now time.Time) (*models.EmailVerification, error) {
	v := m.active(userID, purpose, code, now)
	if v == nil {
		return nil, repository.ErrVerificationCodeNotFound
	}
	v.UsedAt = &now
	used := *v
	return &used, nil
}

func (m *memVerifications) LastIssuedAt(ctx context.Context, userID uuid.UUID, purpose string) (*time.Time, error) {
	var last *time.Time
	for i := range m.codes {
		v := m.codes[i]
		if v.UserID == userID && v.Purpose == purpose && (last == nil || v.CreatedAt.After(*last)) {
			at := v.CreatedAt
			last = &at
		}
	}
	return last, nil
}

func (m *memVerifications) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	kept := m.codes[:0]
	var removed int64
	for _, v := range m.codes {
		if v.ExpiresAt.After(now) {
			kept = append(kept, v)
		} else {
			removed++
		}
	}
	m.codes = kept
	return removed, nil
}

// latest возвращает последний код сценария.
func (m *memVerifications) latest(purpose string) models.EmailVerification {
	for i := len(m.codes) - 1; i >= 0; i-- {
		if m.codes[i].Purpose == purpose {
			return m.codes[i]
		}
	}
	return models.EmailVerification{}
}

func newAuthFixture() (*AuthService, *mockAuthRepository, *memVerifications, *recordingMailer) {
	repo := newMockAuthRepository()
	verifications := &memVerifications{}
	mailer := &recordingMailer{}
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	svc := NewAuthService(repo, verifications, tokens, mailer, &recordingActivity{})
	svc.now = fixedClock(testNow)
	return svc, repo, verifications, mailer
}

func TestRegister_SendsVerificationCode(t *testing.T) {
	svc, repo, verifications, mailer := newAuthFixture()

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:    " Student.One@G.BRACU.ac.bd ",
		Password: "Secret123",
	}, ClientMeta{UserAgent: "test-agent", IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "student.one@g.bracu.ac.bd", res.User.Email)
	assert.Equal(t, "student_one", res.User.Username)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.TokenPair.AccessToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("Secret123")))

	require.Len(t, verifications.codes, 1)
	assert.Len(t, verifications.codes[0].Code, 6)
	assert.Equal(t, models.CodePurposeEmailVerify, verifications.codes[0].Purpose)
	assert.Equal(t, testNow.Add(VerificationCodeTTL), verifications.codes[0].ExpiresAt)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, verifications.codes[0].Code)

	require.Len(t, repo.sessions, 1)
	for _, s := range repo.sessions {
		require.NotNil(t, s.UserAgent)
		assert.Equal(t, "test-agent", *s.UserAgent)
	}
}

func TestRegister_Rejections(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "Secret123"}, ClientMeta{})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "a@g.bracu.ac.bd", Password: "short"}, ClientMeta{})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "dup@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "DUP@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	assert.True(t, apperror.IsConflict(err))
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, verifications, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "verify@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	require.NoError(t, err)
	code := verifications.codes[0].Code

	assert.True(t, apperror.IsValidation(svc.VerifyEmail(ctx, res.User.ID, "12")))

	svc.now = fixedClock(testNow.Add(VerificationCodeTTL + time.Second))
	assert.True(t, apperror.IsValidation(svc.VerifyEmail(ctx, res.User.ID, code)))

	svc.now = fixedClock(testNow.Add(time.Minute))
	require.NoError(t, svc.VerifyEmail(ctx, res.User.ID, code))
	assert.True(t, repo.usersByID[res.User.ID].EmailVerified)

	assert.True(t, apperror.IsValidation(svc.VerifyEmail(ctx, res.User.ID, code)))
	assert.True(t, apperror.IsValidation(svc.ResendVerification(ctx, res.User.ID)))
}

func TestLogin(t *testing.T) {
	svc, repo, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "login@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginInput{Email: "login@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	require.NoError(t, err)
	require.NotNil(t, res.User.LastLoginAt)
	assert.Equal(t, testNow, *res.User.LastLoginAt)

	_, err = svc.Login(ctx, LoginInput{Email: "login@g.bracu.ac.bd", Password: "Wrong1234"}, ClientMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	repo.usersByEmail["login@g.bracu.ac.bd"].IsActive = false
	_, err = svc.Login(ctx, LoginInput{Email: "login@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	assert.True(t, apperror.IsForbidden(err))
}

func TestRefresh_RotatesSession(t *testing.T) {
	svc, repo, _, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "refresh@g.bracu.ac.bd", Password: "Secret123"}, ClientMeta{})
	require.NoError(t, err)
	oldToken := res.TokenPair.RefreshToken

	pair, err := svc.Refresh(ctx, oldToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, pair.RefreshToken)
	assert.NotContains(t, repo.sessions, oldToken)
	assert.Contains(t, repo.sessions, pair.RefreshToken)

	_, err = svc.Refresh(ctx, oldToken, ClientMeta{})
	appErr, ok := apperror.From(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)

	_, err = svc.Refresh(ctx, "garbage", ClientMeta{})
	assert.Error(t, err)
}

func TestLogout_IgnoresMissingSession(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	assert.NoError(t, svc.Logout(context.Background(), uuid.New(), "unknown"))
}

func TestDeriveUsername(t *testing.T) {
	assert.Equal(t, "john_doe", deriveUsername("john.doe@g.bracu.ac.bd"))
	assert.Equal(t, "u_21301234", deriveUsername("21301234@g.bracu.ac.bd"))
	assert.True(t, strings.HasPrefix(deriveUsername("ab@x.com"), "user_"))
}
