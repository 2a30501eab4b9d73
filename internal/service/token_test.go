package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	tm := NewTokenManager("a", "r", time.Minute, time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	pair, refreshExp, err := tm.GeneratePair(user)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pair.ExpiresIn)
	assert.False(t, refreshExp.IsZero())

	claims, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = tm.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = tm.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_Expiry(t *testing.T) {
	tm := NewTokenManager("a", "r", time.Minute, time.Hour)
	tm.now = fixedClock(testNow)

	pair, _, err := tm.GeneratePair(&models.User{ID: uuid.New(), Role: models.RoleUser})
	require.NoError(t, err)

	tm.now = fixedClock(testNow.Add(2 * time.Minute))
	_, err = tm.ParseAccess(pair.AccessToken)
	assert.Error(t, err)

	_, err = tm.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}
