package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/middleware"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
)

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestCurrentUserID(t *testing.T) {
	c, _ := newContext("/")
	_, err := CurrentUserID(c)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, OptionalUserID(c))

	id := uuid.New()
	c.Set(middleware.ContextUserIDKey, id)
	got, err := CurrentUserID(c)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, &id, OptionalUserID(c))
}

func TestCurrentUserID_WrongType(t *testing.T) {
	c, _ := newContext("/")
	c.Set(middleware.ContextUserIDKey, "not-a-uuid-value")

	_, err := CurrentUserID(c)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", apperror.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{"not owner", apperror.ErrNotOwner, http.StatusForbidden, "you can only modify your own items"},
		{"suspended", apperror.New(apperror.ErrCodeSuspended, "posting disabled"), http.StatusForbidden, "posting disabled"},
		{"retry", apperror.Wrap(errors.New("deadlock"), apperror.ErrCodeDatabaseError, apperror.ErrRetry.Message), http.StatusInternalServerError, "please try again"},
		{"plain error is masked", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("/")
			RespondAppError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestParseDateQuery(t *testing.T) {
	c, _ := newContext("/?date_from=2025-03-10&date_to=03/10/2025")

	from, err := ParseDateQuery(c, "date_from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, 10, from.Day())

	_, err = ParseDateQuery(c, "date_to")
	assert.Error(t, err)

	missing, err := ParseDateQuery(c, "other")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetPagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"/", 20, 0},
		{"/?limit=500&offset=10", 100, 10},
		{"/?limit=0&offset=-3", 20, 0},
		{"/?limit=abc", 20, 0},
	}
	for _, tt := range tests {
		c, _ := newContext(tt.query)
		limit, offset := GetPagination(c)
		assert.Equal(t, tt.limit, limit, tt.query)
		assert.Equal(t, tt.offset, offset, tt.query)
	}
}
