package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingHandler_Get_InvalidID(t *testing.T) {
	handler := &ListingHandler{}
	r := newTestRouter(nil)
	r.GET("/listings/:id", handler.Get)
	r.GET("/listings/:id/time-remaining", handler.TimeRemaining)
	r.GET("/listings/:id/poster", handler.Poster)

	for _, path := range []string{"/listings/abc", "/listings/abc/time-remaining", "/listings/abc/poster"} {
		w := perform(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListingHandler_Index_InvalidDates(t *testing.T) {
	handler := &ListingHandler{}
	r := newTestRouter(nil)
	r.GET("/listings", handler.Index)

	tests := []struct {
		name  string
		query string
	}{
		{"malformed date_from", "?date_from=10-03-2025"},
		{"malformed date_to", "?date_to=yesterday"},
		{"reversed range", "?date_from=2025-03-10&date_to=2025-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/listings"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestParseListingFilter_DateToIsInclusive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/listings?item_name=+wallet+&date_from=2025-03-10&date_to=2025-03-10", nil)

	filter, err := parseListingFilter(c)
	require.NoError(t, err)

	assert.Equal(t, "wallet", filter.ItemName)
	require.NotNil(t, filter.DateFrom)
	require.NotNil(t, filter.DateTo)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *filter.DateFrom)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), *filter.DateTo)
	assert.False(t, filter.IsEmpty())
}

func TestParseListingFilter_Empty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/listings", nil)

	filter, err := parseListingFilter(c)
	require.NoError(t, err)
	assert.True(t, filter.IsEmpty())
}

func TestListingHandler_Create_InvalidBody(t *testing.T) {
	handler := &ListingHandler{}
	r := newTestRouter(withUser())
	r.POST("/listings/lost", handler.CreateLost)

	w := perform(r, http.MethodPost, "/listings/lost", `{"name":"Wallet"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/listings/lost", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingHandler_OwnerActions_InvalidID(t *testing.T) {
	handler := &ListingHandler{}
	r := newTestRouter(withUser())
	r.PUT("/listings/:id", handler.Update)
	r.DELETE("/listings/:id", handler.Delete)
	r.POST("/listings/:id/undo", handler.Undo)
	r.POST("/listings/:id/mark-found", handler.MarkFound)
	r.POST("/listings/:id/claim", handler.Claim)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/listings/nope"},
		{http.MethodDelete, "/listings/nope"},
		{http.MethodPost, "/listings/nope/undo"},
		{http.MethodPost, "/listings/nope/mark-found"},
		{http.MethodPost, "/listings/nope/claim"},
	}
	for _, tc := range cases {
		w := perform(r, tc.method, tc.path, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.method+" "+tc.path)
	}
}

func TestListingHandler_Recovered_InvalidHelperType(t *testing.T) {
	handler := &ListingHandler{}
	r := newTestRouter(withUser())
	r.POST("/listings/:id/recovered", handler.Recovered)

	w := perform(r, http.MethodPost, "/listings/"+withUser().String()+"/recovered",
		`{"helper_type":"alien","helper_identifier":"someone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/listings/"+withUser().String()+"/recovered", `{"helper_type":"user"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
