package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(userID *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != nil {
		id := *userID
		r.Use(func(c *gin.Context) {
			c.Set("userID", id)
			c.Next()
		})
	}
	return r
}

func withUser() *uuid.UUID {
	id := uuid.New()
	return &id
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlers_RequireAuthentication(t *testing.T) {
	listing := &ListingHandler{}
	chat := &ConversationHandler{}
	notifications := &NotificationHandler{}
	reports := &ReportHandler{}
	activity := &ActivityHandler{}
	profile := &ProfileHandler{}
	media := &MediaHandler{}
	auth := &AuthHandler{}

	id := uuid.NewString()
	routes := []struct {
		method  string
		path    string
		pattern string
		handler gin.HandlerFunc
	}{
		{http.MethodPost, "/listings/lost", "/listings/lost", listing.CreateLost},
		{http.MethodPost, "/listings/found", "/listings/found", listing.CreateFound},
		{http.MethodPut, "/listings/" + id, "/listings/:id", listing.Update},
		{http.MethodPost, "/listings/" + id + "/mark-found", "/listings/:id/mark-found", listing.MarkFound},
		{http.MethodDelete, "/listings/" + id, "/listings/:id", listing.Delete},
		{http.MethodPost, "/listings/" + id + "/undo", "/listings/:id/undo", listing.Undo},
		{http.MethodGet, "/listings/" + id + "/contact", "/listings/:id/contact", listing.Contact},
		{http.MethodPost, "/listings/" + id + "/claim", "/listings/:id/claim", listing.Claim},
		{http.MethodPost, "/listings/" + id + "/recovered", "/listings/:id/recovered", listing.Recovered},
		{http.MethodPost, "/listings/" + id + "/conversation", "/listings/:id/conversation", chat.StartFromListing},
		{http.MethodGet, "/conversations", "/conversations", chat.List},
		{http.MethodPost, "/conversations", "/conversations", chat.Start},
		{http.MethodGet, "/conversations/" + id + "/messages", "/conversations/:id/messages", chat.Messages},
		{http.MethodPost, "/conversations/" + id + "/messages", "/conversations/:id/messages", chat.Send},
		{http.MethodGet, "/notifications", "/notifications", notifications.ListNotifications},
		{http.MethodPut, "/notifications/read-all", "/notifications/read-all", notifications.MarkAllAsRead},
		{http.MethodPut, "/notifications/" + id + "/read", "/notifications/:id/read", notifications.MarkAsRead},
		{http.MethodPost, "/reports", "/reports", reports.CreateReport},
		{http.MethodGet, "/reports/my", "/reports/my", reports.MyReports},
		{http.MethodGet, "/moderation/status", "/moderation/status", reports.ModerationStatus},
		{http.MethodGet, "/chat/status", "/chat/status", reports.ChatStatus},
		{http.MethodGet, "/activity", "/activity", activity.List},
		{http.MethodGet, "/activity/export", "/activity/export", activity.Export},
		{http.MethodGet, "/profile", "/profile", profile.GetMe},
		{http.MethodPost, "/media/photos", "/media/photos", media.UploadPhoto},
		{http.MethodPost, "/auth/verify", "/auth/verify", auth.Verify},
		{http.MethodPost, "/auth/verify/resend", "/auth/verify/resend", auth.ResendVerification},
		{http.MethodPost, "/auth/logout", "/auth/logout", auth.Logout},
		{http.MethodPost, "/auth/email/change", "/auth/email/change", auth.RequestEmailChange},
		{http.MethodPost, "/auth/email/verify-identity", "/auth/email/verify-identity", auth.VerifyEmailChangeIdentity},
		{http.MethodPost, "/auth/email/new", "/auth/email/new", auth.SubmitNewEmail},
		{http.MethodPost, "/auth/email/confirm", "/auth/email/confirm", auth.ConfirmNewEmail},
		{http.MethodPut, "/profile", "/profile", auth.RequestProfileUpdate},
		{http.MethodPost, "/profile/verify", "/profile/verify", auth.ConfirmProfileUpdate},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.pattern, func(t *testing.T) {
			r := newTestRouter(nil)
			r.Handle(rt.method, rt.pattern, rt.handler)

			w := perform(r, rt.method, rt.path, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthHandler_PasswordResetRejectsBadBody(t *testing.T) {
	auth := &AuthHandler{}

	cases := []struct {
		name    string
		path    string
		handler gin.HandlerFunc
		body    string
	}{
		{"forgot without email", "/auth/password/forgot", auth.ForgotPassword, `{}`},
		{"verify without code", "/auth/password/verify", auth.VerifyPasswordReset, `{"email":"a@g.bracu.ac.bd"}`},
		{"reset without confirmation", "/auth/password/reset", auth.ResetPassword, `{"email":"a@g.bracu.ac.bd","code":"123456","password":"Secret123"}`},
		{"reset with broken json", "/auth/password/reset", auth.ResetPassword, `{"email":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(nil)
			r.POST(tc.path, tc.handler)

			w := perform(r, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_EmailChangeRejectsBadBody(t *testing.T) {
	auth := &AuthHandler{}

	r := newTestRouter(withUser())
	r.POST("/auth/email/new", auth.SubmitNewEmail)
	r.PUT("/profile", auth.RequestProfileUpdate)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/auth/email/new", `{"code":"123456"}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPut, "/profile", `{}`).Code)
}
