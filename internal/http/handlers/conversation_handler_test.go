package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConversationHandler_Messages_InvalidSinceID(t *testing.T) {
	handler := &ConversationHandler{}
	r := newTestRouter(withUser())
	r.GET("/conversations/:id/messages", handler.Messages)

	w := perform(r, http.MethodGet, "/conversations/"+uuid.NewString()+"/messages?since_id=42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "since_id")
}

func TestConversationHandler_InvalidConversationID(t *testing.T) {
	handler := &ConversationHandler{}
	r := newTestRouter(withUser())
	r.GET("/conversations/:id/messages", handler.Messages)
	r.POST("/conversations/:id/messages", handler.Send)

	w := perform(r, http.MethodGet, "/conversations/abc/messages", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/conversations/abc/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_Start_RequiresUserID(t *testing.T) {
	handler := &ConversationHandler{}
	r := newTestRouter(withUser())
	r.POST("/conversations", handler.Start)

	w := perform(r, http.MethodPost, "/conversations", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/conversations", `{"user_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
