package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// ConversationHandler обслуживает переписку. Клиент опрашивает новые
// сообщения через since_id.
type ConversationHandler struct {
	chat *service.ChatService
}

// NewConversationHandler создаёт хэндлер чата.
func NewConversationHandler(chat *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// Start обрабатывает POST /conversations.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conv, err := h.chat.Start(c.Request.Context(), userID, req.UserID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// StartFromListing обрабатывает POST /listings/:id/conversation.
func (h *ConversationHandler) StartFromListing(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	listingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conv, err := h.chat.StartFromListing(c.Request.Context(), userID, listingID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// List обрабатывает GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	conversations, err := h.chat.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// Messages обрабатывает GET /conversations/:id/messages?since_id=&limit=.
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var sinceID *uuid.UUID
	if raw := c.Query("since_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "since_id must be a valid UUID")
			return
		}
		sinceID = &parsed
	}

	messages, err := h.chat.Messages(c.Request.Context(), conversationID, userID, sinceID, common.ParseIntQuery(c, "limit", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Send обрабатывает POST /conversations/:id/messages.
// Принимает JSON {"content"} или multipart с полями content и file.
func (h *ConversationHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var in service.SendMessageInput
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		in.Content = c.PostForm("content")
		if header, err := c.FormFile("file"); err == nil {
			file, err := header.Open()
			if err != nil {
				common.RespondBadRequest(c, "could not read uploaded file")
				return
			}
			defer file.Close()
			in.Attachment = file
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := common.BindAndValidate(c, &req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
		in.Content = req.Content
	}

	msg, err := h.chat.Send(c.Request.Context(), conversationID, userID, in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
