package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// ProfileHandler собирает профиль: пользователь, награды и модерация.
type ProfileHandler struct {
	users      service.UserReader
	points     *service.PointsService
	moderation *service.ModerationService
}

// NewProfileHandler создаёт экземпляр.
func NewProfileHandler(users service.UserReader, points *service.PointsService, moderation *service.ModerationService) *ProfileHandler {
	return &ProfileHandler{users: users, points: points, moderation: moderation}
}

// GetMe обрабатывает GET /profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			err = apperror.ErrUserNotFound
		}
		common.RespondAppError(c, err)
		return
	}

	rewards, err := h.points.Summary(ctx, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	moderation, err := h.moderation.Profile(ctx, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"points":         rewards.Points,
		"badges":         rewards.Badges,
		"recent_returns": rewards.Returns,
		"moderation":     moderation,
	})
}
