package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// AdminHandler - разбор жалоб и ручные ограничения.
// Доступ проверяет middleware.RequireAdmin.
type AdminHandler struct {
	moderation *service.ModerationService
}

// NewAdminHandler создаёт хэндлер администратора.
func NewAdminHandler(moderation *service.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// ListReports обрабатывает GET /admin/reports.
func (h *AdminHandler) ListReports(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	reports, err := h.moderation.ListPendingReports(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ReviewReport обрабатывает PUT /admin/reports/:id.
func (h *AdminHandler) ReviewReport(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Status string  `json:"status" binding:"required"`
		Notes  *string `json:"admin_notes"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.moderation.ReviewReport(c.Request.Context(), reportID, adminID, req.Status, req.Notes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// IssueSuspension обрабатывает POST /admin/suspensions.
func (h *AdminHandler) IssueSuspension(c *gin.Context) {
	var req struct {
		UserID         uuid.UUID `json:"user_id" binding:"required"`
		SuspensionType string    `json:"suspension_type" binding:"required"`
		Reason         string    `json:"reason" binding:"required"`
		DurationDays   int       `json:"duration_days" binding:"required,min=1,max=365"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	suspension, err := h.moderation.IssueSuspension(c.Request.Context(), service.SuspensionInput{
		UserID:         req.UserID,
		SuspensionType: req.SuspensionType,
		Reason:         req.Reason,
		Duration:       time.Duration(req.DurationDays) * 24 * time.Hour,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suspension)
}

// LiftSuspension обрабатывает DELETE /admin/suspensions/:id.
func (h *AdminHandler) LiftSuspension(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.moderation.LiftSuspension(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suspension lifted"})
}
