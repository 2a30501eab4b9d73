package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// ReportHandler принимает жалобы и отдаёт статус ограничений.
type ReportHandler struct {
	moderation *service.ModerationService
}

// NewReportHandler создаёт хэндлер жалоб.
func NewReportHandler(moderation *service.ModerationService) *ReportHandler {
	return &ReportHandler{moderation: moderation}
}

// CreateReport обрабатывает POST /reports.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req struct {
		ReportedUserID uuid.UUID  `json:"reported_user_id" binding:"required"`
		ListingID      *uuid.UUID `json:"listing_id"`
		ReportType     string     `json:"report_type" binding:"required"`
		Reason         string     `json:"reason" binding:"required"`
		Evidence       *string    `json:"evidence"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.moderation.SubmitReport(c.Request.Context(), service.ReportInput{
		ReporterID:     userID,
		ReportedUserID: req.ReportedUserID,
		ListingID:      req.ListingID,
		ReportType:     req.ReportType,
		Reason:         req.Reason,
		Evidence:       req.Evidence,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// MyReports обрабатывает GET /reports/my.
func (h *ReportHandler) MyReports(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	limit, offset := common.GetPagination(c)
	reports, err := h.moderation.MyReports(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ModerationStatus обрабатывает GET /moderation/status.
func (h *ReportHandler) ModerationStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	profile, err := h.moderation.Profile(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ChatStatus обрабатывает GET /chat/status.
func (h *ReportHandler) ChatStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	status, err := h.moderation.ChatStatus(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
