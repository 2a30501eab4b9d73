package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// ActivityHandler отдаёт журнал действий пользователя.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler создаёт хэндлер журнала.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List обрабатывает GET /activity?type=&date_from=&date_to=.
// Ответ содержит и записи, и статистику.
func (h *ActivityHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	filter, err := parseActivityFilter(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	filter.Limit, filter.Offset = common.GetPagination(c)

	logs, err := h.activity.List(c.Request.Context(), userID, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	stats, err := h.activity.Stats(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": logs, "stats": stats})
}

// Export обрабатывает GET /activity/export и отдаёт CSV.
func (h *ActivityHandler) Export(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	filter, err := parseActivityFilter(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.activity.ExportCSV(c.Request.Context(), userID, filter, &buf); err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.activity.Log(c.Request.Context(), service.ActivityEntry{
		UserID:      userID,
		Type:        models.ActivityExported,
		Description: "Exported activity log",
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	})

	filename := fmt.Sprintf("activity_%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func parseActivityFilter(c *gin.Context) (models.ActivityFilter, error) {
	filter := models.ActivityFilter{ActivityType: strings.TrimSpace(c.Query("type"))}

	from, err := common.ParseDateQuery(c, "date_from")
	if err != nil {
		return filter, err
	}
	to, err := common.ParseDateQuery(c, "date_to")
	if err != nil {
		return filter, err
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}

	filter.From = from
	filter.To = to
	return filter, nil
}
