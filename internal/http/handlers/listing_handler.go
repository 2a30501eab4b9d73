package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/poster"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// ListingHandler обслуживает объявления, возвраты и постеры.
type ListingHandler struct {
	listings *service.ListingService
	returns  *service.ReturnService
	posters  *poster.Renderer
	activity service.ActivityRecorder
}

// NewListingHandler создаёт хэндлер объявлений.
func NewListingHandler(
	listings *service.ListingService,
	returns *service.ReturnService,
	posters *poster.Renderer,
	activity service.ActivityRecorder,
) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		returns:  returns,
		posters:  posters,
		activity: activity,
	}
}

var errBadDateRange = errors.New("date_from must be before date_to")

type listingRequest struct {
	Name        string   `json:"name" binding:"required"`
	Value       *float64 `json:"value"`
	Description string   `json:"description" binding:"required"`
	Location    *string  `json:"location"`
	Photos      []string `json:"photos"`
}

// Index обрабатывает GET /listings.
func (h *ListingHandler) Index(c *gin.Context) {
	filter, err := parseListingFilter(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	index, err := h.listings.Index(c.Request.Context(), filter, common.OptionalUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, index)
}

// parseListingFilter читает фильтры главной. date_to включает весь указанный день.
func parseListingFilter(c *gin.Context) (models.ListingFilter, error) {
	filter := models.ListingFilter{
		ItemName: strings.TrimSpace(c.Query("item_name")),
		Location: strings.TrimSpace(c.Query("location")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}

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
	if from != nil && to != nil && !from.Before(*to) {
		return filter, errBadDateRange
	}

	filter.DateFrom = from
	filter.DateTo = to
	return filter, nil
}

// Warehouse обрабатывает GET /listings/warehouse.
func (h *ListingHandler) Warehouse(c *gin.Context) {
	listings, err := h.listings.Warehouse(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Get обрабатывает GET /listings/:id.
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.listings.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// TimeRemaining обрабатывает GET /listings/:id/time-remaining.
func (h *ListingHandler) TimeRemaining(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	remaining, err := h.listings.TimeRemaining(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, remaining)
}

// Poster обрабатывает GET /listings/:id/poster и отдаёт PDF.
func (h *ListingHandler) Poster(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.listings.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.posters.Render(&buf, listing); err != nil {
		common.RespondAppError(c, err)
		return
	}

	if viewer := common.OptionalUserID(c); viewer != nil && h.activity != nil {
		h.activity.Log(c.Request.Context(), service.ActivityEntry{
			UserID:      *viewer,
			Type:        models.ActivityPosterGenerated,
			Description: "Generated poster for item: " + listing.Name,
			ListingID:   &listing.ID,
			IPAddress:   c.ClientIP(),
			UserAgent:   c.GetHeader("User-Agent"),
		})
	}

	c.Header("Content-Disposition", `attachment; filename="`+poster.Filename(listing)+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// CreateLost обрабатывает POST /listings/lost.
func (h *ListingHandler) CreateLost(c *gin.Context) {
	h.create(c, models.ListingStatusLost)
}

// CreateFound обрабатывает POST /listings/found.
func (h *ListingHandler) CreateFound(c *gin.Context) {
	h.create(c, models.ListingStatusFound)
}

func (h *ListingHandler) create(c *gin.Context, status string) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req listingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), service.CreateListingInput{
		OwnerID:     userID,
		Status:      status,
		Name:        req.Name,
		Value:       req.Value,
		Description: req.Description,
		Location:    req.Location,
		Photos:      req.Photos,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// Update обрабатывает PUT /listings/:id.
func (h *ListingHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Value       *float64 `json:"value"`
		Description *string  `json:"description"`
		Location    *string  `json:"location"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.listings.Update(c.Request.Context(), id, userID, service.UpdateListingInput{
		Name:        req.Name,
		Value:       req.Value,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MarkFound обрабатывает POST /listings/:id/mark-found.
func (h *ListingHandler) MarkFound(c *gin.Context) {
	h.ownerAction(c, h.listings.MarkFound, "Item marked as found")
}

// Delete обрабатывает DELETE /listings/:id.
func (h *ListingHandler) Delete(c *gin.Context) {
	h.ownerAction(c, h.listings.SoftDelete, "Item removed")
}

// Undo обрабатывает POST /listings/:id/undo.
func (h *ListingHandler) Undo(c *gin.Context) {
	h.ownerAction(c, h.listings.Undo, "Item restored")
}

type ownerActionFunc func(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error)

func (h *ListingHandler) ownerAction(c *gin.Context, action ownerActionFunc, message string) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := action(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "listing": listing})
}

// Contact обрабатывает GET /listings/:id/contact.
func (h *ListingHandler) Contact(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	info, err := h.listings.ContactInfo(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Claim обрабатывает POST /listings/:id/claim.
func (h *ListingHandler) Claim(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	outcome, err := h.returns.Claim(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Recovered обрабатывает POST /listings/:id/recovered.
func (h *ListingHandler) Recovered(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		HelperType       string `json:"helper_type" binding:"required,oneof=user non_user"`
		HelperIdentifier string `json:"helper_identifier" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	outcome, err := h.returns.MarkRecovered(c.Request.Context(), id, userID, service.RecoveryInput{
		HelperType:       req.HelperType,
		HelperIdentifier: req.HelperIdentifier,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
