package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers/common"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/storage"
)

// MediaHandler принимает фотографии объявлений.
type MediaHandler struct {
	storage *storage.FileStorage
}

// NewMediaHandler создаёт новый хэндлер.
func NewMediaHandler(storage *storage.FileStorage) *MediaHandler {
	return &MediaHandler{storage: storage}
}

// UploadPhoto обрабатывает POST /media/photos.
// Тип файла определяется по содержимому, расширение из имени игнорируется.
func (h *MediaHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "field file is required")
		return
	}
	if header.Size == 0 {
		common.RespondBadRequest(c, "file must not be empty")
		return
	}

	file, err := header.Open()
	if err != nil {
		common.RespondBadRequest(c, "could not read uploaded file")
		return
	}
	defer file.Close()

	stored, err := h.storage.Store(c.Request.Context(), userID, file, storage.ImageTypes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedType):
			common.RespondBadRequest(c, "only JPEG, PNG, GIF and WEBP images are allowed")
		case errors.Is(err, storage.ErrTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		case errors.Is(err, storage.ErrEmptyFile):
			common.RespondBadRequest(c, "file must not be empty")
		default:
			common.RespondAppError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"path": stored.Path,
		"url":  "/media/" + stored.Path,
		"mime": stored.MIME,
		"size": stored.Size,
	})
}
