package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

// ErrorHandler обрабатывает ошибки, оставленные в c.Errors.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		statusCode, message := classify(err)

		entry := logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		if statusCode >= http.StatusInternalServerError {
			entry.Error("Request error")
		} else {
			entry.Debug("Request error")
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

func classify(err error) (int, string) {
	if appErr, ok := apperror.From(err); ok {
		return appErr.HTTPStatus, appErr.Message
	}

	switch {
	case errors.Is(err, repository.ErrListingNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, repository.ErrConversationNotFound):
		return http.StatusNotFound, "conversation not found"
	case errors.Is(err, repository.ErrReportNotFound):
		return http.StatusNotFound, "report not found"
	case errors.Is(err, repository.ErrNotificationNotFound):
		return http.StatusNotFound, "notification not found"
	}

	return http.StatusInternalServerError, "internal server error"
}
