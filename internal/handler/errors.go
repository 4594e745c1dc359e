package handler

import (
	"errors"
	"net/http"

	"ksk-service/internal/model"
	"ksk-service/internal/repository"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrNoSession):
		status = http.StatusUnauthorized
		msg = "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrFlowNotFound),
		errors.Is(err, repository.ErrNotificationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrInvalidCategory),
		errors.Is(err, model.ErrInvalidIdentifier),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidFileType):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrChatBusy), errors.Is(err, repository.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPhotosDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
