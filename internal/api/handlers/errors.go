package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/service"
	"github.com/TWRT/board-sync/internal/validate"
)

var errInvalidRequestBody = errors.New("invalid request body")

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

// fail maps a service error to its response. Field errors become
// {"errors": {...}}, everything else {"error": msg}.
func (h *Handler) fail(c *gin.Context, err error) {
	var fields validate.Errors
	if errors.As(err, &fields) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}

	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubtaskNotFound),
		errors.Is(err, service.ErrContactNotFound):
		abort(c, newAPIError(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidStatus):
		abort(c, newBadRequestError(err.Error()))
	case errors.Is(err, service.ErrLimitReached):
		abort(c, newAPIError(http.StatusTooManyRequests, err.Error()))
	case errors.Is(err, service.ErrInvalidToken):
		abort(c, newUnauthorizedError(err.Error()))
	case errors.Is(err, service.ErrPersistFailed):
		// the remote copy may have moved on; an unreadable store keeps the caches
		h.tasks.Refresh(c)
		h.contacts.Refresh(c)
		abort(c, newAPIError(http.StatusBadGateway, err.Error()))
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
