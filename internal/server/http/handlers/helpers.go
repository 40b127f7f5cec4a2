package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrBranchNotFound),
		errors.Is(err, domainErrors.ErrProductNotFound),
		errors.Is(err, domainErrors.ErrAddonNotFound),
		errors.Is(err, domainErrors.ErrVariationNotFound),
		errors.Is(err, domainErrors.ErrOptionNotFound),
		errors.Is(err, domainErrors.ErrOrderNotFound),
		errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrEmptyOrder),
		errors.Is(err, domainErrors.ErrInvalidAddon),
		errors.Is(err, domainErrors.ErrInvalidVariation),
		errors.Is(err, domainErrors.ErrInvalidOption),
		errors.Is(err, domainErrors.ErrInvalidOptionCount),
		errors.Is(err, domainErrors.ErrRequiredVariation),
		errors.Is(err, domainErrors.ErrScheduleTimeRequired),
		errors.Is(err, domainErrors.ErrScheduleInPast),
		errors.Is(err, domainErrors.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrSameStatus),
		errors.Is(err, domainErrors.ErrAlreadyCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusForError(err), gin.H{"error": err.Error()})
}
