package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"churchhub/models"
	"churchhub/services"
)

// currentActor loads the acting staff account from the authenticated
// request context. Returns nil after writing the error response.
func currentActor(ctx *gin.Context, accounts *services.AccountService) *models.ChurchUser {
	userID, exists := ctx.Get("userID")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil
	}

	actor, err := accounts.GetUserByID(userID.(uint))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
		return nil
	}
	if !actor.IsActive {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
		return nil
	}
	return actor
}

// idParam parses a uint path parameter. Returns 0 after writing the error
// response when the parameter is not a valid id.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// statusForError maps service error kinds to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateMembership):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidSubgroupAssignment),
		errors.Is(err, services.ErrSubgroupGroupMismatch),
		errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes a service error with its mapped status code.
func abortWithError(ctx *gin.Context, err error) {
	ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
}
