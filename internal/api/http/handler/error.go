package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passfold/passfold-server/internal/model"
)

// handleError maps domain errors to HTTP responses. Every error response
// carries the same {success, message} envelope the API uses elsewhere.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		abortWithMessage(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, model.ErrNotFound):
		abortWithMessage(c, http.StatusNotFound, "Not found")
	case errors.Is(err, model.ErrDuplicateUsername):
		abortWithMessage(c, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, model.ErrCycleDetected):
		abortWithMessage(c, http.StatusBadRequest, "Cannot move a folder into its own subtree")
	case errors.Is(err, model.ErrInvalidParent):
		abortWithMessage(c, http.StatusBadRequest, "Target folder does not exist")
	case errors.Is(err, model.ErrProtectedAccount):
		abortWithMessage(c, http.StatusBadRequest, "Cannot delete admin user")
	case errors.Is(err, model.ErrValidation):
		abortWithMessage(c, http.StatusBadRequest, "Invalid request data")
	case errors.Is(err, model.ErrDecode):
		abortWithMessage(c, http.StatusInternalServerError, "Failed to decode stored secret")
	default:
		abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
	}
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
