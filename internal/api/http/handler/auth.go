package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
)

// DirectoryService is the account operations surface used by the HTTP
// handlers.
type DirectoryService interface {
	Authenticate(ctx context.Context, username, secret string) (model.Account, error)
	CreateAccount(ctx context.Context, username, secret string) (model.Account, error)
	UpdateCredentials(ctx context.Context, currentUsername, currentSecret, newUsername, newSecret string) (model.Account, error)
	UpdateSecret(ctx context.Context, username, secret string) error
	DeleteAccount(ctx context.Context, username string) error
	ListAccounts(ctx context.Context) ([]model.Account, error)
}

// Auth handles login and self-service credential changes.
type Auth struct {
	directory DirectoryService
	logger    *logger.Logger
}

func NewAuth(directory DirectoryService, logger *logger.Logger) *Auth {
	return &Auth{directory: directory, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies a username/password pair. There is no session: clients
// re-send credentials with each mutating account operation.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" || req.Password == "" {
		handleError(c, fmt.Errorf("%w: username and password are required", model.ErrValidation))
		return
	}

	account, err := h.directory.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": toAccountResponse(account)})
}

type updateCredentialsRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
	NewPassword     string `json:"newPassword"`
}

// UpdateCredentials renames an account and/or replaces its password after
// re-authenticating with the current pair.
func (h *Auth) UpdateCredentials(c *gin.Context) {
	var req updateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}

	account, err := h.directory.UpdateCredentials(c.Request.Context(), req.Username, req.CurrentPassword, req.NewUsername, req.NewPassword)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": toAccountResponse(account)})
}
