package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
)

// Account handles administrator-facing account management.
type Account struct {
	directory DirectoryService
	logger    *logger.Logger
}

func NewAccount(directory DirectoryService, logger *logger.Logger) *Account {
	return &Account{directory: directory, logger: logger}
}

// List returns every account without secrets.
func (h *Account) List(c *gin.Context) {
	accounts, err := h.directory.ListAccounts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toAccountResponse(account))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": out})
}

type createAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Create registers a new account.
func (h *Account) Create(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}

	account, err := h.directory.CreateAccount(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": toAccountResponse(account)})
}

type updateSecretRequest struct {
	Password string `json:"password"`
}

// UpdateSecret resets an account's password without re-authentication.
func (h *Account) UpdateSecret(c *gin.Context) {
	var req updateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}

	if err := h.directory.UpdateSecret(c.Request.Context(), c.Param("username"), req.Password); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete removes an account and its entire vault.
func (h *Account) Delete(c *gin.Context) {
	if err := h.directory.DeleteAccount(c.Request.Context(), c.Param("username")); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
