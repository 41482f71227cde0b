package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
	"github.com/passfold/passfold-server/internal/service"
)

// VaultService is the folder and credential surface used by the HTTP
// handlers.
type VaultService interface {
	ListCredentials(ctx context.Context, ownerID string) ([]model.Credential, error)
	ReplaceCredentials(ctx context.Context, ownerID string, credentials []model.Credential) error
	AddCredential(ctx context.Context, ownerID string, params service.CreateCredentialParams, folderID *uuid.UUID) (model.Credential, error)
	MoveCredential(ctx context.Context, ownerID string, id uuid.UUID, folderID *uuid.UUID) error
	ListFolders(ctx context.Context, ownerID string) ([]model.Folder, error)
	CreateFolder(ctx context.Context, ownerID, name string, parentID *uuid.UUID) (model.Folder, error)
	RenameFolder(ctx context.Context, ownerID string, id uuid.UUID, name string) (model.Folder, error)
	MoveFolder(ctx context.Context, ownerID string, id uuid.UUID, newParentID *uuid.UUID) (model.Folder, error)
	DeleteFolderCascade(ctx context.Context, ownerID string, id uuid.UUID) error
	BreadcrumbPath(ctx context.Context, ownerID string, folderID *uuid.UUID) ([]model.PathSegment, error)
	ListingFor(ctx context.Context, ownerID string, folderID *uuid.UUID) (model.Listing, error)
	EligibleMoveTargets(ctx context.Context, ownerID string, excludeFolderID *uuid.UUID) ([]model.MoveTarget, error)
}

// Vault handles the credential and folder endpoints. Every operation is
// scoped to one owner, named by the username parameter.
type Vault struct {
	vault  VaultService
	logger *logger.Logger
}

func NewVault(vault VaultService, logger *logger.Logger) *Vault {
	return &Vault{vault: vault, logger: logger}
}

// ListCredentials returns the owner's full credential list, decrypted.
func (h *Vault) ListCredentials(c *gin.Context) {
	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	credentials, err := h.vault.ListCredentials(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "passwords": toCredentialResponses(credentials)})
}

type saveCredentialsRequest struct {
	Username  string              `json:"username"`
	Passwords []credentialRequest `json:"passwords"`
}

// SaveCredentials replaces the owner's entire credential set.
func (h *Vault) SaveCredentials(c *gin.Context) {
	var req saveCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	credentials := make([]model.Credential, 0, len(req.Passwords))
	for _, item := range req.Passwords {
		credential, err := credentialFromRequest(item)
		if err != nil {
			handleError(c, err)
			return
		}
		credentials = append(credentials, credential)
	}

	if err := h.vault.ReplaceCredentials(c.Request.Context(), req.Username, credentials); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type addCredentialRequest struct {
	Username    string  `json:"username"`
	Title       string  `json:"title"`
	Login       string  `json:"login"`
	Password    string  `json:"password"`
	Description string  `json:"description"`
	FolderID    *string `json:"folderId"`
}

// AddCredential appends a single credential to the owner's set.
func (h *Vault) AddCredential(c *gin.Context) {
	var req addCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	folderID, err := parseOptionalUUID(req.FolderID)
	if err != nil {
		handleError(c, err)
		return
	}

	credential, err := h.vault.AddCredential(c.Request.Context(), req.Username, service.CreateCredentialParams{
		Title:       req.Title,
		Username:    req.Login,
		Secret:      req.Password,
		Description: req.Description,
	}, folderID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "password": toCredentialResponse(credential)})
}

type moveCredentialRequest struct {
	Username string  `json:"username"`
	FolderID *string `json:"folderId"`
}

// MoveCredential reassigns a credential to another folder, or to the root
// when folderId is null.
func (h *Vault) MoveCredential(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, fmt.Errorf("%w: invalid credential id", model.ErrValidation))
		return
	}

	var req moveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	folderID, err := parseOptionalUUID(req.FolderID)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.vault.MoveCredential(c.Request.Context(), req.Username, id, folderID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFolders returns the owner's full folder list.
func (h *Vault) ListFolders(c *gin.Context) {
	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	folders, err := h.vault.ListFolders(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "folders": toFolderResponses(folders)})
}

type createFolderRequest struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// CreateFolder adds a folder under the given parent, or at the root.
func (h *Vault) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		handleError(c, err)
		return
	}

	folder, err := h.vault.CreateFolder(c.Request.Context(), req.Username, req.Name, parentID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "folder": toFolderResponse(folder)})
}

type renameFolderRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// RenameFolder updates a folder's display name.
func (h *Vault) RenameFolder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, fmt.Errorf("%w: invalid folder id", model.ErrValidation))
		return
	}

	var req renameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	folder, err := h.vault.RenameFolder(c.Request.Context(), req.Username, id, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "folder": toFolderResponse(folder)})
}

type moveFolderRequest struct {
	Username string  `json:"username"`
	ParentID *string `json:"parentId"`
}

// MoveFolder reparents a folder. Moving a folder into its own subtree is
// rejected.
func (h *Vault) MoveFolder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, fmt.Errorf("%w: invalid folder id", model.ErrValidation))
		return
	}

	var req moveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %s", model.ErrValidation, err))
		return
	}
	if req.Username == "" {
		handleError(c, fmt.Errorf("%w: username is required", model.ErrValidation))
		return
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		handleError(c, err)
		return
	}

	folder, err := h.vault.MoveFolder(c.Request.Context(), req.Username, id, parentID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "folder": toFolderResponse(folder)})
}

// DeleteFolder removes a folder, its subtree and every credential inside.
func (h *Vault) DeleteFolder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, fmt.Errorf("%w: invalid folder id", model.ErrValidation))
		return
	}

	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.vault.DeleteFolderCascade(c.Request.Context(), owner, id); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FolderPath returns the root-to-leaf breadcrumb of a folder.
func (h *Vault) FolderPath(c *gin.Context) {
	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	folderID, err := optionalUUIDQuery(c, "folderId")
	if err != nil {
		handleError(c, err)
		return
	}

	path, err := h.vault.BreadcrumbPath(c.Request.Context(), owner, folderID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "path": toPathResponse(path)})
}

// Listing returns the direct subfolders and credentials of one folder.
func (h *Vault) Listing(c *gin.Context) {
	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	folderID, err := optionalUUIDQuery(c, "folderId")
	if err != nil {
		handleError(c, err)
		return
	}

	listing, err := h.vault.ListingFor(c.Request.Context(), owner, folderID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"folders":   toFolderResponses(listing.Subfolders),
		"passwords": toCredentialResponses(listing.Credentials),
	})
}

// MoveTargets returns the folders something may be moved into, excluding
// the given folder's own subtree.
func (h *Vault) MoveTargets(c *gin.Context) {
	owner, err := ownerFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	excludeID, err := optionalUUIDQuery(c, "excludeId")
	if err != nil {
		handleError(c, err)
		return
	}

	targets, err := h.vault.EligibleMoveTargets(c.Request.Context(), owner, excludeID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "targets": toMoveTargetResponses(targets)})
}

func credentialFromRequest(req credentialRequest) (model.Credential, error) {
	credential := model.Credential{
		Title:       req.Title,
		Username:    req.Username,
		Secret:      req.Password,
		Description: req.Description,
	}

	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return model.Credential{}, fmt.Errorf("%w: invalid credential id %q", model.ErrValidation, req.ID)
		}
		credential.ID = id
	}

	folderID, err := parseOptionalUUID(req.FolderID)
	if err != nil {
		return model.Credential{}, err
	}
	credential.FolderID = folderID

	return credential, nil
}

func ownerFromQuery(c *gin.Context) (string, error) {
	owner := c.Query("username")
	if owner == "" {
		return "", fmt.Errorf("%w: username is required", model.ErrValidation)
	}
	return owner, nil
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	return parseOptionalUUID(&value)
}
