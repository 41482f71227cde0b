package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/passfold/passfold-server/internal/model"
)

type accountResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type folderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type credentialResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Description string  `json:"description"`
	FolderID    *string `json:"folderId"`
}

type credentialRequest struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Description string  `json:"description"`
	FolderID    *string `json:"folderId"`
}

type pathSegmentResponse struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type moveTargetResponse struct {
	ID       *string `json:"id"`
	Name     string  `json:"name"`
	FullPath string  `json:"fullPath"`
}

func toAccountResponse(account model.Account) accountResponse {
	return accountResponse{
		Username:  account.Username,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
	}
}

func toFolderResponse(folder model.Folder) folderResponse {
	return folderResponse{
		ID:        folder.ID.String(),
		Name:      folder.Name,
		ParentID:  uuidToString(folder.ParentID),
		UserID:    folder.OwnerID,
		CreatedAt: folder.CreatedAt,
		UpdatedAt: folder.UpdatedAt,
	}
}

func toFolderResponses(folders []model.Folder) []folderResponse {
	out := make([]folderResponse, 0, len(folders))
	for _, folder := range folders {
		out = append(out, toFolderResponse(folder))
	}
	return out
}

func toCredentialResponse(credential model.Credential) credentialResponse {
	return credentialResponse{
		ID:          credential.ID.String(),
		Title:       credential.Title,
		Username:    credential.Username,
		Password:    credential.Secret,
		Description: credential.Description,
		FolderID:    uuidToString(credential.FolderID),
	}
}

func toCredentialResponses(credentials []model.Credential) []credentialResponse {
	out := make([]credentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		out = append(out, toCredentialResponse(credential))
	}
	return out
}

func toPathResponse(path []model.PathSegment) []pathSegmentResponse {
	out := make([]pathSegmentResponse, 0, len(path))
	for _, segment := range path {
		out = append(out, pathSegmentResponse{ID: uuidToString(segment.ID), Name: segment.Name})
	}
	return out
}

func toMoveTargetResponses(targets []model.MoveTarget) []moveTargetResponse {
	out := make([]moveTargetResponse, 0, len(targets))
	for _, target := range targets {
		out = append(out, moveTargetResponse{
			ID:       uuidToString(target.ID),
			Name:     target.Name,
			FullPath: target.FullPath,
		})
	}
	return out
}

func uuidToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalUUID turns a nullable id field into a folder reference. A
// missing, null or empty value means the implicit root.
func parseOptionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", model.ErrValidation, *value)
	}
	return &id, nil
}
