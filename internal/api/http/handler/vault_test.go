package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/passfold/passfold-server/internal/model"
	"github.com/passfold/passfold-server/internal/service"
	"github.com/passfold/passfold-server/internal/testutil"
)

// MockVaultService mocks the VaultService interface
type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) ListCredentials(ctx context.Context, ownerID string) ([]model.Credential, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Credential), args.Error(1)
}

func (m *MockVaultService) ReplaceCredentials(ctx context.Context, ownerID string, credentials []model.Credential) error {
	args := m.Called(ctx, ownerID, credentials)
	return args.Error(0)
}

func (m *MockVaultService) AddCredential(ctx context.Context, ownerID string, params service.CreateCredentialParams, folderID *uuid.UUID) (model.Credential, error) {
	args := m.Called(ctx, ownerID, params, folderID)
	return args.Get(0).(model.Credential), args.Error(1)
}

func (m *MockVaultService) MoveCredential(ctx context.Context, ownerID string, id uuid.UUID, folderID *uuid.UUID) error {
	args := m.Called(ctx, ownerID, id, folderID)
	return args.Error(0)
}

func (m *MockVaultService) ListFolders(ctx context.Context, ownerID string) ([]model.Folder, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *MockVaultService) CreateFolder(ctx context.Context, ownerID, name string, parentID *uuid.UUID) (model.Folder, error) {
	args := m.Called(ctx, ownerID, name, parentID)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *MockVaultService) RenameFolder(ctx context.Context, ownerID string, id uuid.UUID, name string) (model.Folder, error) {
	args := m.Called(ctx, ownerID, id, name)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *MockVaultService) MoveFolder(ctx context.Context, ownerID string, id uuid.UUID, newParentID *uuid.UUID) (model.Folder, error) {
	args := m.Called(ctx, ownerID, id, newParentID)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *MockVaultService) DeleteFolderCascade(ctx context.Context, ownerID string, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockVaultService) BreadcrumbPath(ctx context.Context, ownerID string, folderID *uuid.UUID) ([]model.PathSegment, error) {
	args := m.Called(ctx, ownerID, folderID)
	return args.Get(0).([]model.PathSegment), args.Error(1)
}

func (m *MockVaultService) ListingFor(ctx context.Context, ownerID string, folderID *uuid.UUID) (model.Listing, error) {
	args := m.Called(ctx, ownerID, folderID)
	return args.Get(0).(model.Listing), args.Error(1)
}

func (m *MockVaultService) EligibleMoveTargets(ctx context.Context, ownerID string, excludeFolderID *uuid.UUID) ([]model.MoveTarget, error) {
	args := m.Called(ctx, ownerID, excludeFolderID)
	return args.Get(0).([]model.MoveTarget), args.Error(1)
}

func vaultEngine(vault VaultService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewVault(vault, testutil.MakeNoopLogger())
	engine.GET("/api/passwords", h.ListCredentials)
	engine.POST("/api/passwords/save", h.SaveCredentials)
	engine.POST("/api/passwords/add", h.AddCredential)
	engine.PUT("/api/passwords/:id/move", h.MoveCredential)
	engine.GET("/api/folders", h.ListFolders)
	engine.POST("/api/folders", h.CreateFolder)
	engine.PUT("/api/folders/:id", h.RenameFolder)
	engine.PUT("/api/folders/:id/move", h.MoveFolder)
	engine.DELETE("/api/folders/:id", h.DeleteFolder)
	engine.GET("/api/folder-path", h.FolderPath)
	engine.GET("/api/listing", h.Listing)
	engine.GET("/api/move-targets", h.MoveTargets)
	return engine
}

func TestVaultHandler_ListCredentials(t *testing.T) {
	t.Run("returns decrypted credentials", func(t *testing.T) {
		folderID := uuid.New()
		vault := &MockVaultService{}
		vault.On("ListCredentials", mock.Anything, "alice").Return([]model.Credential{
			{ID: uuid.New(), Title: "mail", Username: "alice@example.com", Secret: "s3cr3t", FolderID: &folderID},
			{ID: uuid.New(), Title: "bank", Secret: "hunter2"},
		}, nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodGet, "/api/passwords?username=alice", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		passwords := body["passwords"].([]any)
		require.Len(t, passwords, 2)

		first := passwords[0].(map[string]any)
		assert.Equal(t, "mail", first["title"])
		assert.Equal(t, "s3cr3t", first["password"])
		assert.Equal(t, folderID.String(), first["folderId"])

		second := passwords[1].(map[string]any)
		assert.Nil(t, second["folderId"])
	})

	t.Run("missing username", func(t *testing.T) {
		rec := performJSON(t, vaultEngine(&MockVaultService{}), http.MethodGet, "/api/passwords", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVaultHandler_SaveCredentials(t *testing.T) {
	id := uuid.New()
	vault := &MockVaultService{}
	vault.On("ReplaceCredentials", mock.Anything, "alice", mock.MatchedBy(func(credentials []model.Credential) bool {
		return len(credentials) == 1 &&
			credentials[0].ID == id &&
			credentials[0].Title == "mail" &&
			credentials[0].Secret == "s3cr3t" &&
			credentials[0].FolderID == nil
	})).Return(nil)

	rec := performJSON(t, vaultEngine(vault), http.MethodPost, "/api/passwords/save", map[string]any{
		"username": "alice",
		"passwords": []map[string]any{
			{"id": id.String(), "title": "mail", "username": "alice@example.com", "password": "s3cr3t"},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	vault.AssertExpectations(t)
}

func TestVaultHandler_AddCredential(t *testing.T) {
	t.Run("adds credential to folder", func(t *testing.T) {
		folderID := uuid.New()
		vault := &MockVaultService{}
		vault.On("AddCredential", mock.Anything, "alice", service.CreateCredentialParams{
			Title:    "mail",
			Username: "alice@example.com",
			Secret:   "s3cr3t",
		}, mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == folderID
		})).Return(model.Credential{ID: uuid.New(), Title: "mail", Secret: "s3cr3t", FolderID: &folderID}, nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodPost, "/api/passwords/add", map[string]any{
			"username": "alice",
			"title":    "mail",
			"login":    "alice@example.com",
			"password": "s3cr3t",
			"folderId": folderID.String(),
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "mail", body["password"].(map[string]any)["title"])
	})

	t.Run("unknown folder", func(t *testing.T) {
		vault := &MockVaultService{}
		vault.On("AddCredential", mock.Anything, "alice", mock.Anything, mock.Anything).
			Return(model.Credential{}, model.ErrInvalidParent)

		rec := performJSON(t, vaultEngine(vault), http.MethodPost, "/api/passwords/add", map[string]any{
			"username": "alice",
			"title":    "mail",
			"folderId": uuid.New().String(),
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed folder id", func(t *testing.T) {
		rec := performJSON(t, vaultEngine(&MockVaultService{}), http.MethodPost, "/api/passwords/add", map[string]any{
			"username": "alice",
			"title":    "mail",
			"folderId": "not-a-uuid",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVaultHandler_MoveCredential(t *testing.T) {
	id := uuid.New()

	t.Run("moves to root on null folderId", func(t *testing.T) {
		vault := &MockVaultService{}
		vault.On("MoveCredential", mock.Anything, "alice", id, (*uuid.UUID)(nil)).Return(nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodPut, "/api/passwords/"+id.String()+"/move", map[string]any{
			"username": "alice",
			"folderId": nil,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		vault.AssertExpectations(t)
	})

	t.Run("invalid credential id", func(t *testing.T) {
		rec := performJSON(t, vaultEngine(&MockVaultService{}), http.MethodPut, "/api/passwords/nope/move", map[string]any{
			"username": "alice",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVaultHandler_Folders(t *testing.T) {
	ownerQuery := "?username=alice"

	t.Run("create", func(t *testing.T) {
		parentID := uuid.New()
		vault := &MockVaultService{}
		vault.On("CreateFolder", mock.Anything, "alice", "Work", mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == parentID
		})).Return(model.Folder{ID: uuid.New(), OwnerID: "alice", Name: "Work", ParentID: &parentID}, nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodPost, "/api/folders", map[string]any{
			"username": "alice",
			"name":     "Work",
			"parentId": parentID.String(),
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		folder := decodeBody(t, rec)["folder"].(map[string]any)
		assert.Equal(t, "Work", folder["name"])
		assert.Equal(t, parentID.String(), folder["parentId"])
	})

	t.Run("rename", func(t *testing.T) {
		id := uuid.New()
		vault := &MockVaultService{}
		vault.On("RenameFolder", mock.Anything, "alice", id, "Personal").
			Return(model.Folder{ID: id, OwnerID: "alice", Name: "Personal"}, nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodPut, "/api/folders/"+id.String(), map[string]any{
			"username": "alice",
			"name":     "Personal",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("move into own subtree is rejected", func(t *testing.T) {
		id := uuid.New()
		vault := &MockVaultService{}
		vault.On("MoveFolder", mock.Anything, "alice", id, mock.Anything).
			Return(model.Folder{}, model.ErrCycleDetected)

		rec := performJSON(t, vaultEngine(vault), http.MethodPut, "/api/folders/"+id.String()+"/move", map[string]any{
			"username": "alice",
			"parentId": uuid.New().String(),
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Cannot move a folder into its own subtree", decodeBody(t, rec)["message"])
	})

	t.Run("cascade delete", func(t *testing.T) {
		id := uuid.New()
		vault := &MockVaultService{}
		vault.On("DeleteFolderCascade", mock.Anything, "alice", id).Return(nil)

		rec := performJSON(t, vaultEngine(vault), http.MethodDelete, "/api/folders/"+id.String()+ownerQuery, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		vault.AssertExpectations(t)
	})

	t.Run("delete unknown folder", func(t *testing.T) {
		id := uuid.New()
		vault := &MockVaultService{}
		vault.On("DeleteFolderCascade", mock.Anything, "alice", id).Return(model.ErrNotFound)

		rec := performJSON(t, vaultEngine(vault), http.MethodDelete, "/api/folders/"+id.String()+ownerQuery, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVaultHandler_FolderPath(t *testing.T) {
	folderID := uuid.New()
	vault := &MockVaultService{}
	vault.On("BreadcrumbPath", mock.Anything, "alice", mock.MatchedBy(func(id *uuid.UUID) bool {
		return id != nil && *id == folderID
	})).Return([]model.PathSegment{
		{ID: nil, Name: "Root"},
		{ID: &folderID, Name: "Work"},
	}, nil)

	rec := performJSON(t, vaultEngine(vault), http.MethodGet, "/api/folder-path?username=alice&folderId="+folderID.String(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	path := decodeBody(t, rec)["path"].([]any)
	require.Len(t, path, 2)
	assert.Nil(t, path[0].(map[string]any)["id"])
	assert.Equal(t, "Work", path[1].(map[string]any)["name"])
}

func TestVaultHandler_Listing(t *testing.T) {
	vault := &MockVaultService{}
	vault.On("ListingFor", mock.Anything, "alice", (*uuid.UUID)(nil)).Return(model.Listing{
		Subfolders:  []model.Folder{{ID: uuid.New(), OwnerID: "alice", Name: "Work"}},
		Credentials: []model.Credential{{ID: uuid.New(), Title: "mail", Secret: "s3cr3t"}},
	}, nil)

	rec := performJSON(t, vaultEngine(vault), http.MethodGet, "/api/listing?username=alice", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["folders"].([]any), 1)
	assert.Len(t, body["passwords"].([]any), 1)
}

func TestVaultHandler_MoveTargets(t *testing.T) {
	excludeID := uuid.New()
	otherID := uuid.New()
	vault := &MockVaultService{}
	vault.On("EligibleMoveTargets", mock.Anything, "alice", mock.MatchedBy(func(id *uuid.UUID) bool {
		return id != nil && *id == excludeID
	})).Return([]model.MoveTarget{
		{ID: nil, Name: "Root", FullPath: "Root"},
		{ID: &otherID, Name: "Work", FullPath: "Root/Work"},
	}, nil)

	rec := performJSON(t, vaultEngine(vault), http.MethodGet, "/api/move-targets?username=alice&excludeId="+excludeID.String(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	targets := decodeBody(t, rec)["targets"].([]any)
	require.Len(t, targets, 2)
	root := targets[0].(map[string]any)
	assert.Nil(t, root["id"])
	assert.Equal(t, "Root", root["fullPath"])
}
