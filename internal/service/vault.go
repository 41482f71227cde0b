package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
)

// RootName is the display name of the implicit root folder.
const RootName = "Root"

// CreateCredentialParams contains the caller-provided fields of a new
// credential.
type CreateCredentialParams struct {
	Title       string
	Username    string
	Secret      string
	Description string
}

// Vault orchestrates the folder tree and the credentials it organizes:
// move operations, breadcrumb computation and cascading deletes. It owns
// the encryption boundary: secrets are encrypted before they reach the
// credential store and decrypted on the way out.
type Vault struct {
	folderStore     model.FolderStore
	credentialStore model.CredentialStore
	codec           model.SecretCodec
	logger          *logger.Logger
}

func NewVault(
	folderStore model.FolderStore,
	credentialStore model.CredentialStore,
	codec model.SecretCodec,
	logger *logger.Logger,
) *Vault {
	return &Vault{
		folderStore:     folderStore,
		credentialStore: credentialStore,
		codec:           codec,
		logger:          logger,
	}
}

// ListCredentials returns the owner's credentials with secrets decrypted.
// A secret that cannot be decrypted does not fail the whole list: the
// stored value is returned as-is and the failure is logged.
func (s *Vault) ListCredentials(ctx context.Context, ownerID string) ([]model.Credential, error) {
	credentials, err := s.credentialStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	for i := range credentials {
		decrypted, err := s.codec.SafeDecrypt(credentials[i].Secret)
		if err != nil {
			s.logger.Warn("Vault service: stored secret could not be decrypted, returning raw value",
				"owner", ownerID,
				"credential_id", credentials[i].ID,
				"error", err.Error())
			continue
		}
		credentials[i].Secret = decrypted
	}

	return credentials, nil
}

// ReplaceCredentials replaces the owner's entire credential set. Secrets
// are encrypted before storage; values already in encrypted form are kept
// as-is so a round-tripped list is never double-encrypted.
func (s *Vault) ReplaceCredentials(ctx context.Context, ownerID string, credentials []model.Credential) error {
	encrypted := make([]model.Credential, len(credentials))
	for i, credential := range credentials {
		if credential.ID == uuid.Nil {
			credential.ID = uuid.New()
		}
		secret, err := s.codec.SafeEncrypt(credential.Secret)
		if err != nil {
			return fmt.Errorf("failed to encrypt secret: %w", err)
		}
		credential.Secret = secret
		credential.OwnerID = ownerID
		encrypted[i] = credential
	}

	if err := s.credentialStore.ReplaceAll(ctx, ownerID, encrypted); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}

	s.logger.Debug("Vault service: credential set replaced",
		"owner", ownerID,
		"count", len(encrypted))
	return nil
}

// AddCredential appends one credential to the owner's set and persists
// the full set, the save pattern of the full-replace storage model.
func (s *Vault) AddCredential(ctx context.Context, ownerID string, params CreateCredentialParams, folderID *uuid.UUID) (model.Credential, error) {
	if params.Title == "" {
		return model.Credential{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}

	if folderID != nil {
		if _, err := s.folderStore.GetByID(ctx, ownerID, *folderID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Credential{}, model.ErrInvalidParent
			}
			return model.Credential{}, fmt.Errorf("failed to get folder: %w", err)
		}
	}

	existing, err := s.ListCredentials(ctx, ownerID)
	if err != nil {
		return model.Credential{}, err
	}

	credential := model.Credential{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       params.Title,
		Username:    params.Username,
		Secret:      params.Secret,
		Description: params.Description,
		FolderID:    folderID,
	}

	if err := s.ReplaceCredentials(ctx, ownerID, append(existing, credential)); err != nil {
		return model.Credential{}, err
	}

	s.logger.Info("Vault service: credential added",
		"owner", ownerID,
		"credential_id", credential.ID)
	return credential, nil
}

// MoveCredential sets the credential's folder. A nil folderID moves it to
// the owner's root.
func (s *Vault) MoveCredential(ctx context.Context, ownerID string, id uuid.UUID, folderID *uuid.UUID) error {
	if folderID != nil {
		if _, err := s.folderStore.GetByID(ctx, ownerID, *folderID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrInvalidParent
			}
			return fmt.Errorf("failed to get folder: %w", err)
		}
	}

	if err := s.credentialStore.MoveToFolder(ctx, ownerID, id, folderID); err != nil {
		return err
	}

	s.logger.Info("Vault service: credential moved",
		"owner", ownerID,
		"credential_id", id)
	return nil
}

// ListFolders returns all the owner's folders.
func (s *Vault) ListFolders(ctx context.Context, ownerID string) ([]model.Folder, error) {
	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// CreateFolder adds a folder under parentID, or at the root when parentID
// is nil.
func (s *Vault) CreateFolder(ctx context.Context, ownerID, name string, parentID *uuid.UUID) (model.Folder, error) {
	if name == "" {
		return model.Folder{}, fmt.Errorf("%w: folder name is required", model.ErrValidation)
	}

	if parentID != nil {
		if _, err := s.folderStore.GetByID(ctx, ownerID, *parentID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Folder{}, model.ErrInvalidParent
			}
			return model.Folder{}, fmt.Errorf("failed to get parent folder: %w", err)
		}
	}

	folder, err := s.folderStore.Create(ctx, model.Folder{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		return model.Folder{}, fmt.Errorf("failed to create folder: %w", err)
	}

	s.logger.Info("Vault service: folder created",
		"owner", ownerID,
		"folder_id", folder.ID)
	return folder, nil
}

// RenameFolder updates a folder's display name.
func (s *Vault) RenameFolder(ctx context.Context, ownerID string, id uuid.UUID, name string) (model.Folder, error) {
	if name == "" {
		return model.Folder{}, fmt.Errorf("%w: folder name is required", model.ErrValidation)
	}
	return s.folderStore.Rename(ctx, ownerID, id, name)
}

// MoveFolder reparents a folder after validating the tree invariants: the
// new parent must exist in the same namespace and must not be the folder
// itself or any of its descendants.
func (s *Vault) MoveFolder(ctx context.Context, ownerID string, id uuid.UUID, newParentID *uuid.UUID) (model.Folder, error) {
	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return model.Folder{}, fmt.Errorf("failed to list folders: %w", err)
	}

	byID := make(map[uuid.UUID]model.Folder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	if _, ok := byID[id]; !ok {
		return model.Folder{}, model.ErrNotFound
	}

	if newParentID != nil {
		if _, ok := byID[*newParentID]; !ok {
			return model.Folder{}, model.ErrInvalidParent
		}
		if *newParentID == id {
			return model.Folder{}, model.ErrCycleDetected
		}
		if _, isDescendant := descendantSet(folders, id)[*newParentID]; isDescendant {
			return model.Folder{}, model.ErrCycleDetected
		}
	}

	folder, err := s.folderStore.Reparent(ctx, ownerID, id, newParentID)
	if err != nil {
		return model.Folder{}, err
	}

	s.logger.Info("Vault service: folder moved",
		"owner", ownerID,
		"folder_id", id)
	return folder, nil
}

// DeleteFolderCascade deletes a folder, every descendant folder and every
// credential stored anywhere in that subtree.
func (s *Vault) DeleteFolderCascade(ctx context.Context, ownerID string, id uuid.UUID) error {
	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	found := false
	for _, folder := range folders {
		if folder.ID == id {
			found = true
			break
		}
	}
	if !found {
		return model.ErrNotFound
	}

	closure := []uuid.UUID{id}
	for descendant := range descendantSet(folders, id) {
		closure = append(closure, descendant)
	}

	if err := s.folderStore.DeleteCascade(ctx, ownerID, closure); err != nil {
		return err
	}

	s.logger.Info("Vault service: folder subtree deleted",
		"owner", ownerID,
		"folder_id", id,
		"folders_removed", len(closure))
	return nil
}

// BreadcrumbPath returns the root-to-leaf path of a folder. A nil
// folderID yields the single implicit root segment.
func (s *Vault) BreadcrumbPath(ctx context.Context, ownerID string, folderID *uuid.UUID) ([]model.PathSegment, error) {
	if folderID == nil {
		return []model.PathSegment{{ID: nil, Name: RootName}}, nil
	}

	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	byID := make(map[uuid.UUID]model.Folder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	if _, ok := byID[*folderID]; !ok {
		return nil, model.ErrNotFound
	}

	var reversed []model.PathSegment
	seen := make(map[uuid.UUID]bool)
	for current := folderID; current != nil; {
		folder, ok := byID[*current]
		if !ok || seen[folder.ID] {
			// Broken parent link or corrupted tree; stop at the last
			// resolvable ancestor.
			break
		}
		seen[folder.ID] = true
		id := folder.ID
		reversed = append(reversed, model.PathSegment{ID: &id, Name: folder.Name})
		current = folder.ParentID
	}

	path := make([]model.PathSegment, len(reversed))
	for i, segment := range reversed {
		path[len(reversed)-1-i] = segment
	}
	return path, nil
}

// ListingFor returns the direct subfolders and credentials of one folder.
// A nil folderID lists the owner's root.
func (s *Vault) ListingFor(ctx context.Context, ownerID string, folderID *uuid.UUID) (model.Listing, error) {
	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("failed to list folders: %w", err)
	}

	credentials, err := s.ListCredentials(ctx, ownerID)
	if err != nil {
		return model.Listing{}, err
	}

	listing := model.Listing{}
	for _, folder := range folders {
		if sameFolderRef(folder.ParentID, folderID) {
			listing.Subfolders = append(listing.Subfolders, folder)
		}
	}
	for _, credential := range credentials {
		if sameFolderRef(credential.FolderID, folderID) {
			listing.Credentials = append(listing.Credentials, credential)
		}
	}

	return listing, nil
}

// EligibleMoveTargets returns every folder something could be moved into,
// each annotated with its full display path. When excludeFolderID is set,
// that folder and its whole subtree are omitted so the UI cannot offer a
// move that would create a cycle. The implicit root entry comes first;
// the rest are sorted by path.
func (s *Vault) EligibleMoveTargets(ctx context.Context, ownerID string, excludeFolderID *uuid.UUID) ([]model.MoveTarget, error) {
	folders, err := s.folderStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	excluded := make(map[uuid.UUID]struct{})
	if excludeFolderID != nil {
		excluded[*excludeFolderID] = struct{}{}
		for descendant := range descendantSet(folders, *excludeFolderID) {
			excluded[descendant] = struct{}{}
		}
	}

	byID := make(map[uuid.UUID]model.Folder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	var targets []model.MoveTarget
	for _, folder := range folders {
		if _, skip := excluded[folder.ID]; skip {
			continue
		}
		id := folder.ID
		targets = append(targets, model.MoveTarget{
			ID:       &id,
			Name:     folder.Name,
			FullPath: fullPath(byID, folder),
		})
	}

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].FullPath < targets[j].FullPath
	})

	return append([]model.MoveTarget{{ID: nil, Name: RootName, FullPath: RootName}}, targets...), nil
}

// descendantSet returns the ids of every folder transitively below id.
func descendantSet(folders []model.Folder, id uuid.UUID) map[uuid.UUID]struct{} {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, folder := range folders {
		if folder.ParentID != nil {
			children[*folder.ParentID] = append(children[*folder.ParentID], folder.ID)
		}
	}

	descendants := make(map[uuid.UUID]struct{})
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[current] {
			if _, ok := descendants[child]; ok {
				continue
			}
			descendants[child] = struct{}{}
			stack = append(stack, child)
		}
	}
	return descendants
}

// fullPath builds the root-to-leaf display path of a folder by walking
// parent links.
func fullPath(byID map[uuid.UUID]model.Folder, folder model.Folder) string {
	path := folder.Name
	seen := map[uuid.UUID]bool{folder.ID: true}
	for current := folder.ParentID; current != nil; {
		parent, ok := byID[*current]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		path = parent.Name + "/" + path
		current = parent.ParentID
	}
	return RootName + "/" + path
}

func sameFolderRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
