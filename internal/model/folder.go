package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Folder is a node in an owner's folder tree. ParentID == nil means the
// folder sits at the owner's root. The parent-pointer graph restricted to
// one owner must always remain a forest.
type Folder struct {
	ID        uuid.UUID
	OwnerID   string
	Name      string
	ParentID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PathSegment is one element of a root-to-leaf breadcrumb. A nil ID
// denotes the implicit root.
type PathSegment struct {
	ID   *uuid.UUID
	Name string
}

// MoveTarget is a folder a credential or folder may be moved into,
// annotated with its full display path.
type MoveTarget struct {
	ID       *uuid.UUID
	Name     string
	FullPath string
}

// Listing is the content of one folder: its direct subfolders and the
// credentials stored directly in it.
type Listing struct {
	Subfolders  []Folder
	Credentials []Credential
}

// FolderStore defines persistence operations for folders, all scoped to
// an owner. Tree invariants (cycle prevention, descendant closure) are
// enforced by the vault service on top of these primitives.
type FolderStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Folder, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (Folder, error)
	Create(ctx context.Context, folder Folder) (Folder, error)
	Rename(ctx context.Context, ownerID string, id uuid.UUID, name string) (Folder, error)
	Reparent(ctx context.Context, ownerID string, id uuid.UUID, parentID *uuid.UUID) (Folder, error)
	// DeleteCascade removes the given folders and every credential stored
	// in them in a single transaction. Callers pass the full descendant
	// closure of the folder being deleted.
	DeleteCascade(ctx context.Context, ownerID string, ids []uuid.UUID) error
}
