package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Credential is one stored login entry. Secret holds the password value:
// encrypted at rest, decrypted on the read path.
type Credential struct {
	ID          uuid.UUID
	OwnerID     string
	Title       string
	Username    string
	Secret      string
	Description string
	FolderID    *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CredentialStore defines persistence operations for credentials, all
// scoped to an owner. Secrets cross this boundary already encrypted; the
// vault service owns the codec.
type CredentialStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Credential, error)
	// ReplaceAll clears the owner's credential set and inserts the given
	// list in a single transaction. Callers always submit the complete
	// desired set.
	ReplaceAll(ctx context.Context, ownerID string, credentials []Credential) error
	MoveToFolder(ctx context.Context, ownerID string, id uuid.UUID, folderID *uuid.UUID) error
}

// SecretCodec encrypts and decrypts credential secrets. The Safe variants
// classify a value as already-encrypted by the presence of the codec
// delimiter and pass it through unchanged, so callers never double-encrypt
// or attempt to decrypt plaintext.
type SecretCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
	SafeEncrypt(value string) (string, error)
	SafeDecrypt(value string) (string, error)
}
