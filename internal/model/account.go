package model

import (
	"context"
	"time"
)

// AdminUsername is the distinguished bootstrap account. It is created at
// startup with a plaintext secret and may never be deleted.
const AdminUsername = "admin"

// Role enumerates account roles.
type Role string

const (
	// RoleAdministrator may manage other accounts.
	RoleAdministrator Role = "administrator"
	// RoleUser is a regular vault owner.
	RoleUser Role = "user"
)

// Account represents a vault owner. Secret is stored encrypted at rest,
// with a plaintext carve-out for the bootstrap admin account.
type Account struct {
	Username  string
	Secret    string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountStore defines persistence operations for accounts. Every folder
// and credential row is scoped to an account via its username, so
// UpdateCredentials and Delete also remap or remove the account's vault
// namespace.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	UpdateSecret(ctx context.Context, username string, secret string) error
	// UpdateCredentials renames the account and replaces its secret in a
	// single transaction, moving owned folders and credentials to the new
	// username when it changes.
	UpdateCredentials(ctx context.Context, currentUsername, newUsername, secret string) (Account, error)
	// Delete removes the account together with all folders and
	// credentials it owns.
	Delete(ctx context.Context, username string) error
}
