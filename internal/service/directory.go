package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
)

// Directory manages the per-user account namespace: authentication,
// account CRUD and the bootstrap admin account.
type Directory struct {
	accountStore model.AccountStore
	codec        model.SecretCodec
	logger       *logger.Logger
}

func NewDirectory(accountStore model.AccountStore, codec model.SecretCodec, logger *logger.Logger) *Directory {
	return &Directory{
		accountStore: accountStore,
		codec:        codec,
		logger:       logger,
	}
}

// EnsureAdmin creates the default admin account on first startup. The
// bootstrap secret is stored as plaintext, which Authenticate accepts for
// this account only.
func (d *Directory) EnsureAdmin(ctx context.Context) error {
	_, err := d.accountStore.GetByUsername(ctx, model.AdminUsername)
	if err == nil {
		d.logger.Debug("Directory service: admin account already exists")
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	_, err = d.accountStore.Create(ctx, model.Account{
		Username: model.AdminUsername,
		Secret:   model.AdminUsername,
		Role:     model.RoleAdministrator,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	d.logger.Info("Directory service: default admin account created")
	return nil
}

// Authenticate verifies a username/secret pair and returns the account
// with its secret stripped. The admin account is accepted with either the
// plaintext bootstrap secret or its encrypted form.
func (d *Directory) Authenticate(ctx context.Context, username, secret string) (model.Account, error) {
	account, err := d.accountStore.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	if !d.secretMatches(account, secret) {
		d.logger.Info("Directory service: failed login attempt", "username", username)
		return model.Account{}, model.ErrInvalidCredentials
	}

	return stripSecret(account), nil
}

// CreateAccount registers a new account. Secrets are encrypted at rest
// except for the bootstrap admin, which keeps its legacy plaintext form.
func (d *Directory) CreateAccount(ctx context.Context, username, secret string) (model.Account, error) {
	if username == "" || secret == "" {
		return model.Account{}, fmt.Errorf("%w: username and password are required", model.ErrValidation)
	}

	stored := secret
	role := model.RoleUser
	if username == model.AdminUsername {
		role = model.RoleAdministrator
	} else {
		encrypted, err := d.codec.Encrypt(secret)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to encrypt secret: %w", err)
		}
		stored = encrypted
	}

	account, err := d.accountStore.Create(ctx, model.Account{
		Username: username,
		Secret:   stored,
		Role:     role,
	})
	if err != nil {
		return model.Account{}, err
	}

	d.logger.Info("Directory service: account created", "username", username, "role", role)
	return stripSecret(account), nil
}

// UpdateCredentials re-authenticates, then renames the account and/or
// replaces its secret. The new secret is always stored encrypted,
// including for admin.
func (d *Directory) UpdateCredentials(ctx context.Context, currentUsername, currentSecret, newUsername, newSecret string) (model.Account, error) {
	if newUsername == "" || newSecret == "" {
		return model.Account{}, fmt.Errorf("%w: new username and password are required", model.ErrValidation)
	}

	if _, err := d.Authenticate(ctx, currentUsername, currentSecret); err != nil {
		return model.Account{}, err
	}

	if newUsername != currentUsername {
		_, err := d.accountStore.GetByUsername(ctx, newUsername)
		if err == nil {
			return model.Account{}, model.ErrDuplicateUsername
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.Account{}, fmt.Errorf("failed to check new username: %w", err)
		}
	}

	encrypted, err := d.codec.Encrypt(newSecret)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	account, err := d.accountStore.UpdateCredentials(ctx, currentUsername, newUsername, encrypted)
	if err != nil {
		return model.Account{}, err
	}

	d.logger.Info("Directory service: credentials updated",
		"username", currentUsername,
		"new_username", newUsername)
	return stripSecret(account), nil
}

// UpdateSecret replaces an account's secret without re-authentication,
// for administrator-driven resets. The new secret is always encrypted.
func (d *Directory) UpdateSecret(ctx context.Context, username, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	encrypted, err := d.codec.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	if err := d.accountStore.UpdateSecret(ctx, username, encrypted); err != nil {
		return err
	}

	d.logger.Info("Directory service: secret updated", "username", username)
	return nil
}

// DeleteAccount removes an account and its entire vault namespace. The
// bootstrap admin account cannot be deleted.
func (d *Directory) DeleteAccount(ctx context.Context, username string) error {
	if username == model.AdminUsername {
		return model.ErrProtectedAccount
	}

	if err := d.accountStore.Delete(ctx, username); err != nil {
		return err
	}

	d.logger.Info("Directory service: account deleted", "username", username)
	return nil
}

// ListAccounts returns all accounts with secrets stripped.
func (d *Directory) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := d.accountStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	for i := range accounts {
		accounts[i].Secret = ""
	}
	return accounts, nil
}

// secretMatches applies the dual plaintext-or-encrypted check for admin
// and the decrypt-and-compare check for everyone else. Legacy behavior
// kept for compatibility with existing stored accounts.
func (d *Directory) secretMatches(account model.Account, secret string) bool {
	if account.Username == model.AdminUsername && account.Secret == secret {
		return true
	}

	decrypted, err := d.codec.SafeDecrypt(account.Secret)
	if err != nil {
		d.logger.Warn("Directory service: stored secret could not be decrypted",
			"username", account.Username,
			"error", err.Error())
		return false
	}
	return decrypted == secret
}

func stripSecret(account model.Account) model.Account {
	account.Secret = ""
	return account
}
