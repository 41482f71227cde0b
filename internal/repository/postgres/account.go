package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/passfold/passfold-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const uniqueViolation = "23505"

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	var account model.Account
	query := `SELECT username, secret, role, created_at, updated_at
			  FROM accounts WHERE username = $1`

	err := r.db.QueryRow(ctx, query, username).Scan(
		&account.Username, &account.Secret, &account.Role,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by username: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	query := `SELECT username, secret, role, created_at, updated_at
			  FROM accounts ORDER BY username`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		err := rows.Scan(
			&account.Username, &account.Secret, &account.Role,
			&account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (username, secret, role)
			  VALUES ($1, $2, $3)
			  RETURNING username, secret, role, created_at, updated_at`

	var savedAccount model.Account
	err := r.db.QueryRow(ctx, query,
		account.Username, account.Secret, string(account.Role),
	).Scan(
		&savedAccount.Username, &savedAccount.Secret, &savedAccount.Role,
		&savedAccount.CreatedAt, &savedAccount.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, model.ErrDuplicateUsername
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return savedAccount, nil
}

func (r *AccountRepository) UpdateSecret(ctx context.Context, username string, secret string) error {
	const query = `UPDATE accounts SET secret = $2, updated_at = NOW() WHERE username = $1`

	cmd, err := r.db.Exec(ctx, query, username, secret)
	if err != nil {
		return fmt.Errorf("failed to update account secret: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateCredentials renames the account and replaces its secret. When the
// username changes, the account's folder and credential rows are moved to
// the new owner key in the same transaction, the equivalent of the
// per-user collection rename in a document store.
func (r *AccountRepository) UpdateCredentials(ctx context.Context, currentUsername, newUsername, secret string) (model.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE accounts SET username = $2, secret = $3, updated_at = NOW()
			  WHERE username = $1
			  RETURNING username, secret, role, created_at, updated_at`

	var account model.Account
	err = tx.QueryRow(ctx, query, currentUsername, newUsername, secret).Scan(
		&account.Username, &account.Secret, &account.Role,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, model.ErrDuplicateUsername
		}
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	if newUsername != currentUsername {
		if _, err := tx.Exec(ctx, `UPDATE folders SET owner_id = $2 WHERE owner_id = $1`, currentUsername, newUsername); err != nil {
			return model.Account{}, fmt.Errorf("failed to remap folders: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE credentials SET owner_id = $2 WHERE owner_id = $1`, currentUsername, newUsername); err != nil {
			return model.Account{}, fmt.Errorf("failed to remap credentials: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Account{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// Delete removes the account and its entire vault namespace.
func (r *AccountRepository) Delete(ctx context.Context, username string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM credentials WHERE owner_id = $1`, username); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM folders WHERE owner_id = $1`, username); err != nil {
		return fmt.Errorf("failed to delete folders: %w", err)
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
