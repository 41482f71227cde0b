package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/passfold/passfold-server/internal/model"
)

var _ model.CredentialStore = (*CredentialRepository)(nil)

type CredentialRepository struct {
	db *Connection
}

func NewCredentialRepository(db *Connection) *CredentialRepository {
	return &CredentialRepository{
		db: db,
	}
}

func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error) {
	query := `
		SELECT c.id, c.owner_id, c.title, c.username, c.secret, c.description, c.folder_id, c.created_at, c.updated_at
		FROM credentials c
		WHERE c.owner_id = $1
		ORDER BY c.created_at ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var credentials []model.Credential
	for rows.Next() {
		var credential model.Credential
		err := rows.Scan(
			&credential.ID, &credential.OwnerID, &credential.Title, &credential.Username,
			&credential.Secret, &credential.Description, &credential.FolderID,
			&credential.CreatedAt, &credential.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return credentials, nil
}

// ReplaceAll clears the owner's credential set and inserts the given list
// in one transaction. The save pattern is full-replace: callers always
// submit the complete desired set.
func (r *CredentialRepository) ReplaceAll(ctx context.Context, ownerID string, credentials []model.Credential) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM credentials WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	query := `
		INSERT INTO credentials (id, owner_id, title, username, secret, description, folder_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, credential := range credentials {
		if _, err := tx.Exec(ctx, query,
			credential.ID, ownerID, credential.Title, credential.Username,
			credential.Secret, credential.Description, credential.FolderID,
		); err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *CredentialRepository) MoveToFolder(ctx context.Context, ownerID string, id uuid.UUID, folderID *uuid.UUID) error {
	const query = `UPDATE credentials SET folder_id = $3, updated_at = NOW() WHERE owner_id = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query, ownerID, id, folderID)
	if err != nil {
		return fmt.Errorf("failed to move credential: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
