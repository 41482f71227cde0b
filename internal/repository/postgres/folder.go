package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/passfold/passfold-server/internal/model"
)

var _ model.FolderStore = (*FolderRepository)(nil)

type FolderRepository struct {
	db *Connection
}

func NewFolderRepository(db *Connection) *FolderRepository {
	return &FolderRepository{
		db: db,
	}
}

func (r *FolderRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Folder, error) {
	query := `
		SELECT f.id, f.owner_id, f.name, f.parent_id, f.created_at, f.updated_at
		FROM folders f
		WHERE f.owner_id = $1
		ORDER BY f.created_at ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		var folder model.Folder
		err := rows.Scan(
			&folder.ID, &folder.OwnerID, &folder.Name, &folder.ParentID,
			&folder.CreatedAt, &folder.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return folders, nil
}

func (r *FolderRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (model.Folder, error) {
	query := `
		SELECT f.id, f.owner_id, f.name, f.parent_id, f.created_at, f.updated_at
		FROM folders f
		WHERE f.owner_id = $1 AND f.id = $2`

	var folder model.Folder
	err := r.db.QueryRow(ctx, query, ownerID, id).Scan(
		&folder.ID, &folder.OwnerID, &folder.Name, &folder.ParentID,
		&folder.CreatedAt, &folder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Folder{}, model.ErrNotFound
		}
		return model.Folder{}, err
	}

	return folder, nil
}

func (r *FolderRepository) Create(ctx context.Context, folder model.Folder) (model.Folder, error) {
	query := `
		INSERT INTO folders (id, owner_id, name, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, name, parent_id, created_at, updated_at`

	var savedFolder model.Folder
	err := r.db.QueryRow(ctx, query,
		folder.ID, folder.OwnerID, folder.Name, folder.ParentID,
	).Scan(
		&savedFolder.ID, &savedFolder.OwnerID, &savedFolder.Name, &savedFolder.ParentID,
		&savedFolder.CreatedAt, &savedFolder.UpdatedAt,
	)
	if err != nil {
		return model.Folder{}, err
	}

	return savedFolder, nil
}

func (r *FolderRepository) Rename(ctx context.Context, ownerID string, id uuid.UUID, name string) (model.Folder, error) {
	query := `
		UPDATE folders SET name = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, name, parent_id, created_at, updated_at`

	var folder model.Folder
	err := r.db.QueryRow(ctx, query, ownerID, id, name).Scan(
		&folder.ID, &folder.OwnerID, &folder.Name, &folder.ParentID,
		&folder.CreatedAt, &folder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Folder{}, model.ErrNotFound
		}
		return model.Folder{}, err
	}

	return folder, nil
}

func (r *FolderRepository) Reparent(ctx context.Context, ownerID string, id uuid.UUID, parentID *uuid.UUID) (model.Folder, error) {
	query := `
		UPDATE folders SET parent_id = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, name, parent_id, created_at, updated_at`

	var folder model.Folder
	err := r.db.QueryRow(ctx, query, ownerID, id, parentID).Scan(
		&folder.ID, &folder.OwnerID, &folder.Name, &folder.ParentID,
		&folder.CreatedAt, &folder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Folder{}, model.ErrNotFound
		}
		return model.Folder{}, err
	}

	return folder, nil
}

// DeleteCascade removes the given folders and every credential stored in
// them in one transaction, so a crash cannot leave a partially deleted
// subtree.
func (r *FolderRepository) DeleteCascade(ctx context.Context, ownerID string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM credentials WHERE owner_id = $1 AND folder_id = ANY($2)`,
		ownerID, ids,
	); err != nil {
		return fmt.Errorf("failed to delete credentials in subtree: %w", err)
	}

	cmd, err := tx.Exec(ctx,
		`DELETE FROM folders WHERE owner_id = $1 AND id = ANY($2)`,
		ownerID, ids,
	)
	if err != nil {
		return fmt.Errorf("failed to delete folders: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
