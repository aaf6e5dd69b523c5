package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/dbx"
	"github.com/arcanadev/arcana/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := `
		SELECT id, owner_id, name, local_id, created_at
		FROM folders
		WHERE owner_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.LocalID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (owner_id, name, local_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		folder.OwnerID, folder.Name, folder.LocalID, folder.CreatedAt).Scan(&folder.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, ownerID, id, name string) (*models.Folder, error) {
	query := `
		UPDATE folders SET name = $3
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, name, local_id, created_at
	`
	f := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, ownerID, id, name).
		Scan(&f.ID, &f.OwnerID, &f.Name, &f.LocalID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Delete removes a folder. Deleting an absent folder is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `
		DELETE FROM folders
		WHERE owner_id = $1 AND id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
