package readings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const readingColumns = "id, owner_id, folder_id, title, spreads, reflection, reading_date, local_id, created_at"

func scanReading(scan func(dest ...any) error) (*models.Reading, error) {
	r := &models.Reading{}
	err := scan(&r.ID, &r.OwnerID, &r.FolderID, &r.Title, &r.Spreads,
		&r.Reflection, &r.ReadingDate, &r.LocalID, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Reading
	for rows.Next() {
		reading, err := scanReading(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *reading)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, reading *models.Reading) (*models.Reading, error) {
	query := `
		INSERT INTO readings (owner_id, folder_id, title, spreads, reflection, reading_date, local_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		reading.OwnerID, reading.FolderID, reading.Title, reading.Spreads,
		reading.Reflection, reading.ReadingDate, reading.LocalID, reading.CreatedAt).Scan(&reading.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reading, nil
}

// Update applies only the fields present in the patch.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, patch Patch) (*models.Reading, error) {
	sets := []string{}
	args := []any{ownerID, id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Spreads != nil {
		add("spreads", patch.Spreads)
	}
	if patch.Reflection != nil {
		add("reflection", *patch.Reflection)
	}
	if patch.ReadingDate != nil {
		add("reading_date", *patch.ReadingDate)
	}
	if patch.FolderID != nil {
		add("folder_id", *patch.FolderID)
	}

	if len(sets) == 0 {
		return r.get(ctx, ownerID, id)
	}

	query := `
		UPDATE readings SET ` + strings.Join(sets, ", ") + `
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + readingColumns

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reading, nil
}

func (r *PostgresRepository) get(ctx context.Context, ownerID, id string) (*models.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE owner_id = $1 AND id = $2
	`
	reading, err := scanReading(r.db.QueryRowContext(ctx, query, ownerID, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reading, nil
}

// Delete removes a reading. Deleting an absent reading is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `
		DELETE FROM readings
		WHERE owner_id = $1 AND id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByFolder removes every reading in a folder in one statement.
func (r *PostgresRepository) DeleteByFolder(ctx context.Context, ownerID, folderID string) error {
	query := `
		DELETE FROM readings
		WHERE owner_id = $1 AND folder_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, folderID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
