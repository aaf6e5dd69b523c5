package cardnotes

import (
	"context"
	"fmt"

	"github.com/arcanadev/arcana/internal/dbx"
	"github.com/arcanadev/arcana/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.CardNote, error) {
	query := `
		SELECT owner_id, card_id, notes
		FROM card_notes
		WHERE owner_id = $1
		ORDER BY card_id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.CardNote
	for rows.Next() {
		var n models.CardNote
		if err := rows.Scan(&n.OwnerID, &n.CardID, &n.Notes); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Upsert creates or overwrites the note for one card.
func (r *PostgresRepository) Upsert(ctx context.Context, note *models.CardNote) error {
	query := `
		INSERT INTO card_notes (owner_id, card_id, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, card_id) DO UPDATE SET notes = EXCLUDED.notes
	`
	if _, err := r.db.ExecContext(ctx, query, note.OwnerID, note.CardID, note.Notes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
