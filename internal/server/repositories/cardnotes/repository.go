package cardnotes

import (
	"context"

	"github.com/arcanadev/arcana/internal/server/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.CardNote, error)
	Upsert(ctx context.Context, note *models.CardNote) error
}
