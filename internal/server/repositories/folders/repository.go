package folders

import (
	"context"

	"github.com/arcanadev/arcana/internal/server/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error)
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	Rename(ctx context.Context, ownerID, id, name string) (*models.Folder, error)
	Delete(ctx context.Context, ownerID, id string) error
}
