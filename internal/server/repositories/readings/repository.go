package readings

import (
	"context"
	"encoding/json"

	"github.com/arcanadev/arcana/internal/server/models"
)

// Patch carries the fields of a partial reading update. Nil pointers (and
// nil Spreads) leave the column untouched.
type Patch struct {
	Title       *string
	Spreads     json.RawMessage
	Reflection  *string
	ReadingDate *string
	FolderID    *string
}

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Reading, error)
	Create(ctx context.Context, reading *models.Reading) (*models.Reading, error)
	Update(ctx context.Context, ownerID, id string, patch Patch) (*models.Reading, error)
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByFolder(ctx context.Context, ownerID, folderID string) error
}
