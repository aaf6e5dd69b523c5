package sync

import (
	"context"

	"github.com/arcanadev/arcana/internal/client/models"
	"github.com/arcanadev/arcana/internal/client/remote"
)

// The engine talks to the record store through these per-collection
// interfaces so tests can substitute fakes. The remote package's
// sub-clients satisfy them.

type FolderAPI interface {
	GetAll(ctx context.Context, owner remote.Owner) ([]models.Folder, error)
	Create(ctx context.Context, folder models.Folder, owner remote.Owner) (models.Folder, error)
	Rename(ctx context.Context, id, name string, owner remote.Owner) (models.Folder, error)
	Delete(ctx context.Context, id string, owner remote.Owner) error
}

type ReadingAPI interface {
	GetAll(ctx context.Context, owner remote.Owner) ([]models.Reading, error)
	Create(ctx context.Context, reading models.Reading, owner remote.Owner) (models.Reading, error)
	Update(ctx context.Context, id string, update models.ReadingUpdate, owner remote.Owner) (models.Reading, error)
	Delete(ctx context.Context, id string, owner remote.Owner) error
	DeleteByFolder(ctx context.Context, folderID string, owner remote.Owner) error
}

type CardNoteAPI interface {
	GetAll(ctx context.Context, owner remote.Owner) (models.CardNotes, error)
	Upsert(ctx context.Context, cardID, notes string, owner remote.Owner) error
}

// RemoteStore bundles the three collection clients.
type RemoteStore struct {
	Folders   FolderAPI
	Readings  ReadingAPI
	CardNotes CardNoteAPI
}

// RemoteFromClient wires a RemoteStore from the HTTP client.
func RemoteFromClient(c *remote.Client) RemoteStore {
	return RemoteStore{
		Folders:   c.Folders(),
		Readings:  c.Readings(),
		CardNotes: c.CardNotes(),
	}
}
