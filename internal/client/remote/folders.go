package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/client/models"
)

// FoldersClient is the folders collection sub-client.
type FoldersClient struct {
	c *Client
}

// GetAll returns all folders for the owner, oldest first. Zero records is
// an empty slice, not an error.
func (f *FoldersClient) GetAll(ctx context.Context, owner Owner) ([]models.Folder, error) {
	var recs []folderRecord
	if err := f.c.do(ctx, http.MethodGet, "/v1/folders", owner, nil, &recs); err != nil {
		return nil, fmt.Errorf("folders getAll: %w", err)
	}
	out := make([]models.Folder, 0, len(recs))
	for _, rec := range recs {
		out = append(out, folderFromRecord(rec))
	}
	return out, nil
}

// Create stores a folder and returns it with the server-assigned id.
func (f *FoldersClient) Create(ctx context.Context, folder models.Folder, owner Owner) (models.Folder, error) {
	var rec folderRecord
	if err := f.c.do(ctx, http.MethodPost, "/v1/folders", owner, folderToRecord(folder), &rec); err != nil {
		return models.Folder{}, fmt.Errorf("folders create: %w", err)
	}
	return folderFromRecord(rec), nil
}

// Rename updates only the folder's name.
func (f *FoldersClient) Rename(ctx context.Context, id, name string, owner Owner) (models.Folder, error) {
	var rec folderRecord
	body := map[string]string{"name": name}
	if err := f.c.do(ctx, http.MethodPatch, "/v1/folders/"+url.PathEscape(id), owner, body, &rec); err != nil {
		return models.Folder{}, fmt.Errorf("folders rename: %w", err)
	}
	return folderFromRecord(rec), nil
}

// Delete removes the folder. Deleting a nonexistent id is not an error.
func (f *FoldersClient) Delete(ctx context.Context, id string, owner Owner) error {
	if err := f.c.do(ctx, http.MethodDelete, "/v1/folders/"+url.PathEscape(id), owner, nil, nil); err != nil {
		return fmt.Errorf("folders delete: %w", err)
	}
	return nil
}
