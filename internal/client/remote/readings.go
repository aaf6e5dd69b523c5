package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/client/models"
)

// ReadingsClient is the readings collection sub-client.
type ReadingsClient struct {
	c *Client
}

// GetAll returns all readings for the owner, newest first. Legacy-shape
// records are normalized to the multi-spread form.
func (r *ReadingsClient) GetAll(ctx context.Context, owner Owner) ([]models.Reading, error) {
	var recs []readingRecord
	if err := r.c.do(ctx, http.MethodGet, "/v1/readings", owner, nil, &recs); err != nil {
		return nil, fmt.Errorf("readings getAll: %w", err)
	}
	out := make([]models.Reading, 0, len(recs))
	for _, rec := range recs {
		out = append(out, readingFromRecord(rec))
	}
	return out, nil
}

// Create stores a reading and returns it with the server-assigned id.
func (r *ReadingsClient) Create(ctx context.Context, reading models.Reading, owner Owner) (models.Reading, error) {
	var rec readingRecord
	if err := r.c.do(ctx, http.MethodPost, "/v1/readings", owner, readingToRecord(reading), &rec); err != nil {
		return models.Reading{}, fmt.Errorf("readings create: %w", err)
	}
	return readingFromRecord(rec), nil
}

// Update modifies only the fields present in the update.
func (r *ReadingsClient) Update(ctx context.Context, id string, update models.ReadingUpdate, owner Owner) (models.Reading, error) {
	body := map[string]any{}
	if update.Title != nil {
		body["title"] = *update.Title
	}
	if update.Spreads != nil {
		body["spreads"] = spreadsToRecords(update.Spreads)
	}
	if update.Reflection != nil {
		body["reflection"] = *update.Reflection
	}
	if update.Date != nil {
		body["reading_date"] = *update.Date
	}

	var rec readingRecord
	if err := r.c.do(ctx, http.MethodPatch, "/v1/readings/"+url.PathEscape(id), owner, body, &rec); err != nil {
		return models.Reading{}, fmt.Errorf("readings update: %w", err)
	}
	return readingFromRecord(rec), nil
}

// Delete removes the reading. Deleting a nonexistent id is not an error.
func (r *ReadingsClient) Delete(ctx context.Context, id string, owner Owner) error {
	if err := r.c.do(ctx, http.MethodDelete, "/v1/readings/"+url.PathEscape(id), owner, nil, nil); err != nil {
		return fmt.Errorf("readings delete: %w", err)
	}
	return nil
}

// DeleteByFolder bulk-deletes every reading referencing the folder. Used
// by the folder-delete cascade.
func (r *ReadingsClient) DeleteByFolder(ctx context.Context, folderID string, owner Owner) error {
	path := "/v1/readings?folder_id=" + url.QueryEscape(folderID)
	if err := r.c.do(ctx, http.MethodDelete, path, owner, nil, nil); err != nil {
		return fmt.Errorf("readings deleteByFolder: %w", err)
	}
	return nil
}
