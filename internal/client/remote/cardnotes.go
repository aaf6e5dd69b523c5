package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/client/models"
)

// CardNotesClient is the card-notes collection sub-client.
type CardNotesClient struct {
	c *Client
}

// GetAll returns the owner's notes as a cardId→text map. Zero records is
// an empty map, not an error.
func (n *CardNotesClient) GetAll(ctx context.Context, owner Owner) (models.CardNotes, error) {
	var recs []cardNoteRecord
	if err := n.c.do(ctx, http.MethodGet, "/v1/card-notes", owner, nil, &recs); err != nil {
		return nil, fmt.Errorf("card notes getAll: %w", err)
	}
	out := make(models.CardNotes, len(recs))
	for _, rec := range recs {
		out[rec.CardID] = rec.Notes
	}
	return out, nil
}

// Upsert creates or overwrites the note for one card. At most one note
// exists per card per owner.
func (n *CardNotesClient) Upsert(ctx context.Context, cardID, notes string, owner Owner) error {
	body := map[string]string{"notes": notes}
	path := "/v1/card-notes/" + url.PathEscape(cardID)
	if err := n.c.do(ctx, http.MethodPut, path, owner, body, nil); err != nil {
		return fmt.Errorf("card notes upsert: %w", err)
	}
	return nil
}
