package httpapi

import (
	"encoding/json"
	"time"

	"github.com/arcanadev/arcana/internal/server/models"
)

// Wire payloads. Field names mirror what the client sync engine sends and
// expects back: flat snake_case records.

type folderPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LocalID   string `json:"local_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func folderToPayload(f models.Folder) folderPayload {
	return folderPayload{
		ID:        f.ID,
		Name:      f.Name,
		LocalID:   f.LocalID,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type readingPayload struct {
	ID          string          `json:"id"`
	FolderID    string          `json:"folder_id"`
	Title       string          `json:"title,omitempty"`
	Spreads     json.RawMessage `json:"spreads,omitempty"`
	Reflection  string          `json:"reflection,omitempty"`
	ReadingDate string          `json:"reading_date"`
	LocalID     string          `json:"local_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func readingToPayload(r models.Reading) readingPayload {
	return readingPayload{
		ID:          r.ID,
		FolderID:    r.FolderID,
		Title:       r.Title,
		Spreads:     r.Spreads,
		Reflection:  r.Reflection,
		ReadingDate: r.ReadingDate,
		LocalID:     r.LocalID,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type readingPatchPayload struct {
	Title       *string         `json:"title"`
	Spreads     json.RawMessage `json:"spreads"`
	Reflection  *string         `json:"reflection"`
	ReadingDate *string         `json:"reading_date"`
	FolderID    *string         `json:"folder_id"`
}

type cardNotePayload struct {
	CardID string `json:"card_id"`
	Notes  string `json:"notes"`
}

// parseCreatedAt accepts the client's RFC3339 timestamp, falling back to
// now for absent or malformed values.
func parseCreatedAt(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Now().UTC()
}
