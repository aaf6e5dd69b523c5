package remote

import "github.com/arcanadev/arcana/internal/client/models"

// Wire records. The record store speaks flat snake_case; the in-memory
// model speaks camelCase. Reading records may arrive in the legacy
// single-spread shape (cards + interpretation at the top level) and are
// normalized on the way in.

type folderRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LocalID   string `json:"local_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func folderToRecord(f models.Folder) folderRecord {
	return folderRecord{
		Name:      f.Name,
		LocalID:   f.ID,
		CreatedAt: f.CreatedAt,
	}
}

func folderFromRecord(rec folderRecord) models.Folder {
	return models.Folder{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
}

type cardRecord struct {
	CardID   string `json:"card_id"`
	Reversed bool   `json:"reversed,omitempty"`
	Position string `json:"position,omitempty"`
}

type spreadRecord struct {
	Question       string       `json:"question"`
	Cards          []cardRecord `json:"cards"`
	Interpretation string       `json:"interpretation"`
}

type readingRecord struct {
	ID          string         `json:"id"`
	FolderID    string         `json:"folder_id"`
	Title       string         `json:"title,omitempty"`
	Spreads     []spreadRecord `json:"spreads,omitempty"`
	Reflection  string         `json:"reflection,omitempty"`
	ReadingDate string         `json:"reading_date"`
	LocalID     string         `json:"local_id,omitempty"`
	CreatedAt   string         `json:"created_at"`

	// Legacy single-spread fields.
	Cards          []cardRecord `json:"cards,omitempty"`
	Interpretation string       `json:"interpretation,omitempty"`
}

func cardsToRecords(cards []models.CardPlacement) []cardRecord {
	out := make([]cardRecord, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardRecord{CardID: c.CardID, Reversed: c.Reversed, Position: c.Position})
	}
	return out
}

func cardsFromRecords(recs []cardRecord) []models.CardPlacement {
	out := make([]models.CardPlacement, 0, len(recs))
	for _, c := range recs {
		out = append(out, models.CardPlacement{CardID: c.CardID, Reversed: c.Reversed, Position: c.Position})
	}
	return out
}

func spreadsToRecords(spreads []models.Spread) []spreadRecord {
	out := make([]spreadRecord, 0, len(spreads))
	for _, s := range spreads {
		out = append(out, spreadRecord{
			Question:       s.Question,
			Cards:          cardsToRecords(s.Cards),
			Interpretation: s.Interpretation,
		})
	}
	return out
}

func spreadsFromRecords(recs []spreadRecord) []models.Spread {
	out := make([]models.Spread, 0, len(recs))
	for _, s := range recs {
		out = append(out, models.Spread{
			Question:       s.Question,
			Cards:          cardsFromRecords(s.Cards),
			Interpretation: s.Interpretation,
		})
	}
	return out
}

func readingToRecord(r models.Reading) readingRecord {
	return readingRecord{
		FolderID:    r.FolderID,
		Title:       r.Title,
		Spreads:     spreadsToRecords(r.Spreads),
		Reflection:  r.Reflection,
		ReadingDate: r.Date,
		LocalID:     r.ID,
		CreatedAt:   r.CreatedAt,
	}
}

func readingFromRecord(rec readingRecord) models.Reading {
	r := models.Reading{
		ID:         rec.ID,
		FolderID:   rec.FolderID,
		Title:      rec.Title,
		Spreads:    spreadsFromRecords(rec.Spreads),
		Reflection: rec.Reflection,
		Date:       rec.ReadingDate,
		CreatedAt:  rec.CreatedAt,
	}
	if len(r.Spreads) == 0 && (len(rec.Cards) > 0 || rec.Interpretation != "") {
		r.Spreads = []models.Spread{{
			Cards:          cardsFromRecords(rec.Cards),
			Interpretation: rec.Interpretation,
		}}
	}
	return r
}

type cardNoteRecord struct {
	CardID string `json:"card_id"`
	Notes  string `json:"notes"`
}
