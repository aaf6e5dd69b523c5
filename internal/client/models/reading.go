package models

import "encoding/json"

// CardPlacement is one drawn card within a spread.
type CardPlacement struct {
	CardID   string `json:"cardId"`
	Reversed bool   `json:"reversed,omitempty"`
	Position string `json:"position,omitempty"`
}

// Spread is one question with its drawn cards and interpretation.
type Spread struct {
	Question       string          `json:"question"`
	Cards          []CardPlacement `json:"cards"`
	Interpretation string          `json:"interpretation"`
}

// Reading is one journal entry, always held in the current multi-spread
// shape in memory. Two wire shapes exist: the legacy single-spread form
// ({cards, interpretation}) and the current form ({title, spreads,
// reflection}); UnmarshalJSON accepts both and normalizes to this type.
//
// ID follows the same client-then-server reconciliation rule as Folder.ID.
// FolderID always refers to a folder of the same owner.
type Reading struct {
	ID         string   `json:"id"`
	FolderID   string   `json:"folderId"`
	Title      string   `json:"title,omitempty"`
	Spreads    []Spread `json:"spreads"`
	Reflection string   `json:"reflection"`
	Date       string   `json:"date"`
	CreatedAt  string   `json:"createdAt"`
}

// readingWire is the union of the legacy and current reading shapes as
// they appear in local storage and on the wire.
type readingWire struct {
	ID         string   `json:"id"`
	FolderID   string   `json:"folderId"`
	Title      string   `json:"title"`
	Spreads    []Spread `json:"spreads"`
	Reflection string   `json:"reflection"`
	Date       string   `json:"date"`
	CreatedAt  string   `json:"createdAt"`

	// Legacy single-spread fields.
	Cards          []CardPlacement `json:"cards"`
	Interpretation string          `json:"interpretation"`
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var w readingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = normalizeReading(w)
	return nil
}

// normalizeReading converts either wire shape into the canonical
// multi-spread Reading. A legacy reading becomes a single spread with an
// empty question; its interpretation stays with the spread, not the
// reflection. A record carrying spreads wins over leftover legacy fields.
func normalizeReading(w readingWire) Reading {
	r := Reading{
		ID:         w.ID,
		FolderID:   w.FolderID,
		Title:      w.Title,
		Spreads:    w.Spreads,
		Reflection: w.Reflection,
		Date:       w.Date,
		CreatedAt:  w.CreatedAt,
	}
	if len(r.Spreads) == 0 && (len(w.Cards) > 0 || w.Interpretation != "") {
		r.Spreads = []Spread{{
			Cards:          w.Cards,
			Interpretation: w.Interpretation,
		}}
	}
	return r
}

// ReadingUpdate is a partial update to an existing reading. Nil pointer
// fields and a nil Spreads slice are left unchanged.
type ReadingUpdate struct {
	Title      *string  `json:"title,omitempty"`
	Spreads    []Spread `json:"spreads,omitempty"`
	Reflection *string  `json:"reflection,omitempty"`
	Date       *string  `json:"date,omitempty"`
}

// Apply returns a copy of r with the update's present fields applied.
func (u ReadingUpdate) Apply(r Reading) Reading {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Spreads != nil {
		r.Spreads = u.Spreads
	}
	if u.Reflection != nil {
		r.Reflection = *u.Reflection
	}
	if u.Date != nil {
		r.Date = *u.Date
	}
	return r
}
