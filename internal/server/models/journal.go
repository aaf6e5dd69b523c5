package models

import (
	"encoding/json"
	"time"
)

// Folder is one journal folder row. LocalID keeps the id the client
// generated before the server issued the canonical one.
type Folder struct {
	ID        string
	OwnerID   string
	Name      string
	LocalID   string
	CreatedAt time.Time
}

// Reading is one journal entry row. Spreads is stored as a JSON document;
// the server treats its contents as opaque.
type Reading struct {
	ID          string
	OwnerID     string
	FolderID    string
	Title       string
	Spreads     json.RawMessage
	Reflection  string
	ReadingDate string
	LocalID     string
	CreatedAt   time.Time
}

// CardNote is the per-owner note attached to one tarot card.
type CardNote struct {
	OwnerID string
	CardID  string
	Notes   string
}
