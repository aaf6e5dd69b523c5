// Package models defines the client-side data model: folders, readings,
// card notes and the pending-operation queue entries.
package models

// Folder groups readings. ID is a client-generated uuid at creation time
// and is replaced by the server-issued id once the create is acknowledged.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// CardNotes maps a card id to the user's free-form note text. An empty or
// missing value means no note; notes are never deleted separately.
type CardNotes map[string]string
