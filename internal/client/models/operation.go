package models

// OperationKind identifies a queued mutation awaiting remote delivery.
type OperationKind string

const (
	OpCreateFolder  OperationKind = "CREATE_FOLDER"
	OpUpdateFolder  OperationKind = "UPDATE_FOLDER"
	OpDeleteFolder  OperationKind = "DELETE_FOLDER"
	OpCreateReading OperationKind = "CREATE_READING"
	OpUpdateReading OperationKind = "UPDATE_READING"
	OpDeleteReading OperationKind = "DELETE_READING"
	OpUpsertNote    OperationKind = "UPSERT_NOTE"
)

// PendingOperation is one not-yet-acknowledged mutation. The payload field
// in use depends on Kind:
//
//	CREATE_FOLDER   Folder
//	UPDATE_FOLDER   ID + Name
//	DELETE_FOLDER   ID
//	CREATE_READING  Reading
//	UPDATE_READING  ID + Update
//	DELETE_READING  ID
//	UPSERT_NOTE     CardID + Notes
//
// The queue is owner-scope-agnostic: operations are resolved against
// whichever owner is active at replay time. Attempts counts dispatch
// attempts; the current policy drops an operation after one failed attempt.
type PendingOperation struct {
	Kind     OperationKind  `json:"type"`
	ID       string         `json:"id,omitempty"`
	Folder   *Folder        `json:"folder,omitempty"`
	Reading  *Reading       `json:"reading,omitempty"`
	Update   *ReadingUpdate `json:"update,omitempty"`
	Name     string         `json:"name,omitempty"`
	CardID   string         `json:"cardId,omitempty"`
	Notes    string         `json:"notes,omitempty"`
	Attempts int            `json:"attempts,omitempty"`
}
