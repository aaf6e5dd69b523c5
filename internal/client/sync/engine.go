// Package sync implements the offline-first synchronization engine: the
// in-memory collections, the write-through local persistence, the durable
// operation queue, and the replay protocol that reconciles local state
// with the record store when connectivity allows.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arcanadev/arcana/internal/client/models"
	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/client/store"
	"github.com/arcanadev/arcana/internal/logging"
)

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// DropHandler observes queued operations abandoned after a failed replay
// attempt. Replay is deliberately best-effort: one attempt per operation,
// then the operation is removed whether it succeeded or not.
type DropHandler func(op models.PendingOperation, err error)

// Engine orchestrates load, live mutation, online/offline transitions and
// queue replay for one active owner scope.
//
// Mutation methods apply optimistically: in-memory state and the local
// store are updated before any network traffic, and a remote failure
// degrades to an enqueue, never to a caller-visible error. Immediately
// after any mutation returns, in-memory state and the local store agree.
type Engine struct {
	st     *store.Store
	rs     RemoteStore
	queue  *Queue
	log    logging.Logger
	onDrop DropHandler

	online  atomic.Bool
	syncing atomic.Bool

	mu        sync.Mutex
	state     State
	owner     remote.Owner
	syncErr   error
	cardNotes models.CardNotes
	folders   []models.Folder
	readings  []models.Reading

	// Test seams.
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithDropHandler installs an observer for operations dropped during replay.
func WithDropHandler(h DropHandler) Option {
	return func(e *Engine) { e.onDrop = h }
}

func NewEngine(st *store.Store, rs RemoteStore, queue *Queue, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		st:        st,
		rs:        rs,
		queue:     queue,
		log:       log,
		cardNotes: models.CardNotes{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start activates the engine for an owner: local collections are read and
// published immediately, then, if online, the three remote collections are
// fetched concurrently and overwrite local state (remote is source of
// truth on load; already-queued operations survive and are replayed
// after). A remote fetch failure keeps the local data and records a sync
// error. The engine is Ready on return regardless of fetch outcome.
func (e *Engine) Start(ctx context.Context, owner remote.Owner) error {
	e.mu.Lock()
	e.state = StateLoading
	e.owner = owner
	e.syncErr = nil
	e.mu.Unlock()

	if err := e.loadLocal(ctx, owner); err != nil {
		e.mu.Lock()
		e.state = StateUninitialized
		e.mu.Unlock()
		return fmt.Errorf("local load error: %w", err)
	}

	if e.online.Load() {
		e.fetchRemote(ctx, owner)
	}

	e.mu.Lock()
	e.state = StateReady
	e.mu.Unlock()

	if e.online.Load() {
		e.Replay(ctx)
	}
	return nil
}

// SignOut clears all in-memory collections and returns the engine to the
// uninitialized state. Local storage for the previous owner is kept; the
// engine simply stops reading or writing it until a new owner is started.
func (e *Engine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateUninitialized
	e.owner = remote.Owner{}
	e.cardNotes = models.CardNotes{}
	e.folders = nil
	e.readings = nil
	e.syncErr = nil
}

// SetOnline records connectivity as reported by the host's watcher. An
// offline→online transition while Ready triggers queue replay.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	wasOnline := e.online.Swap(online)
	if online && !wasOnline {
		e.mu.Lock()
		ready := e.state == StateReady
		e.mu.Unlock()
		if ready {
			e.Replay(ctx)
		}
	}
}

func (e *Engine) IsOnline() bool  { return e.online.Load() }
func (e *Engine) IsSyncing() bool { return e.syncing.Load() }

// PendingCount is the number of operations waiting for replay.
func (e *Engine) PendingCount() int { return e.queue.Len() }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SyncError returns the error recorded by the last remote load, or nil.
func (e *Engine) SyncError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncErr
}

// Folders returns a copy of the in-memory folder list.
func (e *Engine) Folders() []models.Folder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Folder(nil), e.folders...)
}

// Readings returns a copy of the in-memory reading list, newest first.
func (e *Engine) Readings() []models.Reading {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Reading(nil), e.readings...)
}

// CardNotes returns a copy of the in-memory note map.
func (e *Engine) CardNotes() models.CardNotes {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(models.CardNotes, len(e.cardNotes))
	for k, v := range e.cardNotes {
		out[k] = v
	}
	return out
}

// SaveCardNotes creates or overwrites the note for one card. Empty text
// is stored as-is and means absence; notes are never deleted separately.
func (e *Engine) SaveCardNotes(ctx context.Context, cardID, notes string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cardNotes[cardID] = notes
	if err := e.persistNotesLocked(ctx); err != nil {
		return err
	}

	op := models.PendingOperation{Kind: models.OpUpsertNote, CardID: cardID, Notes: notes}
	if e.online.Load() {
		if err := e.rs.CardNotes.Upsert(ctx, cardID, notes, e.owner); err != nil {
			e.log.Warn(ctx, "note upsert failed, queuing", "cardId", cardID, "error", err)
			return e.queue.Enqueue(ctx, op)
		}
		return nil
	}
	return e.queue.Enqueue(ctx, op)
}

// CreateFolder creates a folder with a client-generated id and returns it.
// When the online create is acknowledged with a different server id, the
// client id is replaced everywhere it appears, including readings already
// referencing the folder.
func (e *Engine) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	folder := models.Folder{
		ID:        e.newID(),
		Name:      name,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	e.folders = append(e.folders, folder)
	if err := e.persistFoldersLocked(ctx); err != nil {
		return models.Folder{}, err
	}

	op := models.PendingOperation{Kind: models.OpCreateFolder, Folder: &folder}
	if e.online.Load() {
		created, err := e.rs.Folders.Create(ctx, folder, e.owner)
		if err != nil {
			e.log.Warn(ctx, "folder create failed, queuing", "folderId", folder.ID, "error", err)
			return folder, e.queue.Enqueue(ctx, op)
		}
		if created.ID != "" && created.ID != folder.ID {
			if err := e.reconcileFolderIDLocked(ctx, folder.ID, created.ID); err != nil {
				return folder, err
			}
			folder.ID = created.ID
		}
		return folder, nil
	}
	return folder, e.queue.Enqueue(ctx, op)
}

// RenameFolder updates a folder's name.
func (e *Engine) RenameFolder(ctx context.Context, id, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.folders {
		if e.folders[i].ID == id {
			e.folders[i].Name = name
		}
	}
	if err := e.persistFoldersLocked(ctx); err != nil {
		return err
	}

	op := models.PendingOperation{Kind: models.OpUpdateFolder, ID: id, Name: name}
	if e.online.Load() {
		if _, err := e.rs.Folders.Rename(ctx, id, name, e.owner); err != nil {
			e.log.Warn(ctx, "folder rename failed, queuing", "folderId", id, "error", err)
			return e.queue.Enqueue(ctx, op)
		}
		return nil
	}
	return e.queue.Enqueue(ctx, op)
}

// DeleteFolder removes a folder and cascades to its readings: dependent
// readings leave memory and the local store before the folder does, so no
// reading ever outlives its folder locally. Remotely the cascade is two
// calls (delete-by-parent, then the folder delete); they are not atomic.
func (e *Engine) DeleteFolder(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.readings[:0]
	for _, r := range e.readings {
		if r.FolderID != id {
			kept = append(kept, r)
		}
	}
	e.readings = kept
	if err := e.persistReadingsLocked(ctx); err != nil {
		return err
	}

	folders := e.folders[:0]
	for _, f := range e.folders {
		if f.ID != id {
			folders = append(folders, f)
		}
	}
	e.folders = folders
	if err := e.persistFoldersLocked(ctx); err != nil {
		return err
	}

	op := models.PendingOperation{Kind: models.OpDeleteFolder, ID: id}
	if e.online.Load() {
		if err := e.deleteFolderRemote(ctx, id, e.owner); err != nil {
			e.log.Warn(ctx, "folder delete failed, queuing", "folderId", id, "error", err)
			return e.queue.Enqueue(ctx, op)
		}
		return nil
	}
	return e.queue.Enqueue(ctx, op)
}

func (e *Engine) deleteFolderRemote(ctx context.Context, id string, owner remote.Owner) error {
	if err := e.rs.Readings.DeleteByFolder(ctx, id, owner); err != nil {
		return err
	}
	return e.rs.Folders.Delete(ctx, id, owner)
}

// CreateReading creates a journal entry. The engine assigns the client id
// and creation timestamp; the new reading becomes the first element of the
// in-memory list. Server id reconciliation follows the folder rule.
func (e *Engine) CreateReading(ctx context.Context, r models.Reading) (models.Reading, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r.ID = e.newID()
	r.CreatedAt = e.now().UTC().Format(time.RFC3339)
	e.readings = append([]models.Reading{r}, e.readings...)
	if err := e.persistReadingsLocked(ctx); err != nil {
		return models.Reading{}, err
	}

	op := models.PendingOperation{Kind: models.OpCreateReading, Reading: &r}
	if e.online.Load() {
		created, err := e.rs.Readings.Create(ctx, r, e.owner)
		if err != nil {
			e.log.Warn(ctx, "reading create failed, queuing", "readingId", r.ID, "error", err)
			return r, e.queue.Enqueue(ctx, op)
		}
		if created.ID != "" && created.ID != r.ID {
			for i := range e.readings {
				if e.readings[i].ID == r.ID {
					e.readings[i].ID = created.ID
				}
			}
			if err := e.persistReadingsLocked(ctx); err != nil {
				return r, err
			}
			r.ID = created.ID
		}
		return r, nil
	}
	return r, e.queue.Enqueue(ctx, op)
}

// UpdateReading applies a partial update to one reading.
func (e *Engine) UpdateReading(ctx context.Context, id string, update models.ReadingUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.readings {
		if e.readings[i].ID == id {
			e.readings[i] = update.Apply(e.readings[i])
		}
	}
	if err := e.persistReadingsLocked(ctx); err != nil {
		return err
	}

	op := models.PendingOperation{Kind: models.OpUpdateReading, ID: id, Update: &update}
	if e.online.Load() {
		if _, err := e.rs.Readings.Update(ctx, id, update, e.owner); err != nil {
			e.log.Warn(ctx, "reading update failed, queuing", "readingId", id, "error", err)
			return e.queue.Enqueue(ctx, op)
		}
		return nil
	}
	return e.queue.Enqueue(ctx, op)
}

// DeleteReading removes one reading.
func (e *Engine) DeleteReading(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.readings[:0]
	for _, r := range e.readings {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	e.readings = kept
	if err := e.persistReadingsLocked(ctx); err != nil {
		return err
	}

	op := models.PendingOperation{Kind: models.OpDeleteReading, ID: id}
	if e.online.Load() {
		if err := e.rs.Readings.Delete(ctx, id, e.owner); err != nil {
			e.log.Warn(ctx, "reading delete failed, queuing", "readingId", id, "error", err)
			return e.queue.Enqueue(ctx, op)
		}
		return nil
	}
	return e.queue.Enqueue(ctx, op)
}

// Replay drains the pending-operation queue in enqueue order against the
// active owner. Each operation gets exactly one dispatch attempt and is
// removed from the queue once that attempt settles; failures are logged,
// reported to the drop handler, and do not halt the batch.
func (e *Engine) Replay(ctx context.Context) {
	e.mu.Lock()
	owner := e.owner
	ready := e.state == StateReady
	e.mu.Unlock()
	if !ready || !e.online.Load() || e.queue.Len() == 0 {
		return
	}

	e.syncing.Store(true)
	defer e.syncing.Store(false)

	for {
		op, ok := e.queue.Head()
		if !ok {
			return
		}
		op.Attempts++

		if err := e.dispatch(ctx, op, owner); err != nil {
			e.log.Error(ctx, "queued operation dropped", "kind", string(op.Kind), "attempts", op.Attempts, "error", err)
			if e.onDrop != nil {
				e.onDrop(op, err)
			}
		}

		if err := e.queue.PopFront(ctx); err != nil {
			e.log.Error(ctx, "queue persist error, stopping replay", "error", err)
			return
		}
	}
}

// dispatch executes one queued operation against the record store. Replay
// discards returned records: a create replayed here carries its client id
// as local_id and the authoritative server id arrives with the next load.
func (e *Engine) dispatch(ctx context.Context, op models.PendingOperation, owner remote.Owner) error {
	switch op.Kind {
	case models.OpCreateFolder:
		if op.Folder == nil {
			return fmt.Errorf("missing folder payload")
		}
		_, err := e.rs.Folders.Create(ctx, *op.Folder, owner)
		return err
	case models.OpUpdateFolder:
		_, err := e.rs.Folders.Rename(ctx, op.ID, op.Name, owner)
		return err
	case models.OpDeleteFolder:
		return e.deleteFolderRemote(ctx, op.ID, owner)
	case models.OpCreateReading:
		if op.Reading == nil {
			return fmt.Errorf("missing reading payload")
		}
		_, err := e.rs.Readings.Create(ctx, *op.Reading, owner)
		return err
	case models.OpUpdateReading:
		if op.Update == nil {
			return fmt.Errorf("missing update payload")
		}
		_, err := e.rs.Readings.Update(ctx, op.ID, *op.Update, owner)
		return err
	case models.OpDeleteReading:
		return e.rs.Readings.Delete(ctx, op.ID, owner)
	case models.OpUpsertNote:
		return e.rs.CardNotes.Upsert(ctx, op.CardID, op.Notes, owner)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// reconcileFolderIDLocked replaces a client-generated folder id with the
// server-issued one everywhere it appears: the folder itself and any
// reading already referencing it.
func (e *Engine) reconcileFolderIDLocked(ctx context.Context, oldID, newID string) error {
	for i := range e.folders {
		if e.folders[i].ID == oldID {
			e.folders[i].ID = newID
		}
	}
	if err := e.persistFoldersLocked(ctx); err != nil {
		return err
	}

	changed := false
	for i := range e.readings {
		if e.readings[i].FolderID == oldID {
			e.readings[i].FolderID = newID
			changed = true
		}
	}
	if changed {
		return e.persistReadingsLocked(ctx)
	}
	return nil
}

// loadLocal publishes the persisted collections for the owner. Absent
// collections come up empty; legacy-shape readings are normalized by the
// model's decoder.
func (e *Engine) loadLocal(ctx context.Context, owner remote.Owner) error {
	scope := owner.ScopeKey()

	notes := models.CardNotes{}
	if data, err := e.st.Get(ctx, scope, store.CollectionCardNotes); err != nil {
		return err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &notes); err != nil {
			return fmt.Errorf("card notes decode error: %w", err)
		}
	}

	var folders []models.Folder
	if data, err := e.st.Get(ctx, scope, store.CollectionFolders); err != nil {
		return err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &folders); err != nil {
			return fmt.Errorf("folders decode error: %w", err)
		}
	}

	var readings []models.Reading
	if data, err := e.st.Get(ctx, scope, store.CollectionReadings); err != nil {
		return err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &readings); err != nil {
			return fmt.Errorf("readings decode error: %w", err)
		}
	}

	e.mu.Lock()
	e.cardNotes = notes
	e.folders = folders
	e.readings = readings
	e.mu.Unlock()
	return nil
}

// fetchRemote loads the three collections concurrently. On success the
// remote data overwrites memory and the local store; on any failure local
// data stays and the error is recorded as a non-fatal sync error.
func (e *Engine) fetchRemote(ctx context.Context, owner remote.Owner) {
	e.syncing.Store(true)
	defer e.syncing.Store(false)

	var (
		wg       sync.WaitGroup
		notes    models.CardNotes
		folders  []models.Folder
		readings []models.Reading
		notesErr, foldersErr, readingsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		notes, notesErr = e.rs.CardNotes.GetAll(ctx, owner)
	}()
	go func() {
		defer wg.Done()
		folders, foldersErr = e.rs.Folders.GetAll(ctx, owner)
	}()
	go func() {
		defer wg.Done()
		readings, readingsErr = e.rs.Readings.GetAll(ctx, owner)
	}()
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, err := range []error{notesErr, foldersErr, readingsErr} {
		if err != nil {
			e.log.Warn(ctx, "remote load failed, keeping local data", "error", err)
			e.syncErr = err
			return
		}
	}

	if notes == nil {
		notes = models.CardNotes{}
	}
	e.cardNotes = notes
	e.folders = folders
	e.readings = readings
	e.syncErr = nil

	if err := e.persistNotesLocked(ctx); err != nil {
		e.syncErr = err
		return
	}
	if err := e.persistFoldersLocked(ctx); err != nil {
		e.syncErr = err
		return
	}
	if err := e.persistReadingsLocked(ctx); err != nil {
		e.syncErr = err
	}
}

func (e *Engine) persistNotesLocked(ctx context.Context) error {
	data, err := json.Marshal(e.cardNotes)
	if err != nil {
		return err
	}
	return e.st.Set(ctx, e.owner.ScopeKey(), store.CollectionCardNotes, data)
}

func (e *Engine) persistFoldersLocked(ctx context.Context) error {
	folders := e.folders
	if folders == nil {
		folders = []models.Folder{}
	}
	data, err := json.Marshal(folders)
	if err != nil {
		return err
	}
	return e.st.Set(ctx, e.owner.ScopeKey(), store.CollectionFolders, data)
}

func (e *Engine) persistReadingsLocked(ctx context.Context) error {
	readings := e.readings
	if readings == nil {
		readings = []models.Reading{}
	}
	data, err := json.Marshal(readings)
	if err != nil {
		return err
	}
	return e.st.Set(ctx, e.owner.ScopeKey(), store.CollectionReadings, data)
}
