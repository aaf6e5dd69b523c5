// Package migration moves a device's anonymous journal data into a user
// account after the first sign-in. The migration is checkpointed: every
// record pushed to the account is recorded in local metadata, so an
// interrupted run resumes where it stopped instead of duplicating data.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arcanadev/arcana/internal/client/models"
	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/client/store"
	"github.com/arcanadev/arcana/internal/client/sync"
	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/logging"
)

// checkpoint is the persisted migration progress. Folder ids are mapped
// device id → account id so readings migrated later keep pointing at the
// right folder.
type checkpoint struct {
	FolderIDs    map[string]string `json:"folderIds"`
	ReadingsDone map[string]bool   `json:"readingsDone"`
	NotesDone    map[string]bool   `json:"notesDone"`
}

func newCheckpoint() *checkpoint {
	return &checkpoint{
		FolderIDs:    map[string]string{},
		ReadingsDone: map[string]bool{},
		NotesDone:    map[string]bool{},
	}
}

type Migrator struct {
	st  *store.Store
	rs  sync.RemoteStore
	log logging.Logger
}

func New(st *store.Store, rs sync.RemoteStore, log logging.Logger) *Migrator {
	return &Migrator{st: st, rs: rs, log: log}
}

// Completed reports whether the device's data has already been migrated.
func (m *Migrator) Completed(ctx context.Context) (bool, error) {
	v, err := m.st.GetMeta(ctx, store.MetaMigrationComplete)
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

// Run migrates the device-scoped collections to the user's account. It is
// safe to call repeatedly: a completed migration returns immediately, and
// a partially completed one resumes from its checkpoint. The completion
// flag is only written after a whole pass with no failures.
func (m *Migrator) Run(ctx context.Context, device, user remote.Owner) error {
	done, err := m.Completed(ctx)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	cp, err := m.loadCheckpoint(ctx)
	if err != nil {
		return err
	}

	folders, readings, notes, err := m.loadDeviceData(ctx, device)
	if err != nil {
		return err
	}

	if len(folders) == 0 && len(readings) == 0 && len(notes) == 0 {
		m.log.Info(ctx, "no device data to migrate")
		return m.finish(ctx)
	}

	if err := m.migrateFolders(ctx, cp, folders, user); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMigrationIncomplete, err)
	}
	if err := m.migrateReadings(ctx, cp, readings, user); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMigrationIncomplete, err)
	}
	if err := m.migrateNotes(ctx, cp, notes, user); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMigrationIncomplete, err)
	}

	m.log.Info(ctx, "migration finished",
		"folders", len(folders), "readings", len(readings), "notes", len(notes))
	return m.finish(ctx)
}

func (m *Migrator) migrateFolders(ctx context.Context, cp *checkpoint, folders []models.Folder, user remote.Owner) error {
	for _, f := range folders {
		if _, ok := cp.FolderIDs[f.ID]; ok {
			continue
		}
		created, err := m.rs.Folders.Create(ctx, f, user)
		if err != nil {
			return fmt.Errorf("folder %q: %v", f.ID, err)
		}
		cp.FolderIDs[f.ID] = created.ID
		if err := m.saveCheckpoint(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateReadings(ctx context.Context, cp *checkpoint, readings []models.Reading, user remote.Owner) error {
	for _, r := range readings {
		if cp.ReadingsDone[r.ID] {
			continue
		}
		if mapped, ok := cp.FolderIDs[r.FolderID]; ok {
			r.FolderID = mapped
		}
		if _, err := m.rs.Readings.Create(ctx, r, user); err != nil {
			return fmt.Errorf("reading %q: %v", r.ID, err)
		}
		cp.ReadingsDone[r.ID] = true
		if err := m.saveCheckpoint(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateNotes(ctx context.Context, cp *checkpoint, notes models.CardNotes, user remote.Owner) error {
	cardIDs := make([]string, 0, len(notes))
	for id := range notes {
		cardIDs = append(cardIDs, id)
	}
	sort.Strings(cardIDs)

	for _, cardID := range cardIDs {
		if notes[cardID] == "" || cp.NotesDone[cardID] {
			continue
		}
		if err := m.rs.CardNotes.Upsert(ctx, cardID, notes[cardID], user); err != nil {
			return fmt.Errorf("card note %q: %v", cardID, err)
		}
		cp.NotesDone[cardID] = true
		if err := m.saveCheckpoint(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) finish(ctx context.Context) error {
	if err := m.st.SetMeta(ctx, store.MetaMigrationComplete, []byte("true")); err != nil {
		return err
	}
	return m.st.DeleteMeta(ctx, store.MetaMigrationState)
}

func (m *Migrator) loadCheckpoint(ctx context.Context) (*checkpoint, error) {
	v, err := m.st.GetMeta(ctx, store.MetaMigrationState)
	if err != nil {
		return nil, err
	}
	cp := newCheckpoint()
	if len(v) == 0 {
		return cp, nil
	}
	if err := json.Unmarshal(v, cp); err != nil {
		m.log.Warn(ctx, "migration checkpoint unreadable, starting over", "error", err)
		return newCheckpoint(), nil
	}
	return cp, nil
}

func (m *Migrator) saveCheckpoint(ctx context.Context, cp *checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return m.st.SetMeta(ctx, store.MetaMigrationState, data)
}

func (m *Migrator) loadDeviceData(ctx context.Context, device remote.Owner) ([]models.Folder, []models.Reading, models.CardNotes, error) {
	scope := device.ScopeKey()

	var folders []models.Folder
	if data, err := m.st.Get(ctx, scope, store.CollectionFolders); err != nil {
		return nil, nil, nil, err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &folders); err != nil {
			return nil, nil, nil, err
		}
	}

	var readings []models.Reading
	if data, err := m.st.Get(ctx, scope, store.CollectionReadings); err != nil {
		return nil, nil, nil, err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &readings); err != nil {
			return nil, nil, nil, err
		}
	}

	notes := models.CardNotes{}
	if data, err := m.st.Get(ctx, scope, store.CollectionCardNotes); err != nil {
		return nil, nil, nil, err
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &notes); err != nil {
			return nil, nil, nil, err
		}
	}

	return folders, readings, notes, nil
}
