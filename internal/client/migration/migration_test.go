package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanadev/arcana/internal/client/models"
	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/client/store"
	"github.com/arcanadev/arcana/internal/client/sync"
	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/logging"

	_ "modernc.org/sqlite"
)

var errUpstream = errors.New("upstream error")

type fakeAccount struct {
	folders      []models.Folder
	readings     []models.Reading
	notes        map[string]string
	folderIDs    map[string]string // client id → account id
	failFolder   string            // fail creating this folder id
	failReading  string
	failNote     string
	ownersSeen   []remote.Owner
	folderCalls  int
	readingCalls int
	noteCalls    int
}

func (f *fakeAccount) GetAll(ctx context.Context, owner remote.Owner) ([]models.Folder, error) {
	return f.folders, nil
}

func (f *fakeAccount) Create(ctx context.Context, folder models.Folder, owner remote.Owner) (models.Folder, error) {
	f.folderCalls++
	f.ownersSeen = append(f.ownersSeen, owner)
	if folder.ID == f.failFolder {
		return models.Folder{}, errUpstream
	}
	if sid, ok := f.folderIDs[folder.ID]; ok {
		folder.ID = sid
	}
	f.folders = append(f.folders, folder)
	return folder, nil
}

func (f *fakeAccount) Rename(ctx context.Context, id, name string, owner remote.Owner) (models.Folder, error) {
	return models.Folder{ID: id, Name: name}, nil
}

func (f *fakeAccount) Delete(ctx context.Context, id string, owner remote.Owner) error {
	return nil
}

type fakeAccountReadings struct {
	acc *fakeAccount
}

func (f *fakeAccountReadings) GetAll(ctx context.Context, owner remote.Owner) ([]models.Reading, error) {
	return f.acc.readings, nil
}

func (f *fakeAccountReadings) Create(ctx context.Context, r models.Reading, owner remote.Owner) (models.Reading, error) {
	f.acc.readingCalls++
	if r.ID == f.acc.failReading {
		return models.Reading{}, errUpstream
	}
	f.acc.readings = append(f.acc.readings, r)
	return r, nil
}

func (f *fakeAccountReadings) Update(ctx context.Context, id string, u models.ReadingUpdate, owner remote.Owner) (models.Reading, error) {
	return models.Reading{ID: id}, nil
}

func (f *fakeAccountReadings) Delete(ctx context.Context, id string, owner remote.Owner) error {
	return nil
}

func (f *fakeAccountReadings) DeleteByFolder(ctx context.Context, folderID string, owner remote.Owner) error {
	return nil
}

type fakeAccountNotes struct {
	acc *fakeAccount
}

func (f *fakeAccountNotes) GetAll(ctx context.Context, owner remote.Owner) (models.CardNotes, error) {
	return f.acc.notes, nil
}

func (f *fakeAccountNotes) Upsert(ctx context.Context, cardID, notes string, owner remote.Owner) error {
	f.acc.noteCalls++
	if cardID == f.acc.failNote {
		return errUpstream
	}
	if f.acc.notes == nil {
		f.acc.notes = map[string]string{}
	}
	f.acc.notes[cardID] = notes
	return nil
}

type migEnv struct {
	st     *store.Store
	acc    *fakeAccount
	mig    *Migrator
	device remote.Owner
	user   remote.Owner
}

func newMigEnv(t *testing.T) *migEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.RunMigrations(context.Background(), db))

	st := store.New(db)
	acc := &fakeAccount{}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	mig := New(st, sync.RemoteStore{
		Folders:   acc,
		Readings:  &fakeAccountReadings{acc: acc},
		CardNotes: &fakeAccountNotes{acc: acc},
	}, log)

	return &migEnv{
		st:     st,
		acc:    acc,
		mig:    mig,
		device: remote.Owner{Kind: remote.OwnerDevice, ID: "d1"},
		user:   remote.Owner{Kind: remote.OwnerUser, ID: "u1"},
	}
}

func (env *migEnv) seed(t *testing.T, folders []models.Folder, readings []models.Reading, notes models.CardNotes) {
	t.Helper()
	ctx := context.Background()
	scope := env.device.ScopeKey()
	if folders != nil {
		data, _ := json.Marshal(folders)
		require.NoError(t, env.st.Set(ctx, scope, store.CollectionFolders, data))
	}
	if readings != nil {
		data, _ := json.Marshal(readings)
		require.NoError(t, env.st.Set(ctx, scope, store.CollectionReadings, data))
	}
	if notes != nil {
		data, _ := json.Marshal(notes)
		require.NoError(t, env.st.Set(ctx, scope, store.CollectionCardNotes, data))
	}
}

func TestMigrator_EmptyDeviceCompletesWithoutRemoteCalls(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	done, err := env.mig.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, env.acc.folderCalls)
	assert.Zero(t, env.acc.readingCalls)
	assert.Zero(t, env.acc.noteCalls)
}

func TestMigrator_MovesAllDataToUserOwner(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.seed(t,
		[]models.Folder{{ID: "f1", Name: "Daily"}},
		[]models.Reading{{ID: "r1", FolderID: "f1", Date: "2024-01-01"}},
		models.CardNotes{"major-00": "beginnings"},
	)

	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	assert.Equal(t, 1, env.acc.folderCalls)
	assert.Equal(t, 1, env.acc.readingCalls)
	assert.Equal(t, 1, env.acc.noteCalls)
	for _, o := range env.acc.ownersSeen {
		assert.Equal(t, remote.OwnerUser, o.Kind)
		assert.Equal(t, "u1", o.ID)
	}

	done, err := env.mig.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestMigrator_RewritesReadingFolderIDs(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.acc.folderIDs = map[string]string{"f1": "acct-f1"}
	env.seed(t,
		[]models.Folder{{ID: "f1", Name: "Daily"}},
		[]models.Reading{{ID: "r1", FolderID: "f1", Date: "2024-01-01"}},
		nil,
	)

	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	require.Len(t, env.acc.readings, 1)
	assert.Equal(t, "acct-f1", env.acc.readings[0].FolderID)
}

func TestMigrator_SkipsEmptyNotes(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.seed(t, nil, nil, models.CardNotes{"major-00": "kept", "major-01": ""})

	require.NoError(t, env.mig.Run(ctx, env.device, env.user))
	assert.Equal(t, 1, env.acc.noteCalls)
	assert.Equal(t, "kept", env.acc.notes["major-00"])
}

func TestMigrator_ResumesFromCheckpointWithoutDuplicates(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.seed(t,
		[]models.Folder{{ID: "f1", Name: "A"}, {ID: "f2", Name: "B"}},
		[]models.Reading{{ID: "r1", FolderID: "f1", Date: "2024-01-01"}},
		models.CardNotes{"major-00": "n"},
	)

	// First run fails on the second folder.
	env.acc.failFolder = "f2"
	err := env.mig.Run(ctx, env.device, env.user)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMigrationIncomplete)

	done, err := env.mig.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	// Second run resumes: f1 is not recreated.
	env.acc.failFolder = ""
	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	assert.Equal(t, 3, env.acc.folderCalls) // f1, failed f2, retried f2
	assert.Len(t, env.acc.folders, 2)
	assert.Equal(t, 1, env.acc.readingCalls)
	assert.Equal(t, 1, env.acc.noteCalls)

	done, err = env.mig.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestMigrator_SecondRunAfterCompletionDoesNothing(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.seed(t, []models.Folder{{ID: "f1", Name: "Daily"}}, nil, nil)
	require.NoError(t, env.mig.Run(ctx, env.device, env.user))
	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	assert.Equal(t, 1, env.acc.folderCalls)
}

func TestMigrator_CheckpointClearedAfterCompletion(t *testing.T) {
	env := newMigEnv(t)
	ctx := context.Background()

	env.seed(t, []models.Folder{{ID: "f1", Name: "Daily"}}, nil, nil)
	require.NoError(t, env.mig.Run(ctx, env.device, env.user))

	v, err := env.st.GetMeta(ctx, store.MetaMigrationState)
	require.NoError(t, err)
	assert.Empty(t, v)
}
