package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db))
	return New(db)
}

func TestStore_GetMissingCollectionReturnsNil(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	v, err := s.Get(ctx, "device:d1", CollectionFolders)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_SetOverwritesFullValue(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "device:d1", CollectionFolders, []byte(`[{"id":"f1"}]`)))
	require.NoError(t, s.Set(ctx, "device:d1", CollectionFolders, []byte(`[]`)))

	v, err := s.Get(ctx, "device:d1", CollectionFolders)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
}

func TestStore_CollectionsAreOwnerScoped(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "device:d1", CollectionReadings, []byte(`["a"]`)))
	require.NoError(t, s.Set(ctx, "user:u1", CollectionReadings, []byte(`["b"]`)))

	v1, err := s.Get(ctx, "device:d1", CollectionReadings)
	require.NoError(t, err)
	v2, err := s.Get(ctx, "user:u1", CollectionReadings)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a"]`), v1)
	assert.Equal(t, []byte(`["b"]`), v2)
}

func TestStore_ClearOwnerRemovesOnlyThatOwner(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "device:d1", CollectionFolders, []byte(`["a"]`)))
	require.NoError(t, s.Set(ctx, "device:d1", CollectionReadings, []byte(`["b"]`)))
	require.NoError(t, s.Set(ctx, "user:u1", CollectionFolders, []byte(`["c"]`)))

	require.NoError(t, s.ClearOwner(ctx, "device:d1"))

	v, err := s.Get(ctx, "device:d1", CollectionFolders)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = s.Get(ctx, "user:u1", CollectionFolders)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["c"]`), v)
}

func TestStore_Metadata(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	v, err := s.GetMeta(ctx, MetaDeviceID)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.SetMeta(ctx, MetaDeviceID, []byte("d1")))
	require.NoError(t, s.SetMeta(ctx, MetaDeviceID, []byte("d2")))

	v, err = s.GetMeta(ctx, MetaDeviceID)
	require.NoError(t, err)
	assert.Equal(t, []byte("d2"), v)

	require.NoError(t, s.DeleteMeta(ctx, MetaDeviceID))
	v, err = s.GetMeta(ctx, MetaDeviceID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/arcana.db"
	ctx := context.Background()

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "device:d1", CollectionPendingOps, []byte(`[{"type":"CREATE_FOLDER"}]`)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "device:d1", CollectionPendingOps)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"type":"CREATE_FOLDER"}]`), v)
}
