// Package store is the device-local durable store. It keeps whole
// serialized collections keyed by (owner, collection name) plus a small
// metadata table (device id, migration checkpoints). Every Set rewrites
// the full collection value, so the store never holds a partial write.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/arcanadev/arcana/internal/client/store/migrations"
)

// Collection names, one storage slot per owner each.
const (
	CollectionCardNotes  = "card-notes"
	CollectionFolders    = "folders"
	CollectionReadings   = "readings"
	CollectionPendingOps = "pending-ops"
)

// Metadata keys.
const (
	MetaDeviceID          = "device-id"
	MetaUserID            = "user-id"
	MetaAccessToken       = "access-token"
	MetaRefreshToken      = "refresh-token"
	MetaMigrationComplete = "migration-complete"
	MetaMigrationState    = "migration-state"
)

type Store struct {
	db *sql.DB
}

// New wraps an already-open database handle. The caller keeps ownership
// of the handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the SQLite database at dsn and applies
// schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store open error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store migration error: %w", err)
	}
	return &Store{db: db}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the serialized value of a collection for the owner, or nil
// if the collection has never been written.
func (s *Store) Get(ctx context.Context, owner, collection string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM collections WHERE owner_id = ? AND name = ?`,
		owner, collection).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", collection, err)
	}
	return value, nil
}

// Set replaces the full serialized value of a collection for the owner.
func (s *Store) Set(ctx context.Context, owner, collection string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (owner_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT(owner_id, name) DO UPDATE SET value = excluded.value
	`, owner, collection, value)
	if err != nil {
		return fmt.Errorf("failed to set collection %s: %w", collection, err)
	}
	return nil
}

// ClearOwner removes every collection stored for the owner.
func (s *Store) ClearOwner(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE owner_id = ?`, owner)
	if err != nil {
		return fmt.Errorf("failed to clear owner %s: %w", owner, err)
	}
	return nil
}

// GetMeta returns the metadata value for key, or nil if absent.
func (s *Store) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetMeta(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// DB exposes the underlying handle for callers that need transactional
// access via dbx.WithTx.
func (s *Store) DB() *sql.DB {
	return s.db
}
