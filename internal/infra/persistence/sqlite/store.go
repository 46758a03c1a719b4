// Package sqlite persists documents to a single SQLite table. The table is
// read into an in-memory store at open and every change is written through.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"psidpanel/internal/infra/persistence/memory"
	"psidpanel/internal/storage/core"
)

const defaultPath = "psidpanel.db"

// Store is a write-through SQLite store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var _ core.Store = (*Store)(nil)

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT name, kind, payload, updated_at FROM snapshots`)
	if err != nil {
		return fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	for rows.Next() {
		var (
			doc     core.Document
			kind    string
			updated string
		)
		if err := rows.Scan(&doc.Name, &kind, &doc.Payload, &updated); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		doc.Kind = core.Kind(kind)
		if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return fmt.Errorf("decode updated_at for %s: %w", doc.Name, err)
		}
		snapshot[doc.Name] = doc
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshots: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

// Save upserts the row and then updates the in-memory copy.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	if err := core.ValidateName(doc.Name); err != nil {
		return err
	}
	doc = s.Stamp(doc)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(name,kind,payload,updated_at) VALUES(?,?,?,?) ON CONFLICT(name) DO UPDATE SET kind=excluded.kind, payload=excluded.payload, updated_at=excluded.updated_at`,
		doc.Name, string(doc.Kind), doc.Payload, doc.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert %s: %w", doc.Name, err)
	}
	return s.Store.Save(ctx, doc)
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name=?`, name); err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	return s.Store.Delete(ctx, name)
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
