// Package postgres provides a Postgres-backed document store that mirrors
// the in-memory semantics, hydrating from the snapshots table on startup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"psidpanel/internal/infra/persistence/memory"
	"psidpanel/internal/storage/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/psidpanel?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists documents to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

var _ core.Store = (*Store)(nil)

// NewStore opens a Postgres-backed store using dsn (falls back to defaultDSN),
// ensures the snapshots table exists and loads every stored document.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure snapshots table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, kind, payload, updated_at FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	for rows.Next() {
		var (
			doc     core.Document
			kind    string
			updated time.Time
		)
		if err := rows.Scan(&doc.Name, &kind, &doc.Payload, &updated); err != nil {
			return nil, fmt.Errorf("scan snapshots: %w", err)
		}
		doc.Kind = core.Kind(kind)
		doc.UpdatedAt = updated.UTC()
		snapshot[doc.Name] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshot, nil
}

// Save upserts inside a transaction, then updates the in-memory copy.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	if err := core.ValidateName(doc.Name); err != nil {
		return err
	}
	doc = s.Stamp(doc)
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots(name,kind,payload,updated_at) VALUES($1,$2,$3,$4) ON CONFLICT(name) DO UPDATE SET kind=EXCLUDED.kind, payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		doc.Name, string(doc.Kind), doc.Payload, doc.UpdatedAt); err != nil {
		return fmt.Errorf("upsert %s: %w", doc.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return s.Store.Save(ctx, doc)
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name=$1`, name); err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	return s.Store.Delete(ctx, name)
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
