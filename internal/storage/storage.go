// Package storage selects the persistent backend for saved panels and
// transition sets. Callers depend on the Store interface and the Catalog;
// only this package wires the concrete backends.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	memstore "psidpanel/internal/infra/persistence/memory"
	pgstore "psidpanel/internal/infra/persistence/postgres"
	sqlitestore "psidpanel/internal/infra/persistence/sqlite"
	"psidpanel/internal/storage/core"
)

type (
	Store    = core.Store
	Driver   = core.Driver
	Document = core.Document
	Kind     = core.Kind
)

const (
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres

	KindPanel       = core.KindPanel
	KindTransitions = core.KindTransitions
)

var ErrNotFound = core.ErrNotFound

// Config selects a backend. An empty driver means sqlite.
type Config struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ApplyEnv overlays PSIDPANEL_* storage variables onto c.
//
//	PSIDPANEL_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	PSIDPANEL_SQLITE_PATH: path to sqlite file (default ./psidpanel.db)
//	PSIDPANEL_POSTGRES_DSN: postgres DSN when driver=postgres
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("PSIDPANEL_STORAGE_DRIVER"); v != "" {
		c.Driver = v
	}
	if v := getenv("PSIDPANEL_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := getenv("PSIDPANEL_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	return c
}

// Open constructs the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memstore.NewStore(), nil
	case DriverSQLite:
		return sqlitestore.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return pgstore.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store { return memstore.NewStore() }
