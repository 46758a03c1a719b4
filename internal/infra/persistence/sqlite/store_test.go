package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"psidpanel/internal/storage/core"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "panel.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(ctx, core.Document{Name: "psid-2019", Kind: core.KindPanel, Payload: []byte(`{"columns":["income"]}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, core.Document{Name: "psid-2019", Kind: core.KindPanel, Payload: []byte(`{"columns":["wealth"]}`)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Save(ctx, core.Document{Name: "moves", Kind: core.KindTransitions, Payload: []byte(`[]`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, err := store.Delete(ctx, "moves"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if reopened.Path() != path || reopened.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected store %s %s", reopened.Path(), reopened.Driver())
	}
	doc, err := reopened.Load(ctx, "psid-2019")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Payload) != `{"columns":["wealth"]}` || doc.UpdatedAt.IsZero() {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if _, err := reopened.Load(ctx, "moves"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted doc to stay deleted, got %v", err)
	}
	var count int
	if err := reopened.DB().QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected one row, got %d %v", count, err)
	}
}

func TestStoreRejectsEmptyName(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(context.Background(), core.Document{}); err == nil {
		t.Fatalf("expected error")
	}
}
