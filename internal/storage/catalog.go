package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"psidpanel/internal/panel"
	"psidpanel/internal/transition"
)

// KindMismatchError is returned when a name holds a different kind of document.
type KindMismatchError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e KindMismatchError) Error() string {
	return fmt.Sprintf("document %s is a %s, not a %s", e.Name, e.Got, e.Want)
}

// Catalog saves and restores panels and transition sets by name.
type Catalog struct {
	store Store
}

// NewCatalog wraps store.
func NewCatalog(store Store) *Catalog { return &Catalog{store: store} }

// Store returns the backing store.
func (c *Catalog) Store() Store { return c.store }

// SavePanel stores p under name, replacing any previous document.
func (c *Catalog) SavePanel(ctx context.Context, name string, p *panel.Panel) error {
	payload, err := json.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("encode panel %s: %w", name, err)
	}
	return c.store.Save(ctx, Document{Name: name, Kind: KindPanel, Payload: payload})
}

// LoadPanel restores a panel; the rebuilt panel is revalidated.
func (c *Catalog) LoadPanel(ctx context.Context, name string) (*panel.Panel, error) {
	doc, err := c.load(ctx, name, KindPanel)
	if err != nil {
		return nil, err
	}
	var snap panel.Snapshot
	if err := json.Unmarshal(doc.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode panel %s: %w", name, err)
	}
	p, err := panel.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("restore panel %s: %w", name, err)
	}
	return p, nil
}

// SaveTransitions stores classified records under name.
func (c *Catalog) SaveTransitions(ctx context.Context, name string, records []transition.Record) error {
	if records == nil {
		records = []transition.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode transitions %s: %w", name, err)
	}
	return c.store.Save(ctx, Document{Name: name, Kind: KindTransitions, Payload: payload})
}

func (c *Catalog) LoadTransitions(ctx context.Context, name string) ([]transition.Record, error) {
	doc, err := c.load(ctx, name, KindTransitions)
	if err != nil {
		return nil, err
	}
	var records []transition.Record
	if err := json.Unmarshal(doc.Payload, &records); err != nil {
		return nil, fmt.Errorf("decode transitions %s: %w", name, err)
	}
	return records, nil
}

// List returns saved documents of kind (all kinds when empty).
func (c *Catalog) List(ctx context.Context, kind Kind) ([]Document, error) {
	return c.store.List(ctx, kind)
}

func (c *Catalog) Delete(ctx context.Context, name string) (bool, error) {
	return c.store.Delete(ctx, name)
}

func (c *Catalog) load(ctx context.Context, name string, kind Kind) (Document, error) {
	doc, err := c.store.Load(ctx, name)
	if err != nil {
		return Document{}, err
	}
	if doc.Kind != kind {
		return Document{}, KindMismatchError{Name: name, Want: kind, Got: doc.Kind}
	}
	return doc, nil
}
