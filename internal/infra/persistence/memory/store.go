// Package memory provides the in-memory document store. The SQL backends
// hydrate one of these at open time and write through on every change.
package memory

import (
	"context"
	"sync"
	"time"

	"psidpanel/internal/storage/core"
)

// Snapshot is the full store state keyed by document name.
type Snapshot map[string]core.Document

// Store is a mutex-guarded map of documents.
type Store struct {
	mu   sync.RWMutex
	docs map[string]core.Document
	now  func() time.Time
}

var _ core.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]core.Document), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Close() error { return nil }

// Stamp fills UpdatedAt when unset and returns the stored copy.
func (s *Store) Stamp(doc core.Document) core.Document {
	doc = doc.Clone()
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = s.now()
	}
	return doc
}

func (s *Store) Save(ctx context.Context, doc core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateName(doc.Name); err != nil {
		return err
	}
	doc = s.Stamp(doc)
	s.mu.Lock()
	s.docs[doc.Name] = doc
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(ctx context.Context, name string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}
	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return core.Document{}, core.NotFound(name)
	}
	return doc.Clone(), nil
}

func (s *Store) List(ctx context.Context, kind core.Kind) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]core.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if kind == "" || doc.Kind == kind {
			out = append(out, doc.Clone())
		}
	}
	s.mu.RUnlock()
	core.SortByName(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return false, nil
	}
	delete(s.docs, name)
	return true, nil
}

// ExportState returns a deep copy of every document.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.docs))
	for name, doc := range s.docs {
		out[name] = doc.Clone()
	}
	return out
}

// ImportState replaces the store contents.
func (s *Store) ImportState(snapshot Snapshot) {
	docs := make(map[string]core.Document, len(snapshot))
	for name, doc := range snapshot {
		doc = doc.Clone()
		doc.Name = name
		docs[name] = doc
	}
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}
