// Package core defines the document store contract used to keep built
// panels and transition sets by name, independent of any backend.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Driver identifies a concrete persistent storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Kind tags what a document holds.
type Kind string

const (
	KindPanel       Kind = "panel"
	KindTransitions Kind = "transitions"
)

// Document is one named, JSON-encoded artifact.
type Document struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Payload   []byte    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	d.Payload = append([]byte(nil), d.Payload...)
	return d
}

// Store keeps documents keyed by name. Saving an existing name replaces it.
type Store interface {
	Save(ctx context.Context, doc Document) error
	// Load returns ErrNotFound (wrapped) for an unknown name.
	Load(ctx context.Context, name string) (Document, error)
	// List returns documents of kind ordered by name; an empty kind lists all.
	List(ctx context.Context, kind Kind) ([]Document, error)
	// Delete reports whether the name existed.
	Delete(ctx context.Context, name string) (bool, error)
	Driver() Driver
	Close() error
}

// ErrNotFound marks an unknown document name.
var ErrNotFound = errors.New("storage: document not found")

// NotFound wraps ErrNotFound with the name.
func NotFound(name string) error { return fmt.Errorf("document %s: %w", name, ErrNotFound) }

// ValidateName rejects empty names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("document name required")
	}
	return nil
}

// SortByName orders documents in place.
func SortByName(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
}
