// Package store persists the last good derived views of each document so a
// freshly opened file has completion and navigation data before its first
// successful parse.
package store

import (
	"errors"
	"sync"

	"github.com/liasis/editor/internal/analysis"
)

// ErrNotFound marks a document with no persisted record.
var ErrNotFound = errors.New("no snapshot record for document")

// Record is the persisted subset of a derived snapshot. Highlight ranges are
// cursor-dependent and deliberately not persisted.
type Record struct {
	Symbols    analysis.SymbolTable     `json:"symbols"`
	Navigation analysis.NavigationIndex `json:"navigation"`
	SavedAt    int64                    `json:"savedAt"`
}

// Store persists per-document records keyed by document identifier.
type Store interface {
	Load(doc string) (Record, error)
	Save(doc string, rec Record) error
	Delete(doc string) error
	Close() error
}

// MemoryStore is an in-process Store for sessions that disable persistence,
// and for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(doc string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[doc]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Save(doc string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[doc] = rec
	return nil
}

func (s *MemoryStore) Delete(doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, doc)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
