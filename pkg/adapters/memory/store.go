package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/catena/pkg/ports"
)

// Store implements ports.NoteStore in memory.
// Safe for concurrent use.
type Store struct {
	notes []string
	mu    sync.RWMutex
}

// NewStore creates a new in-memory note store, optionally seeded with notes.
func NewStore(notes ...string) *Store {
	return &Store{notes: slices.Clone(notes)}
}

// WriteNote appends a note.
func (s *Store) WriteNote(ctx context.Context, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

// Search returns the notes matching query, newest first.
func (s *Store) Search(ctx context.Context, query string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.FilterNotes(s.notes, query), nil
}

// Notes returns a copy of every note, oldest first.
func (s *Store) Notes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes), nil
}

// Clear removes every note.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	return nil
}
