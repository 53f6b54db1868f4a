package ports

import (
	"context"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
)

// NoteStore is a long-term memory backend.
// It satisfies domain.LongTermStore, so it can be plugged into Context.Memory.
type NoteStore interface {
	domain.LongTermStore

	// Notes returns every stored note, oldest first.
	Notes(ctx context.Context) ([]string, error)

	// Clear removes every note.
	Clear(ctx context.Context) error
}

// FilterNotes returns the notes containing query (case-insensitive), newest
// first. A blank query matches every note.
func FilterNotes(notes []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	hits := make([]string, 0, len(notes))
	for i := len(notes) - 1; i >= 0; i-- {
		if query == "" || strings.Contains(strings.ToLower(notes[i]), query) {
			hits = append(hits, notes[i])
		}
	}
	return hits
}
