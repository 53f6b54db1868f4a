package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/catena/pkg/ports"
)

// Mask replaces every redacted fragment of a note.
const Mask = "***"

// Common patterns for NewPIIMiddleware.
const (
	EmailPattern = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`
	PhonePattern = `\+?\d[\d\s().-]{7,}\d`
)

type piiMiddleware struct {
	next     ports.NoteStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks every fragment of a note
// matching one of the patterns before it is written. Reads are untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.NoteStore) ports.NoteStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) WriteNote(ctx context.Context, note string) error {
	for _, p := range m.patterns {
		note = p.ReplaceAllString(note, Mask)
	}
	return m.next.WriteNote(ctx, note)
}

func (m *piiMiddleware) Search(ctx context.Context, query string) ([]string, error) {
	return m.next.Search(ctx, query)
}

func (m *piiMiddleware) Notes(ctx context.Context) ([]string, error) {
	return m.next.Notes(ctx)
}

func (m *piiMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}
