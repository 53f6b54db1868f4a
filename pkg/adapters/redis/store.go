package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/catena/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.NoteStore using a Redis list.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of the note list, refreshed on every write.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix, e.g. per agent or per user.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "catena:memory:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

var _ ports.NoteStore = (*Store)(nil)

func (s *Store) key() string {
	return s.prefix + "notes"
}

// WriteNote appends a note to the list.
func (s *Store) WriteNote(ctx context.Context, note string) error {
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key(), note)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write note to redis: %w", err)
	}
	return nil
}

// Search returns the notes matching query, newest first.
// Matching happens client-side over the whole list.
func (s *Store) Search(ctx context.Context, query string) ([]string, error) {
	notes, err := s.Notes(ctx)
	if err != nil {
		return nil, err
	}
	return ports.FilterNotes(notes, query), nil
}

// Notes returns every note, oldest first.
func (s *Store) Notes(ctx context.Context) ([]string, error) {
	notes, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil && err != backend.Nil {
		return nil, fmt.Errorf("failed to read notes from redis: %w", err)
	}
	return notes, nil
}

// Clear removes the note list.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
