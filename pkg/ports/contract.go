package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNoteStoreContract runs a suite of tests to verify that a NoteStore
// implementation adheres to the interface contract. The store must start empty.
func RunNoteStoreContract(t *testing.T, store NoteStore) {
	ctx := context.Background()

	t.Run("Write and list", func(t *testing.T) {
		require.NoError(t, store.WriteNote(ctx, "the sky is blue"))
		require.NoError(t, store.WriteNote(ctx, "grass is green"))

		notes, err := store.Notes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"the sky is blue", "grass is green"}, notes)
	})

	t.Run("Search is case-insensitive and newest first", func(t *testing.T) {
		require.NoError(t, store.WriteNote(ctx, "The SKY at night"))

		hits, err := store.Search(ctx, "sky")
		require.NoError(t, err)
		assert.Equal(t, []string{"The SKY at night", "the sky is blue"}, hits)
	})

	t.Run("Empty query returns everything", func(t *testing.T) {
		hits, err := store.Search(ctx, "  ")
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("No match", func(t *testing.T) {
		hits, err := store.Search(ctx, "purple")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		notes, err := store.Notes(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

// RunLockerContract verifies mutual exclusion and release semantics of a
// DistributedLocker implementation.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()

	t.Run("Exclusive until released", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "agent", time.Minute)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, "agent", time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, "agent", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Keys are independent", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, "a", time.Minute)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		unlockB, err := locker.Lock(ctx, "b", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlockB(ctx))
	})
}
