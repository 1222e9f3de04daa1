// Package sessiontest provides a behavioural test suite that every
// session.Store implementation must pass.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/jotter/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds an empty store whose sessions live for ttl. users are ids
// that already exist in the backing store; at least two are required.
type Factory func(t *testing.T, ttl time.Duration) (store session.Store, users []int64)

// Run exercises the full session.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s, users := newStore(t, time.Hour)
		ctx := context.Background()

		sess, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		assert.Len(t, sess.Token, 64)
		assert.Equal(t, session.Hash(sess.Token), sess.TokenHash)
		assert.Equal(t, users[0], sess.UserID)
		assert.True(t, sess.ExpiresAt.After(time.Now()))

		got, err := s.Get(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, users[0], got.UserID)
		assert.Empty(t, got.Token, "stores must not hand back the raw token")
	})

	t.Run("TokensAreUnique", func(t *testing.T) {
		s, users := newStore(t, time.Hour)
		ctx := context.Background()

		a, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		b, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		assert.NotEqual(t, a.Token, b.Token)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		s, _ := newStore(t, time.Hour)

		_, err := s.Get(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, session.ErrNotFound)

		_, err = s.Get(context.Background(), "")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s, users := newStore(t, time.Hour)
		ctx := context.Background()

		sess, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, sess.Token))

		_, err = s.Get(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)

		// Deleting again is harmless.
		assert.NoError(t, s.Delete(ctx, sess.Token))
		assert.NoError(t, s.Delete(ctx, "never-issued"))
	})

	t.Run("DeleteByUserID", func(t *testing.T) {
		s, users := newStore(t, time.Hour)
		ctx := context.Background()

		a1, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		a2, err := s.Create(ctx, users[0])
		require.NoError(t, err)
		b, err := s.Create(ctx, users[1])
		require.NoError(t, err)

		require.NoError(t, s.DeleteByUserID(ctx, users[0]))

		for _, tok := range []string{a1.Token, a2.Token} {
			_, err := s.Get(ctx, tok)
			assert.ErrorIs(t, err, session.ErrNotFound)
		}
		got, err := s.Get(ctx, b.Token)
		require.NoError(t, err)
		assert.Equal(t, users[1], got.UserID)
	})

	t.Run("Expiry", func(t *testing.T) {
		s, users := newStore(t, 50*time.Millisecond)
		ctx := context.Background()

		sess, err := s.Create(ctx, users[0])
		require.NoError(t, err)

		time.Sleep(150 * time.Millisecond)

		_, err = s.Get(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)

		_, err = s.DeleteExpired(ctx)
		assert.NoError(t, err)
	})
}
