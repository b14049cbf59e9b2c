// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-session-client/storage"
	"github.com/stretchr/testify/require"
)

// RunContract exercises a backend. newStore must return an empty store; reopen, when not nil,
// must return a second handle onto the same durable data.
func RunContract(t *testing.T, newStore func(t *testing.T) storage.Store, reopen func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, storage.KeyUserToken)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyUserToken, "tok-1"))
		v, ok, err := s.Get(ctx, storage.KeyUserToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "tok-1", v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyUserInfo, `{"user_id":1}`))
		require.NoError(t, s.Set(ctx, storage.KeyUserInfo, `{"user_id":2}`))
		v, _, err := s.Get(ctx, storage.KeyUserInfo)
		require.NoError(t, err)
		require.Equal(t, `{"user_id":2}`, v)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyUserToken, "tok-1"))
		require.NoError(t, s.Set(ctx, storage.KeyUserInfo, "{}"))
		require.NoError(t, s.Remove(ctx, storage.KeyUserToken))

		_, ok, err := s.Get(ctx, storage.KeyUserToken)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.Get(ctx, storage.KeyUserInfo)
		require.NoError(t, err)
		require.True(t, ok, "other keys are untouched")
	})

	t.Run("remove missing key", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Remove(ctx, "never-set"))
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyHasSeenOnboarding, ""))
		_, ok, err := s.Get(ctx, storage.KeyHasSeenOnboarding)
		require.NoError(t, err)
		require.True(t, ok)
	})

	if reopen == nil {
		return
	}

	t.Run("survives reopen", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyUserToken, "durable"))

		again := reopen(t)
		v, ok, err := again.Get(ctx, storage.KeyUserToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "durable", v)
	})
}
