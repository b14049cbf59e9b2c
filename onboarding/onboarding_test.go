package onboarding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-client/onboarding"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/storefake"
)

// TestFlag_Lifecycle checks the flag across first run, completion and reset
func TestFlag_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := storefake.NewFakeStore()
	flag := onboarding.New(store)

	seen, err := flag.HasSeen(ctx)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, flag.MarkSeen(ctx))
	require.Equal(t, "true", store.Value(storage.KeyHasSeenOnboarding))
	seen, err = flag.HasSeen(ctx)
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, flag.Reset(ctx))
	seen, err = flag.HasSeen(ctx)
	require.NoError(t, err)
	require.False(t, seen)
}

func TestFlag_UnexpectedValue(t *testing.T) {
	ctx := context.Background()
	store := storefake.NewFakeStore()
	require.NoError(t, store.Set(ctx, storage.KeyHasSeenOnboarding, "nope"))

	seen, err := onboarding.New(store).HasSeen(ctx)
	require.NoError(t, err)
	require.False(t, seen)
}

func TestFlag_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := storefake.NewFakeStore()
	boom := errors.New("locked")
	store.FailOn("get", storage.KeyHasSeenOnboarding, boom)
	store.FailOn("set", storage.KeyHasSeenOnboarding, boom)

	flag := onboarding.New(store)
	_, err := flag.HasSeen(ctx)
	require.ErrorIs(t, err, boom)
	require.EqualError(t, err, "[HasSeen] read flag: locked")
	require.ErrorIs(t, flag.MarkSeen(ctx), boom)
}
