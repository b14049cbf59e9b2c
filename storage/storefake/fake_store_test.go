package storefake_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/storagetest"
	"github.com/jrsteele09/go-session-client/storage/storefake"
	"github.com/stretchr/testify/require"
)

func TestFakeStore_Contract(t *testing.T) {
	storagetest.RunContract(t, func(t *testing.T) storage.Store {
		return storefake.NewFakeStore()
	}, nil)
}

func TestFakeStore_FailOn(t *testing.T) {
	ctx := context.Background()
	s := storefake.NewFakeStore()
	boom := errors.New("disk full")

	s.FailOn("set", storage.KeyUserToken, boom)
	require.ErrorIs(t, s.Set(ctx, storage.KeyUserToken, "x"), boom)
	require.False(t, s.Has(storage.KeyUserToken))

	s.FailOn("set", storage.KeyUserToken, nil)
	require.NoError(t, s.Set(ctx, storage.KeyUserToken, "x"))
	require.Equal(t, "x", s.Value(storage.KeyUserToken))
}

// TestFakeStore_Hold checks a held call returns what it read once released, and only one call is held
func TestFakeStore_Hold(t *testing.T) {
	ctx := context.Background()
	s := storefake.NewFakeStore()
	require.NoError(t, s.Set(ctx, storage.KeyUserToken, "tok"))

	entered, release := s.Hold("get", storage.KeyUserToken)
	done := make(chan string, 1)
	go func() {
		v, _, _ := s.Get(ctx, storage.KeyUserToken)
		done <- v
	}()

	<-entered
	require.NoError(t, s.Remove(ctx, storage.KeyUserToken), "other calls are not held")
	release()
	require.Equal(t, "tok", <-done, "the held call read before the remove")

	_, ok, err := s.Get(ctx, storage.KeyUserToken)
	require.NoError(t, err)
	require.False(t, ok)
	release()
}
