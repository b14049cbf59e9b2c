// Package onboarding tracks whether the first-run screens have been shown on this device.
package onboarding

import (
	"context"

	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/storage"
)

const seenValue = "true"

// Flag reads and writes the hasSeenOnboarding key.
type Flag struct {
	store storage.Store
}

func New(store storage.Store) *Flag {
	return &Flag{store: store}
}

// HasSeen reports whether onboarding was completed. A missing key means not seen.
func (f *Flag) HasSeen(ctx context.Context) (bool, error) {
	v, ok, err := f.store.Get(ctx, storage.KeyHasSeenOnboarding)
	if err != nil {
		return false, apierrors.Wrapf(err, "[HasSeen] read flag")
	}
	return ok && v == seenValue, nil
}

func (f *Flag) MarkSeen(ctx context.Context) error {
	if err := f.store.Set(ctx, storage.KeyHasSeenOnboarding, seenValue); err != nil {
		return apierrors.Wrapf(err, "[MarkSeen] write flag")
	}
	return nil
}

// Reset clears the flag so onboarding is shown again.
func (f *Flag) Reset(ctx context.Context) error {
	if err := f.store.Remove(ctx, storage.KeyHasSeenOnboarding); err != nil {
		return apierrors.Wrapf(err, "[Reset] remove flag")
	}
	return nil
}
