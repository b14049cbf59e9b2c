package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/token"
	"github.com/jrsteele09/go-session-client/users"
)

const opRestore = "restore"

// Restore describes the outcome of CheckAuth. Status is final as soon as CheckAuth
// returns; the profile refresh that follows an authenticated restore settles later.
type Restore struct {
	status Status
	done   chan struct{}

	mu      sync.Mutex
	err     error
	profile *users.Profile
}

func newRestore(status Status) *Restore {
	return &Restore{status: status, done: make(chan struct{})}
}

func (r *Restore) settle(p *users.Profile, err error) {
	r.mu.Lock()
	r.profile = p
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

// Status is the authentication status decided by the restore.
func (r *Restore) Status() Status {
	return r.status
}

// Done is closed once the profile refresh has settled (immediately when there was no token).
func (r *Restore) Done() <-chan struct{} {
	return r.done
}

// Err reports why the profile refresh failed. It is nil before Done is closed, when the
// refresh succeeded, and when no refresh was needed.
func (r *Restore) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Profile is the freshly fetched profile, or nil when the refresh failed or was not needed.
func (r *Restore) Profile() *users.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile.Clone()
}

// Wait blocks until the refresh settles or ctx is done.
func (r *Restore) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckAuth restores the session from durable storage.
//
// Without a stored token the session becomes unauthenticated and no network call is made.
// With one, the session becomes authenticated immediately, seeded with the last cached
// profile, and a fresh profile is fetched in the background. A failed fetch is logged and
// reported through Restore.Err, but never logs the user out: a transient network failure
// must not end the session.
//
// A storage failure is returned, and the session is marked unauthenticated so callers
// are never left waiting on StatusUnknown.
//
// A logout that lands while the token is being read wins: CheckAuth then returns
// ErrSessionChanged and commits nothing.
func (s *Store) CheckAuth(ctx context.Context) (*Restore, error) {
	end, err := s.begin(opRestore)
	if err != nil {
		return nil, err
	}
	defer end()

	epoch := s.currentEpoch()
	tok, ok, err := s.persist.Get(ctx, storage.KeyUserToken)
	if err != nil {
		s.logger.Error().Err(err).Str("op", opRestore).Msg("failed to read stored token")
		s.commitUnauthenticated(ctx, false)
		return nil, errors.Wrap(err, "[CheckAuth] read token")
	}
	if !ok || tok == "" {
		s.commitUnauthenticated(ctx, false)
		return s.settled(StatusUnauthenticated), nil
	}
	if s.checkExpiry && token.Expired(tok, s.nowTime()) {
		s.logger.Info().Str("op", opRestore).Msg("stored token has expired")
		s.commitUnauthenticated(ctx, true)
		return s.settled(StatusUnauthenticated), nil
	}

	cached := s.readProfile(ctx)

	s.commitMu.Lock()
	if s.currentEpoch() != epoch {
		s.commitMu.Unlock()
		s.logger.Info().Str("op", opRestore).Msg("discarding restore superseded by another session change")
		return nil, ErrSessionChanged
	}
	s.replaceSession(Session{Status: StatusAuthenticated, Token: tok, Profile: cached})
	epoch = s.currentEpoch()
	s.commitMu.Unlock()
	s.notify()

	r := newRestore(StatusAuthenticated)
	go s.refreshProfile(context.WithoutCancel(ctx), epoch, tok, r)
	return r, nil
}

func (s *Store) settled(status Status) *Restore {
	r := newRestore(status)
	r.settle(nil, nil)
	return r
}

// commitUnauthenticated publishes the signed-out state, optionally clearing stale keys.
func (s *Store) commitUnauthenticated(ctx context.Context, clearKeys bool) {
	s.commitMu.Lock()
	if clearKeys {
		s.clearPersisted(ctx)
	}
	s.replaceSession(Session{Status: StatusUnauthenticated})
	s.commitMu.Unlock()
	s.notify()
}

// refreshProfile fetches the profile for a restored token. It runs detached from
// CheckAuth and commits only if the session is still the one it was started for.
func (s *Store) refreshProfile(ctx context.Context, epoch uint64, tok string, r *Restore) {
	profile, err := s.api.Me(ctx, tok)
	if err != nil {
		s.refreshFailed(r, err)
		return
	}

	s.commitMu.Lock()
	if s.currentEpoch() != epoch {
		s.commitMu.Unlock()
		s.logger.Debug().Str("op", opRestore).Msg("discarding profile refresh for a replaced session")
		r.settle(nil, ErrSessionChanged)
		return
	}
	if err := s.writeProfile(ctx, profile); err != nil {
		s.commitMu.Unlock()
		s.refreshFailed(r, errors.Wrap(err, "persist refreshed profile"))
		return
	}
	s.replaceProfile(profile)
	s.commitMu.Unlock()

	s.notify()
	r.settle(profile, nil)
}

// refreshFailed is the stale-profile branch: the session stays authenticated with
// whatever profile it already had.
func (s *Store) refreshFailed(r *Restore, err error) {
	s.logger.Warn().Err(err).Str("op", opRestore).Msg("failed to refresh profile during restore; keeping session")
	r.settle(nil, err)
}
