package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/users"
)

const (
	opUpdateProfile = "update_profile"
	opDeactivate    = "deactivate"
)

// UpdateUserInfo merges a counters patch into the loaded profile.
// It is a no-op when no profile is loaded.
func (s *Store) UpdateUserInfo(ctx context.Context, patch users.ProfilePatch) error {
	s.commitMu.Lock()
	current := s.Profile()
	if current == nil {
		s.commitMu.Unlock()
		return nil
	}
	merged := current.Apply(patch)
	if err := s.writeProfile(ctx, merged); err != nil {
		s.commitMu.Unlock()
		return errors.Wrap(err, "[UpdateUserInfo] persist profile")
	}
	s.replaceProfile(merged)
	s.commitMu.Unlock()

	s.notify()
	return nil
}

// SetUserInfo replaces the profile unconditionally, e.g. after an out-of-band edit.
// A nil profile clears it.
func (s *Store) SetUserInfo(ctx context.Context, p *users.Profile) error {
	p = p.Clone()

	s.commitMu.Lock()
	if err := s.writeProfile(ctx, p); err != nil {
		s.commitMu.Unlock()
		return errors.Wrap(err, "[SetUserInfo] persist profile")
	}
	s.replaceProfile(p)
	s.commitMu.Unlock()

	s.notify()
	return nil
}

// UpdateProfile saves edited profile fields on the backend and reloads the profile.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	end, err := s.begin(opUpdateProfile)
	if err != nil {
		return err
	}
	defer end()

	snap := s.Snapshot()
	if !snap.Authenticated() {
		return ErrNotAuthenticated
	}
	epoch := s.currentEpoch()

	if err := s.api.UpdateProfile(ctx, snap.Token, update); err != nil {
		s.logger.Warn().Err(err).Str("op", opUpdateProfile).Msg("profile update rejected")
		return errors.Wrap(err, "[UpdateProfile]")
	}
	profile, err := s.api.Me(ctx, snap.Token)
	if err != nil {
		return errors.Wrap(err, "[UpdateProfile] reload profile")
	}

	s.commitMu.Lock()
	if s.currentEpoch() != epoch {
		s.commitMu.Unlock()
		return ErrSessionChanged
	}
	if err := s.writeProfile(ctx, profile); err != nil {
		s.commitMu.Unlock()
		return errors.Wrap(err, "[UpdateProfile] persist profile")
	}
	s.replaceProfile(profile)
	s.commitMu.Unlock()

	s.notify()
	return nil
}

// Deactivate closes the account on the backend and then signs out.
func (s *Store) Deactivate(ctx context.Context, password string) error {
	end, err := s.begin(opDeactivate)
	if err != nil {
		return err
	}
	defer end()

	tok := s.Token()
	if tok == "" {
		return ErrNotAuthenticated
	}
	if err := s.api.Deactivate(ctx, tok, password); err != nil {
		s.logger.Warn().Err(err).Str("op", opDeactivate).Msg("deactivation rejected")
		return errors.Wrap(err, "[Deactivate]")
	}
	s.Logout(ctx)
	return nil
}

// Logout clears the persisted token and profile and resets the session. It always
// succeeds: storage failures are logged, and any login or refresh still in flight is
// discarded when it tries to commit.
func (s *Store) Logout(ctx context.Context) {
	s.commitMu.Lock()
	s.clearPersisted(ctx)
	s.replaceSession(Session{Status: StatusUnauthenticated})
	s.commitMu.Unlock()

	s.logger.Info().Msg("logged out")
	s.notify()
}

// clearPersisted removes the token before the profile. Callers hold commitMu.
func (s *Store) clearPersisted(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range []string{storage.KeyUserToken, storage.KeyUserInfo} {
		if err := s.persist.Remove(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to clear persisted session key")
		}
	}
}
