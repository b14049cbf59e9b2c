package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/identity"
	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/users"
)

const (
	opLogin       = "login"
	opSocialLogin = "social_login"
)

// Login exchanges email and password for a token, loads the profile and establishes
// the session. On failure the session and persisted keys are left as they were and the
// error carries the backend kind (see LoginMessage).
func (s *Store) Login(ctx context.Context, email, password string) error {
	end, err := s.begin(opLogin)
	if err != nil {
		return err
	}
	defer end()

	epoch := s.currentEpoch()
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Info().Err(err).Str("op", opLogin).Stringer("kind", apierrors.KindOf(err)).Msg("login rejected")
		return errors.Wrap(err, "[Login] credential exchange")
	}
	return s.establish(ctx, opLogin, epoch, resp.AccessToken)
}

// SocialLogin establishes a session from a provider credential.
func (s *Store) SocialLogin(ctx context.Context, cred identity.Credential) error {
	if err := cred.Validate(); err != nil {
		return errors.Wrap(err, "[SocialLogin]")
	}
	end, err := s.begin(opSocialLogin)
	if err != nil {
		return err
	}
	defer end()

	epoch := s.currentEpoch()
	resp, err := s.api.SocialLogin(ctx, api.SocialLoginRequestFrom(cred))
	if err != nil {
		s.logger.Info().Err(err).Str("op", opSocialLogin).Str("provider", string(cred.Provider)).Msg("social login rejected")
		return errors.Wrap(err, "[SocialLogin] credential exchange")
	}
	return s.establish(ctx, opSocialLogin, epoch, resp.AccessToken)
}

// SignInWith runs a platform sign-in flow and then SocialLogin. It reports whether a
// session was established. A user cancelling the platform flow is not an error:
// SignInWith returns (false, nil) and nothing changes.
func (s *Store) SignInWith(ctx context.Context, src identity.Source) (bool, error) {
	if src == nil {
		return false, errors.New("[SignInWith] source is required")
	}
	cred, err := src.Credential(ctx)
	if identity.IsCanceled(err) {
		s.logger.Debug().Str("provider", string(src.Provider())).Msg("sign-in canceled by user")
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "[SignInWith] platform sign-in")
	}
	if cred.Provider == "" {
		cred.Provider = src.Provider()
	}
	if err := s.SocialLogin(ctx, cred); err != nil {
		return false, err
	}
	return true, nil
}

// establish fetches the profile for a fresh token and commits both. The profile is
// written before the token so a crash in between never leaves a token on disk without
// the session it belongs to.
func (s *Store) establish(ctx context.Context, op string, epoch uint64, token string) error {
	profile, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("profile fetch after login failed")
		return errors.Wrapf(err, "[%s] fetch profile", op)
	}

	s.commitMu.Lock()
	if s.currentEpoch() != epoch {
		s.commitMu.Unlock()
		s.logger.Info().Str("op", op).Msg("discarding login superseded by another session change")
		return ErrSessionChanged
	}
	previous := s.Snapshot()
	if err := s.writeProfile(ctx, profile); err != nil {
		s.commitMu.Unlock()
		return errors.Wrapf(err, "[%s] persist profile", op)
	}
	if err := s.persist.Set(ctx, storage.KeyUserToken, token); err != nil {
		s.rollbackProfile(ctx, previous.Profile)
		s.commitMu.Unlock()
		return errors.Wrapf(err, "[%s] persist token", op)
	}
	s.replaceSession(Session{Status: StatusAuthenticated, Token: token, Profile: profile})
	s.commitMu.Unlock()

	s.logger.Info().Str("op", op).Int("user_id", profile.ID).Msg("session established")
	s.notify()
	return nil
}

// rollbackProfile puts the previously persisted profile back after a failed commit.
func (s *Store) rollbackProfile(ctx context.Context, previous *users.Profile) {
	if err := s.writeProfile(context.WithoutCancel(ctx), previous); err != nil {
		s.logger.Error().Err(err).Msg("failed to roll back cached profile")
	}
}

// Register creates an account after validating the email and name locally.
// It does not sign the user in.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	if err := users.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := users.ValidateName(req.Name); err != nil {
		return err
	}
	if err := s.api.Register(ctx, req); err != nil {
		s.logger.Info().Err(err).Stringer("kind", apierrors.KindOf(err)).Msg("registration rejected")
		return errors.Wrap(err, "[Register]")
	}
	s.logger.Info().Msg("account registered")
	return nil
}
