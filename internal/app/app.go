// Package app wires configuration, storage, the API client and the session together.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/identity"
	"github.com/jrsteele09/go-session-client/internal/config"
	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/onboarding"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/redisstore"
	"github.com/jrsteele09/go-session-client/storage/sqlitestore"
)

// App is the composition root shared by the commands.
type App struct {
	Config     config.Config
	Storage    storage.Store
	API        *api.Client
	Session    *session.Store
	Onboarding *onboarding.Flag

	logger zerolog.Logger
	closer io.Closer
}

type Option func(*App)

func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithStorage bypasses STORAGE_BACKEND and uses store as is.
func WithStorage(store storage.Store) Option {
	return func(a *App) {
		a.Storage = store
	}
}

func New(ctx context.Context, cfg config.Config, options ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[app New] config is required")
	}
	a := &App{Config: cfg, logger: log.Logger}
	for _, opt := range options {
		opt(a)
	}

	if a.Storage == nil {
		store, closer, err := OpenStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Storage, a.closer = store, closer
	}

	client, err := api.NewClient(cfg.GetAPIBaseURL(),
		api.WithTimeout(cfg.GetHTTPTimeout()),
		api.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, apierrors.Wrapf(err, "[app New] api client")
	}
	a.API = client

	sess, err := session.New(client, a.Storage, session.WithLogger(a.logger))
	if err != nil {
		a.Close()
		return nil, apierrors.Wrapf(err, "[app New] session")
	}
	a.Session = sess
	a.Onboarding = onboarding.New(a.Storage)
	return a, nil
}

// OpenStorage opens the configured backend and the closer that releases it.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, io.Closer, error) {
	switch cfg.GetStorageBackend() {
	case config.StorageRedis:
		store, err := redisstore.Dial(ctx, cfg.GetRedisAddr(), cfg.GetRedisPrefix())
		if err != nil {
			return nil, nil, apierrors.Wrapf(err, "[OpenStorage] redis")
		}
		return store, store, nil
	case config.StorageSQLite:
		if err := ensureDir(cfg.GetStoragePath()); err != nil {
			return nil, nil, err
		}
		store, err := sqlitestore.Open(cfg.GetStoragePath())
		if err != nil {
			return nil, nil, apierrors.Wrapf(err, "[OpenStorage] sqlite")
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("[OpenStorage] unsupported backend %q", cfg.GetStorageBackend())
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apierrors.Wrapf(err, "[OpenStorage] create data folder")
	}
	return nil
}

// Controller builds the root navigation controller over the app's session.
func (a *App) Controller(nav navigation.Navigator) (*navigation.Controller, error) {
	return navigation.New(a.Session, a.Onboarding, nav, navigation.WithLogger(a.logger))
}

// IdentitySource builds a verifying sign-in source for provider using the configured
// client ID. signIn performs the platform flow and returns the raw ID token.
func (a *App) IdentitySource(ctx context.Context, provider identity.Provider, signIn identity.SignInFunc) (identity.Source, error) {
	var (
		src *identity.OIDCSource
		err error
	)
	switch provider {
	case identity.ProviderGoogle:
		if a.Config.GetGoogleClientID() == "" {
			return nil, fmt.Errorf("[IdentitySource] GOOGLE_CLIENT_ID is not set")
		}
		src, err = identity.NewGoogleSource(ctx, a.Config.GetGoogleClientID(), signIn)
	case identity.ProviderApple:
		if a.Config.GetAppleClientID() == "" {
			return nil, fmt.Errorf("[IdentitySource] APPLE_CLIENT_ID is not set")
		}
		src, err = identity.NewAppleSource(ctx, a.Config.GetAppleClientID(), signIn)
	default:
		return nil, fmt.Errorf("[IdentitySource] %w: %q", identity.ErrUnsupportedProvider, provider)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Close releases the storage connection, if any.
func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
