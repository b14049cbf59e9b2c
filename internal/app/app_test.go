package app_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-client/api/apifake"
	"github.com/jrsteele09/go-session-client/identity"
	"github.com/jrsteele09/go-session-client/internal/app"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/storefake"
)

// setupBackend starts a fake backend with one verified account and points API_BASE_URL at it.
func setupBackend(t *testing.T) {
	t.Helper()
	backend := apifake.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	_, err := backend.AddAccount(apifake.AccountSeed{
		Username:      "mina",
		Email:         "mina@example.com",
		Password:      "Password123",
		Verified:      true,
		TermsAgreed:   true,
		PrivacyAgreed: true,
		CountryID:     1,
	})
	require.NoError(t, err)
	t.Setenv("API_BASE_URL", srv.URL)
}

func newApp(t *testing.T, options ...app.Option) *app.App {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	a, err := app.New(context.Background(), cfg, append([]app.Option{app.WithLogger(zerolog.Nop())}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// TestApp_Backends checks login then restore in a second app against every storage backend
func TestApp_Backends(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{"sqlite", func(t *testing.T) {
			t.Setenv("STORAGE_BACKEND", "sqlite")
			t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "nested", "session.db"))
		}},
		{"redis", func(t *testing.T) {
			mr := miniredis.RunT(t)
			t.Setenv("STORAGE_BACKEND", "redis")
			t.Setenv("REDIS_ADDR", mr.Addr())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupBackend(t)
			tt.setup(t)
			ctx := context.Background()

			first := newApp(t)
			require.NoError(t, first.Session.Login(ctx, "mina@example.com", "Password123"))
			require.NoError(t, first.Onboarding.MarkSeen(ctx))
			require.NoError(t, first.Close())

			second := newApp(t)
			var routes []navigation.Route
			controller, err := second.Controller(navigation.NavigatorFunc(func(r navigation.Route) { routes = append(routes, r) }))
			require.NoError(t, err)

			route, err := controller.Start(ctx)
			require.NoError(t, err)
			require.Equal(t, navigation.RouteHome, route)
			require.Equal(t, session.StatusAuthenticated, second.Session.Status())
			require.Equal(t, "mina", second.Session.Profile().Username)

			second.Session.Logout(ctx)
			_, ok, err := second.Storage.Get(ctx, storage.KeyUserToken)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestApp_RedisUnavailable(t *testing.T) {
	setupBackend(t)
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	cfg, err := config.New()
	require.NoError(t, err)
	_, err = app.New(context.Background(), cfg, app.WithLogger(zerolog.Nop()))
	require.Error(t, err)
}

func TestApp_WithStorage(t *testing.T) {
	setupBackend(t)
	store := storefake.NewFakeStore()
	a := newApp(t, app.WithStorage(store))

	require.NoError(t, a.Session.Login(context.Background(), "mina@example.com", "Password123"))
	require.True(t, store.Has(storage.KeyUserToken))
	require.NoError(t, a.Close())
}

func TestApp_IdentitySourceRequiresClientID(t *testing.T) {
	setupBackend(t)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("APPLE_CLIENT_ID", "")
	a := newApp(t, app.WithStorage(storefake.NewFakeStore()))
	signIn := func(context.Context) (string, error) { return "", identity.ErrCanceled }

	_, err := a.IdentitySource(context.Background(), identity.ProviderGoogle, signIn)
	require.Error(t, err)
	_, err = a.IdentitySource(context.Background(), identity.ProviderApple, signIn)
	require.Error(t, err)
	_, err = a.IdentitySource(context.Background(), "KAKAO", signIn)
	require.ErrorIs(t, err, identity.ErrUnsupportedProvider)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := app.New(context.Background(), nil)
	require.Error(t, err)
}
