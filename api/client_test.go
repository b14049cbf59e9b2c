package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/api/apifake"
	"github.com/jrsteele09/go-session-client/identity"
	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "mina@example.com"
	testPassword = "Password123"
	testName     = "mina"
)

// testFixture holds all test dependencies
type testFixture struct {
	backend *apifake.Server
	server  *httptest.Server
	client  *api.Client
	profile users.Profile
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := apifake.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, api.WithTimeout(5*time.Second))
	require.NoError(t, err)

	profile, err := backend.AddAccount(apifake.AccountSeed{
		Username:      testName,
		Email:         testEmail,
		Password:      testPassword,
		Verified:      true,
		TermsAgreed:   true,
		PrivacyAgreed: true,
		CountryID:     1,
	})
	require.NoError(t, err)

	return &testFixture{backend: backend, server: srv, client: client, profile: profile}
}

func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	resp, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	return resp.AccessToken
}

func TestNewClient_Validation(t *testing.T) {
	_, err := api.NewClient("")
	require.Error(t, err)

	_, err = api.NewClient("ftp://example.com")
	require.Error(t, err)

	_, err = api.NewClient("https://api.example.com/")
	require.NoError(t, err)
}

func TestLogin_Success(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, f.profile.ID, resp.User.ID)
	require.Equal(t, testName, resp.User.Username)
}

// TestLogin_StatusKinds checks each backend status maps onto its error kind
func TestLogin_StatusKinds(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.backend.AddAccount(apifake.AccountSeed{Username: "unverified", Email: "new@example.com", Password: testPassword})
	require.NoError(t, err)

	cases := []struct {
		name     string
		email    string
		password string
		kind     apierrors.Kind
		sentinel error
	}{
		{"unknown account", "nobody@example.com", testPassword, apierrors.KindNotFound, apierrors.ErrNotFound},
		{"bad password", testEmail, "wrong", apierrors.KindUnauthorized, apierrors.ErrUnauthorized},
		{"unverified email", "new@example.com", testPassword, apierrors.KindForbidden, apierrors.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.client.Login(context.Background(), tc.email, tc.password)
			require.Error(t, err)
			require.Equal(t, tc.kind, apierrors.KindOf(err))
			require.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestLogin_ServerError(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.Fail(apifake.RouteLogin, http.StatusInternalServerError)

	_, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrNetworkOrUnknown)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, 1, f.backend.Calls(apifake.RouteLogin), "no retries")
}

func TestLogin_NetworkFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.server.Close()

	_, err := f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrNetworkOrUnknown)
}

func TestLogin_ContextCanceled(t *testing.T) {
	f := setupTestFixture(t)
	release := f.backend.Block(apifake.RouteLogin)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.client.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSocialLogin_CreatesAndReusesAccount(t *testing.T) {
	f := setupTestFixture(t)
	req := api.SocialLoginRequest{Provider: identity.ProviderApple, ProviderUserID: "apple-1", Email: "apple@example.com", Name: "Jun"}

	first, err := f.client.SocialLogin(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first.AccessToken)

	second, err := f.client.SocialLogin(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)

	me, err := f.client.Me(context.Background(), second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "Jun", me.Username)
	require.False(t, me.ComplianceAccepted(), "new social accounts still need to accept terms")
}

func TestSocialLogin_UnsupportedProvider(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.client.SocialLogin(context.Background(), api.SocialLoginRequest{Provider: "KAKAO", ProviderUserID: "1"})
	require.Error(t, err)
	require.Equal(t, apierrors.KindNetworkOrUnknown, apierrors.KindOf(err))
}

func TestMe(t *testing.T) {
	f := setupTestFixture(t)
	tok := f.login(t)

	me, err := f.client.Me(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, f.profile.ID, me.ID)
	require.Equal(t, testEmail, me.Email)
	require.Equal(t, "KR", me.Country.Code)
	require.True(t, me.ComplianceAccepted())
}

func TestMe_InvalidToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.Me(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)

	_, err = f.client.Me(context.Background(), "")
	require.ErrorIs(t, err, api.ErrNoToken)
}

func TestMe_ExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	expired, err := f.backend.IssueToken(f.profile.ID, -time.Minute)
	require.NoError(t, err)

	_, err = f.client.Me(context.Background(), expired)
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	req := api.RegisterRequest{Name: "jun", Email: "jun@example.com", Password: testPassword, CountryID: 2}

	require.NoError(t, f.client.Register(context.Background(), req))

	err := f.client.Register(context.Background(), req)
	require.ErrorIs(t, err, apierrors.ErrConflict)
	require.Equal(t, "email already taken", apierrors.MessageOf(err))
}

func TestCheckAvailability(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	ok, err := f.client.CheckEmailAvailable(ctx, "free@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.client.CheckEmailAvailable(ctx, testEmail)
	require.ErrorIs(t, err, apierrors.ErrConflict)

	_, err = f.client.CheckEmailAvailable(ctx, "bad-address")
	require.Error(t, err)
	require.Equal(t, 2, f.backend.Calls(apifake.RouteCheckEmail), "invalid input never reaches the backend")

	ok, err = f.client.CheckNameAvailable(ctx, "newname")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.client.CheckNameAvailable(ctx, testName)
	require.ErrorIs(t, err, apierrors.ErrConflict)

	_, err = f.client.CheckNameAvailable(ctx, "x")
	require.Error(t, err)
	require.Equal(t, 2, f.backend.Calls(apifake.RouteCheckName))
}

func TestUpdateProfile(t *testing.T) {
	f := setupTestFixture(t)
	tok := f.login(t)
	bio := "hello"
	country := 3

	require.NoError(t, f.client.UpdateProfile(context.Background(), tok, api.ProfileUpdate{Bio: &bio, CountryID: &country}))

	me, err := f.client.Me(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "hello", me.Bio)
	require.Equal(t, "JP", me.Country.Code)
}

func TestUpdateProfile_NameConflict(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.backend.AddAccount(apifake.AccountSeed{Username: "taken", Email: "t@example.com", Password: "x", Verified: true})
	require.NoError(t, err)
	tok := f.login(t)
	name := "taken"

	err = f.client.UpdateProfile(context.Background(), tok, api.ProfileUpdate{Username: &name})
	require.ErrorIs(t, err, apierrors.ErrConflict)
}

func TestDeactivate(t *testing.T) {
	f := setupTestFixture(t)
	tok := f.login(t)

	err := f.client.Deactivate(context.Background(), tok, "wrong")
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)

	require.NoError(t, f.client.Deactivate(context.Background(), tok, testPassword))

	_, err = f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	require.ErrorIs(t, f.client.Deactivate(context.Background(), "", testPassword), api.ErrNoToken)
}

func TestCountries(t *testing.T) {
	f := setupTestFixture(t)

	countries, err := f.client.Countries(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, countries)
	require.Equal(t, "KR", countries[0].Code)
}

// TestRequestHeaders checks bearer and request id headers reach the backend
func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":1,"username":"a"}`))
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Me(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestErrorMessageList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":["email must be an email","password too short"]}`))
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)

	err = client.Register(context.Background(), api.RegisterRequest{})
	require.Equal(t, "email must be an email; password too short", apierrors.MessageOf(err))
}
