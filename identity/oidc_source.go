package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	GoogleIssuer = "https://accounts.google.com"
	AppleIssuer  = "https://appleid.apple.com"
)

// SignInFunc runs the platform sign-in and returns the raw ID token.
// It returns ErrCanceled when the user dismisses the flow.
type SignInFunc func(ctx context.Context) (rawIDToken string, err error)

// OIDCSource turns a provider ID token into a Credential after verifying it.
type OIDCSource struct {
	provider Provider
	verifier *oidc.IDTokenVerifier
	signIn   SignInFunc
}

var _ Source = (*OIDCSource)(nil)

// NewOIDCSource builds a source around an explicit verifier.
func NewOIDCSource(provider Provider, verifier *oidc.IDTokenVerifier, signIn SignInFunc) (*OIDCSource, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("[NewOIDCSource] %w: %q", ErrUnsupportedProvider, provider)
	}
	if verifier == nil {
		return nil, fmt.Errorf("[NewOIDCSource] verifier is required")
	}
	if signIn == nil {
		return nil, fmt.Errorf("[NewOIDCSource] signIn is required")
	}
	return &OIDCSource{provider: provider, verifier: verifier, signIn: signIn}, nil
}

// NewGoogleSource discovers Google's signing keys and verifies tokens issued to clientID.
func NewGoogleSource(ctx context.Context, clientID string, signIn SignInFunc) (*OIDCSource, error) {
	return discover(ctx, ProviderGoogle, GoogleIssuer, clientID, signIn)
}

// NewAppleSource discovers Apple's signing keys and verifies tokens issued to clientID
// (the app's bundle or services id).
func NewAppleSource(ctx context.Context, clientID string, signIn SignInFunc) (*OIDCSource, error) {
	return discover(ctx, ProviderApple, AppleIssuer, clientID, signIn)
}

func discover(ctx context.Context, provider Provider, issuer, clientID string, signIn SignInFunc) (*OIDCSource, error) {
	if clientID == "" {
		return nil, fmt.Errorf("[identity %s] client id is required", provider)
	}
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("[identity %s] discovery: %w", provider, err)
	}
	return NewOIDCSource(provider, p.Verifier(&oidc.Config{ClientID: clientID}), signIn)
}

func (s *OIDCSource) Provider() Provider {
	return s.provider
}

// Credential runs the sign-in flow and verifies the returned ID token.
// Cancellation is passed through unchanged so callers can test it with IsCanceled.
func (s *OIDCSource) Credential(ctx context.Context) (Credential, error) {
	raw, err := s.signIn(ctx)
	if err != nil {
		if IsCanceled(err) {
			return Credential{}, err
		}
		return Credential{}, fmt.Errorf("[identity %s] sign-in: %w", s.provider, err)
	}

	idToken, err := s.verifier.Verify(ctx, raw)
	if err != nil {
		return Credential{}, fmt.Errorf("[identity %s] verify id token: %w", s.provider, err)
	}

	var claims struct {
		Sub       string `json:"sub"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		GivenName string `json:"given_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Credential{}, fmt.Errorf("[identity %s] claims: %w", s.provider, err)
	}

	name := claims.GivenName
	if name == "" {
		name = claims.Name
	}
	return Credential{
		Provider:       s.provider,
		ProviderUserID: claims.Sub,
		Email:          claims.Email,
		Name:           name,
	}, nil
}
