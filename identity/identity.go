package identity

import (
	"context"
	"errors"
	"fmt"
)

// Provider names a social sign-in provider as the backend expects it.
type Provider string

const (
	ProviderApple  Provider = "APPLE"
	ProviderGoogle Provider = "GOOGLE"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderApple || p == ProviderGoogle
}

// ErrCanceled is returned by a Source when the user dismissed the platform sign-in sheet.
// It is not a failure and must not be shown to the user as one.
var ErrCanceled = errors.New("sign-in canceled by user")

// ErrUnsupportedProvider is returned for providers other than APPLE and GOOGLE.
var ErrUnsupportedProvider = errors.New("unsupported sign-in provider")

// IsCanceled reports whether err means the user backed out of the sign-in flow.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Credential is what a provider tells us about the signed-in user.
// Email and Name are optional; Apple only returns them on first authorization.
type Credential struct {
	Provider       Provider
	ProviderUserID string
	Email          string
	Name           string
}

// Validate checks the fields the backend requires.
func (c Credential) Validate() error {
	if !c.Provider.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
	if c.ProviderUserID == "" {
		return errors.New("provider user id is required")
	}
	return nil
}

// Source obtains a credential from a platform sign-in flow.
type Source interface {
	Provider() Provider
	Credential(ctx context.Context) (Credential, error)
}

// StaticSource returns a credential obtained elsewhere, e.g. by a native sign-in SDK.
type StaticSource struct {
	Cred Credential
	Err  error
}

var _ Source = StaticSource{}

func (s StaticSource) Provider() Provider {
	return s.Cred.Provider
}

func (s StaticSource) Credential(context.Context) (Credential, error) {
	if s.Err != nil {
		return Credential{}, s.Err
	}
	return s.Cred, nil
}
