package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-session-client/users"
)

// ErrNoToken is returned by authenticated calls made without a bearer token.
var ErrNoToken = errors.New("no token found")

// Me fetches the full profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*users.Profile, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var p users.Profile
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile saves edited profile fields.
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) error {
	if token == "" {
		return ErrNoToken
	}
	return c.do(ctx, http.MethodPost, "/users/update-profile", token, update, nil)
}

// Deactivate closes the account after re-checking the password.
func (c *Client) Deactivate(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrNoToken
	}
	return c.do(ctx, http.MethodPost, "/users/deactivate", token, deactivateRequest{Password: password}, nil)
}
