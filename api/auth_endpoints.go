package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-client/users"
)

// ErrEmptyToken is returned when the backend accepts a login but sends no token.
var ErrEmptyToken = errors.New("backend returned an empty access token")

// Login exchanges email and password for an access token.
// 404, 401 and 403 come back as NotFound, Unauthorized and Forbidden API errors.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrEmptyToken
	}
	return &resp, nil
}

// SocialLogin exchanges a provider identity for an access token.
func (c *Client) SocialLogin(ctx context.Context, req SocialLoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/social-login", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrEmptyToken
	}
	return &resp, nil
}

// Register creates an account. It does not sign the user in.
// A duplicate email comes back as a Conflict API error.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", "", req, nil)
}

// CheckEmail asks whether an email address is still free.
func (c *Client) CheckEmail(ctx context.Context, email string) (*Availability, error) {
	var resp Availability
	if err := c.do(ctx, http.MethodPost, "/auth/check-email", "", checkEmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckName asks whether a display name is still free.
func (c *Client) CheckName(ctx context.Context, name string) (*Availability, error) {
	var resp Availability
	if err := c.do(ctx, http.MethodPost, "/auth/check-name", "", checkNameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckEmailAvailable validates the address locally before asking the backend.
func (c *Client) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	if err := users.ValidateEmail(email); err != nil {
		return false, err
	}
	resp, err := c.CheckEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

// CheckNameAvailable validates the name locally before asking the backend.
func (c *Client) CheckNameAvailable(ctx context.Context, name string) (bool, error) {
	if err := users.ValidateName(name); err != nil {
		return false, err
	}
	resp, err := c.CheckName(ctx, name)
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

// Countries lists the countries offered at registration.
func (c *Client) Countries(ctx context.Context) ([]users.Country, error) {
	var resp envelope[[]users.Country]
	if err := c.do(ctx, http.MethodGet, "/country/list", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		msg := resp.Message
		if msg == "" {
			msg = "failed to fetch country list"
		}
		return nil, fmt.Errorf("[Countries] %s", msg)
	}
	return resp.Data, nil
}
