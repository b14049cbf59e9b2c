package api

import (
	"github.com/jrsteele09/go-session-client/identity"
)

// LoginUser is the abbreviated user returned alongside an access token.
type LoginUser struct {
	ID       int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse is returned by both /auth/login and /auth/social-login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SocialLoginRequest exchanges a provider identity for a backend token.
type SocialLoginRequest struct {
	Provider       identity.Provider `json:"provider"`
	ProviderUserID string            `json:"providerUserId"`
	Email          string            `json:"email,omitempty"`
	Name           string            `json:"name,omitempty"`
}

// SocialLoginRequestFrom converts a verified provider credential.
func SocialLoginRequestFrom(c identity.Credential) SocialLoginRequest {
	return SocialLoginRequest{
		Provider:       c.Provider,
		ProviderUserID: c.ProviderUserID,
		Email:          c.Email,
		Name:           c.Name,
	}
}

// RegisterRequest creates an email/password account.
type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CountryID int    `json:"country_id"`
}

// Availability is the answer of the check-email and check-name endpoints.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are not sent.
type ProfileUpdate struct {
	Username          *string `json:"username,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	CountryID         *int    `json:"country_id,omitempty"`
}

type deactivateRequest struct {
	Password string `json:"password"`
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

type checkNameRequest struct {
	Name string `json:"name"`
}

// envelope wraps list endpoints such as /country/list.
type envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}
