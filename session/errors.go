package session

import (
	"errors"

	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
)

var (
	// ErrOperationInProgress rejects a network-bound mutation while another one is in flight.
	ErrOperationInProgress = errors.New("another session operation is in progress")
	// ErrSessionChanged is returned when a logout or new login superseded an operation before it committed.
	ErrSessionChanged = errors.New("session changed while the operation was in flight")
	// ErrNotAuthenticated is returned by operations that need a token when none is held.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// LoginMessage turns a Login or SocialLogin error into text suitable for direct display.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrOperationInProgress) {
		return "Login is already in progress."
	}
	switch apierrors.KindOf(err) {
	case apierrors.KindNotFound:
		return "User not found. Please sign up first."
	case apierrors.KindUnauthorized:
		return "Incorrect password. Please try again."
	case apierrors.KindForbidden:
		return "Email verification required. Please check your email."
	}
	if msg := apierrors.MessageOf(err); msg != "" {
		return msg
	}
	return "Login failed. Please try again later."
}

// RegisterMessage turns a Register error into text suitable for direct display.
func RegisterMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apierrors.APIError
	if !apierrors.As(err, &apiErr) {
		// local validation failures carry their own wording
		return err.Error()
	}
	if apiErr.Kind == apierrors.KindConflict {
		return "This email is already registered. Please try with a different email address or log in if you already have an account."
	}
	return "Registration failed. Please check your information and try again. If the problem persists, please contact our support team."
}
