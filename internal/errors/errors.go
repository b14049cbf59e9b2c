package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure returned by the backend so callers can pick a user-facing message.
type Kind int

const (
	KindNetworkOrUnknown Kind = iota
	KindNotFound              // 404, no such account
	KindUnauthorized          // 401, bad credentials
	KindForbidden             // 403, verification or compliance gate
	KindConflict              // 409, duplicate email or name
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict"
	default:
		return "NetworkOrUnknown"
	}
}

// Sentinels for errors.Is checks against an *APIError.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrNetworkOrUnknown = errors.New("network or unknown error")
)

var kindSentinels = map[Kind]error{
	KindNotFound:         ErrNotFound,
	KindUnauthorized:     ErrUnauthorized,
	KindForbidden:        ErrForbidden,
	KindConflict:         ErrConflict,
	KindNetworkOrUnknown: ErrNetworkOrUnknown,
}

// APIError is a failed backend call. Status is 0 for transport failures.
type APIError struct {
	Kind    Kind
	Status  int
	Message string // backend supplied message, if any
	Err     error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *APIError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindFromStatus maps an HTTP status code onto the taxonomy.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		return KindConflict
	default:
		return KindNetworkOrUnknown
	}
}

// FromStatus builds an APIError for a non-2xx response.
func FromStatus(status int, message string) *APIError {
	return &APIError{Kind: KindFromStatus(status), Status: status, Message: message}
}

// Network wraps a transport level failure.
func Network(err error) *APIError {
	return &APIError{Kind: KindNetworkOrUnknown, Err: err}
}

// KindOf reports the taxonomy kind of err. Anything that is not an *APIError is NetworkOrUnknown.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetworkOrUnknown
}

// MessageOf returns the backend supplied message carried by err, if any.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
