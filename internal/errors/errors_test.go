package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestKindFromStatus(t *testing.T) {
	cases := map[int]apierrors.Kind{
		http.StatusNotFound:            apierrors.KindNotFound,
		http.StatusUnauthorized:        apierrors.KindUnauthorized,
		http.StatusForbidden:           apierrors.KindForbidden,
		http.StatusConflict:            apierrors.KindConflict,
		http.StatusInternalServerError: apierrors.KindNetworkOrUnknown,
		http.StatusBadRequest:          apierrors.KindNetworkOrUnknown,
	}
	for status, want := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			require.Equal(t, want, apierrors.KindFromStatus(status))
		})
	}
}

// TestAPIError_IsSentinel checks wrapped API errors still match their sentinel
func TestAPIError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("[Login] failed: %w", apierrors.FromStatus(http.StatusForbidden, "verify email"))

	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.NotErrorIs(t, err, apierrors.ErrUnauthorized)
	require.Equal(t, apierrors.KindForbidden, apierrors.KindOf(err))
	require.Equal(t, "verify email", apierrors.MessageOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	require.Equal(t, apierrors.KindNetworkOrUnknown, apierrors.KindOf(stderrors.New("boom")))
	require.Empty(t, apierrors.MessageOf(stderrors.New("boom")))
}

func TestNetwork_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := apierrors.Network(cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, apierrors.ErrNetworkOrUnknown)
	require.Contains(t, err.Error(), "connection refused")
}

func TestWrapf(t *testing.T) {
	require.NoError(t, apierrors.Wrapf(nil, "ignored"))

	err := apierrors.Wrapf(apierrors.ErrConflict, "register %s", "bob")
	require.EqualError(t, err, "register bob: conflict")
	require.True(t, apierrors.Is(err, apierrors.ErrConflict))
}
