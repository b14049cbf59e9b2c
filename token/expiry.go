package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ExpiresAt reads the exp claim of a JWT bearer token. The signature is not checked:
// the client cannot verify it and only uses the claim to avoid restoring a dead session.
// Opaque (non-JWT) tokens and tokens without exp report false.
func ExpiresAt(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired is true only for JWTs whose exp is at or before now.
func Expired(raw string, now time.Time) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
