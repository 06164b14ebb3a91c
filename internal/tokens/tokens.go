package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's access token the storefront reads.
// The signature is never checked here: the backend owns the key and re-validates every call.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes a JWT without verifying it. ok is false for opaque (non-JWT) tokens.
func Inspect(token string) (*Claims, bool) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// Expired reports whether token is a JWT whose exp lies before now.
// Opaque tokens and JWTs without exp are never considered expired.
func Expired(token string, now time.Time) bool {
	claims, ok := Inspect(token)
	if !ok || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
