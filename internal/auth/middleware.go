package auth

import (
	"context"
	"fmt"

	"github.com/joestump/bookswap/internal/config"
)

type contextKey string

const UserContextKey contextKey = "user"

// Verifier resolves a raw bearer token to the id of the user it was issued for.
type Verifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// NewVerifier builds the Verifier selected by cfg: a static public key, a
// shared HMAC secret, or an OIDC issuer's published keys.
func NewVerifier(ctx context.Context, cfg *config.Config) (Verifier, error) {
	switch {
	case cfg.Auth.PublicKey != "":
		return NewPublicKeyVerifier(cfg.Auth.PublicKey, cfg.Auth.Audience)
	case cfg.Auth.HMACSecret != "":
		return NewHMACVerifier(cfg.Auth.HMACSecret, cfg.Auth.Audience)
	case cfg.Auth.Issuer != "":
		return NewOIDCVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.Audience)
	default:
		return nil, fmt.Errorf("no token verification configured")
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user id from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(UserContextKey).(string)
	return u, ok && u != ""
}
