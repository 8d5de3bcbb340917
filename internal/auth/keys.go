package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joestump/bookswap/internal/catalog"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = fmt.Errorf("%w: access token invalid", catalog.ErrUnauthenticated)

// clockSkew is the leeway allowed on exp, nbf and iat.
const clockSkew = time.Minute

var (
	rsaMethods  = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}
	ecMethods   = []string{"ES256", "ES384", "ES512"}
	hmacMethods = []string{"HS256", "HS384", "HS512"}
)

// KeyVerifier checks JWT signatures against a single configured key.
type KeyVerifier struct {
	key  any
	opts []jwt.ParserOption
}

// NewPublicKeyVerifier parses a base64 encoded PEM public key (RSA or ECDSA).
// Only the signing methods matching the key type are accepted.
func NewPublicKeyVerifier(encoded, audience string) (*KeyVerifier, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes); err == nil {
		return newKeyVerifier(key, rsaMethods, audience), nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM(pemBytes); err == nil {
		return newKeyVerifier(key, ecMethods, audience), nil
	}
	return nil, errors.New("public key must be a PEM encoded RSA or ECDSA key")
}

// NewHMACVerifier verifies tokens signed with a shared secret of at least 32 bytes.
func NewHMACVerifier(secret, audience string) (*KeyVerifier, error) {
	if len(secret) < 32 {
		return nil, errors.New("hmac secret must be at least 32 characters")
	}
	return newKeyVerifier([]byte(secret), hmacMethods, audience), nil
}

func newKeyVerifier(key any, methods []string, audience string) *KeyVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithLeeway(clockSkew),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &KeyVerifier{key: key, opts: opts}
}

// Verify checks the signature and time claims of raw and returns its subject.
func (v *KeyVerifier) Verify(_ context.Context, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, v.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return claims.Subject, nil
}
