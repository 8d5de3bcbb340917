package auth

import (
	"context"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier verifies tokens against the signing keys an OIDC issuer
// publishes through discovery.
type OIDCVerifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewOIDCVerifier performs OIDC discovery for issuer. An empty audience skips
// the aud check.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC provider discovery failed for %s: %w", issuer, err)
	}
	verifier := provider.Verifier(&gooidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
	})
	return &OIDCVerifier{verifier: verifier}, nil
}

// Verify checks raw against the issuer's keys and returns its subject.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (string, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if tok.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return tok.Subject, nil
}
