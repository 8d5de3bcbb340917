package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestHMACSecret is a test-only secret for HS256 tokens.
const TestHMACSecret = "test-hmac-secret-that-is-32-chars-long"

// RSASigner signs RS256 test tokens with a freshly generated key.
type RSASigner struct {
	Key *rsa.PrivateKey
	// KID is set as the "kid" header when non-empty.
	KID string
}

// NewRSASigner generates a 2048-bit key for the lifetime of the test.
func NewRSASigner(t *testing.T) *RSASigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &RSASigner{Key: key}
}

// PublicKeyBase64 returns the public key as base64 encoded PEM, the format
// accepted by BOOKSWAP_AUTH_PUBLIC_KEY.
func (s *RSASigner) PublicKeyBase64(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&s.Key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return base64.StdEncoding.EncodeToString(pemBytes)
}

// Sign returns an RS256 token for claims.
func (s *RSASigner) Sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.KID != "" {
		tok.Header["kid"] = s.KID
	}
	signed, err := tok.SignedString(s.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Token returns a valid RS256 token for subject, expiring in an hour.
func (s *RSASigner) Token(t *testing.T, subject string) string {
	t.Helper()
	return s.Sign(t, Claims(subject, time.Hour))
}

// Claims builds registered claims for subject valid for ttl. A negative ttl
// yields an already expired token.
func Claims(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// SignHMAC returns an HS256 token for claims signed with secret.
func SignHMAC(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
