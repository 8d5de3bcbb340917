package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// BearerTokenMiddleware authenticates API requests via a Bearer JWT.
type BearerTokenMiddleware struct {
	verifier Verifier
	log      *slog.Logger
}

// NewBearerTokenMiddleware creates a new BearerTokenMiddleware. A nil logger
// uses slog.Default().
func NewBearerTokenMiddleware(v Verifier, logger *slog.Logger) *BearerTokenMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerTokenMiddleware{verifier: v, log: logger}
}

// Authenticate is an http.Handler middleware that extracts and verifies a Bearer token.
// WHEN valid: injects the token's subject into context as the user id.
// WHEN invalid/missing/expired: returns 401.
func (m *BearerTokenMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != "Bearer" || token == "" {
			writeUnauthorized(w)
			return
		}

		userID, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.log.DebugContext(r.Context(), "bearer token rejected", "error", err)
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// writeUnauthorized writes a 401 JSON response in the API error format.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "access token invalid or not provided",
		"code":  "UNAUTHORIZED",
	})
}
