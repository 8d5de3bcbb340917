package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/joestump/bookswap/internal/auth"
	"github.com/joestump/bookswap/internal/catalog"
)

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps an error from the ledger or finder to a response.
// Anything that is not a known error kind is logged and answered with a
// generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "the requested data was not provided or is invalid",
			Code:   "VALIDATION_FAILED",
			Fields: verr.Fields,
		})
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "the requested data was not provided or is invalid", "BAD_REQUEST")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "the requested resource was not found", "NOT_FOUND")
	case errors.Is(err, catalog.ErrClaimExists):
		writeError(w, http.StatusConflict, "book already added as owned or wanted", "DUPLICATE_CLAIM")
	case errors.Is(err, catalog.ErrStale):
		writeError(w, http.StatusConflict, "book was modified concurrently, please retry", "STALE_WRITE")
	case errors.Is(err, catalog.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "CONFLICT")
	case errors.Is(err, catalog.ErrForbidden):
		writeError(w, http.StatusForbidden, "permission to the requested resource was denied", "FORBIDDEN")
	case errors.Is(err, catalog.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
	default:
		user, _ := auth.UserIDFromContext(r.Context())
		log.ErrorContext(r.Context(), "request failed",
			"op", op,
			"user", user,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}
