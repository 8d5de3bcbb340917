package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/bookswap/internal/auth"
	"github.com/joestump/bookswap/internal/catalog"
	"github.com/joestump/bookswap/internal/ledger"
)

// Ledger is the claim bookkeeping the book routes drive.
type Ledger interface {
	AddClaim(ctx context.Context, externalID string, meta catalog.Metadata, user string, kind catalog.ClaimKind) (string, error)
	RemoveClaim(ctx context.Context, itemID, user string) error
	RemoveAll(ctx context.Context, user string) error
	ListFor(ctx context.Context, user string) (*ledger.Shelf, error)
	Get(ctx context.Context, itemID, user string) (*catalog.Book, catalog.Relation, error)
}

// MatchFinder computes swaps for GET /books/matches.
type MatchFinder interface {
	FindMatches(ctx context.Context, user string) ([]catalog.Match, error)
}

// Deps holds all dependencies required to build the API router.
type Deps struct {
	BearerAuth *auth.BearerTokenMiddleware
	Ledger     Ledger
	Finder     MatchFinder
	Logger     *slog.Logger
}

// NewAPIRouter creates a chi sub-router for /api/v1.
// All routes require Bearer token authentication and return application/json.
func NewAPIRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(jsonContentType)
	r.Use(deps.BearerAuth.Authenticate)

	registerBookRoutes(r, deps.Ledger, deps.Finder, deps.Logger)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
