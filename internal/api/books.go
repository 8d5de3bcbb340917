package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/bookswap/internal/auth"
	"github.com/joestump/bookswap/internal/catalog"
)

// maxBodyBytes caps request bodies; book metadata is a few KB at most.
const maxBodyBytes = 1 << 20

// booksAPIHandler provides REST handlers for a user's books and matches.
type booksAPIHandler struct {
	ledger Ledger
	finder MatchFinder
	log    *slog.Logger
}

// registerBookRoutes registers book and match routes on r.
func registerBookRoutes(r chi.Router, l Ledger, f MatchFinder, log *slog.Logger) {
	h := &booksAPIHandler{ledger: l, finder: f, log: log}
	r.Get("/books", h.List)
	r.Post("/books", h.Create)
	r.Delete("/books", h.DeleteAll)
	r.Get("/books/matches", h.Matches)
	r.Get("/books/{id}", h.Get)
	r.With(h.requireRelation).Delete("/books/{id}", h.Delete)
}

// requireRelation rejects requests for a book the caller neither owns nor wants.
func (h *booksAPIHandler) requireRelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := auth.UserIDFromContext(r.Context())
		_, rel, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"), user)
		if err != nil {
			writeDomainError(w, r, h.log, "authorize book", err)
			return
		}
		if rel == catalog.RelationNone {
			writeDomainError(w, r, h.log, "authorize book", catalog.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List returns the books the caller owns and wants.
// GET /api/v1/books
//
// @Summary      List my books
// @Description  Returns the books the caller owns and the books the caller wants.
// @Tags         Books
// @Produce      json
// @Success      200  {object}  ShelfResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books [get]
func (h *booksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	shelf, err := h.ledger.ListFor(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, h.log, "list books", err)
		return
	}

	writeJSON(w, http.StatusOK, ShelfResponse{
		Owned:  toBookResponses(shelf.Owned),
		Wanted: toBookResponses(shelf.Wanted),
	})
}

// Create adds an owned or wanted claim for the caller, creating the book on
// first use.
// POST /api/v1/books
//
// @Summary      Add a book
// @Description  Marks a book as owned or wanted by the caller. The book is created from info if it is not known yet.
// @Tags         Books
// @Accept       json
// @Produce      json
// @Param        body  body      CreateBookRequest  true  "Book and relation"
// @Success      201   {object}  CreateBookResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books [post]
func (h *booksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	var req CreateBookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Info == nil {
		writeError(w, http.StatusBadRequest, "the requested data was not provided", "BAD_REQUEST")
		return
	}

	id, err := h.ledger.AddClaim(r.Context(), req.Info.GoogleID, req.Info.Metadata, user, catalog.ClaimKind(req.Type))
	if err != nil {
		writeDomainError(w, r, h.log, "add claim", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateBookResponse{ID: id})
}

// Matches returns every direct swap available to the caller.
// GET /api/v1/books/matches
//
// @Summary      Find swaps
// @Description  Returns pairs of books the caller can swap with another user. Duplicates are kept.
// @Tags         Books
// @Produce      json
// @Success      200  {array}   MatchResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books/matches [get]
func (h *booksAPIHandler) Matches(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	matches, err := h.finder.FindMatches(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, h.log, "find matches", err)
		return
	}

	writeJSON(w, http.StatusOK, toMatchResponses(matches))
}

// Get returns one book with the caller's relation to it.
// GET /api/v1/books/{id}
//
// @Summary      Get a book
// @Description  Returns a book and whether the caller owns it, wants it, or neither.
// @Tags         Books
// @Produce      json
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  BookDetailResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books/{id} [get]
func (h *booksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	b, rel, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeDomainError(w, r, h.log, "get book", err)
		return
	}

	writeJSON(w, http.StatusOK, BookDetailResponse{Info: toBookResponse(b), Type: string(rel)})
}

// Delete removes the caller's claim on a book. The book itself is deleted
// once nobody owns or wants it.
// DELETE /api/v1/books/{id}
//
// @Summary      Remove a book
// @Description  Removes the caller's owned or wanted claim on the book.
// @Tags         Books
// @Param        id   path      string  true  "Book ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books/{id} [delete]
func (h *booksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	if err := h.ledger.RemoveClaim(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		writeDomainError(w, r, h.log, "remove claim", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll removes every claim the caller holds.
// DELETE /api/v1/books
//
// @Summary      Remove all my books
// @Description  Removes every owned and wanted claim of the caller.
// @Tags         Books
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /books [delete]
func (h *booksAPIHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserIDFromContext(r.Context())

	if err := h.ledger.RemoveAll(r.Context(), user); err != nil {
		writeDomainError(w, r, h.log, "remove all claims", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
