package api

import "github.com/joestump/bookswap/internal/catalog"

// --- Book types ---

// BookInfo is a book's descriptive data as sent by clients, keyed by the
// Google Books volume id.
type BookInfo struct {
	GoogleID string `json:"googleId"`
	catalog.Metadata
}

// CreateBookRequest is the request body for POST /api/v1/books.
type CreateBookRequest struct {
	Info *BookInfo `json:"info"`
	Type string    `json:"type" enums:"owned,wanted"`
}

// CreateBookResponse is returned by POST /api/v1/books.
type CreateBookResponse struct {
	ID string `json:"id"`
}

// BookResponse is the JSON representation of a single book. Who owns or
// wants a book is never exposed.
type BookResponse struct {
	ID       string `json:"id"`
	GoogleID string `json:"googleId"`
	catalog.Metadata
}

// ShelfResponse is returned by GET /api/v1/books.
type ShelfResponse struct {
	Owned  []BookResponse `json:"owned"`
	Wanted []BookResponse `json:"wanted"`
}

// BookDetailResponse is returned by GET /api/v1/books/{id}.
type BookDetailResponse struct {
	Info BookResponse `json:"info"`
	Type string       `json:"type" enums:"owned,wanted,none"`
}

// MatchResponse is one possible swap: the caller gives ToGive to OtherUser
// and gets ToGet in return.
type MatchResponse struct {
	ToGet     BookResponse `json:"toGet"`
	ToGive    BookResponse `json:"toGive"`
	OtherUser string       `json:"otherUser"`
}

// --- Error types ---

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Fields []catalog.FieldError `json:"fields,omitempty"`
}

func toBookResponse(b *catalog.Book) BookResponse {
	return BookResponse{ID: b.ID, GoogleID: b.ExternalID, Metadata: b.Metadata}
}

func toBookResponses(books []*catalog.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

func toMatchResponses(matches []catalog.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResponse{
			ToGet:     toBookResponse(m.ToGet),
			ToGive:    toBookResponse(m.ToGive),
			OtherUser: m.OtherUser,
		})
	}
	return out
}
