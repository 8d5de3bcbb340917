package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joestump/bookswap/internal/api"
	"github.com/joestump/bookswap/internal/auth"
	"github.com/joestump/bookswap/internal/catalog"
	"github.com/joestump/bookswap/internal/ledger"
	"github.com/joestump/bookswap/internal/match"
	"github.com/joestump/bookswap/internal/store"
	"github.com/joestump/bookswap/internal/testutil"
)

// testEnv holds the router and collaborators needed for API integration tests.
type testEnv struct {
	Router http.Handler
	Books  *store.SQLBookStore
	Ledger *ledger.Ledger
	Signer *testutil.RSASigner
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with a real ledger and finder.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	books := store.NewSQLBookStore(testutil.NewTestDB(t))
	l := ledger.New(books, nil)

	signer := testutil.NewRSASigner(t)
	verifier, err := auth.NewPublicKeyVerifier(signer.PublicKeyBase64(t), "")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	router := api.NewAPIRouter(api.Deps{
		BearerAuth: auth.NewBearerTokenMiddleware(verifier, nil),
		Ledger:     l,
		Finder:     match.NewFinder(l, nil),
	})
	return &testEnv{Router: router, Books: books, Ledger: l, Signer: signer}
}

// do sends a request as user and returns the recorded response.
func (env *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req = authRequest(req, env.Signer.Token(t, user))
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// addBook posts a claim as user and returns the book id.
func (env *testEnv) addBook(t *testing.T, user, googleID, kind string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/books", user, api.CreateBookRequest{
		Info: &api.BookInfo{GoogleID: googleID, Metadata: testMetadata("Book " + googleID)},
		Type: kind,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add %s as %s: status %d: %s", googleID, kind, rec.Code, rec.Body.String())
	}
	var resp api.CreateBookResponse
	decode(t, rec, &resp)
	return resp.ID
}

func testMetadata(title string) catalog.Metadata {
	return catalog.Metadata{
		Title:         title,
		Authors:       []string{"N. K. Jemisin"},
		Publisher:     "Orbit",
		PublishedDate: "2015-08-04",
		Description:   "The season of endings has begun.",
		PageCount:     468,
		Categories:    []string{"Fiction"},
		ImageLinks:    catalog.ImageLinks{SmallThumbnail: "http://books.example/s.jpg", Thumbnail: "http://books.example/t.jpg"},
		Language:      "en",
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

// authRequest adds a Bearer token to the request.
func authRequest(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}
