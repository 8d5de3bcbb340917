package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joestump/bookswap/internal/handler"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, db handler.Pinger, metrics bool) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return handler.NewRouter(handler.Deps{
		API:     api,
		DB:      db,
		Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
		Metrics: metrics,
	}), &logs
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, pinger{}, false)
	rec := get(r, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body handler.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}

	r, _ = newRouter(t, pinger{err: errors.New("connection refused")}, false)
	rec = get(r, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body = handler.HealthResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unavailable" {
		t.Errorf("status = %q, want unavailable", body.Status)
	}
}

func TestRouter_MountsAPI(t *testing.T) {
	r, logs := newRouter(t, pinger{}, false)
	rec := get(r, "/api/v1/books")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418 from the mounted API", rec.Code)
	}
	if strings.Contains(logs.String(), `"request_id":""`) {
		t.Error("request id not logged")
	}
	if !strings.Contains(logs.String(), `"path":"/api/v1/books"`) || !strings.Contains(logs.String(), `"status":418`) {
		t.Errorf("request log = %s", logs.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newRouter(t, pinger{}, true)
	rec := get(r, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics body missing default collectors")
	}

	r, _ = newRouter(t, pinger{}, false)
	if rec := get(r, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics: status = %d, want 404", rec.Code)
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	r := handler.NewRouter(handler.Deps{
		API: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
		DB:     pinger{},
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
	})
	rec := get(r, "/api/v1/books")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
