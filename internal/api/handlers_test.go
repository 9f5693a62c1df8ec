// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/catalog"
)

// mockClassifier returns a fixed label and counts invocations.
type mockClassifier struct {
	label int
	err   error
	panic bool
	calls atomic.Int64
	texts []string
}

func (m *mockClassifier) Classify(_ context.Context, text string) (int, error) {
	m.calls.Add(1)
	m.texts = append(m.texts, text)
	if m.panic {
		panic("model exploded")
	}
	return m.label, m.err
}

// failingStore always errors.
type failingStore struct{ catalog.MemoryStore }

func (failingStore) Recommend(context.Context, catalog.Query) ([]catalog.Book, error) {
	return nil, errors.New("duckdb: connection closed")
}

func testCatalog() []catalog.Book {
	books := []catalog.Book{
		{Book: "Dune", Author: "Frank Herbert", Description: "Spice", Genres: "['Science Fiction']", AvgRating: 4.25, GenreLabel: 1},
		{Book: "Foundation", Author: "Isaac Asimov", Description: "Empire", Genres: "['Science Fiction']", AvgRating: 5, GenreLabel: 1},
		{Book: "The Hobbit", Author: "J.R.R. Tolkien", Description: "Dragons", Genres: "['Fantasy']", AvgRating: 4.28, GenreLabel: 0},
		{Book: "I, Robot", Author: "Isaac Asimov", Description: "Laws", Genres: "['Science Fiction']", AvgRating: 4.19, GenreLabel: 1},
		{Book: "Hyperion", Author: "Dan Simmons", Description: "Shrike", Genres: "['Science Fiction']", AvgRating: 3.2, GenreLabel: 1},
	}
	for i := 0; i < 10; i++ {
		books = append(books, catalog.Book{Book: fmt.Sprintf("Filler %d", i), Author: "Anon", AvgRating: 2.5, GenreLabel: 2})
	}
	return books
}

type routerOptions struct {
	apiKey     string
	classifier *mockClassifier
	store      catalog.Store
	mwConfig   *ChiMiddlewareConfig
}

func newTestRouter(t *testing.T, opts routerOptions) (http.Handler, *mockClassifier) {
	t.Helper()
	if opts.classifier == nil {
		opts.classifier = &mockClassifier{label: 1}
	}
	if opts.store == nil {
		opts.store = catalog.NewMemoryStore(testCatalog())
	}
	if opts.mwConfig == nil {
		opts.mwConfig = DefaultChiMiddlewareConfig()
		opts.mwConfig.RateLimitDisabled = true
	}
	h := NewHandler(opts.classifier, opts.store, HandlerConfig{APIKey: opts.apiKey})
	return NewRouter(h, opts.mwConfig, 5*time.Second).SetupChi(), opts.classifier
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRecommend(t *testing.T, rec *httptest.ResponseRecorder) RecommendResponse {
	t.Helper()
	var resp RecommendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCheck(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{apiKey: "secret"})

	rec := doRequest(h, http.MethodGet, "/check", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"book api is up and running"}` {
		t.Errorf("body = %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRecommend_APIKey(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		target     string
		wantStatus int
	}{
		{"missing key", "secret", "/recommend", http.StatusForbidden},
		{"wrong key", "secret", "/recommend?key=guess", http.StatusForbidden},
		{"key prefix", "secret", "/recommend?key=secre", http.StatusForbidden},
		{"correct key", "secret", "/recommend?key=secret", http.StatusOK},
		{"no key configured", "", "/recommend", http.StatusOK},
		{"no key configured ignores key param", "", "/recommend?key=anything", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, cls := newTestRouter(t, routerOptions{apiKey: tt.apiKey})

			rec := doRequest(h, http.MethodPost, tt.target, `{"text":"a desert planet"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusForbidden {
				if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"no valid api key passed to invoke model!"}` {
					t.Errorf("body = %s", got)
				}
				if cls.calls.Load() != 0 {
					t.Error("classifier must not run for unauthorized requests")
				}
			}
		})
	}
}

func TestRecommend_ForbiddenBeforeBodyValidation(t *testing.T) {
	h, cls := newTestRouter(t, routerOptions{apiKey: "secret"})

	rec := doRequest(h, http.MethodPost, "/recommend", `not json`)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if cls.calls.Load() != 0 {
		t.Error("classifier must not run")
	}
}

func TestRecommend_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{"missing text", `{"author":"Asimov"}`, `{"error":"Text field is required"}`},
		{"empty text", `{"text":""}`, `{"error":"Text field is required"}`},
		{"null text", `{"text":null}`, `{"error":"Text field is required"}`},
		{"null body", `null`, `{"error":"Text field is required"}`},
		{"malformed json", `{"text":`, `{"error":"invalid JSON body"}`},
		{"empty body", ``, `{"error":"invalid JSON body"}`},
		{"text is not a string", `{"text":42}`, `{"error":"invalid JSON body"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, cls := newTestRouter(t, routerOptions{})

			rec := doRequest(h, http.MethodPost, "/recommend", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
			if cls.calls.Load() != 0 {
				t.Error("classifier must not run for invalid requests")
			}
		})
	}
}

func TestRecommend_Success(t *testing.T) {
	h, cls := newTestRouter(t, routerOptions{})

	rec := doRequest(h, http.MethodPost, "/recommend", `{"text":"robots and galactic empires"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeRecommend(t, rec)
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.BookCount != len(resp.Recommendations) {
		t.Errorf("book_count %d != len(recommendations) %d", resp.BookCount, len(resp.Recommendations))
	}

	want := []string{"Dune", "Foundation", "I, Robot", "Hyperion"}
	if len(resp.Recommendations) != len(want) {
		t.Fatalf("recommendations = %+v", resp.Recommendations)
	}
	for i, b := range resp.Recommendations {
		if b.Book != want[i] {
			t.Errorf("recommendations[%d] = %q, want %q", i, b.Book, want[i])
		}
	}
	if cls.texts[0] != "robots and galactic empires" {
		t.Errorf("classifier got %q", cls.texts[0])
	}

	// Only the projected columns appear on the wire.
	body := rec.Body.String()
	for _, key := range []string{`"Book"`, `"Author"`, `"Description"`, `"Genres"`, `"Avg_Rating"`} {
		if !strings.Contains(body, key) {
			t.Errorf("body missing %s", key)
		}
	}
	if strings.Contains(body, "Genre_Label") || strings.Contains(body, "GenreLabel") {
		t.Error("genre label must not be exposed")
	}
}

func TestRecommend_Filters(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"author case-insensitive", `{"text":"x","author":"ASIMOV"}`, []string{"Foundation", "I, Robot"}},
		{"empty author ignored", `{"text":"x","author":""}`, []string{"Dune", "Foundation", "I, Robot", "Hyperion"}},
		{"tier 4", `{"text":"x","rating_preference":4}`, []string{"Dune", "Foundation", "I, Robot"}},
		{"tier 5 exact", `{"text":"x","rating_preference":5}`, []string{"Foundation"}},
		{"tier as float", `{"text":"x","rating_preference":5.0}`, []string{"Foundation"}},
		{"tier as string ignored", `{"text":"x","rating_preference":"5"}`, []string{"Dune", "Foundation", "I, Robot", "Hyperion"}},
		{"unknown tier ignored", `{"text":"x","rating_preference":2}`, []string{"Dune", "Foundation", "I, Robot", "Hyperion"}},
		{"null tier ignored", `{"text":"x","rating_preference":null}`, []string{"Dune", "Foundation", "I, Robot", "Hyperion"}},
		{"author and tier", `{"text":"x","author":"asimov","rating_preference":5}`, []string{"Foundation"}},
		{"no match is empty", `{"text":"x","author":"tolkien"}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, routerOptions{})

			rec := doRequest(h, http.MethodPost, "/recommend", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}

			resp := decodeRecommend(t, rec)
			if resp.BookCount != len(tt.want) {
				t.Fatalf("book_count = %d, want %d (%+v)", resp.BookCount, len(tt.want), resp.Recommendations)
			}
			for i, b := range resp.Recommendations {
				if b.Book != tt.want[i] {
					t.Errorf("recommendations[%d] = %q, want %q", i, b.Book, tt.want[i])
				}
			}
		})
	}
}

func TestRecommend_EmptyResultIsArray(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{classifier: &mockClassifier{label: 7}})

	rec := doRequest(h, http.MethodPost, "/recommend", `{"text":"nothing matches"}`)

	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"success","book_count":0,"recommendations":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestRecommend_LimitsToEight(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{classifier: &mockClassifier{label: 2}})

	resp := decodeRecommend(t, doRequest(h, http.MethodPost, "/recommend", `{"text":" "}`))

	if resp.BookCount != catalog.DefaultLimit {
		t.Fatalf("book_count = %d, want %d", resp.BookCount, catalog.DefaultLimit)
	}
	if resp.Recommendations[0].Book != "Filler 0" || resp.Recommendations[7].Book != "Filler 7" {
		t.Errorf("expected the first eight fillers in catalog order")
	}
}

func TestRecommend_InternalErrors(t *testing.T) {
	tests := []struct {
		name       string
		classifier *mockClassifier
		store      catalog.Store
	}{
		{"classifier error", &mockClassifier{err: errors.New("token id outside vocabulary")}, nil},
		{"store error", &mockClassifier{label: 1}, &failingStore{}},
		{"classifier panic", &mockClassifier{panic: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, routerOptions{classifier: tt.classifier, store: tt.store})

			rec := doRequest(h, http.MethodPost, "/recommend", `{"text":"anything"}`)

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
		})
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{})

	if rec := doRequest(h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
	rec := doRequest(h, http.MethodGet, "/recommend", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /recommend = %d, want 405", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"method not allowed"}` {
		t.Errorf("body = %s", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{})
	doRequest(h, http.MethodGet, "/check", "")

	rec := doRequest(h, http.MethodGet, "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h, _ := newTestRouter(t, routerOptions{})

	rec := doRequest(h, http.MethodGet, "/check", "")

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on every response")
	}
}
