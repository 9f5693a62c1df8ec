// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/artifacts"
	"github.com/tomtom215/bookshelf/internal/config"
)

const (
	appModelJSON = `{"input_length": 8, "layers": [
  {"type": "embedding", "weights": [[0,0],[1,0],[0,1]]},
  {"type": "global_average_pooling1d"},
  {"type": "dense", "kernel": [[1,0],[0,1]], "activation": "softmax"}]}`

	appTokenizerJSON = `{"config": {"word_index": {"rocket": 1, "wizard": 2}}}`

	appLabelsJSON = `{"classes": ["Science Fiction", "Fantasy"]}`

	appCatalogCSV = `,Book,Author,Description,Genres,Avg_Rating,Genre_Label
0,Dune,Frank Herbert,Spice,['Science Fiction'],4.25,0
1,The Hobbit,J.R.R. Tolkien,Dragons,['Fantasy'],4.28,1
2,Mistborn,Brandon Sanderson,Ash,['Fantasy'],4.45,1
3,Foundation,Isaac Asimov,Empire,['Science Fiction'],5.0,0
`
)

func writeAppFixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1", Port: 5000, Timeout: 5 * time.Second, ShutdownTimeout: time.Second,
		},
		Security: config.SecurityConfig{
			APIKey: "s3cret", RateLimitDisabled: true, CORSOrigins: []string{"*"},
		},
		Artifacts: config.ArtifactsConfig{
			ModelPath:        write("model.json", appModelJSON),
			TokenizerPath:    write("tokenizer.json", appTokenizerJSON),
			LabelEncoderPath: write("label_encoder.json", appLabelsJSON),
			MaxSequenceLen:   8,
			Padding:          artifacts.Pre,
			Truncating:       artifacts.Pre,
		},
		Catalog: config.CatalogConfig{
			Path: write("book.csv", appCatalogCSV), Backend: "memory", DuckDBPath: ":memory:", Limit: 8,
		},
		Classifier: config.ClassifierConfig{CacheSize: 16, CacheTTL: time.Minute},
		Logging:    config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestNewApp_EndToEnd(t *testing.T) {
	for _, backend := range []string{"memory", "duckdb"} {
		t.Run(backend, func(t *testing.T) {
			cfg := writeAppFixtures(t)
			cfg.Catalog.Backend = backend

			a, err := newApp(context.Background(), cfg)
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			t.Cleanup(a.Close)

			req := httptest.NewRequest(http.MethodPost, "/recommend?key=s3cret",
				strings.NewReader(`{"text":"a wizard and another wizard","rating_preference":4}`))
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp api.RecommendResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.BookCount != 2 || resp.Recommendations[0].Book != "The Hobbit" || resp.Recommendations[1].Book != "Mistborn" {
				t.Errorf("recommendations = %+v", resp.Recommendations)
			}

			req = httptest.NewRequest(http.MethodPost, "/recommend?key=wrong", strings.NewReader(`{"text":"rocket"}`))
			rec = httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusForbidden {
				t.Errorf("wrong key status = %d, want 403", rec.Code)
			}
		})
	}
}

func TestNewApp_SequenceLengthMismatch(t *testing.T) {
	cfg := writeAppFixtures(t)
	cfg.Artifacts.MaxSequenceLen = 500

	_, err := newApp(context.Background(), cfg)
	if !errors.Is(err, artifacts.ErrArtifactShape) {
		t.Errorf("newApp() error = %v, want ErrArtifactShape", err)
	}
}

func TestNewApp_MissingArtifact(t *testing.T) {
	cfg := writeAppFixtures(t)
	cfg.Artifacts.TokenizerPath = filepath.Join(t.TempDir(), "missing.json")

	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Error("expected startup to fail without a tokenizer")
	}
}

func TestNewApp_DefaultConfigNeverThrottles(t *testing.T) {
	fixtures := writeAppFixtures(t)
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MODEL_PATH", fixtures.Artifacts.ModelPath)
	t.Setenv("TOKENIZER_PATH", fixtures.Artifacts.TokenizerPath)
	t.Setenv("LABEL_ENCODER_PATH", fixtures.Artifacts.LabelEncoderPath)
	t.Setenv("CATALOG_PATH", fixtures.Catalog.Path)
	t.Setenv("MAX_SEQUENCE_LEN", "8")

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)

	codes := map[int]int{}
	for i := 0; i < 150; i++ {
		req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(`{"text":"wizard"}`))
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		codes[rec.Code]++
	}
	if codes[http.StatusOK] != 150 {
		t.Errorf("status counts = %v, want 150 x 200", codes)
	}
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	server := newHTTPServer(&config.ServerConfig{Host: "127.0.0.1", Port: 5000}, http.NotFoundHandler())
	if server.ReadTimeout != 0 || server.WriteTimeout != 0 {
		t.Errorf("default timeouts = %v/%v, want none", server.ReadTimeout, server.WriteTimeout)
	}
	if server.Addr != "127.0.0.1:5000" {
		t.Errorf("Addr = %q", server.Addr)
	}

	server = newHTTPServer(&config.ServerConfig{Host: "127.0.0.1", Port: 5000, Timeout: 5 * time.Second}, http.NotFoundHandler())
	if server.ReadTimeout != 5*time.Second || server.WriteTimeout != 6*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/6s", server.ReadTimeout, server.WriteTimeout)
	}
}
