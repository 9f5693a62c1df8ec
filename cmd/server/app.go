// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/artifacts"
	"github.com/tomtom215/bookshelf/internal/catalog"
	"github.com/tomtom215/bookshelf/internal/classifier"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// app holds everything built from configuration before serving starts.
type app struct {
	handler    http.Handler
	classifier *classifier.Classifier
	store      catalog.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	bundle, err := artifacts.Load(artifacts.Paths{
		Model:        cfg.Artifacts.ModelPath,
		Tokenizer:    cfg.Artifacts.TokenizerPath,
		LabelEncoder: cfg.Artifacts.LabelEncoderPath,
		Catalog:      cfg.Catalog.Path,
	})
	if err != nil {
		return nil, err
	}

	if n := bundle.Model.InputLength(); n > 0 && n != cfg.Artifacts.MaxSequenceLen {
		return nil, fmt.Errorf("%w: model expects %d tokens but MAX_SEQUENCE_LEN is %d",
			artifacts.ErrArtifactShape, n, cfg.Artifacts.MaxSequenceLen)
	}

	cls, err := classifier.New(bundle.Tokenizer, bundle.Model, classifier.Config{
		MaxSequenceLen: cfg.Artifacts.MaxSequenceLen,
		Padding:        cfg.Artifacts.Padding,
		Truncating:     cfg.Artifacts.Truncating,
		CacheSize:      cfg.Classifier.CacheSize,
		CacheTTL:       cfg.Classifier.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	store, err := catalog.NewStore(ctx, cfg.Catalog.Backend, cfg.Catalog.DuckDBPath, bundle.Books)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	metrics.CatalogBooks.Set(float64(store.Len()))

	handler := api.NewHandler(cls, store, api.HandlerConfig{
		APIKey: cfg.Security.APIKey,
		Limit:  cfg.Catalog.Limit,
	})
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(cfg.Security), cfg.Server.Timeout)

	return &app{
		handler:    router.SetupChi(),
		classifier: cls,
		store:      store,
	}, nil
}

// Close releases the catalog store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.Err(err).Msg("Error closing catalog store")
	}
}

// newHTTPServer builds the listener. Read and write deadlines follow
// HTTP_TIMEOUT; with the default of 0 a slow request is never cut off.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.Timeout > 0 {
		server.ReadTimeout = cfg.Timeout
		server.WriteTimeout = cfg.Timeout + time.Second
	}
	return server
}
