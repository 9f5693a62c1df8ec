// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package main is the entry point for the Bookshelf recommendation server.
//
// Startup order:
//
//  1. Configuration: defaults, optional config.yaml, environment (Koanf v2)
//  2. Artifacts: model, tokenizer, label encoder, then the book catalog.
//     Any failure is fatal; there is no partial start.
//  3. Catalog store: in-memory scan or a DuckDB table (CATALOG_BACKEND)
//  4. HTTP server: GET /check, POST /recommend, GET /metrics
//
// Example:
//
//	export API_KEY=$(openssl rand -hex 16)
//	export MODEL_PATH=/srv/model/model.json
//	./bookshelf
//
// SIGINT and SIGTERM stop the supervisor tree, which shuts the HTTP server
// down gracefully within SHUTDOWN_TIMEOUT.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/supervisor"
	"github.com/tomtom215/bookshelf/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("catalog_backend", cfg.Catalog.Backend).
		Bool("api_key_required", cfg.Security.KeyRequired()).
		Int("max_sequence_len", cfg.Artifacts.MaxSequenceLen).
		Msg("Starting Bookshelf")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer app.Close()

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + time.Second,
	})

	server := newHTTPServer(&cfg.Server, app.handler)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	if cfg.Classifier.CacheSize > 0 {
		tree.AddMaintenanceService(services.NewCacheJanitorService("classify-cache", app.classifier, cfg.Classifier.CacheTTL))
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Bookshelf stopped")
}
