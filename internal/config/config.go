// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package config loads Bookshelf configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values matching the historical deployment
//  2. Config File: optional YAML file (config.yaml, or CONFIG_PATH)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Artifacts  ArtifactsConfig  `koanf:"artifacts"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 5000)
//   - HTTP_TIMEOUT: per-request deadline and read/write timeout (default: 0, none)
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget (default: 10s)
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=0"` // 0 disables request deadlines
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SecurityConfig holds the request-level access controls.
//
// APIKey is the one shared secret callers pass as ?key=. When it is empty
// the /recommend route is open. Rate limiting is off until RateLimitReqs
// (RATE_LIMIT_REQUESTS) is positive.
type SecurityConfig struct {
	APIKey            string        `koanf:"api_key"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// ArtifactsConfig points at the on-disk model artifacts loaded at startup.
// Paths are relative to the working directory, like the original service.
type ArtifactsConfig struct {
	ModelPath        string `koanf:"model_path" validate:"required"`
	TokenizerPath    string `koanf:"tokenizer_path" validate:"required"`
	LabelEncoderPath string `koanf:"label_encoder_path" validate:"required"`
	MaxSequenceLen   int    `koanf:"max_sequence_len" validate:"min=1"`
	Padding          string `koanf:"padding" validate:"oneof=pre post"`
	Truncating       string `koanf:"truncating" validate:"oneof=pre post"`
}

// CatalogConfig selects where the book catalog is read from and how it is queried.
type CatalogConfig struct {
	Path       string `koanf:"path" validate:"required"`
	Backend    string `koanf:"backend" validate:"oneof=memory duckdb"`
	DuckDBPath string `koanf:"duckdb_path"`
	Limit      int    `koanf:"limit" validate:"min=1"`
}

// ClassifierConfig tunes the classification result cache.
// CacheSize 0 disables caching.
type ClassifierConfig struct {
	CacheSize int           `koanf:"cache_size" validate:"min=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// KeyRequired reports whether /recommend callers must present the API key.
func (s SecurityConfig) KeyRequired() bool {
	return s.APIKey != ""
}

// Load reads configuration from defaults, an optional YAML file, and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
