// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"

	"github.com/tomtom215/bookshelf/internal/validation"
)

// Validate checks struct tags first, then cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Catalog.Backend == "duckdb" && c.Catalog.DuckDBPath == "" {
		return fmt.Errorf("DUCKDB_PATH is required when CATALOG_BACKEND=duckdb")
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}

	if c.Classifier.CacheSize > 0 && c.Classifier.CacheTTL <= 0 {
		return fmt.Errorf("CLASSIFY_CACHE_TTL must be positive when the classify cache is enabled")
	}

	return nil
}
