// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// ExpiringCache drops expired entries on demand.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitorService periodically sweeps expired cache entries so idle
// entries do not hold memory until they are next looked up.
type CacheJanitorService struct {
	cache    ExpiringCache
	interval time.Duration
	name     string
}

// NewCacheJanitorService sweeps cache every interval (one minute if <= 0).
func NewCacheJanitorService(name string, cache ExpiringCache, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{cache: cache, interval: interval, name: name}
}

// Serve implements suture.Service.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.cache.CleanupExpired(); removed > 0 {
				logging.Debug().Str("cache", j.name).Int("removed", removed).Msg("Expired cache entries removed")
			}
		}
	}
}

// String implements fmt.Stringer.
func (j *CacheJanitorService) String() string {
	return j.name + "-janitor"
}
