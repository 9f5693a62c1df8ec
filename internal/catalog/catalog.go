// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package catalog holds the read-only book catalog and the genre filter
// that turns a predicted label into a short list of recommendations.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultLimit is the maximum number of books returned per recommendation.
const DefaultLimit = 8

// ErrMissingColumn is returned when the catalog header lacks a required column.
var ErrMissingColumn = errors.New("catalog column missing")

// Book is one catalog row. The JSON names are the catalog's column names,
// which clients already depend on.
type Book struct {
	Book        string  `json:"Book"`
	Author      string  `json:"Author"`
	Description string  `json:"Description"`
	Genres      string  `json:"Genres"`
	AvgRating   float64 `json:"Avg_Rating"`
	GenreLabel  int     `json:"-"`
}

// Query selects books for one recommendation.
type Query struct {
	Label int

	// Author is a case-insensitive substring filter; empty disables it.
	Author string

	// RatingPreference is 3, 4 or 5; nil or any other value disables it.
	RatingPreference *int

	// Limit caps the result; values <= 0 use DefaultLimit.
	Limit int
}

// Store answers recommendation queries over an immutable catalog.
// Results keep the catalog's on-disk order.
type Store interface {
	Recommend(ctx context.Context, q Query) ([]Book, error)
	Backend() string
	Len() int
	Close() error
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// ratingTier reports the tier in effect, or 0 when no rating filter applies.
func (q Query) ratingTier() int {
	if q.RatingPreference == nil {
		return 0
	}
	switch *q.RatingPreference {
	case 3, 4, 5:
		return *q.RatingPreference
	default:
		return 0
	}
}

// Matches reports whether b passes every filter in q.
// Tier 5 is an exact match on 5.0; tiers 3 and 4 are lower bounds.
func (q Query) Matches(b *Book) bool {
	if b.GenreLabel != q.Label {
		return false
	}
	if q.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(q.Author)) {
		return false
	}
	switch q.ratingTier() {
	case 3:
		return b.AvgRating >= 3
	case 4:
		return b.AvgRating >= 4
	case 5:
		return b.AvgRating == 5
	}
	return true
}

// Backends accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendDuckDB = "duckdb"
)

// NewStore builds the store for backend over books. The duckdb backend is
// wrapped in a BreakerStore that falls back to an in-memory scan.
func NewStore(ctx context.Context, backend, duckDBPath string, books []Book) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(books), nil
	case BackendDuckDB:
		duck, err := NewDuckDBStore(ctx, duckDBPath, books)
		if err != nil {
			return nil, err
		}
		return NewBreakerStore(duck, NewMemoryStore(books), DefaultBreakerSettings()), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", backend)
	}
}
