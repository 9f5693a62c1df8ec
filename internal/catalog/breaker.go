// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// BreakerSettings tunes the circuit breaker in front of a SQL-backed store.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open duration before half-open
	MinRequests  uint32        // requests before the failure ratio is considered
	FailureRatio float64
}

// DefaultBreakerSettings returns the settings used by NewStore.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "catalog-duckdb",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerStore sends queries to primary through a circuit breaker and answers
// from fallback when primary fails or the circuit is open. Both stores must
// hold the same rows, so callers see identical results either way.
type BreakerStore struct {
	primary  Store
	fallback Store
	cb       *gobreaker.CircuitBreaker[[]Book]
	name     string
}

// NewBreakerStore wraps primary. fallback is typically a MemoryStore over the
// same books.
func NewBreakerStore(primary, fallback Store, settings BreakerSettings) *BreakerStore {
	name := settings.Name
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Book](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		// Caller cancellation says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Catalog circuit breaker state change")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	})

	return &BreakerStore{
		primary:  primary,
		fallback: fallback,
		cb:       cb,
		name:     name,
	}
}

// Recommend queries primary, falling back on any backend failure.
// Context errors are returned as-is.
func (s *BreakerStore) Recommend(ctx context.Context, q Query) ([]Book, error) {
	books, err := s.cb.Execute(func() ([]Book, error) {
		return s.primary.Recommend(ctx, q)
	})
	if err == nil {
		metrics.RecordCircuitBreakerRequest(s.name, "success")
		return books, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordCircuitBreakerRequest(s.name, "rejected")
	} else {
		metrics.RecordCircuitBreakerRequest(s.name, "failure")
		logging.Warn().Err(err).Str("breaker", s.name).Msg("Primary catalog query failed, using fallback")
	}
	return s.fallback.Recommend(ctx, q)
}

// State reports the breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

// Backend reports the primary backend.
func (s *BreakerStore) Backend() string { return s.primary.Backend() }

// Len returns the primary row count.
func (s *BreakerStore) Len() int { return s.primary.Len() }

// Close closes both stores.
func (s *BreakerStore) Close() error {
	return errors.Join(s.primary.Close(), s.fallback.Close())
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
