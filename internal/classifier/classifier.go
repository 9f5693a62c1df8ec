// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package classifier turns free text into a genre label using the loaded
// tokenizer and model.
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/artifacts"
	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// Tokenizer converts text to vocabulary indices.
type Tokenizer interface {
	TextToSequence(text string) []int
}

// Model maps a fixed-length index sequence to class scores.
type Model interface {
	Predict(ids []int) ([]float64, error)
}

// Config controls sequence shaping and result caching.
type Config struct {
	MaxSequenceLen int
	Padding        string
	Truncating     string

	// CacheSize of 0 disables the result cache.
	CacheSize int
	CacheTTL  time.Duration
}

// Classifier is safe for concurrent use. Tokenizer and model are read-only;
// the optional cache has its own lock.
type Classifier struct {
	tokenizer Tokenizer
	model     Model
	cfg       Config
	cache     *cache.LRU[string, int]
}

// New validates cfg and builds a Classifier.
func New(tokenizer Tokenizer, model Model, cfg Config) (*Classifier, error) {
	if tokenizer == nil || model == nil {
		return nil, fmt.Errorf("classifier requires a tokenizer and a model")
	}
	// Validate padding options once instead of on every request.
	if _, err := artifacts.PadSequence(nil, cfg.MaxSequenceLen, cfg.Padding, cfg.Truncating); err != nil {
		return nil, fmt.Errorf("invalid sequence options: %w", err)
	}

	c := &Classifier{tokenizer: tokenizer, model: model, cfg: cfg}
	if cfg.CacheSize > 0 {
		c.cache = cache.NewLRU[string, int](cfg.CacheSize, cfg.CacheTTL)
	}
	return c, nil
}

// Classify returns the index of the highest scoring class for text,
// ties going to the lowest index. Any text, including an empty one,
// yields a label.
func (c *Classifier) Classify(ctx context.Context, text string) (int, error) {
	if c.cache != nil {
		if label, ok := c.cache.Get(text); ok {
			metrics.RecordClassifyCache(true)
			return label, nil
		}
		metrics.RecordClassifyCache(false)
	}

	probs, err := c.ClassifyProbs(ctx, text)
	if err != nil {
		return 0, err
	}

	label := artifacts.ArgMax(probs)
	if label < 0 {
		return 0, fmt.Errorf("%w: model produced no scores", artifacts.ErrArtifactShape)
	}
	if c.cache != nil {
		c.cache.Add(text, label)
	}
	return label, nil
}

// ClassifyProbs runs the full pipeline and returns the raw model output.
// It never consults the cache.
func (c *Classifier) ClassifyProbs(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	probs, err := c.predict(text)
	label := artifacts.ArgMax(probs)
	metrics.RecordClassification(label, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Int("genre_label", label).
		Floats64("scores", probs).
		Dur("elapsed", time.Since(start)).
		Msg("Text classified")
	return probs, nil
}

func (c *Classifier) predict(text string) ([]float64, error) {
	seq := c.tokenizer.TextToSequence(text)
	padded, err := artifacts.PadSequence(seq, c.cfg.MaxSequenceLen, c.cfg.Padding, c.cfg.Truncating)
	if err != nil {
		return nil, err
	}
	probs, err := c.model.Predict(padded)
	if err != nil {
		return nil, fmt.Errorf("model prediction failed: %w", err)
	}
	return probs, nil
}

// CacheStats reports cache hits, misses and size; all zero when caching is off.
func (c *Classifier) CacheStats() (hits, misses int64, size int) {
	if c.cache == nil {
		return 0, 0, 0
	}
	return c.cache.Stats()
}

// CleanupExpired drops expired cache entries and returns how many were removed.
func (c *Classifier) CleanupExpired() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.CleanupExpired()
}
