// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/catalog"
	"github.com/tomtom215/bookshelf/internal/logging"
)

// Paths locates the on-disk artifacts.
type Paths struct {
	Model        string
	Tokenizer    string
	LabelEncoder string
	Catalog      string
}

// Bundle is the process-wide, read-only state built once at startup.
type Bundle struct {
	Model     *Model
	Tokenizer *Tokenizer
	Labels    *LabelEncoder
	Books     []catalog.Book
}

// Load reads the model, tokenizer, label encoder and catalog in that order.
// The first failure aborts the load; there is no partial bundle.
func Load(p Paths) (*Bundle, error) {
	start := time.Now()
	log := logging.WithComponent("artifacts")

	model, err := LoadModel(p.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	log.Info().
		Str("path", p.Model).
		Int("layers", len(model.layers)).
		Int("classes", model.OutputDim()).
		Msg("Model loaded")

	tokenizer, err := LoadTokenizer(p.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	log.Info().
		Str("path", p.Tokenizer).
		Int("vocabulary", tokenizer.VocabularySize()).
		Msg("Tokenizer loaded")

	labels, err := LoadLabelEncoder(p.LabelEncoder)
	if err != nil {
		return nil, fmt.Errorf("load label encoder: %w", err)
	}
	if labels.Len() != model.OutputDim() {
		log.Warn().
			Int("label_classes", labels.Len()).
			Int("model_classes", model.OutputDim()).
			Msg("Label encoder class count differs from model output width")
	}

	books, err := catalog.LoadCSV(p.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info().
		Str("path", p.Catalog).
		Int("books", len(books)).
		Dur("elapsed", time.Since(start)).
		Msg("Artifacts loaded")

	return &Bundle{
		Model:     model,
		Tokenizer: tokenizer,
		Labels:    labels,
		Books:     books,
	}, nil
}
