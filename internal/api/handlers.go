// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package api serves the book recommendation HTTP endpoints.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/catalog"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/validation"
)

// maxRequestBodySize bounds the /recommend payload.
const maxRequestBodySize = 1 << 20

// Classifier predicts a genre label for free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (int, error)
}

// HandlerConfig holds the request-path settings.
type HandlerConfig struct {
	// APIKey, when non-empty, must match the ?key= query parameter.
	APIKey string

	// Limit caps the number of recommendations; <= 0 uses catalog.DefaultLimit.
	Limit int
}

// Handler serves /check and /recommend. It holds only read-only state.
type Handler struct {
	classifier Classifier
	store      catalog.Store
	cfg        HandlerConfig
}

// NewHandler creates a Handler.
func NewHandler(classifier Classifier, store catalog.Store, cfg HandlerConfig) *Handler {
	return &Handler{
		classifier: classifier,
		store:      store,
		cfg:        cfg,
	}
}

// Check is the liveness probe.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, CheckResponse{Message: "book api is up and running"})
}

// Recommend classifies the request text and returns books from the
// predicted genre, optionally narrowed by author and rating tier.
//
// The API key check runs before the body is read, so an unauthorized
// caller never reaches the classifier.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.Ctx(ctx)

	if !h.authorized(r) {
		metrics.APIKeyRejections.Inc()
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected request with invalid API key")
		writeError(w, r, http.StatusForbidden, msgInvalidAPIKey)
		return
	}

	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("Failed to decode recommend request")
		writeError(w, r, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, http.StatusBadRequest, requestErrorMessage(verr))
		return
	}

	label, err := h.classifier.Classify(ctx, req.Text)
	if err != nil {
		log.Error().Err(err).Msg("Classification failed")
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	query := catalog.Query{
		Label:            label,
		RatingPreference: req.RatingPreference.Int(),
		Limit:            h.cfg.Limit,
	}
	if req.Author != nil {
		query.Author = *req.Author
	}

	event := log.Debug().Int("genre_label", label).Str("author", query.Author)
	if query.RatingPreference != nil {
		event = event.Int("rating_preference", *query.RatingPreference)
	}
	event.Msg("Recommendation query")

	books, err := h.store.Recommend(ctx, query)
	if err != nil {
		log.Error().Err(err).Int("genre_label", label).Msg("Recommendation query failed")
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	metrics.RecordRecommendation(h.store.Backend(), len(books))

	if books == nil {
		books = []catalog.Book{}
	}
	writeJSON(w, r, http.StatusOK, RecommendResponse{
		Status:          "success",
		BookCount:       len(books),
		Recommendations: books,
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.APIKey == "" {
		return true
	}
	key := r.URL.Query().Get("key")
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.APIKey)) == 1
}

// requestErrorMessage returns the first validation failure. For the text
// field this is exactly "Text field is required".
func requestErrorMessage(err error) string {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		if first := verr.First(); first != nil {
			return first.Error()
		}
	}
	return err.Error()
}

// NotFound answers unknown routes with a JSON error.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, msgNotAllowed)
}
