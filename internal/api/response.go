// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// Error messages clients match on. Keep them byte-for-byte stable.
const (
	msgInvalidAPIKey = "no valid api key passed to invoke model!"
	msgTextRequired  = "Text field is required"
	msgInvalidJSON   = "invalid JSON body"
	msgInternal      = "internal server error"
	msgNotFound      = "not found"
	msgNotAllowed    = "method not allowed"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes data with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: message})
}
