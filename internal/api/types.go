// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"math"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/catalog"
)

// RecommendRequest is the POST /recommend body.
type RecommendRequest struct {
	Text             string           `json:"text" validate:"required"`
	Author           *string          `json:"author"`
	RatingPreference RatingPreference `json:"rating_preference"`
}

// RatingPreference is an optional rating tier. Integral JSON numbers
// (4 or 4.0) select a tier; strings, booleans, fractions and null leave it
// unset, so an unusable value disables the rating filter instead of
// failing the request.
type RatingPreference struct {
	value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *RatingPreference) UnmarshalJSON(data []byte) error {
	p.value = nil

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	v := int(f)
	p.value = &v
	return nil
}

// Int returns the tier, or nil when none was given.
func (p RatingPreference) Int() *int {
	return p.value
}

// RecommendResponse is the 200 body of POST /recommend.
type RecommendResponse struct {
	Status          string         `json:"status"`
	BookCount       int            `json:"book_count"`
	Recommendations []catalog.Book `json:"recommendations"`
}

// CheckResponse is the GET /check body.
type CheckResponse struct {
	Message string `json:"message"`
}
