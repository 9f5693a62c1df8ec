// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import "errors"

var (
	// ErrArtifactShape is returned when an artifact's dimensions are inconsistent.
	ErrArtifactShape = errors.New("artifact shape mismatch")

	// ErrUnsupportedLayer is returned for layer types or activations the runtime cannot evaluate.
	ErrUnsupportedLayer = errors.New("unsupported layer")
)
