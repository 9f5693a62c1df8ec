// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// LabelEncoder holds the class list the genre labels were encoded from.
// Class i is the genre name for label i.
type LabelEncoder struct {
	classes []string
}

type labelEncoderJSON struct {
	Classes []any `json:"classes"`
}

// LoadLabelEncoder reads a label encoder JSON export.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label encoder %s: %w", path, err)
	}
	return ParseLabelEncoder(data)
}

// ParseLabelEncoder decodes {"classes": [...]}. Numeric classes are kept in
// their printed form.
func ParseLabelEncoder(data []byte) (*LabelEncoder, error) {
	var raw labelEncoderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode label encoder: %w", err)
	}
	if len(raw.Classes) == 0 {
		return nil, fmt.Errorf("%w: label encoder has no classes", ErrArtifactShape)
	}

	classes := make([]string, len(raw.Classes))
	for i, c := range raw.Classes {
		classes[i] = fmt.Sprint(c)
	}
	return &LabelEncoder{classes: classes}, nil
}

// Classes returns a copy of the class names in label order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int { return len(e.classes) }

// Class returns the class name for a label, or false when out of range.
func (e *LabelEncoder) Class(label int) (string, bool) {
	if label < 0 || label >= len(e.classes) {
		return "", false
	}
	return e.classes[label], true
}
