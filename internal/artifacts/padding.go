// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import "fmt"

// Padding and truncation modes, matching keras pad_sequences.
const (
	Pre  = "pre"
	Post = "post"
)

// PadSequence normalizes seq to exactly maxlen entries, filling with 0.
// With padding=pre the zeros go in front; with truncating=pre the oldest
// (leading) tokens are dropped. An empty sequence becomes all zeros.
func PadSequence(seq []int, maxlen int, padding, truncating string) ([]int, error) {
	if maxlen <= 0 {
		return nil, fmt.Errorf("%w: maxlen must be positive, got %d", ErrArtifactShape, maxlen)
	}
	if padding != Pre && padding != Post {
		return nil, fmt.Errorf("padding type %q not understood", padding)
	}
	if truncating != Pre && truncating != Post {
		return nil, fmt.Errorf("truncating type %q not understood", truncating)
	}

	out := make([]int, maxlen)
	if len(seq) == 0 {
		return out, nil
	}

	trunc := seq
	if len(seq) > maxlen {
		if truncating == Pre {
			trunc = seq[len(seq)-maxlen:]
		} else {
			trunc = seq[:maxlen]
		}
	}

	if padding == Post {
		copy(out, trunc)
	} else {
		copy(out[maxlen-len(trunc):], trunc)
	}
	return out, nil
}
