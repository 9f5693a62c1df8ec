// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import "context"

// MemoryStore scans the catalog slice in order. It never mutates books,
// so concurrent Recommend calls need no locking.
type MemoryStore struct {
	books []Book
}

// NewMemoryStore wraps books without copying them.
func NewMemoryStore(books []Book) *MemoryStore {
	return &MemoryStore{books: books}
}

// Recommend returns at most q.Limit matching books in catalog order.
func (s *MemoryStore) Recommend(ctx context.Context, q Query) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := q.limit()
	out := make([]Book, 0, limit)
	for i := range s.books {
		if len(out) == limit {
			break
		}
		if q.Matches(&s.books[i]) {
			out = append(out, s.books[i])
		}
	}
	return out, nil
}

// Len returns the number of catalog rows.
func (s *MemoryStore) Len() int { return len(s.books) }

// Backend returns BackendMemory.
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
