// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

const createBooksTable = `CREATE OR REPLACE TABLE books (
	row_id      BIGINT PRIMARY KEY,
	book        VARCHAR,
	author      VARCHAR,
	description VARCHAR,
	genres      VARCHAR,
	avg_rating  DOUBLE,
	genre_label BIGINT
)`

// DuckDBStore serves recommendations from a DuckDB table loaded from the
// catalog rows. row_id preserves file order so results match MemoryStore.
type DuckDBStore struct {
	conn  *sql.DB
	count int
}

// NewDuckDBStore opens path (":memory:" for an in-process database), replaces
// the books table with the given rows, and returns a store over it.
func NewDuckDBStore(ctx context.Context, path string, books []Book) (*DuckDBStore, error) {
	// Extensions are never needed here; disabling autoload avoids network access at startup.
	connStr := fmt.Sprintf("%s?autoinstall_known_extensions=false&autoload_known_extensions=false", path)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	s := &DuckDBStore{conn: conn, count: len(books)}
	start := time.Now()
	err = s.load(ctx, books)
	metrics.RecordDBQuery("INSERT", "books", time.Since(start), err)
	if err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().
		Str("path", path).
		Int("books", len(books)).
		Msg("Catalog loaded into DuckDB")
	return s, nil
}

func (s *DuckDBStore) load(ctx context.Context, books []Book) error {
	if _, err := s.conn.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("failed to create books table: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (row_id, book, author, description, genres, avg_rating, genre_label)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare catalog insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range books {
		b := &books[i]
		if _, err := stmt.ExecContext(ctx, i, b.Book, b.Author, b.Description, b.Genres, b.AvgRating, b.GenreLabel); err != nil {
			return fmt.Errorf("failed to insert catalog row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog load: %w", err)
	}
	return nil
}

// buildRecommendQuery renders q as SQL with positional arguments.
func buildRecommendQuery(q Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT book, author, description, genres, avg_rating, genre_label FROM books WHERE genre_label = ?`)
	args := []any{q.Label}

	if q.Author != "" {
		sb.WriteString(` AND contains(lower(author), lower(?))`)
		args = append(args, q.Author)
	}

	switch q.ratingTier() {
	case 3:
		sb.WriteString(` AND avg_rating >= 3`)
	case 4:
		sb.WriteString(` AND avg_rating >= 4`)
	case 5:
		sb.WriteString(` AND avg_rating = 5`)
	}

	sb.WriteString(` ORDER BY row_id LIMIT ?`)
	args = append(args, q.limit())
	return sb.String(), args
}

// Recommend runs the genre filter as a single SQL query.
func (s *DuckDBStore) Recommend(ctx context.Context, q Query) ([]Book, error) {
	query, args := buildRecommendQuery(q)

	start := time.Now()
	books, err := s.query(ctx, query, args, q.limit())
	metrics.RecordDBQuery("SELECT", "books", time.Since(start), err)
	return books, err
}

func (s *DuckDBStore) query(ctx context.Context, query string, args []any, limit int) ([]Book, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer closeQuietly(rows)

	books := make([]Book, 0, limit)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.Book, &b.Author, &b.Description, &b.Genres, &b.AvgRating, &b.GenreLabel); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recommendation rows: %w", err)
	}
	return books, nil
}

// Backend returns BackendDuckDB.
func (s *DuckDBStore) Backend() string { return BackendDuckDB }

// Len returns the number of rows loaded.
func (s *DuckDBStore) Len() int { return s.count }

// Close releases the DuckDB connection pool.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
