// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Catalog column names as written by the data preparation notebook.
const (
	ColumnBook        = "Book"
	ColumnAuthor      = "Author"
	ColumnDescription = "Description"
	ColumnGenres      = "Genres"
	ColumnAvgRating   = "Avg_Rating"
	ColumnGenreLabel  = "Genre_Label"
)

var requiredColumns = []string{
	ColumnBook, ColumnAuthor, ColumnDescription, ColumnGenres, ColumnAvgRating, ColumnGenreLabel,
}

// LoadCSV reads the whole catalog file into memory.
func LoadCSV(path string) ([]Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	books, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return books, nil
}

// ParseCSV decodes a catalog with a header row. Columns are found by name,
// extra columns (such as an unnamed index) are ignored, and any row that
// cannot be parsed fails the whole load.
func ParseCSV(r io.Reader) ([]Book, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty catalog", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var books []Book
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		b, err := parseRow(record, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		books = append(books, b)
	}
	return books, nil
}

func parseRow(record []string, index map[string]int) (Book, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(record) {
			return "", fmt.Errorf("%w: %s absent from row", ErrMissingColumn, col)
		}
		return record[i], nil
	}

	var b Book
	var err error
	if b.Book, err = field(ColumnBook); err != nil {
		return b, err
	}
	if b.Author, err = field(ColumnAuthor); err != nil {
		return b, err
	}
	if b.Description, err = field(ColumnDescription); err != nil {
		return b, err
	}
	if b.Genres, err = field(ColumnGenres); err != nil {
		return b, err
	}

	rating, err := field(ColumnAvgRating)
	if err != nil {
		return b, err
	}
	if b.AvgRating, err = strconv.ParseFloat(strings.TrimSpace(rating), 64); err != nil {
		return b, fmt.Errorf("invalid %s %q: %w", ColumnAvgRating, rating, err)
	}

	label, err := field(ColumnGenreLabel)
	if err != nil {
		return b, err
	}
	if b.GenreLabel, err = parseLabel(label); err != nil {
		return b, fmt.Errorf("invalid %s %q: %w", ColumnGenreLabel, label, err)
	}
	return b, nil
}

// parseLabel accepts "3" and the "3.0" pandas writes for float columns.
func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}
