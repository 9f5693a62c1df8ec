// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultFilters is the Keras Tokenizer default filter set.
const DefaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Tokenizer maps raw text to vocabulary indices the way the Keras
// Tokenizer the model was trained with does.
type Tokenizer struct {
	wordIndex map[string]int
	numWords  int // 0 means unlimited
	filters   string
	lower     bool
	split     string
	charLevel bool
	oovIndex  int // 0 means no OOV token
	replacer  *strings.Replacer
}

// tokenizerJSON is the shape of keras Tokenizer.to_json().
// word_index is itself a JSON-encoded string in that export, but hand-written
// fixtures commonly use a plain object, so both are accepted.
type tokenizerJSON struct {
	ClassName string `json:"class_name"`
	Config    struct {
		NumWords  *int            `json:"num_words"`
		Filters   *string         `json:"filters"`
		Lower     *bool           `json:"lower"`
		Split     *string         `json:"split"`
		CharLevel bool            `json:"char_level"`
		OOVToken  *string         `json:"oov_token"`
		WordIndex json.RawMessage `json:"word_index"`
	} `json:"config"`
}

// LoadTokenizer reads a Keras tokenizer JSON export.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer %s: %w", path, err)
	}
	return ParseTokenizer(data)
}

// ParseTokenizer decodes a Keras tokenizer JSON export.
func ParseTokenizer(data []byte) (*Tokenizer, error) {
	var raw tokenizerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode tokenizer: %w", err)
	}

	wordIndex, err := decodeWordIndex(raw.Config.WordIndex)
	if err != nil {
		return nil, err
	}

	t := &Tokenizer{
		wordIndex: wordIndex,
		filters:   DefaultFilters,
		lower:     true,
		split:     " ",
		charLevel: raw.Config.CharLevel,
	}
	if raw.Config.NumWords != nil {
		t.numWords = *raw.Config.NumWords
	}
	if raw.Config.Filters != nil {
		t.filters = *raw.Config.Filters
	}
	if raw.Config.Lower != nil {
		t.lower = *raw.Config.Lower
	}
	if raw.Config.Split != nil && *raw.Config.Split != "" {
		t.split = *raw.Config.Split
	}
	if raw.Config.OOVToken != nil {
		t.oovIndex = wordIndex[*raw.Config.OOVToken]
	}

	pairs := make([]string, 0, 2*len(t.filters))
	for _, r := range t.filters {
		pairs = append(pairs, string(r), t.split)
	}
	t.replacer = strings.NewReplacer(pairs...)

	return t, nil
}

func decodeWordIndex(raw json.RawMessage) (map[string]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: tokenizer has no word_index", ErrArtifactShape)
	}

	wordIndex := make(map[string]int)
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("failed to decode word_index string: %w", err)
		}
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &wordIndex); err != nil {
		return nil, fmt.Errorf("failed to decode word_index: %w", err)
	}
	return wordIndex, nil
}

// VocabularySize returns the number of indexed words.
func (t *Tokenizer) VocabularySize() int {
	return len(t.wordIndex)
}

// TextToSequence converts one text into token indices.
// Unknown words are dropped unless an OOV token is configured. Indices at or
// above num_words are replaced by the OOV index or dropped.
func (t *Tokenizer) TextToSequence(text string) []int {
	words := t.words(text)
	seq := make([]int, 0, len(words))

	for _, w := range words {
		i, ok := t.wordIndex[w]
		switch {
		case ok && t.numWords > 0 && i >= t.numWords:
			if t.oovIndex > 0 {
				seq = append(seq, t.oovIndex)
			}
		case ok:
			seq = append(seq, i)
		case t.oovIndex > 0:
			seq = append(seq, t.oovIndex)
		}
	}
	return seq
}

func (t *Tokenizer) words(text string) []string {
	if t.lower {
		text = strings.ToLower(text)
	}

	if t.charLevel {
		chars := make([]string, 0, len(text))
		for _, r := range text {
			chars = append(chars, string(r))
		}
		return chars
	}

	text = t.replacer.Replace(text)

	sep := t.split
	parts := strings.Split(text, sep)
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}
