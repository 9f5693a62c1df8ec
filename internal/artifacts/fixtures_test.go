// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

// Three-genre toy network: each word pushes the pooled embedding toward one
// class. "space" -> 0, "dragon" -> 1, "love"/"murder" -> 2.
const (
	testModelJSON = `{
  "name": "genre_classifier",
  "input_length": 4,
  "layers": [
    {"type": "embedding", "input_dim": 5, "output_dim": 2,
     "weights": [[0,0],[1,0],[0,1],[-1,0],[0,-1]]},
    {"type": "global_average_pooling1d"},
    {"type": "dropout", "rate": 0.5},
    {"type": "dense", "units": 3, "activation": "softmax",
     "kernel": [[1,0,-1],[0,1,-1]], "bias": [0,0,0]}
  ]
}`

	testTokenizerJSON = `{
  "class_name": "Tokenizer",
  "config": {
    "num_words": null,
    "filters": "!\"#$%&()*+,-./:;<=>?@[\\]^_` + "`" + `{|}~\t\n",
    "lower": true,
    "split": " ",
    "char_level": false,
    "oov_token": null,
    "word_index": "{\"space\": 1, \"dragon\": 2, \"love\": 3, \"murder\": 4}"
  }
}`

	testLabelsJSON = `{"classes": ["Science Fiction", "Fantasy", "Romance"]}`

	testCatalogCSV = `Book,Author,Description,Genres,Avg_Rating,Genre_Label
Dune,Frank Herbert,Desert planet,['Science Fiction'],4.25,0
The Hobbit,J.R.R. Tolkien,Dragons,['Fantasy'],4.28,1
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeArtifacts(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		Model:        writeFile(t, dir, "model.json", testModelJSON),
		Tokenizer:    writeFile(t, dir, "tokenizer.json", testTokenizerJSON),
		LabelEncoder: writeFile(t, dir, "label_encoder.json", testLabelsJSON),
		Catalog:      writeFile(t, dir, "book.csv", testCatalogCSV),
	}
}
