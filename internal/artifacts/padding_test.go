// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"reflect"
	"testing"
)

func TestPadSequence(t *testing.T) {
	tests := []struct {
		name       string
		seq        []int
		maxlen     int
		padding    string
		truncating string
		want       []int
	}{
		{"pre padding", []int{1, 2}, 4, Pre, Pre, []int{0, 0, 1, 2}},
		{"post padding", []int{1, 2}, 4, Post, Pre, []int{1, 2, 0, 0}},
		{"exact length", []int{1, 2, 3}, 3, Pre, Pre, []int{1, 2, 3}},
		{"pre truncation keeps tail", []int{1, 2, 3, 4, 5}, 3, Pre, Pre, []int{3, 4, 5}},
		{"post truncation keeps head", []int{1, 2, 3, 4, 5}, 3, Pre, Post, []int{1, 2, 3}},
		{"empty is all padding", nil, 3, Pre, Pre, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PadSequence(tt.seq, tt.maxlen, tt.padding, tt.truncating)
			if err != nil {
				t.Fatalf("PadSequence() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PadSequence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPadSequence_DoesNotAliasInput(t *testing.T) {
	seq := []int{7, 8}
	got, err := PadSequence(seq, 2, Post, Post)
	if err != nil {
		t.Fatalf("PadSequence() error = %v", err)
	}
	got[0] = 0
	if seq[0] != 7 {
		t.Error("PadSequence must not share storage with its input")
	}
}

func TestPadSequence_Errors(t *testing.T) {
	if _, err := PadSequence([]int{1}, 0, Pre, Pre); err == nil {
		t.Error("expected error for maxlen 0")
	}
	if _, err := PadSequence([]int{1}, 2, "middle", Pre); err == nil {
		t.Error("expected error for unknown padding")
	}
	if _, err := PadSequence([]int{1}, 2, Pre, "middle"); err == nil {
		t.Error("expected error for unknown truncating")
	}
}
