// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type sampleRequest struct {
	Text    string `validate:"required"`
	Mode    string `validate:"omitempty,oneof=pre post"`
	Port    int    `validate:"min=1,max=65535"`
	Comment string `validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       sampleRequest
		wantErr     bool
		wantMessage string
		wantTag     string
	}{
		{
			name:  "valid",
			input: sampleRequest{Text: "a dragon", Mode: "pre", Port: 5000},
		},
		{
			name:  "whitespace text is not empty",
			input: sampleRequest{Text: " ", Port: 1},
		},
		{
			name:        "missing text uses legacy message",
			input:       sampleRequest{Port: 5000},
			wantErr:     true,
			wantMessage: "Text field is required",
			wantTag:     "required",
		},
		{
			name:        "oneof",
			input:       sampleRequest{Text: "x", Mode: "middle", Port: 5000},
			wantErr:     true,
			wantMessage: "Mode must be one of: pre post",
			wantTag:     "oneof",
		},
		{
			name:        "numeric max",
			input:       sampleRequest{Text: "x", Port: 70000},
			wantErr:     true,
			wantMessage: "Port must be at most 65535",
			wantTag:     "max",
		},
		{
			name:        "string max",
			input:       sampleRequest{Text: "x", Port: 1, Comment: "too long"},
			wantErr:     true,
			wantMessage: "Comment must be at most 5 characters",
			wantTag:     "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected validation error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			first := err.First()
			if first.Error() != tt.wantMessage {
				t.Errorf("message = %q, want %q", first.Error(), tt.wantMessage)
			}
			if first.Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", first.Tag(), tt.wantTag)
			}
		})
	}
}

func TestRequestValidationError_JoinsMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&sampleRequest{Port: 0})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors()))
	}
	msg := err.Error()
	if !strings.Contains(msg, "Text field is required") || !strings.Contains(msg, "Port must be at least 1") {
		t.Errorf("unexpected joined message: %s", msg)
	}
}
