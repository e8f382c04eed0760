package completion

import (
	"errors"
	"testing"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantErr bool
	}{
		{
			name:    "plain JSON object",
			raw:     `{"title": "ok"}`,
			wantKey: "title",
		},
		{
			name:    "object with surrounding whitespace",
			raw:     "\n  {\"title\": \"ok\"}\n",
			wantKey: "title",
		},
		{
			name:    "fenced block with language tag",
			raw:     "Here you go:\n```json\n{\"title\": \"fenced\"}\n```\nHope that helps!",
			wantKey: "title",
		},
		{
			name:    "fenced block without language tag",
			raw:     "```\n{\"title\": \"fenced\"}\n```",
			wantKey: "title",
		},
		{
			name:    "object buried in prose",
			raw:     `Sure! The analysis is {"title": "buried", "n": 1} as requested.`,
			wantKey: "title",
		},
		{
			name:    "no JSON at all",
			raw:     "I could not analyze this page.",
			wantErr: true,
		},
		{
			name:    "braces but invalid JSON",
			raw:     "{not json}",
			wantErr: true,
		},
		{
			name:    "JSON null is not an object",
			raw:     "null",
			wantErr: true,
		},
		{
			name:    "array falls back to the brace substring",
			raw:     `[{"title": "in array"}]`,
			wantKey: "title",
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ParseObject(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseObject() = %v, want error", obj)
				}
				var parseErr *ResponseParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("error type = %T, want *ResponseParseError", err)
				}
				if parseErr.Raw != tt.raw {
					t.Error("parse error must carry the raw response")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseObject() error = %v", err)
			}
			if _, ok := obj[tt.wantKey]; !ok {
				t.Errorf("parsed object missing key %q: %v", tt.wantKey, obj)
			}
		})
	}
}

func TestParseObject_WholeTextWinsOverFence(t *testing.T) {
	// A valid top-level object is used as-is even if it contains fences.
	raw := `{"note": "contains a fence: ` + "```json {\\\"x\\\": 1} ```" + `"}`
	obj, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("ParseObject() error = %v", err)
	}
	if _, ok := obj["note"]; !ok {
		t.Error("whole-text parse should win when the full response is valid JSON")
	}
}
