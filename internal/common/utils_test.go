package common

import (
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean URL unchanged", in: "https://example.com/page", want: "https://example.com/page"},
		{name: "surrounding whitespace", in: "  https://example.com \n", want: "https://example.com"},
		{name: "trailing comma", in: "https://example.com,", want: "https://example.com"},
		{name: "markdown link", in: "[click here](https://example.com/doc)", want: "https://example.com/doc"},
		{name: "wrapping parens", in: "(https://example.com)", want: "https://example.com"},
		{name: "angle brackets", in: "<https://example.com>", want: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeAndValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid https", in: "https://example.com/page?q=1"},
		{name: "valid http", in: "http://example.com"},
		{name: "sanitizable", in: " https://example.com, "},
		{name: "empty", in: "", wantErr: true},
		{name: "whitespace only", in: "   ", wantErr: true},
		{name: "unencoded space", in: "https://example.com/a b", wantErr: true},
		{name: "wrong scheme", in: "ftp://example.com", wantErr: true},
		{name: "no scheme", in: "example.com", wantErr: true},
		{name: "malformed host", in: "https://example.com{}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeAndValidateURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeAndValidateURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && !strings.HasPrefix(got, "http") {
				t.Errorf("sanitized URL %q lost its scheme", got)
			}
		})
	}
}

func TestMarshalOutput(t *testing.T) {
	v := map[string]string{"key": "value"}

	jsonOut, err := MarshalOutput(v, "json")
	if err != nil {
		t.Fatalf("json marshal error = %v", err)
	}
	if !strings.Contains(string(jsonOut), `"key": "value"`) {
		t.Errorf("json output = %s", jsonOut)
	}

	yamlOut, err := MarshalOutput(v, "yaml")
	if err != nil {
		t.Fatalf("yaml marshal error = %v", err)
	}
	if !strings.Contains(string(yamlOut), "key: value") {
		t.Errorf("yaml output = %s", yamlOut)
	}
}
