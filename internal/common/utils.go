package common

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// markdownLinkPattern extracts the URL from a markdown link: [text](url) -> url
var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// urlPattern is the basic shape check applied before net/url validation.
var urlPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](/[^\s]*)?$`)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation, and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	// Remove common trailing punctuation from copy-paste errors
	// Example: "https://example.com," -> "https://example.com"
	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	// Remove leading markdown/formatting artifacts
	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// SanitizeAndValidateURL sanitizes one URL and validates the result.
func SanitizeAndValidateURL(rawURL string) (string, error) {
	cleaned := SanitizeURL(rawURL)

	if cleaned == "" {
		return "", fmt.Errorf("URL is empty")
	}
	// Literal spaces must be pre-encoded as %20
	if strings.Contains(cleaned, " ") {
		return "", fmt.Errorf("URL contains unencoded spaces: %s", cleaned)
	}
	if !urlPattern.MatchString(cleaned) {
		return "", fmt.Errorf("URL is malformed: %s", cleaned)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("URL is malformed: %s", cleaned)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https: %s", cleaned)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL has no host: %s", cleaned)
	}
	// Example: "https://example.com{}" should fail
	if strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return "", fmt.Errorf("URL host contains invalid characters: %s", cleaned)
	}

	return cleaned, nil
}

// MarshalOutput renders v in the requested output format: "yaml" or
// indented JSON for anything else.
func MarshalOutput(v any, format string) ([]byte, error) {
	if strings.ToLower(format) == "yaml" {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
