package completion

import "fmt"

// ConfigurationError means a required credential or setting is missing.
// It is raised before any network call and is never retried.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("completion not configured: %s is not set", e.Missing)
}

// ProviderError is a non-success HTTP response from a completion provider.
// It carries the status and response body for diagnostics; this layer does
// not retry.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.Status, e.Body)
}

// ResponseParseError means none of the parse strategies produced a JSON
// object from the provider's response text. Raw carries the full response
// for diagnostic surfacing.
type ResponseParseError struct {
	Raw string
}

func (e *ResponseParseError) Error() string {
	return "model response did not contain valid JSON"
}
