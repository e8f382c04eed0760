package models

// AnalyzeConfig holds runtime configuration for an analyze run.
// All values come from CLI flags and environment variables, read once per
// invocation; nothing here is cached as mutable process state.
type AnalyzeConfig struct {
	URL     string
	Mode    Mode
	Save    bool
	OwnerID string
}
