// Package models defines the shared data structures for analysis requests
// and results.
package models

import "fmt"

// Mode selects which prompt template and structured schema apply to an
// analysis. It is fixed for the lifetime of a request.
type Mode string

const (
	ModeArticle     Mode = "article"
	ModeProduct     Mode = "product"
	ModePolicy      Mode = "policy"
	ModeCompetitive Mode = "competitive"
)

// Modes lists every valid analysis mode, in display order.
var Modes = []Mode{ModeArticle, ModeProduct, ModePolicy, ModeCompetitive}

// ParseAnalysisMode validates a mode string from a CLI flag or stored record.
func ParseAnalysisMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeArticle, ModeProduct, ModePolicy, ModeCompetitive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown analysis mode: %q (valid: article, product, policy, competitive)", s)
}
