// Package analyzer runs the full page analysis pipeline: build the
// mode-specific prompt, call the completion provider, parse the unreliable
// response, run at most one repair round, and normalize into the fixed
// result schema. The pipeline is total past the parse step: whatever shape
// the model returns, the caller gets a fully shaped AnalysisResult.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/sitebrief/models"
	"github.com/dtnitsch/sitebrief/pkg/completion"
	"github.com/dtnitsch/sitebrief/pkg/prompt"
	"github.com/dtnitsch/sitebrief/pkg/repair"
	"github.com/dtnitsch/sitebrief/pkg/schema"
)

// Completer is the slice of the completion client the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyzer drives one or more analyses against a single completion client.
type Analyzer struct {
	client Completer
	logger *slog.Logger
}

func New(client Completer, logger *slog.Logger) *Analyzer {
	return &Analyzer{client: client, logger: logger}
}

// Analyze runs the pipeline for one scraped page. Errors come only from the
// completion call or an unparseable first response; everything downstream
// of a successful parse degrades to defaults instead of failing.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	p := prompt.Build(req.Mode, req.Markdown, req.URL)
	if p.Truncated {
		a.logger.Info("content truncated for prompt", "url", req.URL, "word_limit", prompt.WordLimit)
	}

	raw, err := a.client.Complete(ctx, p.System, p.User)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("analysis completion failed: %w", err)
	}

	parsed, err := completion.ParseObject(raw)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	parsed = repair.IfIncomplete(ctx, a.client, req.Mode, parsed, a.logger)

	result := schema.Normalize(req.Mode, parsed, schema.Context{URL: req.URL, RawText: req.RawText})
	if schema.Degenerate(result) {
		a.logger.Warn("analysis produced no usable content", "url", req.URL, "mode", string(req.Mode))
	}
	return result, nil
}
