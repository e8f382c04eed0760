// Package repair runs the single bounded second round of the analysis
// pipeline. When a parsed model response is missing its brief or structured
// section, one follow-up completion asks for just the missing parts; the
// returned sections overwrite the originals. Repair never fails the
// pipeline: any error leaves the first-round object untouched.
package repair

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/sitebrief/models"
	"github.com/dtnitsch/sitebrief/pkg/completion"
	"github.com/dtnitsch/sitebrief/pkg/prompt"
)

const repairSystem = "You are a JSON repair assistant. You return ONLY valid JSON objects, never markdown or prose."

// Completer is the slice of the completion client repair needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// IfIncomplete returns parsed unchanged when both the brief and structured
// sections are usable. Otherwise it runs at most one repair completion and
// merges any returned brief_json / structured_json over the original.
func IfIncomplete(ctx context.Context, client Completer, mode models.Mode, parsed map[string]any, logger *slog.Logger) map[string]any {
	missing := missingSections(parsed)
	if len(missing) == 0 {
		return parsed
	}

	logger.Warn("model response incomplete, attempting repair",
		"mode", string(mode),
		"missing", strings.Join(missing, ","))

	var shapes []string
	for _, key := range missing {
		switch key {
		case "brief_json":
			shapes = append(shapes, `  "brief_json": `+prompt.BriefSkeleton())
		case "structured_json":
			shapes = append(shapes, `  "structured_json": `+prompt.StructuredSkeleton(mode))
		}
	}
	user := fmt.Sprintf(
		"The previous response was missing the following fields: %s.\n\n"+
			"Return ONLY a JSON object that contains those missing fields and matches this shape exactly (no markdown, no explanations):\n{\n%s\n}",
		strings.Join(missing, ", "), strings.Join(shapes, ",\n"))

	raw, err := client.Complete(ctx, repairSystem, user)
	if err != nil {
		logger.Warn("repair completion failed", "error", err)
		return parsed
	}

	obj, err := completion.ParseObject(raw)
	if err != nil {
		logger.Warn("repair response was not parseable", "error", err)
		return parsed
	}

	merged := make(map[string]any, len(parsed)+2)
	for k, v := range parsed {
		merged[k] = v
	}
	if b, ok := obj["brief_json"]; ok {
		merged["brief_json"] = b
	}
	if s, ok := obj["structured_json"]; ok {
		merged["structured_json"] = s
	}
	return merged
}

// missingSections names the top-level sections that need repair. The brief
// counts as present when it has a non-empty tldr or key_points array; the
// structured section counts as present when it is an object with at least
// one key.
func missingSections(parsed map[string]any) []string {
	var missing []string
	if !hasBrief(parsed) {
		missing = append(missing, "brief_json")
	}
	if !hasStructured(parsed) {
		missing = append(missing, "structured_json")
	}
	return missing
}

func hasBrief(parsed map[string]any) bool {
	brief, ok := parsed["brief_json"].(map[string]any)
	if !ok {
		return false
	}
	return nonEmptyArray(brief["tldr"]) || nonEmptyArray(brief["key_points"])
}

func hasStructured(parsed map[string]any) bool {
	structured, ok := parsed["structured_json"].(map[string]any)
	return ok && len(structured) > 0
}

func nonEmptyArray(v any) bool {
	arr, ok := v.([]any)
	return ok && len(arr) > 0
}
