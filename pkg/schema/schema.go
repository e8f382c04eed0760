// Package schema normalizes parsed LLM output into the fixed analysis
// shapes. Normalize is total: any input, including nil or a completely
// unrelated object, produces a fully shaped result with type-safe defaults.
package schema

import (
	"github.com/dtnitsch/sitebrief/models"
)

// Context supplies the request-level fallbacks used when the model omits
// a field entirely.
type Context struct {
	URL     string
	RawText string
}

// asString coerces a decoded JSON value to a string, defaulting to "".
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asStringPtr coerces a narrative scalar field. Non-strings become nil so
// "not provided" stays distinct from "provided but empty".
func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

// asStringSlice coerces a would-be string sequence. A bare string becomes a
// single-element slice; arrays keep only their string elements; anything
// else becomes an empty slice. Never returns nil.
func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case string:
		return []string{t}
	}
	return []string{}
}

// asObjectSlice coerces a would-be object sequence to a slice of maps.
// Non-arrays become empty; non-object elements become empty maps so the
// element count is preserved and field coercion still applies.
func asObjectSlice(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, map[string]any{})
		}
	}
	return out
}

// asScoreMap coerces a confidence_scores object, keeping numeric values.
func asScoreMap(v any) map[string]float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, e := range m {
		switch n := e.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// lookup returns (value, true) when the key exists with a non-nil value.
func lookup(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// subObject returns m[key] as a map, or nil when absent or not an object.
func subObject(m map[string]any, key string) map[string]any {
	v, ok := lookup(m, key)
	if !ok {
		return nil
	}
	sub, _ := v.(map[string]any)
	return sub
}

// briefField resolves a brief summary field through its three source
// locations in priority order: brief_json.key, brief.key, then key at the
// top level. The first location where the key is present wins, even if its
// value then coerces to empty.
func briefField(parsed map[string]any, key string) []string {
	for _, src := range []map[string]any{subObject(parsed, "brief_json"), subObject(parsed, "brief"), parsed} {
		if v, ok := lookup(src, key); ok {
			return asStringSlice(v)
		}
	}
	return []string{}
}

// mirror resolves a mode-local brief mirror field: the structured section's
// own value when present, otherwise the already-normalized brief value.
func mirror(structured map[string]any, key string, brief []string) []string {
	if v, ok := lookup(structured, key); ok {
		return asStringSlice(v)
	}
	out := make([]string, len(brief))
	copy(out, brief)
	return out
}

// Normalize converts arbitrary parsed model output into an AnalysisResult
// for the given mode. It never fails; absent or malformed fields degrade to
// their declared defaults.
func Normalize(mode models.Mode, parsed map[string]any, ctx Context) models.AnalysisResult {
	title := asString(valueOf(parsed, "title"))
	if title == "" {
		title = ctx.URL
	}
	rawText := asString(valueOf(parsed, "raw_text"))
	if rawText == "" {
		rawText = ctx.RawText
	}

	brief := models.BriefSummary{
		TLDR:      briefField(parsed, "tldr"),
		KeyPoints: briefField(parsed, "key_points"),
		Citations: briefField(parsed, "citations"),
	}

	structured := subObject(parsed, "structured_json")
	if structured == nil {
		structured = subObject(parsed, "structured")
	}

	result := models.AnalysisResult{
		Title:            title,
		Structured:       normalizeStructured(mode, structured, title, brief),
		Brief:            brief,
		RawText:          rawText,
		ConfidenceScores: asScoreMap(valueOf(parsed, "confidence_scores")),
	}
	return result
}

func valueOf(m map[string]any, key string) any {
	v, _ := lookup(m, key)
	return v
}

func normalizeStructured(mode models.Mode, s map[string]any, title string, brief models.BriefSummary) models.StructuredAnalysis {
	sectionTitle := asString(valueOf(s, "title"))
	if sectionTitle == "" {
		sectionTitle = title
	}
	scores := asScoreMap(valueOf(s, "confidence_scores"))

	out := models.StructuredAnalysis{Mode: mode}
	switch mode {
	case models.ModeArticle:
		out.Article = &models.ArticleAnalysis{
			Title:              sectionTitle,
			Thesis:             asStringPtr(valueOf(s, "thesis")),
			KeyArguments:       asStringSlice(valueOf(s, "key_arguments")),
			EvidenceOrExamples: asStringSlice(valueOf(s, "evidence_or_examples")),
			CounterpointsIfAny: asStringSlice(valueOf(s, "counterpoints_if_any")),
			TLDR:               mirror(s, "tldr", brief.TLDR),
			KeyPoints:          mirror(s, "key_points", brief.KeyPoints),
			Citations:          mirror(s, "citations", brief.Citations),
			ConfidenceScores:   scores,
		}
	case models.ModeProduct:
		out.Product = &models.ProductAnalysis{
			Title:            sectionTitle,
			ValueProposition: asStringPtr(valueOf(s, "value_proposition")),
			Features:         normalizeFeatures(valueOf(s, "features")),
			TargetUsers:      asStringSlice(valueOf(s, "target_users")),
			Differentiators:  asStringSlice(valueOf(s, "differentiators")),
			PricingSignals:   asStringSlice(valueOf(s, "pricing_signals")),
			TLDR:             mirror(s, "tldr", brief.TLDR),
			KeyPoints:        mirror(s, "key_points", brief.KeyPoints),
			Citations:        mirror(s, "citations", brief.Citations),
			ConfidenceScores: scores,
		}
	case models.ModePolicy:
		out.Policy = &models.PolicyAnalysis{
			Title:                 sectionTitle,
			Scope:                 asStringPtr(valueOf(s, "scope")),
			Obligations:           normalizeObligations(valueOf(s, "obligations")),
			Restrictions:          normalizeRestrictions(valueOf(s, "restrictions")),
			EffectiveDatesOrNotes: asStringSlice(valueOf(s, "effective_dates_or_notes")),
			UserRisks:             normalizeUserRisks(valueOf(s, "user_risks")),
			ActionChecklist:       asStringSlice(valueOf(s, "action_checklist")),
			TLDR:                  mirror(s, "tldr", brief.TLDR),
			KeyPoints:             mirror(s, "key_points", brief.KeyPoints),
			Citations:             mirror(s, "citations", brief.Citations),
			ConfidenceScores:      scores,
		}
	case models.ModeCompetitive:
		out.Competitive = &models.CompetitiveAnalysis{
			Title:                sectionTitle,
			PositioningSummary:   asStringPtr(valueOf(s, "positioning_summary")),
			TargetSegmentSignals: normalizeSegmentSignals(valueOf(s, "target_segment_signals")),
			Differentiators:      normalizeDifferentiators(valueOf(s, "differentiators")),
			FeatureSignals:       normalizeFeatureSignals(valueOf(s, "feature_signals")),
			PricingSignals:       normalizePricingSignals(valueOf(s, "pricing_signals")),
			WeaknessesOrGaps:     normalizeWeaknesses(valueOf(s, "weaknesses_or_gaps")),
			TLDR:                 mirror(s, "tldr", brief.TLDR),
			KeyPoints:            mirror(s, "key_points", brief.KeyPoints),
			Citations:            mirror(s, "citations", brief.Citations),
			ConfidenceScores:     scores,
		}
	}
	return out
}

func normalizeFeatures(v any) []models.Feature {
	objs := asObjectSlice(v)
	out := make([]models.Feature, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.Feature{
			Feature:     asString(o["feature"]),
			Description: asString(o["description"]),
			Tier:        asString(o["tier"]),
		})
	}
	return out
}

func normalizeObligations(v any) []models.Obligation {
	objs := asObjectSlice(v)
	out := make([]models.Obligation, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.Obligation{
			Party:        asString(o["party"]),
			Obligation:   asString(o["obligation"]),
			Significance: asString(o["significance"]),
		})
	}
	return out
}

func normalizeRestrictions(v any) []models.Restriction {
	objs := asObjectSlice(v)
	out := make([]models.Restriction, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.Restriction{
			Restriction: asString(o["restriction"]),
			AppliesTo:   asString(o["applies_to"]),
			Consequence: asString(o["consequence"]),
		})
	}
	return out
}

func normalizeUserRisks(v any) []models.UserRisk {
	objs := asObjectSlice(v)
	out := make([]models.UserRisk, 0, len(objs))
	for _, o := range objs {
		severity := asString(o["severity"])
		if severity == "" {
			severity = "low"
		}
		out = append(out, models.UserRisk{
			Risk:     asString(o["risk"]),
			Severity: severity,
			Context:  asString(o["context"]),
		})
	}
	return out
}

func normalizeSegmentSignals(v any) []models.SegmentSignal {
	objs := asObjectSlice(v)
	out := make([]models.SegmentSignal, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.SegmentSignal{
			Segment:  asString(o["segment"]),
			Evidence: asString(o["evidence"]),
			Strength: asString(o["strength"]),
		})
	}
	return out
}

func normalizeDifferentiators(v any) []models.DifferentiatorClaim {
	objs := asObjectSlice(v)
	out := make([]models.DifferentiatorClaim, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.DifferentiatorClaim{
			Claim:         asString(o["claim"]),
			Credibility:   asString(o["credibility"]),
			Defensibility: asString(o["defensibility"]),
		})
	}
	return out
}

func normalizeFeatureSignals(v any) []models.FeatureSignal {
	objs := asObjectSlice(v)
	out := make([]models.FeatureSignal, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.FeatureSignal{
			FeatureArea: asString(o["feature_area"]),
			Maturity:    asString(o["maturity"]),
			Emphasis:    asString(o["emphasis"]),
		})
	}
	return out
}

func normalizePricingSignals(v any) []models.PricingSignal {
	objs := asObjectSlice(v)
	out := make([]models.PricingSignal, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.PricingSignal{
			Signal:   asString(o["signal"]),
			Strategy: asString(o["strategy"]),
			Notes:    asString(o["notes"]),
		})
	}
	return out
}

func normalizeWeaknesses(v any) []models.WeaknessGap {
	objs := asObjectSlice(v)
	out := make([]models.WeaknessGap, 0, len(objs))
	for _, o := range objs {
		out = append(out, models.WeaknessGap{
			Gap:         asString(o["gap"]),
			Opportunity: asString(o["opportunity"]),
			Confidence:  asString(o["confidence"]),
		})
	}
	return out
}
