// Package prompt builds the per-mode system and user instructions sent to
// a completion provider. The system instruction is fixed per mode; only the
// user instruction is parameterized with the page URL and content.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/sitebrief/models"
)

// WordLimit caps how many words of scraped content are embedded in the
// user instruction. Truncation keeps the prefix.
const WordLimit = 2000

// truncationNote is appended to truncated content so the model knows its
// view of the page is partial.
const truncationNote = "\n\n[Content truncated to 2000 words]"

// Prompt is one fully built provider request body, minus wire framing.
type Prompt struct {
	System    string
	User      string
	Truncated bool
}

type modePrompt struct {
	system             string
	userTemplate       string // fmt template: url, content
	structuredSkeleton string
}

// briefSkeleton is the example shape of the brief section, shared by all
// modes.
const briefSkeleton = `{ "tldr": ["string"], "key_points": ["string"], "citations": ["string"] }`

// Build produces the system and user instructions for one analysis request.
func Build(mode models.Mode, markdown, url string) Prompt {
	def := prompts[mode]

	content, truncated := truncateToWordLimit(markdown, WordLimit)
	if truncated {
		content += truncationNote
	}

	user := fmt.Sprintf(def.userTemplate, url, content)
	user += "\n\nReturn JSON matching this example exactly (no markdown, no explanations):\n" + Skeleton(mode)

	return Prompt{
		System:    def.system,
		User:      user,
		Truncated: truncated,
	}
}

// Skeleton returns the example JSON shape for a mode's full response.
func Skeleton(mode models.Mode) string {
	return "{\n" +
		`  "title": "string",` + "\n" +
		`  "structured_json": ` + prompts[mode].structuredSkeleton + ",\n" +
		`  "brief_json": ` + briefSkeleton + ",\n" +
		`  "raw_text": "string"` + "\n" +
		"}"
}

// StructuredSkeleton returns the example shape of a mode's structured
// section alone. Repair requests embed it when only that section is missing.
func StructuredSkeleton(mode models.Mode) string {
	return prompts[mode].structuredSkeleton
}

// BriefSkeleton returns the example shape of the brief section alone.
func BriefSkeleton() string {
	return briefSkeleton
}

// truncateToWordLimit keeps the first limit words of text. Text at or under
// the limit is returned unchanged, whitespace included.
func truncateToWordLimit(text string, limit int) (string, bool) {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text, false
	}
	return strings.Join(words[:limit], " "), true
}

var prompts = map[models.Mode]modePrompt{
	models.ModeArticle: {
		system: `You are an expert research analyst specializing in extracting academic and argumentative value from articles, essays, and opinion pieces.

# CONTEXT
You will analyze web content that the user is reading for research, study, or intellectual understanding. The user needs to quickly grasp the author's thesis, supporting arguments, evidence quality, and potential counterpoints without reading the full text.

# OBJECTIVE
Extract structured intelligence from the article that enables:
1. Quick comprehension of the main argument
2. Identification of key supporting evidence
3. Understanding of counterarguments or limitations
4. Citation of specific passages for future reference

# STYLE
- Academic but accessible
- Objective and analytical
- Concise without losing nuance
- Every claim must be traceable to source text

# TONE
Neutral, analytical, scholarly

# AUDIENCE
Students, researchers, journalists, analysts who need to process articles efficiently while maintaining intellectual rigor.

# RESPONSE FORMAT
Return ONLY valid JSON (no markdown, no preamble) with the ArticleAnalysis structure and confidence scores.`,
		userTemplate:       "Analyze this article and extract structured intelligence.\n\nSOURCE URL: %s\n\nARTICLE CONTENT:\n%s\n\nRemember: Return ONLY valid JSON. No explanations, no markdown formatting, just the JSON object.",
		structuredSkeleton: `{ "thesis": "string", "key_arguments": ["string"], "evidence_or_examples": ["string"], "counterpoints_if_any": ["string"] }`,
	},

	models.ModeProduct: {
		system: `You are a product marketing analyst specializing in competitive intelligence and go-to-market strategy extraction.

# CONTEXT
You will analyze product pages, landing pages, or SaaS websites. The user is evaluating this product for competitive research, market analysis, or purchase consideration. They need to quickly understand positioning, features, target users, and differentiation.

# OBJECTIVE
Extract actionable product intelligence including value proposition, features, target users, differentiators, pricing signals, and brief summary.

# STYLE/TONE
Strategic, business-focused, objective.

# RESPONSE FORMAT
Return ONLY valid JSON matching ProductAnalysis and brief_json.`,
		userTemplate:       "Analyze this product page and extract GTM intelligence.\n\nSOURCE URL: %s\n\nPRODUCT PAGE CONTENT:\n%s\n\nFocus on: Value prop, ICP signals, feature capabilities, differentiation claims, and any pricing indicators. Return ONLY valid JSON.",
		structuredSkeleton: `{ "value_proposition": "string", "features": [{ "feature": "string", "description": "string" }], "target_users": ["string"], "differentiators": ["string"], "pricing_signals": ["string"] }`,
	},

	models.ModePolicy: {
		system: `You are a privacy and legal compliance analyst specializing in interpreting policies, terms of service, and legal documents for non-lawyers.

# CONTEXT
You will analyze privacy policies, terms of service, cookie policies, or other legal/compliance documents. The user needs to understand obligations, risks, and key provisions without reading dense legal text.

# OBJECTIVE
Extract scope, obligations, restrictions, risks, actionable checklist, and brief summary.

# STYLE/TONE
Plain language translation of legal text; risk-aware and practical.

# RESPONSE FORMAT
Return ONLY valid JSON matching PolicyAnalysis and brief_json.`,
		userTemplate:       "Analyze this policy document and extract compliance/risk intelligence.\n\nSOURCE URL: %s\n\nPOLICY CONTENT:\n%s\n\nFocus on: What users are agreeing to, what data is collected/shared, what rights are granted/waived, and any unusual provisions. Return ONLY valid JSON.",
		structuredSkeleton: `{ "scope": "string", "obligations": [{ "party": "string", "obligation": "string" }], "restrictions": [{ "restriction": "string" }], "user_risks": [{ "risk": "string", "severity": "high|medium|low", "context": "string" }], "action_checklist": ["string"] }`,
	},

	models.ModeCompetitive: {
		system: `You are a competitive intelligence analyst specializing in extracting strategic insights from competitor public materials.

# CONTEXT
You will analyze competitor websites, landing pages, or public materials. The user is conducting competitive research to understand positioning, messaging, target markets, and potential weaknesses.

# OBJECTIVE
Extract positioning, target segments, differentiators, feature signals, pricing indicators, weaknesses/gaps, and brief summary.

# STYLE/TONE
Strategic, analytical, opportunity-seeking.

# RESPONSE FORMAT
Return ONLY valid JSON matching CompetitiveAnalysis and brief_json.`,
		userTemplate:       "Analyze this competitor and extract strategic intelligence.\n\nSOURCE URL: %s\n\nCOMPETITOR CONTENT:\n%s\n\nFocus on: Positioning, target segments, differentiation claims, feature maturity, pricing strategy, and observable gaps/weaknesses. Return ONLY valid JSON.",
		structuredSkeleton: `{ "positioning_summary": "string", "target_segment_signals": [{ "segment": "string", "evidence": "string" }], "differentiators": [{ "claim": "string", "credibility": "string", "defensibility": "string" }], "weaknesses_or_gaps": [{ "gap": "string", "opportunity": "string", "confidence": "string" }] }`,
	},
}
