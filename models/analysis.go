package models

import (
	"encoding/json"
	"fmt"
)

// AnalysisRequest carries one page's worth of scraped content into the
// analysis pipeline. It is constructed once and never mutated.
type AnalysisRequest struct {
	Mode     Mode
	URL      string
	Markdown string
	RawText  string
}

// BriefSummary is the short-form summary section common to all modes.
// After normalization every field is a non-nil slice, possibly empty.
type BriefSummary struct {
	TLDR      []string `json:"tldr" yaml:"tldr"`
	KeyPoints []string `json:"key_points" yaml:"key_points"`
	Citations []string `json:"citations" yaml:"citations"`
}

// Feature is one product capability extracted from a product page.
type Feature struct {
	Feature     string `json:"feature" yaml:"feature"`
	Description string `json:"description" yaml:"description"`
	Tier        string `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Obligation is one commitment a party takes on under a policy document.
type Obligation struct {
	Party        string `json:"party" yaml:"party"`
	Obligation   string `json:"obligation" yaml:"obligation"`
	Significance string `json:"significance" yaml:"significance"`
}

// Restriction is one limitation a policy document imposes.
type Restriction struct {
	Restriction string `json:"restriction" yaml:"restriction"`
	AppliesTo   string `json:"applies_to" yaml:"applies_to"`
	Consequence string `json:"consequence" yaml:"consequence"`
}

// UserRisk is one risk a policy document creates for the user.
// Severity is an open string; models usually emit high/medium/low.
type UserRisk struct {
	Risk     string `json:"risk" yaml:"risk"`
	Severity string `json:"severity" yaml:"severity"`
	Context  string `json:"context" yaml:"context"`
}

// SegmentSignal is evidence that a competitor targets a market segment.
type SegmentSignal struct {
	Segment  string `json:"segment" yaml:"segment"`
	Evidence string `json:"evidence" yaml:"evidence"`
	Strength string `json:"strength" yaml:"strength"`
}

// DifferentiatorClaim is one differentiation claim made by a competitor.
type DifferentiatorClaim struct {
	Claim         string `json:"claim" yaml:"claim"`
	Credibility   string `json:"credibility" yaml:"credibility"`
	Defensibility string `json:"defensibility" yaml:"defensibility"`
}

// FeatureSignal is one observable feature area on a competitor page.
type FeatureSignal struct {
	FeatureArea string `json:"feature_area" yaml:"feature_area"`
	Maturity    string `json:"maturity" yaml:"maturity"`
	Emphasis    string `json:"emphasis" yaml:"emphasis"`
}

// PricingSignal is one pricing indicator on a competitor page.
type PricingSignal struct {
	Signal   string `json:"signal" yaml:"signal"`
	Strategy string `json:"strategy" yaml:"strategy"`
	Notes    string `json:"notes" yaml:"notes"`
}

// WeaknessGap is one observable gap in a competitor's offering.
type WeaknessGap struct {
	Gap         string `json:"gap" yaml:"gap"`
	Opportunity string `json:"opportunity" yaml:"opportunity"`
	Confidence  string `json:"confidence" yaml:"confidence"`
}

// ArticleAnalysis is the structured section for article mode.
// Thesis is a pointer so "not provided" stays distinct from "empty".
type ArticleAnalysis struct {
	Title              string             `json:"title" yaml:"title"`
	Thesis             *string            `json:"thesis" yaml:"thesis"`
	KeyArguments       []string           `json:"key_arguments" yaml:"key_arguments"`
	EvidenceOrExamples []string           `json:"evidence_or_examples" yaml:"evidence_or_examples"`
	CounterpointsIfAny []string           `json:"counterpoints_if_any" yaml:"counterpoints_if_any"`
	TLDR               []string           `json:"tldr" yaml:"tldr"`
	KeyPoints          []string           `json:"key_points" yaml:"key_points"`
	Citations          []string           `json:"citations" yaml:"citations"`
	ConfidenceScores   map[string]float64 `json:"confidence_scores,omitempty" yaml:"confidence_scores,omitempty"`
}

// ProductAnalysis is the structured section for product mode.
type ProductAnalysis struct {
	Title            string             `json:"title" yaml:"title"`
	ValueProposition *string            `json:"value_proposition" yaml:"value_proposition"`
	Features         []Feature          `json:"features" yaml:"features"`
	TargetUsers      []string           `json:"target_users" yaml:"target_users"`
	Differentiators  []string           `json:"differentiators" yaml:"differentiators"`
	PricingSignals   []string           `json:"pricing_signals" yaml:"pricing_signals"`
	TLDR             []string           `json:"tldr" yaml:"tldr"`
	KeyPoints        []string           `json:"key_points" yaml:"key_points"`
	Citations        []string           `json:"citations" yaml:"citations"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty" yaml:"confidence_scores,omitempty"`
}

// PolicyAnalysis is the structured section for policy mode.
type PolicyAnalysis struct {
	Title                 string             `json:"title" yaml:"title"`
	Scope                 *string            `json:"scope" yaml:"scope"`
	Obligations           []Obligation       `json:"obligations" yaml:"obligations"`
	Restrictions          []Restriction      `json:"restrictions" yaml:"restrictions"`
	EffectiveDatesOrNotes []string           `json:"effective_dates_or_notes" yaml:"effective_dates_or_notes"`
	UserRisks             []UserRisk         `json:"user_risks" yaml:"user_risks"`
	ActionChecklist       []string           `json:"action_checklist" yaml:"action_checklist"`
	TLDR                  []string           `json:"tldr" yaml:"tldr"`
	KeyPoints             []string           `json:"key_points" yaml:"key_points"`
	Citations             []string           `json:"citations" yaml:"citations"`
	ConfidenceScores      map[string]float64 `json:"confidence_scores,omitempty" yaml:"confidence_scores,omitempty"`
}

// CompetitiveAnalysis is the structured section for competitive mode.
type CompetitiveAnalysis struct {
	Title                string                `json:"title" yaml:"title"`
	PositioningSummary   *string               `json:"positioning_summary" yaml:"positioning_summary"`
	TargetSegmentSignals []SegmentSignal       `json:"target_segment_signals" yaml:"target_segment_signals"`
	Differentiators      []DifferentiatorClaim `json:"differentiators" yaml:"differentiators"`
	FeatureSignals       []FeatureSignal       `json:"feature_signals" yaml:"feature_signals"`
	PricingSignals       []PricingSignal       `json:"pricing_signals" yaml:"pricing_signals"`
	WeaknessesOrGaps     []WeaknessGap         `json:"weaknesses_or_gaps" yaml:"weaknesses_or_gaps"`
	TLDR                 []string              `json:"tldr" yaml:"tldr"`
	KeyPoints            []string              `json:"key_points" yaml:"key_points"`
	Citations            []string              `json:"citations" yaml:"citations"`
	ConfidenceScores     map[string]float64    `json:"confidence_scores,omitempty" yaml:"confidence_scores,omitempty"`
}

// StructuredAnalysis is a tagged variant keyed by Mode. Exactly one of the
// variant pointers is set; Mode names which. It serializes as the active
// variant's object so stored records match the wire shape the model emits.
type StructuredAnalysis struct {
	Mode        Mode                 `json:"-" yaml:"-"`
	Article     *ArticleAnalysis     `json:"-" yaml:"-"`
	Product     *ProductAnalysis     `json:"-" yaml:"-"`
	Policy      *PolicyAnalysis      `json:"-" yaml:"-"`
	Competitive *CompetitiveAnalysis `json:"-" yaml:"-"`
}

// active returns the variant payload selected by Mode, or nil.
func (s StructuredAnalysis) active() any {
	switch s.Mode {
	case ModeArticle:
		if s.Article != nil {
			return s.Article
		}
	case ModeProduct:
		if s.Product != nil {
			return s.Product
		}
	case ModePolicy:
		if s.Policy != nil {
			return s.Policy
		}
	case ModeCompetitive:
		if s.Competitive != nil {
			return s.Competitive
		}
	}
	return nil
}

func (s StructuredAnalysis) MarshalJSON() ([]byte, error) {
	v := s.active()
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func (s StructuredAnalysis) MarshalYAML() (any, error) {
	v := s.active()
	if v == nil {
		return map[string]any{}, nil
	}
	return v, nil
}

// Validate reports whether the variant matches the declared mode.
func (s StructuredAnalysis) Validate() error {
	if s.active() == nil {
		return fmt.Errorf("structured analysis has no variant for mode %q", s.Mode)
	}
	return nil
}

// AnalysisResult is the externally returned value of one analysis.
// After normalization it is always fully shaped: every sequence field is a
// non-nil slice and the structured variant matches the request mode.
type AnalysisResult struct {
	Title            string             `json:"title" yaml:"title"`
	Structured       StructuredAnalysis `json:"structured_json" yaml:"structured_json"`
	Brief            BriefSummary       `json:"brief_json" yaml:"brief_json"`
	RawText          string             `json:"raw_text" yaml:"raw_text"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty" yaml:"confidence_scores,omitempty"`
}
