package schema

import "github.com/dtnitsch/sitebrief/models"

// Degenerate reports whether a normalized result carries no usable content:
// the brief has neither a TLDR nor key points, and the structured section
// holds nothing beyond defaults. The result is still valid; callers surface
// this as a warning so a degenerate analysis is visible without failing.
func Degenerate(res models.AnalysisResult) bool {
	if len(res.Brief.TLDR) > 0 || len(res.Brief.KeyPoints) > 0 {
		return false
	}
	return structuredEmpty(res.Structured)
}

func structuredEmpty(s models.StructuredAnalysis) bool {
	switch {
	case s.Article != nil:
		a := s.Article
		return a.Thesis == nil && len(a.KeyArguments) == 0 &&
			len(a.EvidenceOrExamples) == 0 && len(a.CounterpointsIfAny) == 0
	case s.Product != nil:
		p := s.Product
		return p.ValueProposition == nil && len(p.Features) == 0 &&
			len(p.TargetUsers) == 0 && len(p.Differentiators) == 0 && len(p.PricingSignals) == 0
	case s.Policy != nil:
		p := s.Policy
		return p.Scope == nil && len(p.Obligations) == 0 && len(p.Restrictions) == 0 &&
			len(p.UserRisks) == 0 && len(p.ActionChecklist) == 0 && len(p.EffectiveDatesOrNotes) == 0
	case s.Competitive != nil:
		c := s.Competitive
		return c.PositioningSummary == nil && len(c.TargetSegmentSignals) == 0 &&
			len(c.Differentiators) == 0 && len(c.FeatureSignals) == 0 &&
			len(c.PricingSignals) == 0 && len(c.WeaknessesOrGaps) == 0
	}
	return true
}
