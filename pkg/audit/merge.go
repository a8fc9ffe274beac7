package audit

import "fmt"

// MergeIndustryAnalysis returns a copy of existing whose competitive analysis carries the
// summary, identified competitors and gaps from patch. Local competitors already present are kept.
// existing is never modified.
func MergeIndustryAnalysis(existing *EvaluationResult, patch CompetitiveAnalysis) (merged *EvaluationResult) {
	merged = existing.Clone()
	if merged == nil {
		return merged
	}

	analysis := &CompetitiveAnalysis{}
	if merged.CompetitiveAnalysis != nil {
		analysis = merged.CompetitiveAnalysis
	}

	analysis.Summary = patch.Summary
	analysis.IdentifiedCompetitors = orEmpty(cloneSlice(patch.IdentifiedCompetitors))
	analysis.Gaps = orEmpty(cloneSlice(patch.Gaps))
	merged.CompetitiveAnalysis = analysis

	return merged
}

// MergeLocalCompetitors returns a copy of existing with competitors installed as the local
// competitor list. Summary, identified competitors and gaps are kept; when no analysis exists yet
// a placeholder summary naming industry and location is used.
func MergeLocalCompetitors(existing *EvaluationResult, industry, location string, competitors []LocalCompetitor) (merged *EvaluationResult) {
	merged = existing.Clone()
	if merged == nil {
		return merged
	}

	analysis := &CompetitiveAnalysis{}
	if merged.CompetitiveAnalysis != nil {
		analysis = merged.CompetitiveAnalysis
	}

	if analysis.Summary == "" {
		analysis.Summary = LocalScanSummary(industry, location)
	}
	analysis.IdentifiedCompetitors = orEmpty(analysis.IdentifiedCompetitors)
	analysis.Gaps = orEmpty(analysis.Gaps)
	analysis.LocalCompetitors = orEmpty(cloneSlice(competitors))
	merged.CompetitiveAnalysis = analysis

	return merged
}

// LocalScanSummary is the placeholder summary used when a local scan lands before any gap analysis.
func LocalScanSummary(industry, location string) (summary string) {
	summary = fmt.Sprintf("Local scan for %s in %s.", industry, location)
	return summary
}

func orEmpty[T any](s []T) (out []T) {
	out = s
	if out == nil {
		out = []T{}
	}
	return out
}
