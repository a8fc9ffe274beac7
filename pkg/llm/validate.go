package llm

import (
	"math"
	"strings"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/pkg/errors"
)

// validateEvaluation is the only place an evaluate payload is checked and turned into a result.
func validateEvaluation(p evaluationPayload) (result audit.EvaluationResult, err error) {
	if p.OverallScore == nil {
		err = errors.New("missing overallScore")
		return result, err
	}
	err = checkScore("overallScore", *p.OverallScore)
	if err != nil {
		return result, err
	}

	if p.HumanSummary == nil {
		err = errors.New("missing humanSummary")
		return result, err
	}

	// Presence only: an empty list or summary is a valid, if thin, audit
	if p.Categories == nil {
		err = errors.New("missing categories")
		return result, err
	}

	result = audit.EvaluationResult{
		OverallScore: *p.OverallScore,
		HumanSummary: *p.HumanSummary,
		Industry:     strings.TrimSpace(p.Industry),
		Categories:   make([]audit.CategoryResult, 0, len(p.Categories)),
	}

	for i, c := range p.Categories {
		var category audit.CategoryResult
		category, err = validateCategory(c)
		if err != nil {
			err = errors.Wrapf(err, "category %d", i)
			return result, err
		}
		result.Categories = append(result.Categories, category)
	}

	return result, err
}

func validateCategory(c categoryPayload) (category audit.CategoryResult, err error) {
	if strings.TrimSpace(c.Name) == "" {
		err = errors.New("missing name")
		return category, err
	}

	if c.Score == nil {
		err = errors.Errorf("%s: missing score", c.Name)
		return category, err
	}
	err = checkScore(c.Name+" score", *c.Score)
	if err != nil {
		return category, err
	}

	if c.Weight == nil {
		err = errors.Errorf("%s: missing weight", c.Name)
		return category, err
	}
	err = checkScore(c.Name+" weight", *c.Weight)
	if err != nil {
		return category, err
	}

	if c.Findings == nil {
		err = errors.Errorf("%s: missing findings", c.Name)
		return category, err
	}

	if c.Recommendations == nil {
		err = errors.Errorf("%s: missing recommendations", c.Name)
		return category, err
	}

	category = audit.CategoryResult{
		Name:            c.Name,
		Score:           *c.Score,
		Weight:          *c.Weight,
		Findings:        c.Findings,
		Recommendations: make([]audit.Recommendation, 0, len(c.Recommendations)),
	}

	for j, r := range c.Recommendations {
		var rec audit.Recommendation
		rec, err = validateRecommendation(r)
		if err != nil {
			err = errors.Wrapf(err, "%s: recommendation %d", c.Name, j)
			return category, err
		}
		category.Recommendations = append(category.Recommendations, rec)
	}

	return category, err
}

func validateRecommendation(r recommendationPayload) (rec audit.Recommendation, err error) {
	if strings.TrimSpace(r.Action) == "" {
		err = errors.New("missing action")
		return rec, err
	}

	if strings.TrimSpace(r.Rationale) == "" {
		err = errors.New("missing rationale")
		return rec, err
	}

	var priority audit.Priority
	priority, err = audit.ParsePriority(r.Priority)
	if err != nil {
		return rec, err
	}

	var impact audit.Impact
	impact, err = audit.ParseImpact(r.Impact)
	if err != nil {
		return rec, err
	}

	rec = audit.Recommendation{
		Action:    r.Action,
		Priority:  priority,
		Rationale: r.Rationale,
		Impact:    impact,
	}

	return rec, err
}

// validateIndustryGaps checks an industry gap payload. LocalCompetitors is left nil.
func validateIndustryGaps(p industryPayload) (analysis audit.CompetitiveAnalysis, err error) {
	if strings.TrimSpace(p.Summary) == "" {
		err = errors.New("missing summary")
		return analysis, err
	}

	if p.IdentifiedCompetitors == nil {
		err = errors.New("missing identifiedCompetitors")
		return analysis, err
	}

	if p.Gaps == nil {
		err = errors.New("missing gaps")
		return analysis, err
	}

	analysis = audit.CompetitiveAnalysis{
		Summary:               p.Summary,
		IdentifiedCompetitors: p.IdentifiedCompetitors,
		Gaps:                  make([]audit.CompetitorGap, 0, len(p.Gaps)),
	}

	for i, g := range p.Gaps {
		if strings.TrimSpace(g.Subject) == "" || strings.TrimSpace(g.CompetitorWeakness) == "" || strings.TrimSpace(g.OurAdvantage) == "" {
			err = errors.Errorf("gap %d: missing subject, competitorWeakness or ourAdvantage", i)
			return analysis, err
		}
		analysis.Gaps = append(analysis.Gaps, audit.CompetitorGap{
			Subject:            g.Subject,
			CompetitorWeakness: g.CompetitorWeakness,
			OurAdvantage:       g.OurAdvantage,
		})
	}

	return analysis, err
}

// validateLocalCompetitors checks a local scan payload. A missing list is an empty result.
// Competitor scores are the model's own estimate, so they are clamped rather than rejected.
func validateLocalCompetitors(p localPayload) (competitors []audit.LocalCompetitor, err error) {
	competitors = make([]audit.LocalCompetitor, 0, len(p.Competitors))

	for i, c := range p.Competitors {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.URL) == "" || strings.TrimSpace(c.Description) == "" {
			err = errors.Errorf("competitor %d: missing name, url or description", i)
			return competitors, err
		}

		if c.Score == nil {
			err = errors.Errorf("competitor %d: missing score", i)
			return competitors, err
		}

		competitors = append(competitors, audit.LocalCompetitor{
			Name:        c.Name,
			URL:         c.URL,
			Score:       clampScore(*c.Score),
			Description: c.Description,
		})
	}

	return competitors, err
}

func checkScore(field string, value float64) (err error) {
	if value < 0 || value > 100 {
		err = errors.Errorf("%s %v out of range 0-100", field, value)
	}
	return err
}

func clampScore(value float64) (clamped float64) {
	clamped = math.Min(math.Max(value, 0), 100)
	return clamped
}
