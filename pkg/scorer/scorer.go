package scorer

import (
	"math"

	"github.com/nikogura/site-audit/pkg/audit"
)

// BandFor rates a 0-100 score.
func BandFor(score float64) (band Band) {
	switch {
	case score < PoorThreshold:
		band = BandPoor
	case score < GoodThreshold:
		band = BandFair
	default:
		band = BandGood
	}
	return band
}

// WeightedScore recomputes an overall score from category scores and weights, rounded to the
// nearest integer. ok is false when the weights sum to zero.
func WeightedScore(categories []audit.CategoryResult) (score float64, ok bool) {
	var total, weights float64
	for _, c := range categories {
		total += c.Score * c.Weight
		weights += c.Weight
	}

	if weights <= 0 {
		return score, ok
	}

	score = math.Round(total / weights)
	ok = true

	return score, ok
}

// WeightTotal sums the category weights. The rubric expects 100 but the model does not promise it.
func WeightTotal(categories []audit.CategoryResult) (total float64) {
	for _, c := range categories {
		total += c.Weight
	}
	return total
}

// FilterRecommendations returns every recommendation of the result, in category order, whose
// priority matches. An empty priority matches everything.
func FilterRecommendations(result *audit.EvaluationResult, priority audit.Priority) (recs []audit.Recommendation) {
	recs = []audit.Recommendation{}
	if result == nil {
		return recs
	}

	for _, r := range result.AllRecommendations() {
		if priority == "" || r.Priority == priority {
			recs = append(recs, r)
		}
	}

	return recs
}

// GroupByPriority buckets recommendations in the order of audit.Priorities.
func GroupByPriority(recs []audit.Recommendation) (groups map[audit.Priority][]audit.Recommendation) {
	groups = make(map[audit.Priority][]audit.Recommendation, len(audit.Priorities))
	for _, r := range recs {
		groups[r.Priority] = append(groups[r.Priority], r)
	}
	return groups
}

// CountByImpact tallies recommendations per impact.
func CountByImpact(recs []audit.Recommendation) (counts map[audit.Impact]int) {
	counts = make(map[audit.Impact]int, len(audit.Impacts))
	for _, r := range recs {
		counts[r.Impact]++
	}
	return counts
}
