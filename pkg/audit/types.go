package audit

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// Priority is the urgency bucket of a recommendation.
type Priority string

const (
	// PriorityQuickWin is a cheap, immediately actionable fix.
	PriorityQuickWin Priority = "Quick Win"
	// PriorityStrategic is a planned, medium-effort improvement.
	PriorityStrategic Priority = "Strategic Improvement"
	// PriorityLongTerm is a larger investment.
	PriorityLongTerm Priority = "Long-Term Enhancement"
)

// Impact is the expected effect of a recommendation.
type Impact string

const (
	// ImpactHigh is a high impact recommendation.
	ImpactHigh Impact = "High"
	// ImpactMedium is a medium impact recommendation.
	ImpactMedium Impact = "Medium"
	// ImpactLow is a low impact recommendation.
	ImpactLow Impact = "Low"
)

// Priorities lists every priority in display order.
//
//nolint:gochecknoglobals // closed enumeration
var Priorities = []Priority{PriorityQuickWin, PriorityStrategic, PriorityLongTerm}

// Impacts lists every impact in display order.
//
//nolint:gochecknoglobals // closed enumeration
var Impacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow}

// EvaluationResult is the audit of one URL. It is created by a successful evaluation and
// only grows afterwards through the two merge reducers.
type EvaluationResult struct {
	URL                 string               `json:"url"`
	OverallScore        float64              `json:"overallScore"`
	HumanSummary        string               `json:"humanSummary"`
	Industry            string               `json:"industry,omitempty"`
	Categories          []CategoryResult     `json:"categories"`
	RawJSON             string               `json:"rawJson"`
	Sources             []GroundingSource    `json:"sources"`
	CompetitiveAnalysis *CompetitiveAnalysis `json:"competitiveAnalysis,omitempty"`
}

// CategoryResult is the score and advice for one evaluation perspective.
type CategoryResult struct {
	Name            string           `json:"name"`
	Score           float64          `json:"score"`
	Weight          float64          `json:"weight"`
	Findings        []string         `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is a single action item.
type Recommendation struct {
	Action    string   `json:"action"`
	Priority  Priority `json:"priority"`
	Rationale string   `json:"rationale"`
	Impact    Impact   `json:"impact"`
}

// CompetitiveAnalysis holds the output of the two refinement operations.
// LocalCompetitors stays nil until a local scan completes; an empty, non-nil slice means the
// scan ran and found nobody.
type CompetitiveAnalysis struct {
	Summary               string            `json:"summary"`
	IdentifiedCompetitors []string          `json:"identifiedCompetitors"`
	Gaps                  []CompetitorGap   `json:"gaps"`
	LocalCompetitors      []LocalCompetitor `json:"localCompetitors"`
}

// CompetitorGap pairs a competitor weakness with the audited site's matching advantage.
type CompetitorGap struct {
	Subject            string `json:"subject"`
	CompetitorWeakness string `json:"competitorWeakness"`
	OurAdvantage       string `json:"ourAdvantage"`
}

// LocalCompetitor is a nearby business in the same industry.
type LocalCompetitor struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// GroundingSource is a citation surfaced by the model's search tool. URI is the identity.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ParsePriority maps a model supplied priority onto the closed set. Case, surrounding
// whitespace and the plural spelling ("Quick Wins") are tolerated.
func ParsePriority(raw string) (priority Priority, err error) {
	key := enumKey(raw)
	for _, p := range Priorities {
		if key == enumKey(string(p)) || key == enumKey(string(p))+"s" {
			priority = p
			return priority, err
		}
	}

	err = errors.Errorf("unrecognized priority %q", raw)
	return priority, err
}

// ParseImpact maps a model supplied impact onto the closed set.
func ParseImpact(raw string) (impact Impact, err error) {
	key := enumKey(raw)
	for _, i := range Impacts {
		if key == enumKey(string(i)) {
			impact = i
			return impact, err
		}
	}

	err = errors.Errorf("unrecognized impact %q", raw)
	return impact, err
}

// enumKey folds case and collapses separators so "long term enhancement" matches "Long-Term Enhancement".
func enumKey(raw string) (key string) {
	folded := cases.Fold().String(strings.TrimSpace(raw))
	key = strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), " ")
	return key
}

// Clone returns a deep copy of the result. Nil and empty slices keep their distinction.
func (r *EvaluationResult) Clone() (clone *EvaluationResult) {
	if r == nil {
		return clone
	}

	copied := *r
	copied.Sources = cloneSlice(r.Sources)

	if r.Categories != nil {
		copied.Categories = make([]CategoryResult, len(r.Categories))
		for i, c := range r.Categories {
			c.Findings = cloneSlice(c.Findings)
			c.Recommendations = cloneSlice(c.Recommendations)
			copied.Categories[i] = c
		}
	}

	copied.CompetitiveAnalysis = r.CompetitiveAnalysis.Clone()
	clone = &copied

	return clone
}

// Clone returns a deep copy of the analysis.
func (c *CompetitiveAnalysis) Clone() (clone *CompetitiveAnalysis) {
	if c == nil {
		return clone
	}

	clone = &CompetitiveAnalysis{
		Summary:               c.Summary,
		IdentifiedCompetitors: cloneSlice(c.IdentifiedCompetitors),
		Gaps:                  cloneSlice(c.Gaps),
		LocalCompetitors:      cloneSlice(c.LocalCompetitors),
	}

	return clone
}

// AllRecommendations flattens the recommendations of every category in category order.
func (r *EvaluationResult) AllRecommendations() (recs []Recommendation) {
	recs = []Recommendation{}
	for _, c := range r.Categories {
		recs = append(recs, c.Recommendations...)
	}
	return recs
}

func cloneSlice[T any](src []T) (dst []T) {
	if src == nil {
		return dst
	}
	dst = make([]T, len(src))
	copy(dst, src)
	return dst
}
