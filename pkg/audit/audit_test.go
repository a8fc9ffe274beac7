package audit

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare domain", input: "example.com", expected: "https://example.com"},
		{name: "surrounding whitespace", input: "  example.com/path ", expected: "https://example.com/path"},
		{name: "https kept", input: "https://example.com", expected: "https://example.com"},
		{name: "http kept", input: "http://example.com", expected: "http://example.com"},
		{name: "uppercase scheme kept", input: "HTTPS://Example.com", expected: "HTTPS://Example.com"},
		{name: "mixed case scheme kept", input: "HtTp://example.com", expected: "HtTp://example.com"},
		{name: "other scheme prefixed", input: "ftp://example.com", expected: "https://ftp://example.com"},
		{name: "www prefix", input: "www.example.com", expected: "https://www.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestNormalizeURLIdentityForSchemePrefixed(t *testing.T) {
	inputs := []string{"https://a.example", "http://b.example/x?y=1", "HTTP://C.EXAMPLE"}
	for _, in := range inputs {
		out, err := NormalizeURL(in)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", in, err)
		}
		again, _ := NormalizeURL(out)
		if out != in || again != out {
			t.Errorf("Expected identity for %s, got %s then %s", in, out, again)
		}
	}
}

func TestNormalizeURLEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := NormalizeURL(in)
		if !errors.Is(err, ErrEmptyURL) {
			t.Errorf("Expected ErrEmptyURL for %q, got %v", in, err)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{name: "plain host", input: "https://example.com", wantError: false},
		{name: "host with port and path", input: "https://example.com:8443/shop", wantError: false},
		{name: "unicode host", input: "https://bücher.example", wantError: false},
		{name: "underscore in host", input: "https://my_site.example.com", wantError: false},
		{name: "ipv4 literal", input: "http://192.0.2.10:8080/", wantError: false},
		{name: "ipv6 literal", input: "http://[::1]:8080", wantError: false},
		{name: "leading hyphen label", input: "https://-shop.example.com", wantError: true},
		{name: "no host", input: "https://", wantError: true},
		{name: "space in host", input: "https://exa mple.com", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if tt.wantError && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Expected ErrInvalidURL, got %v", err)
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
	}{
		{"Quick Win", PriorityQuickWin},
		{"quick win", PriorityQuickWin},
		{"Quick Wins", PriorityQuickWin},
		{" Strategic Improvement ", PriorityStrategic},
		{"Strategic Improvements", PriorityStrategic},
		{"Long-Term Enhancement", PriorityLongTerm},
		{"long term enhancements", PriorityLongTerm},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePriority(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, p)
			}
		})
	}

	_, err := ParsePriority("Someday")
	if err == nil {
		t.Error("Expected error for unknown priority")
	}
}

func TestParseImpact(t *testing.T) {
	i, err := ParseImpact("high")
	if err != nil || i != ImpactHigh {
		t.Errorf("Expected High, got %s (%v)", i, err)
	}

	_, err = ParseImpact("Enormous")
	if err == nil {
		t.Error("Expected error for unknown impact")
	}
}

func sampleResult() (result *EvaluationResult) {
	result = &EvaluationResult{
		URL:          "https://example.com",
		OverallScore: 72,
		HumanSummary: "Solid site.",
		Industry:     "bakery",
		Categories: []CategoryResult{
			{
				Name:     "Performance",
				Score:    60,
				Weight:   20,
				Findings: []string{"Large hero image"},
				Recommendations: []Recommendation{
					{Action: "Compress hero", Priority: PriorityQuickWin, Rationale: "LCP", Impact: ImpactHigh},
				},
			},
		},
		RawJSON: `{"overallScore":72}`,
		Sources: []GroundingSource{{Title: "Report", URI: "https://a.example/report"}},
	}
	return result
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleResult()
	original.CompetitiveAnalysis = &CompetitiveAnalysis{
		Summary:          "s",
		LocalCompetitors: []LocalCompetitor{},
	}

	clone := original.Clone()
	clone.Categories[0].Findings[0] = "changed"
	clone.Sources[0].URI = "changed"
	clone.CompetitiveAnalysis.Summary = "changed"

	if original.Categories[0].Findings[0] != "Large hero image" {
		t.Error("Clone shares findings with original")
	}
	if original.Sources[0].URI != "https://a.example/report" {
		t.Error("Clone shares sources with original")
	}
	if original.CompetitiveAnalysis.Summary != "s" {
		t.Error("Clone shares competitive analysis with original")
	}
	if clone.CompetitiveAnalysis.LocalCompetitors == nil {
		t.Error("Clone turned an empty local competitor list into nil")
	}
	if clone.CompetitiveAnalysis.IdentifiedCompetitors != nil {
		t.Error("Clone turned a nil slice into an empty one")
	}
}

func TestMergeIndustryAnalysisPreservesLocalCompetitors(t *testing.T) {
	existing := sampleResult()
	locals := []LocalCompetitor{
		{Name: "Crumbs", URL: "https://crumbs.example", Score: 41, Description: "Slow site"},
		{Name: "Loaf", URL: "https://loaf.example", Score: 77, Description: "Decent"},
	}
	existing.CompetitiveAnalysis = &CompetitiveAnalysis{
		Summary:               "Local scan for bakery in Austin, TX.",
		IdentifiedCompetitors: []string{},
		Gaps:                  []CompetitorGap{},
		LocalCompetitors:      locals,
	}
	before := existing.Clone()

	patch := CompetitiveAnalysis{
		Summary:               "Competitors lag on mobile.",
		IdentifiedCompetitors: []string{"a.example", "b.example"},
		Gaps: []CompetitorGap{
			{Subject: "Mobile", CompetitorWeakness: "No responsive layout", OurAdvantage: "Responsive"},
		},
	}

	merged := MergeIndustryAnalysis(existing, patch)

	if !reflect.DeepEqual(merged.CompetitiveAnalysis.LocalCompetitors, locals) {
		t.Errorf("Local competitors changed: %+v", merged.CompetitiveAnalysis.LocalCompetitors)
	}
	if merged.CompetitiveAnalysis.Summary != patch.Summary {
		t.Errorf("Expected summary '%s', got '%s'", patch.Summary, merged.CompetitiveAnalysis.Summary)
	}
	if !reflect.DeepEqual(merged.CompetitiveAnalysis.IdentifiedCompetitors, patch.IdentifiedCompetitors) {
		t.Error("Identified competitors were not replaced")
	}
	if !reflect.DeepEqual(merged.CompetitiveAnalysis.Gaps, patch.Gaps) {
		t.Error("Gaps were not replaced")
	}
	if !reflect.DeepEqual(existing, before) {
		t.Error("MergeIndustryAnalysis mutated its input")
	}
}

func TestMergeIndustryAnalysisCreatesAnalysis(t *testing.T) {
	merged := MergeIndustryAnalysis(sampleResult(), CompetitiveAnalysis{Summary: "x"})

	if merged.CompetitiveAnalysis == nil {
		t.Fatal("Expected competitive analysis to be created")
	}
	if merged.CompetitiveAnalysis.LocalCompetitors != nil {
		t.Error("Industry merge must not invent local competitors")
	}
	if merged.CompetitiveAnalysis.Gaps == nil || merged.CompetitiveAnalysis.IdentifiedCompetitors == nil {
		t.Error("Expected empty, non-nil gaps and competitors")
	}
}

func TestMergeLocalCompetitorsCreatesPlaceholder(t *testing.T) {
	competitors := []LocalCompetitor{{Name: "Crumbs", URL: "https://crumbs.example", Score: 41, Description: "Slow"}}

	merged := MergeLocalCompetitors(sampleResult(), "bakery", "Austin, TX", competitors)

	analysis := merged.CompetitiveAnalysis
	if analysis == nil {
		t.Fatal("Expected competitive analysis to be created")
	}
	if !strings.Contains(analysis.Summary, "bakery") || !strings.Contains(analysis.Summary, "Austin, TX") {
		t.Errorf("Placeholder summary should mention industry and location: %s", analysis.Summary)
	}
	if analysis.IdentifiedCompetitors == nil || len(analysis.IdentifiedCompetitors) != 0 {
		t.Error("Expected empty identified competitors")
	}
	if analysis.Gaps == nil || len(analysis.Gaps) != 0 {
		t.Error("Expected empty gaps")
	}
	if !reflect.DeepEqual(analysis.LocalCompetitors, competitors) {
		t.Error("Local competitors not installed")
	}
}

func TestMergeLocalCompetitorsPreservesGapData(t *testing.T) {
	existing := sampleResult()
	existing.CompetitiveAnalysis = &CompetitiveAnalysis{
		Summary:               "Competitors lag on mobile.",
		IdentifiedCompetitors: []string{"a.example"},
		Gaps:                  []CompetitorGap{{Subject: "SEO", CompetitorWeakness: "No schema", OurAdvantage: "Schema"}},
	}

	merged := MergeLocalCompetitors(existing, "bakery", "Austin, TX", nil)

	if merged.CompetitiveAnalysis.Summary != "Competitors lag on mobile." {
		t.Errorf("Summary overwritten: %s", merged.CompetitiveAnalysis.Summary)
	}
	if len(merged.CompetitiveAnalysis.Gaps) != 1 || len(merged.CompetitiveAnalysis.IdentifiedCompetitors) != 1 {
		t.Error("Gap data lost")
	}
	if merged.CompetitiveAnalysis.LocalCompetitors == nil {
		t.Error("Expected empty, non-nil local competitors")
	}
}

func TestMergesCommute(t *testing.T) {
	patch := CompetitiveAnalysis{
		Summary:               "Gap summary",
		IdentifiedCompetitors: []string{"a.example"},
		Gaps:                  []CompetitorGap{{Subject: "UX", CompetitorWeakness: "Clutter", OurAdvantage: "Clean"}},
	}
	locals := []LocalCompetitor{{Name: "Crumbs", URL: "https://crumbs.example", Score: 41, Description: "Slow"}}

	a := MergeLocalCompetitors(MergeIndustryAnalysis(sampleResult(), patch), "bakery", "Austin", locals)
	b := MergeIndustryAnalysis(MergeLocalCompetitors(sampleResult(), "bakery", "Austin", locals), patch)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("Merge order matters:\n%+v\n%+v", a.CompetitiveAnalysis, b.CompetitiveAnalysis)
	}
}

func TestLocalCompetitorsJSONDistinguishesEmpty(t *testing.T) {
	scanned := CompetitiveAnalysis{LocalCompetitors: []LocalCompetitor{}}
	notScanned := CompetitiveAnalysis{}

	a, _ := json.Marshal(scanned)
	b, _ := json.Marshal(notScanned)

	if !strings.Contains(string(a), `"localCompetitors":[]`) {
		t.Errorf("Expected empty array, got %s", a)
	}
	if !strings.Contains(string(b), `"localCompetitors":null`) {
		t.Errorf("Expected null, got %s", b)
	}
}
