package llm

import (
	"fmt"
	"strings"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/scorer"
)

const localCompetitorsSystemInstruction = "You are a local marketing expert. Focus on identifying real businesses with functional websites. Return JSON only."

const industryGapSystemInstruction = "You are a competitive strategist. Return JSON only."

// buildEvaluationSystemInstruction renders the audit rubric from the perspective table.
func buildEvaluationSystemInstruction() (instruction string) {
	var b strings.Builder

	b.WriteString(`You are a comprehensive Website Evaluation Expert.
Your task is to evaluate the given website URL from multiple expert perspectives based on the provided industry framework.

PERSPECTIVES:
`)
	for i, p := range scorer.Perspectives {
		fmt.Fprintf(&b, "%d. %s (%d%% Weight): %s\n", i+1, p.Label, p.Weight, p.Focus)
	}

	names := make([]string, 0, len(scorer.Perspectives))
	for _, p := range scorer.Perspectives {
		names = append(names, fmt.Sprintf("%q", p.Name))
	}

	fmt.Fprintf(&b, `
TASK REQUIREMENTS:
- Produce a structured JSON report with exactly one category per perspective, in the order above, named %s.
- Each category's weight is the perspective weight above; scores are 0-100.
- Use specific action items, e.g., "Reduce hero image size to under 500kb to improve LCP to <2.5s."
- Every recommendation priority must be one of: %q, %q, %q.
- Every recommendation impact must be one of: %q, %q, %q.
- Provide a Human-Readable Report summarizing key findings in humanSummary.
- Identify the specific industry the business belongs to.
- Use Google Search to gather details about the site's reputation, technology stack, and user reviews.

OUTPUT FORMAT (JSON):
{
  "overallScore": number (0-100),
  "humanSummary": "Plain language summary",
  "industry": "Industry name",
  "categories": [
    {
      "name": "Performance",
      "score": number,
      "weight": 20,
      "findings": ["finding 1", "finding 2"],
      "recommendations": [
        { "action": "...", "priority": "Quick Win", "rationale": "...", "impact": "High" }
      ]
    }
  ]
}
`,
		strings.Join(names, ", "),
		audit.PriorityQuickWin, audit.PriorityStrategic, audit.PriorityLongTerm,
		audit.ImpactHigh, audit.ImpactMedium, audit.ImpactLow,
	)

	instruction = b.String()
	return instruction
}

// buildEvaluationPrompt creates the evaluate prompt.
func buildEvaluationPrompt(url string) (prompt string) {
	prompt = fmt.Sprintf(`Evaluate this primary website URL: %s.
Use Google Search to find current performance benchmarks, SEO status, and reputation.
Also, identify the specific industry this business belongs to.`, url)
	return prompt
}

// buildLocalCompetitorsPrompt creates the local scan prompt.
func buildLocalCompetitorsPrompt(industry, location string) (prompt string) {
	prompt = fmt.Sprintf(`Find 3-5 local competitors in the "%s" industry located in "%s".
For each, identify their website URL and give them an estimated website quality score (0-100) based on their search presence, mobile friendliness, and visible SEO.
Return the data in the specified JSON format.`, industry, location)
	return prompt
}

// buildIndustryGapPrompt creates the industry gap prompt.
func buildIndustryGapPrompt(primaryURL string) (prompt string) {
	prompt = fmt.Sprintf(`Perform an industry gap analysis for %s.
1. Identify 2-3 specific competitors in the same industry that currently have poor website experiences (slow speed, bad UX, or weak mobile responsiveness).
2. Compare them to the primary site.
3. Identify "Low-Hanging Fruit" opportunities where the primary site can capitalize on these specific competitor weaknesses.`, primaryURL)
	return prompt
}
