package llm

import (
	"github.com/nikogura/site-audit/pkg/audit"
	"google.golang.org/genai"
)

func stringSchema() (schema *genai.Schema) {
	schema = &genai.Schema{Type: genai.TypeString}
	return schema
}

func numberSchema() (schema *genai.Schema) {
	schema = &genai.Schema{Type: genai.TypeNumber}
	return schema
}

func stringArraySchema() (schema *genai.Schema) {
	schema = &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
	return schema
}

func enumSchema(values ...string) (schema *genai.Schema) {
	schema = &genai.Schema{Type: genai.TypeString, Enum: values}
	return schema
}

// evaluationSchema constrains the evaluate response.
func evaluationSchema() (schema *genai.Schema) {
	priorities := make([]string, 0, len(audit.Priorities))
	for _, p := range audit.Priorities {
		priorities = append(priorities, string(p))
	}
	impacts := make([]string, 0, len(audit.Impacts))
	for _, i := range audit.Impacts {
		impacts = append(impacts, string(i))
	}

	recommendation := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action":    stringSchema(),
			"priority":  enumSchema(priorities...),
			"rationale": stringSchema(),
			"impact":    enumSchema(impacts...),
		},
		Required: []string{"action", "priority", "rationale", "impact"},
	}

	category := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":            stringSchema(),
			"score":           numberSchema(),
			"weight":          numberSchema(),
			"findings":        stringArraySchema(),
			"recommendations": {Type: genai.TypeArray, Items: recommendation},
		},
		Required: []string{"name", "score", "weight", "findings", "recommendations"},
	}

	schema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallScore": numberSchema(),
			"humanSummary": stringSchema(),
			"industry":     stringSchema(),
			"categories":   {Type: genai.TypeArray, Items: category},
		},
		Required: []string{"overallScore", "humanSummary", "categories", "industry"},
	}

	return schema
}

// localCompetitorsSchema constrains the local scan response.
func localCompetitorsSchema() (schema *genai.Schema) {
	competitor := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        stringSchema(),
			"url":         stringSchema(),
			"score":       numberSchema(),
			"description": stringSchema(),
		},
		Required: []string{"name", "url", "score", "description"},
	}

	schema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"competitors": {Type: genai.TypeArray, Items: competitor},
		},
		Required: []string{"competitors"},
	}

	return schema
}

// industryGapSchema constrains the industry gap response.
func industryGapSchema() (schema *genai.Schema) {
	gap := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subject":            stringSchema(),
			"competitorWeakness": stringSchema(),
			"ourAdvantage":       stringSchema(),
		},
		Required: []string{"subject", "competitorWeakness", "ourAdvantage"},
	}

	schema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":               stringSchema(),
			"identifiedCompetitors": stringArraySchema(),
			"gaps":                  {Type: genai.TypeArray, Items: gap},
		},
		Required: []string{"summary", "identifiedCompetitors", "gaps"},
	}

	return schema
}
