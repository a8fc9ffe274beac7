package llm

import (
	"context"

	"google.golang.org/genai"
)

// Generator is the single call primitive the gateway is built on: send a prompt with a system
// instruction and an output schema, optionally with web search, and get text plus citations back.
type Generator interface {
	GenerateStructured(ctx context.Context, req StructuredRequest) (resp StructuredResponse, err error)
}

// StructuredRequest is one schema-constrained generation.
type StructuredRequest struct {
	Prompt            string
	SystemInstruction string
	Schema            *genai.Schema
	Search            bool
}

// StructuredResponse is the model's text payload plus any grounding citations.
type StructuredResponse struct {
	Text         string
	Citations    []Citation
	FinishReason string
}

// Citation is a grounding chunk from the search tool. Either field may be empty.
type Citation struct {
	URI   string
	Title string
}

// GenerateContentRequest represents the Gemini generateContent request body.
type GenerateContentRequest struct {
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// Content represents a turn in the conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a piece of content.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig constrains the output format.
type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *genai.Schema `json:"responseSchema,omitempty"`
}

// evaluationPayload is the evaluate response as the model sends it. Required numbers are
// pointers so a missing field is distinguishable from zero.
type evaluationPayload struct {
	OverallScore *float64          `json:"overallScore"`
	HumanSummary *string           `json:"humanSummary"`
	Industry     string            `json:"industry"`
	Categories   []categoryPayload `json:"categories"`
}

type categoryPayload struct {
	Name            string                  `json:"name"`
	Score           *float64                `json:"score"`
	Weight          *float64                `json:"weight"`
	Findings        []string                `json:"findings"`
	Recommendations []recommendationPayload `json:"recommendations"`
}

type recommendationPayload struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Rationale string `json:"rationale"`
	Impact    string `json:"impact"`
}

type industryPayload struct {
	Summary               string       `json:"summary"`
	IdentifiedCompetitors []string     `json:"identifiedCompetitors"`
	Gaps                  []gapPayload `json:"gaps"`
}

type gapPayload struct {
	Subject            string `json:"subject"`
	CompetitorWeakness string `json:"competitorWeakness"`
	OurAdvantage       string `json:"ourAdvantage"`
}

type localPayload struct {
	Competitors []localCompetitorPayload `json:"competitors"`
}

type localCompetitorPayload struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Score       *float64 `json:"score"`
	Description string   `json:"description"`
}
