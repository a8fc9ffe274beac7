package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/pkg/errors"
)

// Gateway turns audit requests into validated, typed results using a Generator.
type Gateway struct {
	generator Generator
	logger    *slog.Logger
	timeout   time.Duration
}

// NewGateway creates a gateway. timeout bounds each model call; zero means no extra bound.
func NewGateway(generator Generator, logger *slog.Logger, timeout time.Duration) (gateway *Gateway) {
	if logger == nil {
		logger = slog.Default()
	}
	gateway = &Gateway{
		generator: generator,
		logger:    logger,
		timeout:   timeout,
	}
	return gateway
}

// Evaluate audits a scheme-prefixed URL.
func (g *Gateway) Evaluate(ctx context.Context, url string) (result audit.EvaluationResult, err error) {
	if strings.TrimSpace(url) == "" {
		err = g.fail(OpEvaluate, audit.ErrEmptyURL, "")
		return result, err
	}

	req := StructuredRequest{
		Prompt:            buildEvaluationPrompt(url),
		SystemInstruction: buildEvaluationSystemInstruction(),
		Schema:            evaluationSchema(),
		Search:            true,
	}

	var resp StructuredResponse
	result, resp, err = generate(ctx, g, OpEvaluate, req, validateEvaluation)
	if err != nil {
		return result, err
	}

	result.URL = url
	result.RawJSON = resp.Text
	result.Sources = uniqueSources(resp.Citations)

	g.logger.Debug("evaluation complete",
		"url", url,
		"overall_score", result.OverallScore,
		"categories", len(result.Categories),
		"sources", len(result.Sources),
	)

	return result, err
}

// FindLocalCompetitors asks for 3-5 real businesses in industry near location, in model order.
func (g *Gateway) FindLocalCompetitors(ctx context.Context, industry, location string) (competitors []audit.LocalCompetitor, err error) {
	if strings.TrimSpace(industry) == "" || strings.TrimSpace(location) == "" {
		err = g.fail(OpLocalSearch, errors.New("industry and location are required"), "")
		return competitors, err
	}

	req := StructuredRequest{
		Prompt:            buildLocalCompetitorsPrompt(industry, location),
		SystemInstruction: localCompetitorsSystemInstruction,
		Schema:            localCompetitorsSchema(),
		Search:            true,
	}

	competitors, _, err = generate(ctx, g, OpLocalSearch, req, validateLocalCompetitors)
	return competitors, err
}

// AnalyzeIndustryGaps compares primaryURL to weaker competitors. LocalCompetitors is left unset.
func (g *Gateway) AnalyzeIndustryGaps(ctx context.Context, primaryURL string) (analysis audit.CompetitiveAnalysis, err error) {
	if strings.TrimSpace(primaryURL) == "" {
		err = g.fail(OpIndustryAnalysis, audit.ErrEmptyURL, "")
		return analysis, err
	}

	req := StructuredRequest{
		Prompt:            buildIndustryGapPrompt(primaryURL),
		SystemInstruction: industryGapSystemInstruction,
		Schema:            industryGapSchema(),
		Search:            true,
	}

	analysis, _, err = generate(ctx, g, OpIndustryAnalysis, req, validateIndustryGaps)
	return analysis, err
}

// generate is the shared structured-generation path: call, strip fences, decode into P, then
// run the operation's validator to get T. Every failure comes back as an *OperationError.
func generate[P any, T any](ctx context.Context, g *Gateway, op Operation, req StructuredRequest, validate func(P) (T, error)) (value T, resp StructuredResponse, err error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err = g.generator.GenerateStructured(ctx, req)
	if err != nil {
		err = g.fail(op, errors.Wrap(err, "model request failed"), "")
		return value, resp, err
	}

	g.logger.Debug("model responded",
		"operation", string(op),
		"elapsed", time.Since(started),
		"citations", len(resp.Citations),
		"finish_reason", resp.FinishReason,
	)

	// Blank output decodes as an empty object; each validator decides whether that is acceptable
	text := stripMarkdownCodeFences(resp.Text)
	if text == "" {
		text = "{}"
	}

	var payload P
	err = json.Unmarshal([]byte(text), &payload)
	if err != nil {
		err = g.fail(op, errors.Wrap(err, "failed to parse model output"), resp.Text)
		return value, resp, err
	}

	value, err = validate(payload)
	if err != nil {
		err = g.fail(op, errors.Wrap(err, "model output failed validation"), resp.Text)
		return value, resp, err
	}

	return value, resp, err
}

// fail logs the real cause and returns the operation's user-facing error.
func (g *Gateway) fail(op Operation, cause error, raw string) (err error) {
	g.logger.Warn("model operation failed",
		"operation", string(op),
		"error", cause.Error(),
	)
	if raw != "" {
		g.logger.Debug("raw model output",
			"operation", string(op),
			"text", raw,
		)
	}

	sentinel := sentinelFor(op)
	err = &OperationError{
		Op:      op,
		Message: sentinel.Message,
		cause:   cause,
	}
	return err
}

// uniqueSources keeps citations carrying both a URI and a title, first occurrence per URI wins.
func uniqueSources(citations []Citation) (sources []audit.GroundingSource) {
	sources = []audit.GroundingSource{}
	seen := make(map[string]struct{}, len(citations))

	for _, c := range citations {
		if c.URI == "" || c.Title == "" {
			continue
		}
		if _, ok := seen[c.URI]; ok {
			continue
		}
		seen[c.URI] = struct{}{}
		sources = append(sources, audit.GroundingSource{Title: c.Title, URI: c.URI})
	}

	return sources
}
