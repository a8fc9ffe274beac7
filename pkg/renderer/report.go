package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/scorer"
	"github.com/nikogura/site-audit/pkg/session"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// FormatMarkdown renders a human-readable report.
	FormatMarkdown = "markdown"
	// FormatJSON renders the session snapshot.
	FormatJSON = "json"
)

const syntaxJSON = markdown.SyntaxHighlight("json")

// ErrNoResult is returned when a markdown report is requested for a session without a result.
//
//nolint:gochecknoglobals // sentinel error
var ErrNoResult = errors.New("no audit result to render")

// Render renders snap in format. Markdown needs a result; JSON renders whatever state the
// session is in.
func Render(format string, snap session.Snapshot, priority audit.Priority) (content string, err error) {
	switch format {
	case FormatJSON:
		content, err = RenderJSON(snap)
	case FormatMarkdown, "":
		if snap.Result == nil {
			err = ErrNoResult
			return content, err
		}
		content, err = RenderMarkdown(snap.Result, priority)
	default:
		err = errors.Errorf("unknown report format %q (want markdown or json)", format)
	}
	return content, err
}

// RenderJSON renders v as indented JSON.
func RenderJSON(v any) (content string, err error) {
	var data []byte
	data, err = json.MarshalIndent(v, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal report")
		return content, err
	}
	content = string(data) + "\n"
	return content, err
}

// RenderMarkdown renders the audit report. A non-empty priority limits the recommendations section.
func RenderMarkdown(result *audit.EvaluationResult, priority audit.Priority) (content string, err error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeHeader(md, result)
	writeSummary(md, result)
	writeCategories(md, result)
	writeRecommendations(md, result, priority)
	writeCompetitiveAnalysis(md, result.CompetitiveAnalysis)
	writeSources(md, result.Sources)
	writeRawJSON(md, result.RawJSON)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by site-audit*")

	err = md.Build()
	if err != nil {
		err = errors.Wrap(err, "failed to build markdown report")
		return content, err
	}

	content = buf.String()
	return content, err
}

func writeHeader(md *markdown.Markdown, result *audit.EvaluationResult) {
	md.H1("Website Audit Report")
	md.PlainText("")

	industry := "-"
	if result.Industry != "" {
		industry = cases.Title(language.English).String(result.Industry)
	}

	rows := [][]string{
		{"URL", "`" + result.URL + "`"},
		{"Industry", industry},
		{"Overall Score", formatScore(result.OverallScore)},
	}

	if weighted, ok := scorer.WeightedScore(result.Categories); ok {
		rows = append(rows, []string{"Weighted Category Score", formatScore(weighted)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch scorer.BandFor(result.OverallScore) {
	case scorer.BandPoor:
		md.Cautionf("Overall score %s is below %d. Start with the Quick Wins.", strconv.FormatFloat(result.OverallScore, 'f', -1, 64), scorer.PoorThreshold)
	case scorer.BandFair:
		md.Importantf("Overall score %s leaves room to reach %d.", strconv.FormatFloat(result.OverallScore, 'f', -1, 64), scorer.GoodThreshold)
	case scorer.BandGood:
		md.Tip("This site scores in the good band.")
	}
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, result *audit.EvaluationResult) {
	md.H2("Summary")
	md.PlainText("")
	md.PlainText(result.HumanSummary)
	md.PlainText("")
}

func writeCategories(md *markdown.Markdown, result *audit.EvaluationResult) {
	md.H2("Categories")
	md.PlainText("")

	rows := make([][]string, 0, len(result.Categories))
	for _, c := range result.Categories {
		rows = append(rows, []string{
			cell(c.Name),
			strconv.FormatFloat(c.Score, 'f', -1, 64),
			strconv.FormatFloat(c.Weight, 'f', -1, 64) + "%",
			string(scorer.BandFor(c.Score)),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Weight", "Band"},
		Rows:   rows,
	})
	md.PlainText("")

	if total := scorer.WeightTotal(result.Categories); total != 100 {
		md.Note(fmt.Sprintf("Category weights sum to %s rather than 100.", strconv.FormatFloat(total, 'f', -1, 64)))
		md.PlainText("")
	}

	for _, c := range result.Categories {
		if len(c.Findings) == 0 {
			continue
		}
		md.H3(c.Name + " Findings")
		md.PlainText("")
		md.BulletList(c.Findings...)
		md.PlainText("")
	}
}

func writeRecommendations(md *markdown.Markdown, result *audit.EvaluationResult, priority audit.Priority) {
	title := "Recommendations"
	if priority != "" {
		title = fmt.Sprintf("Recommendations (%s)", priority)
	}
	md.H2(title)
	md.PlainText("")

	recs := scorer.FilterRecommendations(result, priority)
	if len(recs) == 0 {
		md.PlainText("No recommendations.")
		md.PlainText("")
		return
	}

	writeImpactTally(md, recs)

	groups := scorer.GroupByPriority(recs)
	for _, p := range audit.Priorities {
		group := groups[p]
		if len(group) == 0 {
			continue
		}

		md.H3(string(p))
		md.PlainText("")

		rows := make([][]string, 0, len(group))
		for _, r := range group {
			rows = append(rows, []string{cell(r.Action), string(r.Impact), cell(r.Rationale)})
		}

		md.Table(markdown.TableSet{
			Header: []string{"Action", "Impact", "Rationale"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func writeImpactTally(md *markdown.Markdown, recs []audit.Recommendation) {
	counts := scorer.CountByImpact(recs)

	parts := make([]string, 0, len(audit.Impacts))
	for _, impact := range audit.Impacts {
		if n := counts[impact]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, impact))
		}
	}

	md.PlainTextf("Impact: %s", strings.Join(parts, ", "))
	md.PlainText("")
}

func writeCompetitiveAnalysis(md *markdown.Markdown, analysis *audit.CompetitiveAnalysis) {
	if analysis == nil {
		return
	}

	md.H2("Competitive Analysis")
	md.PlainText("")
	md.PlainText(analysis.Summary)
	md.PlainText("")

	if len(analysis.IdentifiedCompetitors) > 0 {
		md.H3("Identified Competitors")
		md.PlainText("")
		md.BulletList(analysis.IdentifiedCompetitors...)
		md.PlainText("")
	}

	if len(analysis.Gaps) > 0 {
		md.H3("Opportunity Gaps")
		md.PlainText("")

		rows := make([][]string, 0, len(analysis.Gaps))
		for _, g := range analysis.Gaps {
			rows = append(rows, []string{cell(g.Subject), cell(g.CompetitorWeakness), cell(g.OurAdvantage)})
		}

		md.Table(markdown.TableSet{
			Header: []string{"Competitor", "Their Weakness", "Our Advantage"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	// nil means no local scan has run
	if analysis.LocalCompetitors == nil {
		return
	}

	md.H3("Local Competitors")
	md.PlainText("")

	if len(analysis.LocalCompetitors) == 0 {
		md.PlainText("No local competitors found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(analysis.LocalCompetitors))
	for _, c := range analysis.LocalCompetitors {
		rows = append(rows, []string{
			cell(c.Name),
			cell(c.URL),
			strconv.FormatFloat(c.Score, 'f', -1, 64),
			string(scorer.BandFor(c.Score)),
			cell(c.Description),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name", "Website", "Score", "Band", "Description"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeSources(md *markdown.Markdown, sources []audit.GroundingSource) {
	if len(sources) == 0 {
		return
	}

	md.H2("Sources")
	md.PlainText("")

	items := make([]string, 0, len(sources))
	for _, s := range sources {
		items = append(items, fmt.Sprintf("[%s](%s)", s.Title, s.URI))
	}

	md.BulletList(items...)
	md.PlainText("")
}

func writeRawJSON(md *markdown.Markdown, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	md.H2("Raw Model Output")
	md.PlainText("")
	md.CodeBlocks(syntaxJSON, raw)
	md.PlainText("")
}

func formatScore(score float64) (formatted string) {
	formatted = fmt.Sprintf("%s/100 (%s)", strconv.FormatFloat(score, 'f', -1, 64), scorer.BandFor(score))
	return formatted
}

// cell keeps free text from breaking a table row.
func cell(text string) (escaped string) {
	escaped = strings.ReplaceAll(text, "|", `\|`)
	escaped = strings.Join(strings.Fields(escaped), " ")
	if escaped == "" {
		escaped = "-"
	}
	return escaped
}

// WriteReport writes report content to a file, creating parent directories.
func WriteReport(content, outputPath string) (err error) {
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	err = os.WriteFile(outputPath, []byte(content), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write report file: %s", outputPath)
		return err
	}

	return err
}
