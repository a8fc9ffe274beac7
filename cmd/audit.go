package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/config"
	"github.com/nikogura/site-audit/pkg/renderer"
	"github.com/nikogura/site-audit/pkg/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const progressInterval = 3 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var auditGaps bool

//nolint:gochecknoglobals // Cobra boilerplate
var auditLocation string

//nolint:gochecknoglobals // Cobra boilerplate
var auditFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var auditPriority string

//nolint:gochecknoglobals // Cobra boilerplate
var auditOutput string

//nolint:gochecknoglobals // Cobra boilerplate
var auditOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a website",
	Long: `Audit a website and print a report.

The URL may omit the scheme; https:// is assumed. After the audit succeeds, --gaps runs an
industry gap analysis and --location scans for local competitors. Both run concurrently and
a failure in either is reported as a warning without failing the audit.

A relative --output is placed under --output-dir, or defaults.output_dir from the config.

Example:
  site-audit audit example.com
  site-audit audit example.com --gaps --location "Austin, TX"
  site-audit audit https://example.com --priority "quick win" --output reports/example.md
  site-audit audit example.com --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().BoolVar(&auditGaps, "gaps", false, "Run an industry gap analysis after the audit")
	auditCmd.Flags().StringVar(&auditLocation, "location", "", "Scan for local competitors near this location")
	auditCmd.Flags().StringVar(&auditFormat, "format", "", "Report format: markdown or json (default from config)")
	auditCmd.Flags().StringVar(&auditPriority, "priority", "", "Only show recommendations of this priority (quick win, strategic, long-term)")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "", "Write the report to this file instead of stdout")
	auditCmd.Flags().StringVar(&auditOutputDir, "output-dir", "", "Directory for a relative --output (default from config)")
}

func runAudit(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	format := auditFormat
	if format == "" {
		format = cfg.Defaults.Format
	}
	if format != renderer.FormatMarkdown && format != renderer.FormatJSON {
		err = errors.Errorf("invalid format %q: must be markdown or json", format)
		return err
	}

	var priority audit.Priority
	priority, err = parsePriorityFlag(auditPriority)
	if err != nil {
		return err
	}

	logger := newLogger()
	sess := session.New(newGateway(cfg, logger), logger)

	err = runEvaluation(ctx, sess, args[0])
	if err != nil {
		return err
	}

	runRefinements(ctx, sess, auditGaps, auditLocation)

	var content string
	content, err = renderer.Render(format, sess.Snapshot(), priority)
	if err != nil {
		err = errors.Wrap(err, "failed to render report")
		return err
	}

	if auditOutput == "" {
		fmt.Print(content)
		return err
	}

	outPath := resolveOutputPath(getBaseOutputDir(cfg), auditOutput)

	err = renderer.WriteReport(content, outPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Report saved at: %s\n", outPath)
	return err
}

// getBaseOutputDir returns the report directory from flag or config.
func getBaseOutputDir(cfg config.Config) (baseOutDir string) {
	baseOutDir = auditOutputDir
	if baseOutDir == "" {
		baseOutDir = cfg.Defaults.OutputDir
	}
	return baseOutDir
}

// resolveOutputPath places a relative output path under baseOutDir. Absolute paths are kept.
func resolveOutputPath(baseOutDir, output string) (path string) {
	path = output
	if baseOutDir == "" || filepath.IsAbs(output) {
		return path
	}

	path = filepath.Join(baseOutDir, output)
	return path
}

func parsePriorityFlag(raw string) (priority audit.Priority, err error) {
	if raw == "" || strings.EqualFold(raw, "all") {
		return priority, err
	}

	// Accept the short forms shown in the flag help
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strategic":
		priority = audit.PriorityStrategic
		return priority, err
	case "long-term", "long term", "longterm":
		priority = audit.PriorityLongTerm
		return priority, err
	}

	priority, err = audit.ParsePriority(raw)
	if err != nil {
		err = errors.Wrap(err, "invalid --priority")
	}
	return priority, err
}

// runEvaluation submits url and shows progress on stderr until the evaluation settles.
func runEvaluation(ctx context.Context, sess *session.Session, url string) (err error) {
	var complete session.Completion
	complete, err = sess.StartSubmit(url)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Auditing %s\n", sess.Snapshot().URL)

	done := make(chan struct{})
	go showProgress(done)

	err = complete(ctx)
	close(done)

	if err != nil {
		snap := sess.Snapshot()
		if snap.Error != "" {
			err = errors.New(snap.Error)
		}
		return err
	}

	return err
}

func showProgress(done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	i := 0
	fmt.Fprintln(os.Stderr, session.LoadingMessages[i])

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			i = (i + 1) % len(session.LoadingMessages)
			fmt.Fprintln(os.Stderr, session.LoadingMessages[i])
		}
	}
}

// runRefinements runs the requested enrichments concurrently. Failures are warnings only.
func runRefinements(ctx context.Context, sess *session.Session, gaps bool, location string) {
	var g errgroup.Group

	if gaps {
		g.Go(func() error {
			fmt.Fprintln(os.Stderr, "Running industry gap analysis...")
			err := sess.RequestIndustryAnalysis(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			return nil
		})
	}

	if location != "" {
		g.Go(func() error {
			fmt.Fprintf(os.Stderr, "Scanning local competitors near %s...\n", location)
			err := sess.RequestLocalScan(ctx, location)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			return nil
		})
	}

	_ = g.Wait()
}
