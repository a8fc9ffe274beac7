package cmd

import (
	"log/slog"
	"os"

	"github.com/nikogura/site-audit/pkg/config"
	"github.com/nikogura/site-audit/pkg/llm"
	"github.com/nikogura/site-audit/pkg/logging"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var logJSON bool

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "site-audit",
	Short: "AI-assisted website audits",
	Long: `site-audit evaluates a website from five expert perspectives (performance, SEO,
UX, content and conversion) and produces a scored report with prioritized recommendations.

An audit can be enriched with an industry gap analysis against weaker competitors and a
scan of local competitors. Uses the Gemini API with Google Search grounding.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging, raw model output)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/site-audit/config.json)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// newLogger builds the stderr logger selected by the persistent flags.
func newLogger() (logger *slog.Logger) {
	logger = logging.NewLogger(os.Stderr, getVerbose(), logJSON)
	return logger
}

// newGateway wires the Gemini client into a gateway from config.
func newGateway(cfg config.Config, logger *slog.Logger) (gateway *llm.Gateway) {
	client := llm.NewClient(cfg.GeminiAPIKey, cfg.GetModel(),
		llm.WithEndpoint(cfg.Endpoint),
		llm.WithTimeout(cfg.GetTimeout()),
		llm.WithRetryOnce(cfg.RetryOnce),
	)
	gateway = llm.NewGateway(client, logger, cfg.GetTimeout())
	return gateway
}
