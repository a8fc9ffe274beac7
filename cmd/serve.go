package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikogura/site-audit/pkg/config"
	"github.com/nikogura/site-audit/pkg/metrics"
	"github.com/nikogura/site-audit/pkg/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var serveListen string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit API over HTTP",
	Long: `Serve the JSON audit API. Each client creates a session, submits a URL and polls the
session until the audit settles, then optionally requests the industry gap analysis and a
local competitor scan. Prometheus metrics are served at /metrics.

Example:
  site-audit serve
  site-audit serve --listen 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	addr := serveListen
	if addr == "" {
		addr = cfg.Server.ListenAddr
	}

	logger := newLogger()
	m := metrics.New()
	gateway := metrics.InstrumentGateway(newGateway(cfg, logger), m)
	srv := server.New(gateway, logger, cfg.GetSessionTTL(), server.WithMetrics(m))

	go srv.RunSweeper(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("listening", "addr", addr, "model", cfg.GetModel(), "session_ttl", cfg.GetSessionTTL())

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			err = errors.Wrap(err, "server error")
			return err
		}
		err = nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	srv.Close()
	if err != nil {
		err = errors.Wrap(err, "shutdown failed")
		return err
	}

	return err
}
