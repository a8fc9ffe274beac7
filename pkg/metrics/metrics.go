// Package metrics exposes Prometheus instrumentation for model calls and audit sessions.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/llm"
	"github.com/nikogura/site-audit/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "site_audit"

	// Result labels.
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	// ModelRequests counts gateway operations by operation and result.
	ModelRequests *prometheus.CounterVec

	// ModelDuration is wall time per gateway operation.
	ModelDuration *prometheus.HistogramVec

	// ActiveSessions is the number of sessions held by the HTTP server.
	ActiveSessions prometheus.Gauge

	// ExpiredSessions counts sessions removed by the idle sweeper.
	ExpiredSessions prometheus.Counter
}

// New creates and registers the collectors.
func New() (m *Metrics) {
	m = &Metrics{
		registry: prometheus.NewRegistry(),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "requests_total",
			Help:      "Total number of model gateway operations, labeled by operation and result.",
		}, []string{"operation", "result"}),
		ModelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "request_duration_seconds",
			Help:      "Time spent in a model gateway operation, including the search tool.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"operation"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Number of audit sessions currently held in memory.",
		}),
		ExpiredSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sessions_expired_total",
			Help:      "Total number of idle sessions removed by the sweeper.",
		}),
	}

	m.registry.MustRegister(
		m.ModelRequests,
		m.ModelDuration,
		m.ActiveSessions,
		m.ExpiredSessions,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() (registry *prometheus.Registry) {
	registry = m.registry
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() (h http.Handler) {
	h = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return h
}

// observe records one finished operation.
func (m *Metrics) observe(op llm.Operation, started time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}

	m.ModelRequests.WithLabelValues(string(op), result).Inc()
	m.ModelDuration.WithLabelValues(string(op)).Observe(time.Since(started).Seconds())
}

// InstrumentGateway wraps next so every operation is counted and timed.
func InstrumentGateway(next session.Gateway, m *Metrics) (gateway session.Gateway) {
	gateway = &instrumentedGateway{next: next, metrics: m}
	return gateway
}

type instrumentedGateway struct {
	next    session.Gateway
	metrics *Metrics
}

func (g *instrumentedGateway) Evaluate(ctx context.Context, url string) (result audit.EvaluationResult, err error) {
	started := time.Now()
	result, err = g.next.Evaluate(ctx, url)
	g.metrics.observe(llm.OpEvaluate, started, err)
	return result, err
}

func (g *instrumentedGateway) FindLocalCompetitors(ctx context.Context, industry, location string) (competitors []audit.LocalCompetitor, err error) {
	started := time.Now()
	competitors, err = g.next.FindLocalCompetitors(ctx, industry, location)
	g.metrics.observe(llm.OpLocalSearch, started, err)
	return competitors, err
}

func (g *instrumentedGateway) AnalyzeIndustryGaps(ctx context.Context, primaryURL string) (analysis audit.CompetitiveAnalysis, err error) {
	started := time.Now()
	analysis, err = g.next.AnalyzeIndustryGaps(ctx, primaryURL)
	g.metrics.observe(llm.OpIndustryAnalysis, started, err)
	return analysis, err
}
