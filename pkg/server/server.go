// Package server exposes audit sessions over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/metrics"
	"github.com/nikogura/site-audit/pkg/renderer"
	"github.com/nikogura/site-audit/pkg/session"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

// ErrSessionNotFound is returned for unknown or expired session IDs.
//
//nolint:gochecknoglobals // sentinel error
var ErrSessionNotFound = errors.New("session not found")

// Server holds the live sessions and runs their model calls in the background.
type Server struct {
	gateway session.Gateway
	logger  *slog.Logger
	ttl     time.Duration
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*session.Session

	// Background completions run under baseCtx so Close can cancel them.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at /metrics and keeps its session collectors current.
func WithMetrics(m *metrics.Metrics) (opt Option) {
	opt = func(s *Server) {
		s.metrics = m
	}
	return opt
}

// New creates a server. Sessions idle for longer than ttl are removed by Sweep.
func New(gateway session.Gateway, logger *slog.Logger, ttl time.Duration, opts ...Option) (s *Server) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s = &Server{
		gateway:  gateway,
		logger:   logger,
		ttl:      ttl,
		sessions: make(map[string]*session.Session),
		baseCtx:  ctx,
		cancel:   cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Routes returns the API router.
func (s *Server) Routes() (r chi.Router) {
	r = chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/audit", s.handleSubmit)
			r.Post("/industry-analysis", s.handleIndustryAnalysis)
			r.Post("/local-scan", s.handleLocalScan)
			r.Post("/reset", s.handleReset)
			r.Get("/report", s.handleReport)
		})
	})

	return r
}

// Close cancels running model calls and waits for their completions to return.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every background completion started so far has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Sweep removes sessions idle since before now minus the TTL. Busy sessions are kept.
func (s *Server) Sweep(now time.Time) (removed int) {
	if s.ttl <= 0 {
		return removed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.Busy() || now.Sub(sess.LastActive()) < s.ttl {
			continue
		}
		delete(s.sessions, id)
		removed++
	}

	s.recordSessions(removed)

	if removed > 0 {
		s.logger.Info("expired idle sessions", "removed", removed, "remaining", len(s.sessions))
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// recordSessions updates the session collectors. Callers hold s.mu.
func (s *Server) recordSessions(expired int) {
	if s.metrics == nil {
		return
	}

	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.metrics.ExpiredSessions.Add(float64(expired))
}

func (s *Server) lookup(id string) (sess *session.Session, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		err = ErrSessionNotFound
		return sess, err
	}

	// Any request on a session, polling included, counts as activity
	sess.Touch()
	return sess, err
}

// runBackground runs a completion detached from the request.
func (s *Server) runBackground(id, op string, complete session.Completion) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := complete(s.baseCtx)
		switch {
		case err == nil:
			s.logger.Debug("operation complete", "session_id", id, "operation", op)
		case errors.Is(err, session.ErrStale):
			s.logger.Debug("operation result discarded", "session_id", id, "operation", op)
		default:
			s.logger.Info("operation failed", "session_id", id, "operation", op, "error", err)
		}
	}()
}

type createResponse struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type submitRequest struct {
	URL string `json:"url"`
}

type localScanRequest struct {
	Location string `json:"location"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	sess := session.New(s.gateway, s.logger.With("session_id", id))

	s.mu.Lock()
	s.sessions[id] = sess
	s.recordSessions(0)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, createResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.recordSessions(0)
	s.mu.Unlock()

	if !ok {
		s.writeError(w, ErrSessionNotFound)
		return
	}

	// Late completions on the deleted session are discarded
	sess.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.lookup(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req submitRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var complete session.Completion
	complete, err = sess.StartSubmit(req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	s.runBackground(id, "evaluate", complete)
	s.writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleIndustryAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.lookup(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var complete session.Completion
	complete, err = sess.StartIndustryAnalysis()
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	s.runBackground(id, "industry-analysis", complete)
	s.writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleLocalScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.lookup(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req localScanRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var complete session.Completion
	complete, err = sess.StartLocalScan(req.Location)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	s.runBackground(id, "local-search", complete)
	s.writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sess.Reset())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = renderer.FormatMarkdown
	}

	var priority audit.Priority
	if raw := r.URL.Query().Get("priority"); raw != "" && !strings.EqualFold(raw, "all") {
		priority, err = audit.ParsePriority(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	var content string
	content, err = renderer.Render(format, sess.Snapshot(), priority)
	if err != nil {
		if errors.Is(err, renderer.ErrNoResult) {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == renderer.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) (err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err = json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		err = &badRequestError{msg: "invalid request body: " + err.Error()}
	}
	return err
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() (msg string) {
	msg = e.msg
	return msg
}

// statusFor maps guard and lookup errors onto HTTP status codes.
func statusFor(err error) (status int) {
	var badReq *badRequestError

	switch {
	case errors.As(err, &badReq),
		errors.Is(err, audit.ErrEmptyURL),
		errors.Is(err, audit.ErrInvalidURL),
		errors.Is(err, session.ErrEmptyLocation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrResultPresent),
		errors.Is(err, session.ErrNoResult),
		errors.Is(err, session.ErrNoIndustry),
		errors.Is(err, renderer.ErrNoResult):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	return status
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) requestLogger(next http.Handler) (h http.Handler) {
	h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
	return h
}
