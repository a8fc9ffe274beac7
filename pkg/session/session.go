// Package session sequences one audit: the primary evaluation plus the two optional refinements
// that enrich a successful result. A Session is safe for concurrent use.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/pkg/errors"
)

// State is the primary state of a session.
type State string

const (
	// StateIdle means nothing has been submitted since creation or the last reset.
	StateIdle State = "idle"
	// StateLoading means an evaluation is in flight.
	StateLoading State = "loading"
	// StateSuccess means a result is present.
	StateSuccess State = "success"
	// StateError means the last evaluation failed.
	StateError State = "error"
)

//nolint:gochecknoglobals // sentinel errors
var (
	// ErrBusy is returned when the requested operation slot already has a call in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrResultPresent is returned when submitting over an existing result. Reset first.
	ErrResultPresent = errors.New("a result is already present; reset before submitting again")
	// ErrNoResult is returned when a refinement is requested without a successful evaluation.
	ErrNoResult = errors.New("no evaluation result")
	// ErrNoIndustry is returned when a local scan is requested but the result names no industry.
	ErrNoIndustry = errors.New("result has no industry")
	// ErrEmptyLocation is returned for a blank local scan location.
	ErrEmptyLocation = errors.New("location is required")
	// ErrStale is returned by a completion whose session was reset while it was running.
	ErrStale = errors.New("session was reset; result discarded")
)

// LoadingMessages are progress lines shown while an evaluation runs.
//
//nolint:gochecknoglobals // display text
var LoadingMessages = []string{
	"Analyzing core web vitals...",
	"Scanning SEO structure...",
	"Evaluating UX heuristics...",
	"Calculating conversion friction...",
	"Identifying industry context...",
	"Synthesizing results...",
}

// Gateway is the model side of an audit.
type Gateway interface {
	Evaluate(ctx context.Context, url string) (result audit.EvaluationResult, err error)
	FindLocalCompetitors(ctx context.Context, industry, location string) (competitors []audit.LocalCompetitor, err error)
	AnalyzeIndustryGaps(ctx context.Context, primaryURL string) (analysis audit.CompetitiveAnalysis, err error)
}

// Completion finishes an operation that a Start method accepted. It performs the model call and
// applies the outcome to the session.
type Completion func(ctx context.Context) error

// Snapshot is a point-in-time copy of a session. Result is never shared with the session.
type Snapshot struct {
	State                    State                   `json:"state"`
	URL                      string                  `json:"url"`
	Result                   *audit.EvaluationResult `json:"result"`
	Error                    string                  `json:"error"`
	IndustryAnalysisInFlight bool                    `json:"industryAnalysisInFlight"`
	LocalScanInFlight        bool                    `json:"localScanInFlight"`
	Generation               uint64                  `json:"generation"`
}

// Session owns the state of a single audit.
type Session struct {
	gateway Gateway
	logger  *slog.Logger

	mu               sync.Mutex
	state            State
	url              string
	result           *audit.EvaluationResult
	errMsg           string
	industryInFlight bool
	localInFlight    bool
	generation       uint64
	lastActive       time.Time
}

// New creates an idle session.
func New(gateway Gateway, logger *slog.Logger) (s *Session) {
	if logger == nil {
		logger = slog.Default()
	}
	s = &Session{
		gateway:    gateway,
		logger:     logger,
		state:      StateIdle,
		lastActive: time.Now(),
	}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() (snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap = s.snapshotLocked()
	return snap
}

func (s *Session) snapshotLocked() (snap Snapshot) {
	snap = Snapshot{
		State:                    s.state,
		URL:                      s.url,
		Result:                   s.result.Clone(),
		Error:                    s.errMsg,
		IndustryAnalysisInFlight: s.industryInFlight,
		LocalScanInFlight:        s.localInFlight,
		Generation:               s.generation,
	}
	return snap
}

// LastActive is when the session was last touched by an operation.
func (s *Session) LastActive() (t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t = s.lastActive
	return t
}

// Touch marks the session as in use so an idle sweeper keeps it.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()
}

// Busy reports whether any operation is in flight.
func (s *Session) Busy() (busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy = s.state == StateLoading || s.industryInFlight || s.localInFlight
	return busy
}

// StartSubmit accepts raw for evaluation and moves the session to Loading. The returned
// Completion runs the evaluation. On a guard error nothing changes.
func (s *Session) StartSubmit(raw string) (complete Completion, err error) {
	var url string
	url, err = audit.NormalizeURL(raw)
	if err != nil {
		return complete, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateLoading:
		err = ErrBusy
		return complete, err
	case StateSuccess:
		err = ErrResultPresent
		return complete, err
	case StateIdle, StateError:
	}

	err = audit.ValidateURL(url)
	if err != nil {
		return complete, err
	}

	s.generation++
	s.state = StateLoading
	s.url = url
	s.result = nil
	s.errMsg = ""
	s.lastActive = time.Now()

	gen := s.generation

	complete = func(ctx context.Context) (err error) {
		result, evalErr := s.gateway.Evaluate(ctx, url)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.generation != gen {
			s.logger.Debug("discarding stale evaluation", "url", url, "generation", gen)
			err = ErrStale
			return err
		}

		s.lastActive = time.Now()

		if evalErr != nil {
			s.state = StateError
			s.result = nil
			s.errMsg = evalErr.Error()
			err = evalErr
			return err
		}

		s.state = StateSuccess
		s.result = &result
		return err
	}

	return complete, err
}

// Submit evaluates raw and waits for the outcome. The returned error is the evaluation failure,
// which is also recorded as the session error.
func (s *Session) Submit(ctx context.Context, raw string) (err error) {
	var complete Completion
	complete, err = s.StartSubmit(raw)
	if err != nil {
		return err
	}

	err = complete(ctx)
	return err
}

// StartIndustryAnalysis marks the industry analysis slot busy. The returned Completion runs the
// analysis and merges it into the result. A failed analysis leaves the result untouched.
func (s *Session) StartIndustryAnalysis() (complete Completion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSuccess || s.result == nil {
		err = ErrNoResult
		return complete, err
	}

	if s.industryInFlight {
		err = ErrBusy
		return complete, err
	}

	s.industryInFlight = true
	s.lastActive = time.Now()

	gen := s.generation
	primaryURL := s.result.URL

	complete = func(ctx context.Context) (err error) {
		analysis, callErr := s.gateway.AnalyzeIndustryGaps(ctx, primaryURL)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.generation != gen {
			s.logger.Debug("discarding stale industry analysis", "url", primaryURL, "generation", gen)
			err = ErrStale
			return err
		}

		s.industryInFlight = false
		s.lastActive = time.Now()

		if callErr != nil {
			s.logger.Warn("industry analysis failed", "url", primaryURL, "error", callErr)
			err = callErr
			return err
		}

		s.result = audit.MergeIndustryAnalysis(s.result, analysis)
		return err
	}

	return complete, err
}

// RequestIndustryAnalysis runs an industry gap analysis and waits for it.
func (s *Session) RequestIndustryAnalysis(ctx context.Context) (err error) {
	var complete Completion
	complete, err = s.StartIndustryAnalysis()
	if err != nil {
		return err
	}

	err = complete(ctx)
	return err
}

// StartLocalScan marks the local scan slot busy. The returned Completion looks up competitors
// near location and merges them into the result. A failed scan leaves the result untouched.
func (s *Session) StartLocalScan(location string) (complete Completion, err error) {
	location = strings.TrimSpace(location)
	if location == "" {
		err = ErrEmptyLocation
		return complete, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSuccess || s.result == nil {
		err = ErrNoResult
		return complete, err
	}

	industry := strings.TrimSpace(s.result.Industry)
	if industry == "" {
		err = ErrNoIndustry
		return complete, err
	}

	if s.localInFlight {
		err = ErrBusy
		return complete, err
	}

	s.localInFlight = true
	s.lastActive = time.Now()

	gen := s.generation

	complete = func(ctx context.Context) (err error) {
		competitors, callErr := s.gateway.FindLocalCompetitors(ctx, industry, location)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.generation != gen {
			s.logger.Debug("discarding stale local scan", "location", location, "generation", gen)
			err = ErrStale
			return err
		}

		s.localInFlight = false
		s.lastActive = time.Now()

		if callErr != nil {
			s.logger.Warn("local competitor scan failed", "industry", industry, "location", location, "error", callErr)
			err = callErr
			return err
		}

		s.result = audit.MergeLocalCompetitors(s.result, industry, location, competitors)
		return err
	}

	return complete, err
}

// RequestLocalScan runs a local competitor scan and waits for it.
func (s *Session) RequestLocalScan(ctx context.Context, location string) (err error) {
	var complete Completion
	complete, err = s.StartLocalScan(location)
	if err != nil {
		return err
	}

	err = complete(ctx)
	return err
}

// Reset returns the session to Idle from any state. Completions still running are discarded
// when they finish.
func (s *Session) Reset() (snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateIdle
	s.url = ""
	s.result = nil
	s.errMsg = ""
	s.industryInFlight = false
	s.localInFlight = false
	s.lastActive = time.Now()

	snap = s.snapshotLocked()
	return snap
}
