// Package logging builds the slog loggers used across site-audit. Every logger it returns
// masks credentials before they reach the output.
package logging

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces sensitive attribute values.
const MaskValue = "***REDACTED***"

//nolint:gochecknoglobals // lookup tables
var (
	sensitiveKeys = map[string]bool{
		"authorization":       true,
		"proxy-authorization": true,
		"cookie":              true,
		"set-cookie":          true,
		"x-api-key":           true,
		"x-goog-api-key":      true,
		"api_key":             true,
		"apikey":              true,
		"api-key":             true,
		"gemini_api_key":      true,
		"access_token":        true,
		"refresh_token":       true,
	}

	sensitiveKeywords = []string{"password", "passwd", "secret", "token", "credential", "auth"}

	sensitivePatterns = []*regexp.Regexp{
		// Google API keys
		regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),
		// JWT
		regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
		regexp.MustCompile(`(?i)^bearer\s+.+`),
		regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
		// Embedded key query parameters, e.g. in a logged request URL
		regexp.MustCompile(`(?i)[?&]key=[^&\s]+`),
	}
)

// SecureHandler wraps an slog.Handler and masks attributes that look like credentials,
// either by key name or by value shape.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) (h *SecureHandler) {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h = &SecureHandler{handler: handler}
	return h
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) (enabled bool) {
	enabled = h.handler.Enabled(ctx, level)
	return enabled
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) (err error) {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})

	err = h.handler.Handle(ctx, sanitized)
	return err
}

// WithAttrs masks attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) (handler slog.Handler) {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	handler = &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
	return handler
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) (handler slog.Handler) {
	handler = &SecureHandler{handler: h.handler.WithGroup(name)}
	return handler
}

func sanitizeAttr(a slog.Attr) (out slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		out = slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
		return out
	}

	if isSensitiveKey(a.Key) {
		out = slog.String(a.Key, MaskValue)
		return out
	}

	if a.Value.Kind() == slog.KindString && isSensitiveValue(a.Value.String()) {
		out = slog.String(a.Key, MaskValue)
		return out
	}

	out = a
	return out
}

func isSensitiveKey(key string) (sensitive bool) {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		sensitive = true
		return sensitive
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			sensitive = true
			return sensitive
		}
	}

	return sensitive
}

func isSensitiveValue(value string) (sensitive bool) {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			sensitive = true
			return sensitive
		}
	}
	return sensitive
}

// NewLogger returns a masking logger writing text, or JSON when jsonOutput is set.
// verbose lowers the level from Info to Debug.
func NewLogger(w io.Writer, verbose bool, jsonOutput bool) (logger *slog.Logger) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if jsonOutput {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(NewSecureHandler(base))
	return logger
}
