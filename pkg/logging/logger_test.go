package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureHandlerMasksKeys(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "goog api key header", key: "X-Goog-Api-Key", value: "abc", wantMask: true},
		{name: "gemini api key", key: "gemini_api_key", value: "abc", wantMask: true},
		{name: "authorization", key: "authorization", value: "whatever", wantMask: true},
		{name: "keyword in key", key: "refresh_token_value", value: "abc", wantMask: true},
		{name: "url is kept", key: "url", value: "https://example.com", wantMask: false},
		{name: "session id is kept", key: "session_id", value: "6f1c0c7e-1b7b-4d4e-9d55-1f0f5a1f6c11", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, false, false)

			logger.Info("test", tt.key, tt.value)

			masked := strings.Contains(buf.String(), MaskValue)
			if masked != tt.wantMask {
				t.Errorf("Expected masked=%v, got output: %s", tt.wantMask, buf.String())
			}
		})
	}
}

func TestSecureHandlerMasksValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "google api key", value: "AIza" + strings.Repeat("x", 35)},
		{name: "bearer", value: "Bearer abc.def"},
		{name: "jwt", value: "eyJhbGciOi.eyJzdWIiOi.c2ln"},
		{name: "key query parameter", value: "https://generativelanguage.googleapis.com/v1beta/models/m:generateContent?key=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, false, false)

			logger.Info("test", "detail", tt.value)

			if !strings.Contains(buf.String(), MaskValue) {
				t.Errorf("Expected value masked, got: %s", buf.String())
			}
		})
	}
}

func TestSecureHandlerGroupsAndWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, true).With("api_key", "abc")

	logger.Info("test", slog.Group("request", slog.String("password", "hunter2"), slog.String("model", "gemini")))

	var record map[string]any
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		t.Fatalf("Expected JSON output, got %s", buf.String())
	}

	if record["api_key"] != MaskValue {
		t.Errorf("Expected api_key masked, got %v", record["api_key"])
	}

	group, ok := record["request"].(map[string]any)
	if !ok {
		t.Fatalf("Expected request group, got %v", record["request"])
	}

	if group["password"] != MaskValue {
		t.Errorf("Expected password masked, got %v", group["password"])
	}

	if group["model"] != "gemini" {
		t.Errorf("Expected model kept, got %v", group["model"])
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf, false, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug suppressed, got %s", buf.String())
	}

	NewLogger(&buf, true, false).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected debug output when verbose, got %s", buf.String())
	}
}
