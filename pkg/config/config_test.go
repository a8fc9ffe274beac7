package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nikogura/site-audit/pkg/llm"
)

// clearEnv keeps the developer's own environment out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("SITE_AUDIT_LISTEN_ADDR", "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testConfig := Config{
		GeminiAPIKey: "test-key",
		Model:        "gemini-test",
		RetryOnce:    true,
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:9999",
		},
		Defaults: DefaultConfig{
			OutputDir: "./test-output",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}

	err = os.WriteFile(configPath, data, 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("Expected API key test-key, got %s", cfg.GeminiAPIKey)
	}

	if cfg.GetModel() != "gemini-test" {
		t.Errorf("Expected model gemini-test, got %s", cfg.GetModel())
	}

	if !cfg.RetryOnce {
		t.Error("Expected retry_once to be loaded")
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("Expected listen addr from file, got %s", cfg.Server.ListenAddr)
	}

	if cfg.Defaults.Format != DefaultFormat {
		t.Errorf("Expected default format %s, got %s", DefaultFormat, cfg.Defaults.Format)
	}

	if cfg.Endpoint != llm.GeminiAPIEndpoint {
		t.Errorf("Expected default endpoint, got %s", cfg.Endpoint)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `gemini_api_key: yaml-key
timeout_seconds: 30
server:
  session_ttl_minutes: 5
defaults:
  format: json
`
	err := os.WriteFile(configPath, []byte(content), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GeminiAPIKey != "yaml-key" {
		t.Errorf("Expected API key yaml-key, got %s", cfg.GeminiAPIKey)
	}

	if cfg.GetTimeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.GetTimeout())
	}

	if cfg.GetSessionTTL() != 5*time.Minute {
		t.Errorf("Expected 5m TTL, got %v", cfg.GetSessionTTL())
	}

	if cfg.Defaults.Format != "json" {
		t.Errorf("Expected json format, got %s", cfg.Defaults.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte(`{"gemini_api_key": "file-key"}`), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("API_KEY", "fallback-key")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GeminiAPIKey != "fallback-key" {
		t.Errorf("Expected API_KEY override, got %s", cfg.GeminiAPIKey)
	}

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("SITE_AUDIT_LISTEN_ADDR", ":7070")

	cfg, err = Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GeminiAPIKey != "env-key" {
		t.Errorf("Expected GEMINI_API_KEY to win, got %s", cfg.GeminiAPIKey)
	}

	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("Expected listen addr override, got %s", cfg.Server.ListenAddr)
	}
}

func TestLoadNonexistent(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("Expected error loading nonexistent config, got nil")
	}

	if !strings.Contains(err.Error(), "site-audit init") {
		t.Errorf("Expected init hint, got %v", err)
	}
}

func TestLoadNonexistentWithEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-only")

	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected env-only config to load, got %v", err)
	}

	if cfg.GeminiAPIKey != "env-only" {
		t.Errorf("Expected env key, got %s", cfg.GeminiAPIKey)
	}

	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("Expected default listen addr, got %s", cfg.Server.ListenAddr)
	}
}

func TestLoadMalformed(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte("{not json"), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected parse error, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name:      "valid config",
			config:    Config{GeminiAPIKey: "test-key"},
			wantError: false,
		},
		{
			name:      "missing API key",
			config:    Config{Model: "gemini-test"},
			wantError: true,
		},
		{
			name:      "negative timeout",
			config:    Config{GeminiAPIKey: "test-key", TimeoutSeconds: -1},
			wantError: true,
		},
		{
			name:      "unknown format",
			config:    Config{GeminiAPIKey: "test-key", Defaults: DefaultConfig{Format: "pdf"}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{GeminiAPIKey: "k"}

	err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Model != llm.GeminiModel {
		t.Errorf("Expected default model, got %s", cfg.Model)
	}

	if cfg.GetTimeout() != llm.DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", cfg.GetTimeout())
	}

	if cfg.GetSessionTTL() != time.Hour {
		t.Errorf("Expected 1h session TTL, got %v", cfg.GetSessionTTL())
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{name: "json", filename: "config.json"},
		{name: "yaml", filename: "config.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			configPath := filepath.Join(t.TempDir(), "nested", tt.filename)

			err := InitConfig(configPath)
			if err != nil {
				t.Fatalf("Failed to init config: %v", err)
			}

			cfg, err := Load(configPath)
			if err != nil {
				t.Fatalf("Failed to load starter config: %v", err)
			}

			if cfg.GeminiAPIKey == "" {
				t.Error("Expected placeholder API key")
			}

			if cfg.Defaults.OutputDir == "" {
				t.Error("Default output dir was not set")
			}
		})
	}
}

func TestInitConfigAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := os.WriteFile(configPath, []byte("{}"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err = InitConfig(configPath)
	if err == nil {
		t.Error("Expected error when config already exists, got nil")
	}
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()

	if !strings.HasSuffix(path, filepath.Join(AppName, "config.json")) {
		t.Errorf("Expected path under %s, got %s", AppName, path)
	}
}
