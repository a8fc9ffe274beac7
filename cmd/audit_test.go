package cmd

import (
	"path/filepath"
	"testing"

	"github.com/nikogura/site-audit/pkg/audit"
	"github.com/nikogura/site-audit/pkg/config"
)

func TestParsePriorityFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    audit.Priority
		wantErr bool
	}{
		{input: "", want: ""},
		{input: "all", want: ""},
		{input: "quick win", want: audit.PriorityQuickWin},
		{input: "Quick-Wins", want: audit.PriorityQuickWin},
		{input: "strategic", want: audit.PriorityStrategic},
		{input: "long-term", want: audit.PriorityLongTerm},
		{input: "Long-Term Enhancement", want: audit.PriorityLongTerm},
		{input: "someday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parsePriorityFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for '%s'", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestResolveOutputPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "report.md")

	tests := []struct {
		name    string
		baseDir string
		output  string
		want    string
	}{
		{name: "relative under base", baseDir: "./audits", output: "example.md", want: filepath.Join("audits", "example.md")},
		{name: "nested relative", baseDir: "/srv/audits", output: "2026/example.md", want: filepath.Join("/srv/audits", "2026", "example.md")},
		{name: "absolute kept", baseDir: "./audits", output: abs, want: abs},
		{name: "no base dir", baseDir: "", output: "example.md", want: "example.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveOutputPath(tt.baseDir, tt.output)
			if got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestGetBaseOutputDir(t *testing.T) {
	cfg := config.Config{Defaults: config.DefaultConfig{OutputDir: "./from-config"}}

	auditOutputDir = ""
	if got := getBaseOutputDir(cfg); got != "./from-config" {
		t.Errorf("Expected config output dir, got '%s'", got)
	}

	auditOutputDir = "./from-flag"
	t.Cleanup(func() { auditOutputDir = "" })

	if got := getBaseOutputDir(cfg); got != "./from-flag" {
		t.Errorf("Expected flag to override config, got '%s'", got)
	}
}
