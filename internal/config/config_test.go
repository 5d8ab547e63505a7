package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patrol.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
monitor:
  repo_owner: acme
  repo_name: shop
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Monitor.LogPath != "logs/app.log" {
		t.Errorf("expected default log path, got %q", cfg.Monitor.LogPath)
	}
	if cfg.Monitor.Interval != "60s" {
		t.Errorf("expected default interval 60s, got %q", cfg.Monitor.Interval)
	}
	if cfg.Monitor.MaxErrorsPerBatch != 10 {
		t.Errorf("expected default batch size 10, got %d", cfg.Monitor.MaxErrorsPerBatch)
	}
	if cfg.Monitor.Environment != "production" {
		t.Errorf("expected default environment, got %q", cfg.Monitor.Environment)
	}
	if cfg.Monitor.ContextLines != 3 {
		t.Errorf("expected default context window of 3 lines, got %d", cfg.Monitor.ContextLines)
	}
	if len(cfg.Patterns) != 5 {
		t.Errorf("expected 5 builtin patterns, got %d", len(cfg.Patterns))
	}
}

func TestLoad_ExplicitPatternsReplaceBuiltins(t *testing.T) {
	path := writeConfig(t, `
monitor:
  repo_owner: acme
  repo_name: shop
patterns:
  - category: custom_error
    severity: high
    regex: 'CustomError'
    priority: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Patterns) != 1 || cfg.Patterns[0].Category != "custom_error" {
		t.Errorf("expected only the custom pattern, got %v", cfg.Patterns)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
monitor:
  repo_owner: acme
  repo_name: shop
  typo_field: oops
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/patrol.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	errs := Validate(cfg)
	if len(errs) == 0 {
		t.Fatal("expected validation errors for empty repo settings")
	}

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	if !fields["monitor.repo_owner"] || !fields["monitor.repo_name"] {
		t.Errorf("expected repo_owner and repo_name errors, got %v", errs)
	}
}

func TestValidate_BadRegex(t *testing.T) {
	cfg := &Config{
		Monitor: Monitor{RepoOwner: "acme", RepoName: "shop", LogPath: "app.log", Interval: "30s"},
		Patterns: []Pattern{
			{Category: "broken", Severity: "high", Regex: "([unclosed", Priority: 1},
		},
	}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !strings.Contains(errs[0].Message, "compile") {
		t.Errorf("expected compile error, got %v", errs[0])
	}
}

func TestValidate_RequiredGroupMustExist(t *testing.T) {
	cfg := &Config{
		Monitor: Monitor{RepoOwner: "acme", RepoName: "shop", LogPath: "app.log", Interval: "30s"},
		Patterns: []Pattern{
			{Category: "c", Severity: "high", Regex: `(?P<kind>Error)`, Priority: 1, Required: []string{"missing_group"}},
		},
	}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestValidate_BadSeverity(t *testing.T) {
	cfg := &Config{
		Monitor: Monitor{RepoOwner: "acme", RepoName: "shop", LogPath: "app.log", Interval: "30s"},
		Patterns: []Pattern{
			{Category: "c", Severity: "catastrophic", Regex: `Error`, Priority: 1},
		},
	}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestValidate_BadInterval(t *testing.T) {
	cfg := &Config{
		Monitor:  Monitor{RepoOwner: "acme", RepoName: "shop", LogPath: "app.log", Interval: "soon"},
		Patterns: BuiltinPatterns(),
	}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestIntervalDuration_FallsBackToMinute(t *testing.T) {
	m := Monitor{Interval: "garbage"}
	if got := m.IntervalDuration(); got.Minutes() != 1 {
		t.Errorf("expected 1m fallback, got %v", got)
	}
}

func TestRepo(t *testing.T) {
	m := Monitor{RepoOwner: "acme", RepoName: "shop"}
	if got := m.Repo(); got != "acme/shop" {
		t.Errorf("expected acme/shop, got %q", got)
	}
}
