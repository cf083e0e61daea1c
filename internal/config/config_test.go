package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "case-nexus.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  extra: true
`)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("CASE_NEXUS_LLM_API_KEY", "")

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected api_key error, got %v", err)
	}
}

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	path := writeConfig(t, `server: {}`)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Budgets.MaxRounds != 8 {
		t.Fatalf("expected default max_rounds 8, got %d", cfg.Budgets.MaxRounds)
	}
	if cfg.Budgets.MemoryLimit != 5 {
		t.Fatalf("expected default memory_limit 5, got %d", cfg.Budgets.MemoryLimit)
	}
	if cfg.Budgets.LegalContextTokenCap != 30_000 {
		t.Fatalf("expected default legal_context_token_cap 30000, got %d", cfg.Budgets.LegalContextTokenCap)
	}
}

func TestLoadEnvOverridesTakePriorityOverFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("CASE_NEXUS_PORT", "7070")
	t.Setenv("MAX_ROUNDS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env override port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Budgets.MaxRounds != 3 {
		t.Fatalf("expected env override max_rounds 3, got %d", cfg.Budgets.MaxRounds)
	}
}

func TestLoadWithoutFileFallsBackToEnvAndDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected api key from ANTHROPIC_API_KEY, got %q", cfg.LLM.APIKey)
	}
	if cfg.Database.Path != "case-nexus.db" {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestThinkingBudgetForFallsBackOnUnknownName(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.ThinkingBudgetFor("not_a_workflow", 1234); got != 1234 {
		t.Fatalf("expected fallback 1234, got %d", got)
	}
	if got := cfg.ThinkingBudgetFor("health_check", 1); got != 60_000 {
		t.Fatalf("expected health_check budget 60000, got %d", got)
	}
}
