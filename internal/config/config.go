// Package config loads Case Nexus's runtime configuration: the LLM
// provider's API key, server ports, per-workflow thinking budgets, and the
// persisted store's location. It follows the same shape the teacher
// repo uses — a YAML file with environment-variable overrides and
// defaults applied afterward — trimmed to what a single-provider
// orchestrator over one SQLite store actually needs (spec §6
// "Environment"/"CLI").
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Budgets  BudgetsConfig  `yaml:"budgets"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cron     CronConfig     `yaml:"cron"`
}

// ServerConfig configures the control/read HTTP surface (spec §6).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig configures the persisted relational store (spec §6
// "Persisted state layout").
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the single LLM provider case-nexus talks to. The
// spec requires exactly one provider secret plus an optional search key
// (spec §6 "Environment").
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	APIKey          string `yaml:"api_key"`
	DefaultModel    string `yaml:"default_model"`
	BaseURL         string `yaml:"base_url"`
	WebSearchAPIKey string `yaml:"web_search_api_key"`
}

// CronConfig optionally schedules run_health_check to fire on a timer
// instead of (or in addition to) a client-issued command (spec §6 "Cron
// scheduling"). An empty Schedule disables the trigger.
type CronConfig struct {
	Schedule string `yaml:"schedule"`
	ClientID string `yaml:"client_id"`
}

// BudgetsConfig holds the per-workflow thinking-token budgets and the
// round/memory/context caps named throughout the spec. applyDefaults fills
// every zero value with this package's own default, so operators only need
// to override the ones they care about. Those defaults equal each
// workflow's own constant except adversarial (30_000 here, 20_000 per phase
// in internal/workflow) and motion (30_000 here, 25_000 there); the
// workflow constants apply only when no budget source is installed.
type BudgetsConfig struct {
	MaxRounds            int `yaml:"max_rounds"`
	MemoryLimit          int `yaml:"memory_limit"`
	LegalContextTokenCap int `yaml:"legal_context_token_cap"`
	HealthCheckThinking  int `yaml:"health_check_thinking"`
	DeepAnalysisThinking int `yaml:"deep_analysis_thinking"`
	AdversarialThinking  int `yaml:"adversarial_thinking"`
	MotionThinking       int `yaml:"motion_thinking"`
	EvidenceThinking     int `yaml:"evidence_thinking"`
	ChatThinking         int `yaml:"chat_thinking"`
	HearingPrepThinking  int `yaml:"hearing_prep_thinking"`
	ClientLetterThinking int `yaml:"client_letter_thinking"`
	CascadeThinking      int `yaml:"cascade_thinking"`
	WidgetThinking       int `yaml:"widget_thinking"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the optional YAML file at path (if non-empty and present),
// applies environment-variable overrides, fills defaults, and validates
// the result. An empty or missing path is not an error: Case Nexus can run
// entirely off environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			expanded := os.ExpandEnv(string(data))
			decoder := yaml.NewDecoder(strings.NewReader(expanded))
			decoder.KnownFields(true)
			if err := decoder.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_DB_PATH")); v != "" {
		cfg.Database.Path = v
	}

	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LLM_PROVIDER")); v != "" {
		cfg.LLM.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LLM_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LLM_MODEL")); v != "" {
		cfg.LLM.DefaultModel = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LLM_BASE_URL")); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_WEB_SEARCH_API_KEY")); v != "" {
		cfg.LLM.WebSearchAPIKey = v
	}

	if v := strings.TrimSpace(os.Getenv("MAX_ROUNDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Budgets.MaxRounds = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("MEMORY_LIMIT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Budgets.MemoryLimit = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEGAL_CONTEXT_TOKEN_CAP")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Budgets.LegalContextTokenCap = parsed
		}
	}

	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}

	if v := strings.TrimSpace(os.Getenv("CASE_NEXUS_HEALTH_CHECK_CRON")); v != "" {
		cfg.Cron.Schedule = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "case-nexus.db"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.DefaultModel == "" {
		cfg.LLM.DefaultModel = "claude-sonnet-4-5"
	}

	if cfg.Budgets.MaxRounds == 0 {
		cfg.Budgets.MaxRounds = 8
	}
	if cfg.Budgets.MemoryLimit == 0 {
		cfg.Budgets.MemoryLimit = 5
	}
	if cfg.Budgets.LegalContextTokenCap == 0 {
		cfg.Budgets.LegalContextTokenCap = 30_000
	}
	if cfg.Budgets.HealthCheckThinking == 0 {
		cfg.Budgets.HealthCheckThinking = 60_000
	}
	if cfg.Budgets.DeepAnalysisThinking == 0 {
		cfg.Budgets.DeepAnalysisThinking = 40_000
	}
	if cfg.Budgets.AdversarialThinking == 0 {
		cfg.Budgets.AdversarialThinking = 30_000
	}
	if cfg.Budgets.MotionThinking == 0 {
		cfg.Budgets.MotionThinking = 30_000
	}
	if cfg.Budgets.EvidenceThinking == 0 {
		cfg.Budgets.EvidenceThinking = 15_000
	}
	if cfg.Budgets.ChatThinking == 0 {
		cfg.Budgets.ChatThinking = 20_000
	}
	if cfg.Budgets.HearingPrepThinking == 0 {
		cfg.Budgets.HearingPrepThinking = 8_000
	}
	if cfg.Budgets.ClientLetterThinking == 0 {
		cfg.Budgets.ClientLetterThinking = 5_000
	}
	if cfg.Budgets.CascadeThinking == 0 {
		cfg.Budgets.CascadeThinking = 30_000
	}
	if cfg.Budgets.WidgetThinking == 0 {
		cfg.Budgets.WidgetThinking = 5_000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Cron.ClientID == "" {
		cfg.Cron.ClientID = "scheduled"
	}
}

// ValidationError reports every configuration problem found, rather than
// just the first, so an operator can fix a misconfigured deployment in one
// pass.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validate(cfg *Config) error {
	var issues []string

	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		issues = append(issues, "llm.api_key (or ANTHROPIC_API_KEY/CASE_NEXUS_LLM_API_KEY) is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		issues = append(issues, "server.port must be between 1 and 65535")
	}
	if cfg.Budgets.MaxRounds <= 0 {
		issues = append(issues, "budgets.max_rounds must be > 0")
	}
	if cfg.Budgets.MemoryLimit < 0 {
		issues = append(issues, "budgets.memory_limit must be >= 0")
	}
	if cfg.Budgets.LegalContextTokenCap <= 0 {
		issues = append(issues, "budgets.legal_context_token_cap must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "json", "text":
	default:
		issues = append(issues, "logging.format must be \"json\" or \"text\"")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ThinkingBudgetFor returns the configured thinking budget for an analysis
// name, or fallback if name isn't recognized. Workflows call this instead
// of hardcoding their own constants, so an operator can retune any one
// workflow's budget without a code change.
func (c *Config) ThinkingBudgetFor(name string, fallback int) int {
	switch name {
	case "health_check":
		return c.Budgets.HealthCheckThinking
	case "deep_analysis":
		return c.Budgets.DeepAnalysisThinking
	case "adversarial":
		return c.Budgets.AdversarialThinking
	case "motion":
		return c.Budgets.MotionThinking
	case "evidence":
		return c.Budgets.EvidenceThinking
	case "chat":
		return c.Budgets.ChatThinking
	case "hearing_prep":
		return c.Budgets.HearingPrepThinking
	case "client_letter":
		return c.Budgets.ClientLetterThinking
	case "cascade":
		return c.Budgets.CascadeThinking
	case "widget":
		return c.Budgets.WidgetThinking
	default:
		return fallback
	}
}

// MaxRounds returns the Tool Loop's configured round bound (MAX_ROUNDS).
func (c *Config) MaxRounds() int {
	return c.Budgets.MaxRounds
}

// MemoryLimit returns the configured prior-insight recall count (MEMORY_LIMIT).
func (c *Config) MemoryLimit() int {
	return c.Budgets.MemoryLimit
}

// DurationEnv reads name from the environment as a duration, returning
// fallback if unset or unparseable. Used by callers (e.g. HTTP server
// timeouts) that need a single duration knob not worth a dedicated field.
func DurationEnv(name string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
