// Package config builds the immutable run configuration from the
// environment. Nothing in the pipeline reads env vars directly; the
// Config object is constructed once and passed down.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote model access.
	APIKey          string
	BaseURL         string
	TranscribeModel string
	AnalysisModel   string
	PromptPath      string

	// Batch orchestration.
	GroupSize     int
	Mode          string // "sequential" or "concurrent"
	MaxAttempts   int
	RetryMinWait  time.Duration
	RetryMaxWait  time.Duration
	StageThrottle time.Duration
	ItemDelay     time.Duration
	GroupCooldown time.Duration

	// Output.
	OutputDir   string
	ExportXLSX  bool
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment, applying the defaults
// the pipeline has always run with.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		BaseURL:         os.Getenv("GEMINI_BASE_URL"),
		TranscribeModel: envStr("TRANSCRIBE_MODEL", "gemini-2.0-flash"),
		AnalysisModel:   envStr("ANALYSIS_MODEL", "gemini-1.5-flash"),
		PromptPath:      os.Getenv("QA_PROMPT_PATH"),
		GroupSize:       envInt("GROUP_SIZE", 10),
		Mode:            strings.ToLower(envStr("CONCURRENCY_MODE", "sequential")),
		MaxAttempts:     envInt("MAX_ATTEMPTS", 3),
		RetryMinWait:    envDuration("RETRY_MIN_WAIT", 4*time.Second),
		RetryMaxWait:    envDuration("RETRY_MAX_WAIT", 10*time.Second),
		StageThrottle:   envDuration("STAGE_THROTTLE", 2*time.Second),
		ItemDelay:       envDuration("ITEM_DELAY", 2*time.Second),
		GroupCooldown:   envDuration("GROUP_COOLDOWN", 10*time.Second),
		OutputDir:       envStr("OUTPUT_DIR", "output"),
		ExportXLSX:      envBool("EXPORT_XLSX", true),
		HTTPTimeout:     envDuration("HTTP_TIMEOUT", 120*time.Second),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	if c.GroupSize < 1 {
		return fmt.Errorf("GROUP_SIZE must be >= 1, got %d", c.GroupSize)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be >= 1, got %d", c.MaxAttempts)
	}
	if c.Mode != "sequential" && c.Mode != "concurrent" {
		return fmt.Errorf("CONCURRENCY_MODE must be sequential or concurrent, got %q", c.Mode)
	}
	if c.RetryMinWait > c.RetryMaxWait {
		return fmt.Errorf("RETRY_MIN_WAIT (%s) exceeds RETRY_MAX_WAIT (%s)", c.RetryMinWait, c.RetryMaxWait)
	}
	return nil
}

// Prompt returns the rubric prompt override, or "" when the built-in
// template should be used.
func (c *Config) Prompt() (string, error) {
	if c.PromptPath == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.PromptPath)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return string(b), nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// Accept bare seconds as well as Go duration strings.
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}
