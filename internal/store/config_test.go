package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	if cfg.Metrics.RiskFreeRate != 0.06 {
		t.Errorf("Expected risk_free_rate 0.06, got %f", cfg.Metrics.RiskFreeRate)
	}
	if cfg.Metrics.TradingDaysPerYear != 252 {
		t.Errorf("Expected trading_days_per_year 252, got %d", cfg.Metrics.TradingDaysPerYear)
	}
	if cfg.Analysis.OvertradingThreshold != 10 {
		t.Errorf("Expected overtrading_threshold 10, got %d", cfg.Analysis.OvertradingThreshold)
	}
	if cfg.Analysis.RevengeWindowMinutes != 30 {
		t.Errorf("Expected revenge_window_minutes 30, got %f", cfg.Analysis.RevengeWindowMinutes)
	}
	if cfg.Analysis.FocusRatioThreshold != 0.5 {
		t.Errorf("Expected focus_ratio_threshold 0.5, got %f", cfg.Analysis.FocusRatioThreshold)
	}
	if cfg.Matching.SameTimestampMatchAllowed {
		t.Error("Expected same_timestamp_match_allowed to default to false")
	}
	if len(cfg.Data.RequiredColumns) != 5 {
		t.Errorf("Expected 5 required columns, got %v", cfg.Data.RequiredColumns)
	}
	if !cfg.DetectorEnabled("hedging") {
		t.Error("Expected hedging detector to be enabled by default")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
metrics:
  risk_free_rate: 0.05
matching:
  same_timestamp_match_allowed: true
analysis:
  pyramiding_threshold: 5
  detectors: [overtrading, scalping]
llm:
  provider: none
ema:
  cache:
    backend: redis
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Metrics.RiskFreeRate != 0.05 {
		t.Errorf("Expected risk_free_rate 0.05, got %f", cfg.Metrics.RiskFreeRate)
	}
	if !cfg.Matching.SameTimestampMatchAllowed {
		t.Error("Expected same_timestamp_match_allowed to be true")
	}
	if cfg.Analysis.PyramidingThreshold != 5 {
		t.Errorf("Expected pyramiding_threshold 5, got %d", cfg.Analysis.PyramidingThreshold)
	}
	if cfg.DetectorEnabled("hedging") {
		t.Error("Expected hedging detector to be disabled")
	}
	if cfg.LLM.Provider != "NONE" {
		t.Errorf("Expected provider NONE, got %s", cfg.LLM.Provider)
	}
	if cfg.EMA.Cache.Backend != "REDIS" {
		t.Errorf("Expected cache backend REDIS, got %s", cfg.EMA.Cache.Backend)
	}
	if cfg.Metrics.TradingDaysPerYear != 252 {
		t.Errorf("Expected defaulted trading_days_per_year 252, got %d", cfg.Metrics.TradingDaysPerYear)
	}
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
metrics:
  risk_free_rate: 0
analysis:
  min_trades_for_pattern: 0
  pyramiding_threshold: 0
  hedge_day_threshold: 0
llm:
  temperature: 0
ema:
  rate_per_second: 0
  benchmarks:
    bank: NIFTY BANK
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Metrics.RiskFreeRate != 0 {
		t.Errorf("Expected risk_free_rate 0, got %f", cfg.Metrics.RiskFreeRate)
	}
	if cfg.Analysis.MinTradesForPattern != 0 {
		t.Errorf("Expected min_trades_for_pattern 0, got %d", cfg.Analysis.MinTradesForPattern)
	}
	if cfg.Analysis.PyramidingThreshold != 0 {
		t.Errorf("Expected pyramiding_threshold 0, got %d", cfg.Analysis.PyramidingThreshold)
	}
	if cfg.Analysis.HedgeDayThreshold != 0 {
		t.Errorf("Expected hedge_day_threshold 0, got %d", cfg.Analysis.HedgeDayThreshold)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %f", cfg.LLM.Temperature)
	}
	if cfg.EMA.RatePerSecond != 0 {
		t.Errorf("Expected rate_per_second 0, got %d", cfg.EMA.RatePerSecond)
	}

	// Untouched keys keep their defaults.
	if cfg.Analysis.OvertradingThreshold != 10 {
		t.Errorf("Expected overtrading_threshold 10, got %d", cfg.Analysis.OvertradingThreshold)
	}
	if cfg.EMA.Workers != 4 {
		t.Errorf("Expected workers 4, got %d", cfg.EMA.Workers)
	}
	if len(cfg.EMA.Benchmarks) != 1 || cfg.EMA.Benchmarks["bank"] != "NIFTY BANK" {
		t.Errorf("Expected only the configured benchmark, got %v", cfg.EMA.Benchmarks)
	}
}

func TestLoadConfigRejectsNegativeThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("analysis:\n  hedge_day_threshold: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected validation error for negative hedge_day_threshold")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"input mode", func(c *Config) { c.Data.InputMode = "BOTH" }, "input_mode"},
		{"focus ratio", func(c *Config) { c.Analysis.FocusRatioThreshold = 1.5 }, "focus_ratio_threshold"},
		{"provider", func(c *Config) { c.LLM.Provider = "GEMINI" }, "llm.provider"},
		{"detector", func(c *Config) { c.Analysis.Detectors = []string{"fomo"} }, "unknown detector"},
		{"bars", func(c *Config) { c.EMA.MinBars = 300 }, "min_bars"},
		{"format", func(c *Config) { c.Report.Formats = []string{"pdf"} }, "report format"},
		{"days", func(c *Config) { c.Metrics.TradingDaysPerYear = -1 }, "trading_days_per_year"},
		{"zero days", func(c *Config) { c.Metrics.TradingDaysPerYear = 0 }, "trading_days_per_year"},
		{"max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"lookback", func(c *Config) { c.EMA.LookbackBars = 0 }, "lookback_bars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
