package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Data struct {
		InputMode        string   `yaml:"input_mode"`
		RequiredColumns  []string `yaml:"required_columns"`
		Timezone         string   `yaml:"timezone"`
		TimestampLayouts []string `yaml:"timestamp_layouts"`
	} `yaml:"data"`
	Metrics struct {
		RiskFreeRate       float64 `yaml:"risk_free_rate"`
		TradingDaysPerYear int     `yaml:"trading_days_per_year"`
	} `yaml:"metrics"`
	Matching struct {
		SameTimestampMatchAllowed bool `yaml:"same_timestamp_match_allowed"`
	} `yaml:"matching"`
	Analysis struct {
		MinTradesForPattern    int      `yaml:"min_trades_for_pattern"`
		OvertradingThreshold   int      `yaml:"overtrading_threshold"`
		OvertradingDayFraction float64  `yaml:"overtrading_day_fraction"`
		RevengeWindowMinutes   float64  `yaml:"revenge_window_minutes"`
		PyramidingThreshold    int      `yaml:"pyramiding_threshold"`
		HedgeDayThreshold      int      `yaml:"hedge_day_threshold"`
		FocusRatioThreshold    float64  `yaml:"focus_ratio_threshold"`
		FocusTopN              int      `yaml:"focus_top_n"`
		ScalpingAvgMinutes     float64  `yaml:"scalping_avg_minutes"`
		ScalpingTradeMinutes   float64  `yaml:"scalping_trade_minutes"`
		Detectors              []string `yaml:"detectors"`
	} `yaml:"analysis"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		TopP           float32 `yaml:"top_p"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		System         string  `yaml:"system"`
	} `yaml:"llm"`
	EMA struct {
		Enabled        bool              `yaml:"enabled"`
		Source         string            `yaml:"source"`
		CSVDir         string            `yaml:"csv_dir"`
		Exchange       string            `yaml:"exchange"`
		LookbackBars   int               `yaml:"lookback_bars"`
		MinBars        int               `yaml:"min_bars"`
		Workers        int               `yaml:"workers"`
		TimeoutSeconds int               `yaml:"timeout_seconds"`
		RatePerSecond  int               `yaml:"rate_per_second"`
		Benchmarks     map[string]string `yaml:"benchmarks"`
		Cache          struct {
			Backend    string `yaml:"backend"`
			SQLitePath string `yaml:"sqlite_path"`
			RedisAddr  string `yaml:"redis_addr"`
			RedisDB    int    `yaml:"redis_db"`
			TTLHours   int    `yaml:"ttl_hours"`
		} `yaml:"cache"`
	} `yaml:"ema"`
	Report struct {
		OutputDir string   `yaml:"output_dir"`
		Formats   []string `yaml:"formats"`
		Kafka     struct {
			Enabled bool     `yaml:"enabled"`
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"report"`
	Batch struct {
		DataDir     string `yaml:"data_dir"`
		Pattern     string `yaml:"pattern"`
		SummaryFile string `yaml:"summary_file"`
	} `yaml:"batch"`
}

var (
	DefaultRequiredColumns = []string{"timestamp", "symbol", "side", "quantity", "price"}

	DefaultTimestampLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"02-01-2006 15:04:05",
		"02/01/2006 15:04:05",
		"02-01-2006 15:04",
		"02/01/2006 15:04",
		"02-01-2006",
		"02/01/2006",
		"02-Jan-2006",
		"02 Jan 2006",
		"Jan 2, 2006",
	}

	DefaultDetectors = []string{"overtrading", "revenge_trading", "pyramiding", "scalping", "hedging", "focus_bias", "martingale"}
)

const defaultSystemPrompt = "You are an expert trading psychologist and risk analyst. Assess trader behaviour from the statistics you are given. Be specific, direct and practical."

// DefaultConfig returns a fully defaulted, valid configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Metrics.RiskFreeRate = 0.06
	c.Metrics.TradingDaysPerYear = 252

	a := &c.Analysis
	a.MinTradesForPattern = 3
	a.OvertradingThreshold = 10
	a.OvertradingDayFraction = 0.3
	a.RevengeWindowMinutes = 30
	a.PyramidingThreshold = 3
	a.HedgeDayThreshold = 5
	a.FocusRatioThreshold = 0.5
	a.FocusTopN = 5
	a.ScalpingAvgMinutes = 60
	a.ScalpingTradeMinutes = 30

	c.LLM.MaxTokens = 1024
	c.LLM.Temperature = 0.7
	c.LLM.TopP = 0.9
	c.LLM.TimeoutSeconds = 120

	e := &c.EMA
	e.LookbackBars = 200
	e.MinBars = 100
	e.Workers = 4
	e.TimeoutSeconds = 30
	e.RatePerSecond = 3

	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills empty string, list and map fields and upper-cases the
// enum values. Numbers are left alone: zero is a legal setting.
func (c *Config) ApplyDefaults() {
	if c.Data.InputMode == "" {
		c.Data.InputMode = "AUTO"
	}
	c.Data.InputMode = strings.ToUpper(c.Data.InputMode)
	if len(c.Data.RequiredColumns) == 0 {
		c.Data.RequiredColumns = append([]string(nil), DefaultRequiredColumns...)
	}
	if c.Data.Timezone == "" {
		c.Data.Timezone = "Asia/Kolkata"
	}
	if len(c.Data.TimestampLayouts) == 0 {
		c.Data.TimestampLayouts = append([]string(nil), DefaultTimestampLayouts...)
	}

	if len(c.Analysis.Detectors) == 0 {
		c.Analysis.Detectors = append([]string(nil), DefaultDetectors...)
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "OLLAMA"
	}
	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3.1"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434"
	}
	if c.LLM.System == "" {
		c.LLM.System = defaultSystemPrompt
	}

	e := &c.EMA
	if e.Source == "" {
		e.Source = "KITE"
	}
	e.Source = strings.ToUpper(e.Source)
	if e.CSVDir == "" {
		e.CSVDir = "data/candles"
	}
	if e.Exchange == "" {
		e.Exchange = "NSE"
	}
	if e.Benchmarks == nil {
		e.Benchmarks = map[string]string{"nifty": "NIFTY 50", "midcap": "NIFTY MID SELECT"}
	}
	if e.Cache.Backend == "" {
		e.Cache.Backend = "SQLITE"
	}
	e.Cache.Backend = strings.ToUpper(e.Cache.Backend)
	if e.Cache.SQLitePath == "" {
		e.Cache.SQLitePath = "data/ema_cache.db"
	}
	if e.Cache.RedisAddr == "" {
		e.Cache.RedisAddr = "localhost:6379"
	}

	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "reports"
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{"json", "html", "csv"}
	}
	if c.Report.Kafka.Topic == "" {
		c.Report.Kafka.Topic = "trader-reports"
	}
	if len(c.Report.Kafka.Brokers) == 0 {
		c.Report.Kafka.Brokers = []string{"localhost:9092"}
	}

	if c.Batch.DataDir == "" {
		c.Batch.DataDir = "data"
	}
	if c.Batch.Pattern == "" {
		c.Batch.Pattern = "trade_*.csv"
	}
	if c.Batch.SummaryFile == "" {
		c.Batch.SummaryFile = "batch_summary.csv"
	}
}

func (c *Config) Validate() error {
	if !oneOf(c.Data.InputMode, "AUTO", "RAW", "PAIRED") {
		return fmt.Errorf("invalid data.input_mode '%s': must be 'AUTO', 'RAW' or 'PAIRED'", c.Data.InputMode)
	}
	if len(c.Data.RequiredColumns) == 0 {
		return errors.New("data.required_columns cannot be empty")
	}
	if c.Metrics.RiskFreeRate < 0 {
		return fmt.Errorf("metrics.risk_free_rate must be >= 0, got %.4f", c.Metrics.RiskFreeRate)
	}
	if c.Metrics.TradingDaysPerYear <= 0 {
		return fmt.Errorf("metrics.trading_days_per_year must be positive, got %d", c.Metrics.TradingDaysPerYear)
	}

	a := c.Analysis
	if a.MinTradesForPattern < 0 || a.OvertradingThreshold <= 0 || a.PyramidingThreshold < 0 || a.HedgeDayThreshold < 0 || a.FocusTopN <= 0 {
		return errors.New("analysis thresholds must be positive")
	}
	if a.RevengeWindowMinutes <= 0 || a.ScalpingAvgMinutes <= 0 || a.ScalpingTradeMinutes <= 0 {
		return errors.New("analysis time windows must be positive")
	}
	if a.OvertradingDayFraction <= 0 || a.OvertradingDayFraction >= 1 {
		return fmt.Errorf("analysis.overtrading_day_fraction must be between 0-1, got %.2f", a.OvertradingDayFraction)
	}
	if a.FocusRatioThreshold <= 0 || a.FocusRatioThreshold > 1 {
		return fmt.Errorf("analysis.focus_ratio_threshold must be in (0, 1], got %.2f", a.FocusRatioThreshold)
	}
	for _, d := range a.Detectors {
		if !oneOf(d, DefaultDetectors...) {
			return fmt.Errorf("unknown detector '%s' in analysis.detectors", d)
		}
	}

	if !oneOf(c.LLM.Provider, "OLLAMA", "OPENAI", "CLAUDE", "NONE") {
		return fmt.Errorf("invalid llm.provider '%s': must be 'OLLAMA', 'OPENAI', 'CLAUDE' or 'NONE'", c.LLM.Provider)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be >= 0, got %d", c.LLM.TimeoutSeconds)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}

	if !oneOf(c.EMA.Source, "KITE", "CSV") {
		return fmt.Errorf("invalid ema.source '%s': must be 'KITE' or 'CSV'", c.EMA.Source)
	}
	if !oneOf(c.EMA.Cache.Backend, "SQLITE", "REDIS", "NONE") {
		return fmt.Errorf("invalid ema.cache.backend '%s': must be 'SQLITE', 'REDIS' or 'NONE'", c.EMA.Cache.Backend)
	}
	if c.EMA.Workers < 1 {
		return fmt.Errorf("ema.workers must be at least 1, got %d", c.EMA.Workers)
	}
	if c.EMA.LookbackBars <= 0 || c.EMA.MinBars < 0 {
		return fmt.Errorf("ema.lookback_bars must be positive and ema.min_bars >= 0, got %d and %d", c.EMA.LookbackBars, c.EMA.MinBars)
	}
	if c.EMA.MinBars > c.EMA.LookbackBars {
		return fmt.Errorf("ema.min_bars (%d) cannot exceed ema.lookback_bars (%d)", c.EMA.MinBars, c.EMA.LookbackBars)
	}

	for _, f := range c.Report.Formats {
		if !oneOf(strings.ToLower(f), "json", "html", "csv") {
			return fmt.Errorf("invalid report format '%s': must be 'json', 'html' or 'csv'", f)
		}
	}
	if c.Report.Kafka.Enabled && len(c.Report.Kafka.Brokers) == 0 {
		return errors.New("report.kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// LoadConfig decodes path over DefaultConfig, so keys missing from the file
// keep their defaults and explicit zeros survive.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	// yaml.v3 merges into a non-nil map; a configured benchmark set replaces the defaults.
	c.EMA.Benchmarks = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}

// DetectorEnabled reports whether the named detector should run.
func (c *Config) DetectorEnabled(name string) bool {
	return oneOf(name, c.Analysis.Detectors...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
