package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nileshindira/trading-persona/internal/broker/zerodha"
	"github.com/nileshindira/trading-persona/internal/ema"
	"github.com/nileshindira/trading-persona/internal/ema/emaobs"
	"github.com/nileshindira/trading-persona/internal/engine"
	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/ledger"
	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/llm/claude"
	"github.com/nileshindira/trading-persona/internal/llm/llmobs"
	"github.com/nileshindira/trading-persona/internal/llm/noop"
	"github.com/nileshindira/trading-persona/internal/llm/ollama"
	"github.com/nileshindira/trading-persona/internal/llm/openai"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/report"
	"github.com/nileshindira/trading-persona/internal/runlog"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/trace"
)

// initializeSystem loads .env and starts logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info(ctx, "No config file found, using defaults", "path", path)
		return store.DefaultConfig(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips run log files past the retention window.
func compressOldLogs(ctx context.Context, rl *runlog.Log) {
	n, err := rl.CompressOlder(runlog.RetentionDays())
	if err != nil {
		logger.Warn(ctx, "Failed to compress old run logs", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old run logs", "files", n, "dir", rl.Dir())
	}
}

// initializeNarrator picks the completer for llm.provider and wraps the
// narrator with observability.
func initializeNarrator(ctx context.Context, cfg *store.Config) interfaces.Narrator {
	var completer interfaces.Completer

	switch cfg.LLM.Provider {
	case "OLLAMA":
		baseURL := cfg.LLM.BaseURL
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			baseURL = host
		}
		completer = ollama.New(
			ollama.WithBaseURL(baseURL),
			ollama.WithModel(cfg.LLM.Model),
			ollama.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			ollama.WithSampling(cfg.LLM.Temperature, cfg.LLM.TopP, cfg.LLM.MaxTokens),
		)
		logger.Info(ctx, "Using Ollama narrative provider", "base_url", baseURL, "model", cfg.LLM.Model)
	case "OPENAI":
		completer = openai.NewCompleter(cfg)
	case "CLAUDE":
		completer = claude.NewCompleter(cfg)
	default:
		completer = noop.NewCompleter()
		logger.Warn(ctx, "No LLM provider configured - narrative sections will be N/A")
	}

	return llmobs.Wrap(llm.NewNarrator(cfg, completer))
}

// initializeScorer builds the EMA scorer. The returned cache must be
// closed by the caller. A nil scorer means EMA enrichment is off.
func initializeScorer(ctx context.Context, cfg *store.Config) (interfaces.EMAScorer, interfaces.ScoreCache) {
	if !cfg.EMA.Enabled {
		logger.Info(ctx, "EMA scoring disabled in config")
		return nil, nil
	}

	var source interfaces.PriceSource
	switch cfg.EMA.Source {
	case "KITE":
		client, err := zerodha.NewFromEnv(cfg)
		if err != nil {
			logger.Warn(ctx, "Kite price source unavailable - EMA scoring disabled", "error", err)
			return nil, nil
		}
		source = client
	default:
		source = ema.NewCSVSource(cfg.EMA.CSVDir, ledger.NewNormalizer(cfg).Location())
		logger.Info(ctx, "Using CSV price history for EMA scoring", "dir", cfg.EMA.CSVDir)
	}

	cache, err := ema.NewCache(cfg)
	if err != nil {
		logger.Warn(ctx, "EMA cache unavailable - scoring without cache", "backend", cfg.EMA.Cache.Backend, "error", err)
		cache = nil
	}

	return emaobs.Wrap(ema.NewScorer(cfg, source, cache)), cache
}

func initializePublisher(ctx context.Context, cfg *store.Config) interfaces.Publisher {
	if !cfg.Report.Kafka.Enabled {
		return nil
	}
	pub, err := report.NewKafkaPublisher(cfg.Report.Kafka.Brokers, cfg.Report.Kafka.Topic)
	if err != nil {
		logger.Warn(ctx, "Kafka publisher unavailable - reports will not be published", "error", err)
		return nil
	}
	logger.Info(ctx, "Publishing reports to Kafka", "brokers", cfg.Report.Kafka.Brokers, "topic", cfg.Report.Kafka.Topic)
	return pub
}

// app holds the wired engine and the resources to release on exit.
type app struct {
	cfg     *store.Config
	engine  *engine.Engine
	runlog  *runlog.Log
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func initializeApp(ctx context.Context, cfg *store.Config) *app {
	rl := runlog.FromEnv()
	compressOldLogs(ctx, rl)

	a := &app{cfg: cfg, runlog: rl}
	opts := []engine.Option{
		engine.WithNarrator(initializeNarrator(ctx, cfg)),
		engine.WithRunLog(rl),
	}

	scorer, cache := initializeScorer(ctx, cfg)
	if scorer != nil {
		opts = append(opts, engine.WithScorer(scorer))
	}
	if cache != nil {
		a.closers = append(a.closers, cache.Close)
	}
	if pub := initializePublisher(ctx, cfg); pub != nil {
		opts = append(opts, engine.WithPublisher(pub))
		a.closers = append(a.closers, pub.Close)
	}

	a.engine = engine.New(cfg, opts...)
	return a
}
