package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nileshindira/trading-persona/internal/ema"
	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/ledger"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/matcher"
	"github.com/nileshindira/trading-persona/internal/metrics"
	"github.com/nileshindira/trading-persona/internal/patterns"
	"github.com/nileshindira/trading-persona/internal/report"
	"github.com/nileshindira/trading-persona/internal/runlog"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// Engine runs the analysis pipeline for one trader file at a time.
// Collaborators are optional; a missing one degrades its report section.
type Engine struct {
	cfg       *store.Config
	norm      *ledger.Normalizer
	patterns  *patterns.Engine
	scorer    interfaces.EMAScorer
	narrator  interfaces.Narrator
	publisher interfaces.Publisher
	runlog    *runlog.Log
}

var _ interfaces.Engine = (*Engine)(nil)

type Option func(*Engine)

func WithScorer(s interfaces.EMAScorer) Option {
	return func(e *Engine) { e.scorer = s }
}

func WithNarrator(n interfaces.Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

func WithPublisher(p interfaces.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithRunLog(l *runlog.Log) Option {
	return func(e *Engine) { e.runlog = l }
}

func New(cfg *store.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		norm:     ledger.NewNormalizer(cfg),
		patterns: patterns.NewEngine(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location is the timezone naive input timestamps are read in.
func (e *Engine) Location() *time.Location { return e.norm.Location() }

// Analyze loads path, builds the closed-position ledger and produces the
// report along with its exported files.
func (e *Engine) Analyze(ctx context.Context, trader, path string) (*types.AnalysisResult, error) {
	table, err := ledger.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l, warn, err := e.norm.Normalize(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	if warn != nil {
		logger.Info(ctx, "Ledger loaded with data quality warning", "trader", trader, "warning", warn.String())
	}

	positions := e.closedPositions(ctx, trader, l)

	var (
		wg       sync.WaitGroup
		m        types.Metrics
		daily    []types.DailyStat
		found    types.Patterns
		analyses types.Analyses
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		m = metrics.Compute(positions, e.cfg)
		daily = metrics.Daily(positions)
	}()
	go func() {
		defer wg.Done()
		found = e.patterns.Detect(ctx, trader, l, positions)
		analyses = e.patterns.Analyze(l, positions)
	}()
	wg.Wait()

	logger.Info(ctx, "Metrics computed",
		"trader", trader,
		"total_trades", m.TotalTrades,
		"total_pnl", m.TotalPnL,
		"win_rate", m.WinRate,
		"patterns", found.Detected(),
	)

	enriched, emaSummary := e.enrich(ctx, positions)

	narrative := types.EmptyNarrative()
	if e.narrator != nil {
		narrative = e.narrator.Narrate(ctx, trader, m, found)
	}

	r := report.Build(report.Input{
		Trader:    trader,
		Kind:      l.Kind,
		Dropped:   l.Dropped,
		Metrics:   m,
		Patterns:  found,
		Analyses:  analyses,
		Daily:     daily,
		Narrative: narrative,
		EMA:       emaSummary,
	})

	op := logger.StartOperation(ctx, "report.export", "trader", trader, "dir", e.cfg.Report.OutputDir)
	outputs, err := report.Export(e.cfg.Report.OutputDir, e.cfg.Report.Formats, r, enriched, ema.Columns(e.cfg))
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("failed to export report for %s: %w", trader, err)
	}
	op.End("files", len(outputs))

	if e.publisher != nil {
		pub := logger.StartOperation(ctx, "report.publish", "trader", trader)
		if err := e.publisher.Publish(pub.GetContext(), r); err != nil {
			logger.Warn(pub.GetContext(), "Report publish failed", "trader", trader, "error", err)
			pub.End("published", false)
		} else {
			pub.End("published", true)
		}
	}

	result := &types.AnalysisResult{
		TraderName: trader,
		Source:     path,
		Ledger:     l,
		Positions:  enriched,
		Report:     r,
		Outputs:    outputs,
	}
	e.record(ctx, result)
	return result, nil
}

func (e *Engine) closedPositions(ctx context.Context, trader string, l *types.Ledger) []types.ClosedPosition {
	if l.Kind == types.LedgerPaired {
		return l.Positions
	}

	res := matcher.Match(ctx, l.Executions, matcher.Options{
		SameTimestampMatchAllowed: e.cfg.Matching.SameTimestampMatchAllowed,
	})
	if len(res.OpenInterest) > 0 {
		logger.Info(ctx, "Unmatched open interest carried forward",
			"trader", trader,
			"symbols", len(res.OpenInterest),
			"open_interest", res.OpenInterest,
		)
	}
	return res.Positions
}

func (e *Engine) enrich(ctx context.Context, positions []types.ClosedPosition) ([]types.EnrichedPosition, types.EMASummary) {
	if e.scorer != nil {
		return e.scorer.Enrich(ctx, positions)
	}
	out := make([]types.EnrichedPosition, len(positions))
	for i, p := range positions {
		out[i] = types.EnrichedPosition{ClosedPosition: p}
	}
	return out, types.EMASummary{Enabled: false}
}

func (e *Engine) record(ctx context.Context, res *types.AnalysisResult) {
	if e.runlog == nil {
		return
	}
	r := res.Report
	err := e.runlog.Append(runlog.Entry{
		RunID:       r.Metadata.RunID,
		Trader:      res.TraderName,
		Source:      res.Source,
		TotalTrades: r.ExecutiveSummary.TotalTrades,
		TotalPnL:    r.ExecutiveSummary.TotalPnL,
		RiskScore:   r.RiskScore,
		RiskLevel:   r.ExecutiveSummary.RiskLevel,
		Patterns:    r.Patterns.Detected(),
		Outputs:     res.Outputs,
	})
	if err != nil {
		logger.Warn(ctx, "Run log append failed", "trader", res.TraderName, "error", err)
	}
}
