package patterns

import (
	"context"
	"sort"

	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// input is the read-only view every detector receives. Positions are
// ordered by close time.
type input struct {
	executions []types.Execution
	positions  []types.ClosedPosition
	raw        bool
}

type detector func(cfg *store.Config, in input) types.Verdict

var detectors = map[string]detector{
	types.PatternOvertrading: detectOvertrading,
	types.PatternRevenge:     detectRevenge,
	types.PatternPyramiding:  detectPyramiding,
	types.PatternScalping:    detectScalping,
	types.PatternHedging:     detectHedging,
	types.PatternFocusBias:   detectFocus,
	types.PatternMartingale:  detectMartingale,
}

// Engine runs the enabled behavioural detectors over a ledger.
type Engine struct {
	cfg *store.Config
}

func NewEngine(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Detect evaluates every enabled detector. Detectors never fail; one
// missing its input reports detected=false.
func (e *Engine) Detect(ctx context.Context, trader string, l *types.Ledger, positions []types.ClosedPosition) types.Patterns {
	in := newInput(l, positions)
	out := types.Patterns{}

	for _, name := range types.PatternOrder {
		if !e.cfg.DetectorEnabled(name) {
			continue
		}
		v := detectors[name](e.cfg, in)
		out[name] = v
		logger.Pattern(ctx, trader, name, v.IsDetected())
	}

	logger.Info(ctx, "Pattern scan complete",
		"trader", trader,
		"positions", len(in.positions),
		"detected", out.Detected(),
	)
	return out
}

// Analyze computes the descriptive breakdowns reported next to patterns.
func (e *Engine) Analyze(l *types.Ledger, positions []types.ClosedPosition) types.Analyses {
	in := newInput(l, positions)
	return types.Analyses{
		Holding:    holdingBehavior(in),
		Timing:     timePatterns(in),
		Clustering: instrumentClustering(in),
	}
}

func newInput(l *types.Ledger, positions []types.ClosedPosition) input {
	ps := make([]types.ClosedPosition, len(positions))
	copy(ps, positions)
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CloseTime.Equal(ps[j].CloseTime) {
			return ps[i].CloseTime.Before(ps[j].CloseTime)
		}
		return ps[i].CloseIndex < ps[j].CloseIndex
	})

	in := input{positions: ps}
	if l.HasExecutions() {
		in.raw = true
		in.executions = l.Executions
	}
	return in
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
