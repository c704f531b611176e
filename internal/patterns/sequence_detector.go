package patterns

import (
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

const martingaleSizeFactor = 1.8

// detectRevenge counts positions that follow a loss within the revenge
// window with a larger size.
func detectRevenge(cfg *store.Config, in input) types.Verdict {
	v := types.RevengeVerdict{}
	ps := in.positions
	for i := 1; i < len(ps); i++ {
		prev, curr := ps[i-1], ps[i]
		gap := curr.CloseTime.Sub(prev.CloseTime).Minutes()
		if prev.RealizedPnL < 0 && gap < cfg.Analysis.RevengeWindowMinutes && curr.Quantity > prev.Quantity {
			v.Count++
		}
	}
	v.Percentage = pct(v.Count, len(ps))
	v.Detected = v.Count > cfg.Analysis.MinTradesForPattern
	return v
}

// detectMartingale counts size escalations of at least 1.8x after a loss.
func detectMartingale(cfg *store.Config, in input) types.Verdict {
	v := types.MartingaleVerdict{Severity: types.SeverityLow}
	ps := in.positions
	for i := 1; i < len(ps); i++ {
		prev, curr := ps[i-1], ps[i]
		if prev.RealizedPnL < 0 && curr.Quantity >= martingaleSizeFactor*prev.Quantity {
			v.Count++
		}
	}
	v.Detected = v.Count > cfg.Analysis.MinTradesForPattern
	if v.Detected {
		v.Severity = types.SeverityHigh
		if v.Count > 5 {
			v.Severity = types.SeverityCritical
		}
	}
	return v
}

// detectPyramiding counts runs of two or more BUY fills per symbol that a
// SELL closes. Only raw executions carry this information.
func detectPyramiding(cfg *store.Config, in input) types.Verdict {
	if !in.raw {
		return types.PyramidingVerdict{}
	}
	v := types.PyramidingVerdict{Available: true}

	runs := map[string]int{}
	for _, e := range in.executions {
		if e.Side == types.Buy {
			runs[e.Symbol]++
			continue
		}
		if runs[e.Symbol] >= 2 {
			v.Sequences++
		}
		runs[e.Symbol] = 0
	}
	v.Detected = v.Sequences > cfg.Analysis.PyramidingThreshold
	return v
}
