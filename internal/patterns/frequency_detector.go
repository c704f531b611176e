package patterns

import (
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// detectOvertrading flags traders whose share of excessive days (more
// closed positions than the threshold) exceeds the configured fraction.
func detectOvertrading(cfg *store.Config, in input) types.Verdict {
	v := types.OvertradingVerdict{Severity: types.SeverityLow}

	perDay := map[string]int{}
	for _, p := range in.positions {
		perDay[p.CloseTime.Format("2006-01-02")]++
	}
	if len(perDay) == 0 {
		return v
	}

	for _, n := range perDay {
		if n > cfg.Analysis.OvertradingThreshold {
			v.OvertradingDays++
		}
		if n > v.MaxTradesPerDay {
			v.MaxTradesPerDay = n
		}
	}
	v.TotalDays = len(perDay)
	v.Fraction = float64(v.OvertradingDays) / float64(v.TotalDays)
	v.AvgTradesPerDay = float64(len(in.positions)) / float64(v.TotalDays)
	v.Detected = v.Fraction > cfg.Analysis.OvertradingDayFraction

	switch {
	case v.Fraction > 0.5:
		v.Severity = types.SeverityHigh
	case v.Fraction > 0.3:
		v.Severity = types.SeverityMedium
	}
	return v
}

// detectScalping compares mean holding time against the scalping bound.
func detectScalping(cfg *store.Config, in input) types.Verdict {
	v := types.ScalpingVerdict{}
	if len(in.positions) == 0 {
		return v
	}

	total := 0.0
	for _, p := range in.positions {
		total += p.HoldingMinutes
		if p.HoldingMinutes < cfg.Analysis.ScalpingTradeMinutes {
			v.ScalpingTrades++
		}
	}
	avg := total / float64(len(in.positions))
	v.AvgHoldingMinutes = &avg
	v.ScalpingPercentage = pct(v.ScalpingTrades, len(in.positions))
	v.Detected = avg < cfg.Analysis.ScalpingAvgMinutes
	return v
}
