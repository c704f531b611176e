package metrics

import (
	"math"
	"sort"

	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/ta"
	"github.com/nileshindira/trading-persona/internal/types"
)

const dateLayout = "2006-01-02"

// Compute derives performance and risk metrics from a closed-position
// ledger. It is pure and defined for an empty ledger.
func Compute(positions []types.ClosedPosition, cfg *store.Config) types.Metrics {
	ps := ordered(positions)
	m := types.Metrics{TotalTrades: len(ps)}
	if len(ps) == 0 {
		return m
	}

	var (
		wins, losses []float64
		returns      []float64
		holding      float64
		notional     float64
	)
	m.LargestWin = math.Inf(-1)
	m.LargestLoss = math.Inf(1)
	for _, p := range ps {
		switch {
		case p.RealizedPnL > 0:
			wins = append(wins, p.RealizedPnL)
			m.GrossProfit += p.RealizedPnL
		case p.RealizedPnL < 0:
			losses = append(losses, p.RealizedPnL)
			m.GrossLoss -= p.RealizedPnL
		default:
			m.BreakevenTrades++
		}
		m.TotalPnL += p.RealizedPnL
		m.LargestWin = math.Max(m.LargestWin, p.RealizedPnL)
		m.LargestLoss = math.Min(m.LargestLoss, p.RealizedPnL)
		holding += p.HoldingMinutes
		notional += p.Notional
		if r, ok := p.Return(); ok {
			returns = append(returns, r)
		}
	}

	m.WinningTrades = len(wins)
	m.LosingTrades = len(losses)
	m.WinRate = float64(len(wins)) / float64(len(ps)) * 100
	m.AvgWin = meanOrZero(wins)
	m.AvgLoss = meanOrZero(losses)
	m.ProfitFactor = profitFactor(m.GrossProfit, m.GrossLoss)

	rf := cfg.Metrics.RiskFreeRate
	days := float64(cfg.Metrics.TradingDaysPerYear)
	m.SharpeRatio = sharpe(returns, rf, days)
	m.SortinoRatio = sortino(returns, rf, days)

	m.MaxDrawdown, m.MaxDrawdownPct = drawdown(ps)
	m.MaxWinStreak, m.MaxLossStreak = streaks(ps)

	m.AvgHoldingMinutes = holding / float64(len(ps))
	m.AvgTradeValue = notional / float64(len(ps))

	daily := Daily(ps)
	m.TradingDays = len(daily)
	m.AvgPositionsPerDay = float64(len(ps)) / float64(len(daily))
	m.DateRange = types.DateRange{Start: daily[0].Date, End: daily[len(daily)-1].Date}

	return m
}

// Daily aggregates positions by close date, oldest first.
func Daily(positions []types.ClosedPosition) []types.DailyStat {
	byDate := map[string]*types.DailyStat{}
	var dates []string
	for _, p := range positions {
		d := p.CloseTime.Format(dateLayout)
		s, ok := byDate[d]
		if !ok {
			s = &types.DailyStat{Date: d}
			byDate[d] = s
			dates = append(dates, d)
		}
		s.Positions++
		s.PnL += p.RealizedPnL
		s.Volume += p.Notional
		if p.RealizedPnL > 0 {
			s.Wins++
		}
	}
	sort.Strings(dates)

	out := make([]types.DailyStat, 0, len(dates))
	for _, d := range dates {
		out = append(out, *byDate[d])
	}
	return out
}

// ordered copies positions sorted by close time, ties by closing row.
func ordered(positions []types.ClosedPosition) []types.ClosedPosition {
	ps := make([]types.ClosedPosition, len(positions))
	copy(ps, positions)
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CloseTime.Equal(ps[j].CloseTime) {
			return ps[i].CloseTime.Before(ps[j].CloseTime)
		}
		return ps[i].CloseIndex < ps[j].CloseIndex
	})
	return ps
}

func meanOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return ta.Mean(vals)
}

func profitFactor(grossProfit, grossLoss float64) types.Ratio {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return types.Ratio(math.Inf(1))
		}
		return 0
	}
	return types.Ratio(grossProfit / grossLoss)
}

func sharpe(returns []float64, rf, days float64) types.Ratio {
	if len(returns) < 2 {
		return 0
	}
	sd := ta.SampleStdDev(returns)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	excess := ta.Mean(returns) - rf/days
	return types.Ratio(excess / sd * math.Sqrt(days))
}

func sortino(returns []float64, rf, days float64) types.Ratio {
	if len(returns) < 2 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	mean := ta.Mean(returns)
	if len(downside) == 0 {
		if mean > 0 {
			return types.Ratio(math.Inf(1))
		}
		return 0
	}
	sd := ta.SampleStdDev(downside)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return types.Ratio((mean - rf/days) / sd * math.Sqrt(days))
}

// drawdown walks the cumulative pnl curve. Both results are <= 0.
func drawdown(ps []types.ClosedPosition) (maxDD, maxDDPct float64) {
	cum := 0.0
	peak := math.Inf(-1)
	for _, p := range ps {
		cum += p.RealizedPnL
		peak = math.Max(peak, cum)

		dd := cum - peak
		maxDD = math.Min(maxDD, dd)

		base := math.Abs(peak)
		if base == 0 {
			base = 1
		}
		maxDDPct = math.Min(maxDDPct, dd/base*100)
	}
	return maxDD, maxDDPct
}

func streaks(ps []types.ClosedPosition) (maxWin, maxLoss int) {
	win, loss := 0, 0
	for _, p := range ps {
		switch {
		case p.RealizedPnL > 0:
			win++
			loss = 0
		case p.RealizedPnL < 0:
			loss++
			win = 0
		default:
			win, loss = 0, 0
		}
		if win > maxWin {
			maxWin = win
		}
		if loss > maxLoss {
			maxLoss = loss
		}
	}
	return maxWin, maxLoss
}
