package metrics

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

var day0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func positions(pnls ...float64) []types.ClosedPosition {
	ps := make([]types.ClosedPosition, len(pnls))
	for i, pnl := range pnls {
		closedAt := day0.Add(time.Duration(i) * time.Hour)
		ps[i] = types.ClosedPosition{
			Symbol:         "RELIANCE",
			OpenSide:       types.Buy,
			OpenTime:       closedAt.Add(-30 * time.Minute),
			CloseTime:      closedAt,
			Quantity:       1,
			RealizedPnL:    pnl,
			HoldingMinutes: 30,
			Notional:       1000,
			CloseIndex:     i,
		}
	}
	return ps
}

func TestComputeDrawdown(t *testing.T) {
	// Cumulative curve 100, 80, 120, 90.
	m := Compute(positions(100, -20, 40, -30), store.DefaultConfig())

	if m.MaxDrawdown != -30 {
		t.Errorf("Expected max drawdown -30, got %f", m.MaxDrawdown)
	}
	want := -30.0 / 120 * 100
	if math.Abs(m.MaxDrawdownPct-want) > 1e-9 {
		t.Errorf("Expected max drawdown pct %f, got %f", want, m.MaxDrawdownPct)
	}
	if m.MaxDrawdownPct > 0 {
		t.Errorf("Expected drawdown pct <= 0, got %f", m.MaxDrawdownPct)
	}
}

func TestComputeDrawdownFromNegativePeak(t *testing.T) {
	m := Compute(positions(-100, -50), store.DefaultConfig())
	if m.MaxDrawdown != -50 {
		t.Errorf("Expected max drawdown -50, got %f", m.MaxDrawdown)
	}
	if m.MaxDrawdownPct != -50 {
		t.Errorf("Expected -50%% against a -100 peak, got %f", m.MaxDrawdownPct)
	}
}

func TestComputeEmptyLedger(t *testing.T) {
	m := Compute(nil, store.DefaultConfig())

	if m.TotalTrades != 0 || m.WinRate != 0 || m.TotalPnL != 0 {
		t.Errorf("Expected zero counts, got %+v", m)
	}
	if m.ProfitFactor != 0 || m.SharpeRatio != 0 || m.SortinoRatio != 0 {
		t.Errorf("Expected zero ratios, got pf=%v sharpe=%v sortino=%v", m.ProfitFactor, m.SharpeRatio, m.SortinoRatio)
	}
	if m.LargestWin != 0 || m.LargestLoss != 0 {
		t.Errorf("Expected zero extremes, got %f %f", m.LargestWin, m.LargestLoss)
	}
	if m.DateRange.String() != types.NoData {
		t.Errorf("Expected %q, got %q", types.NoData, m.DateRange.String())
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"date_range":"no data"`) {
		t.Errorf("Expected no-data marker in json, got %s", b)
	}
}

func TestComputeProfitFactor(t *testing.T) {
	tests := []struct {
		name string
		pnls []float64
		want float64
	}{
		{"all winners", []float64{10, 20}, math.Inf(1)},
		{"all losers", []float64{-10, -20}, 0},
		{"all flat", []float64{0, 0}, 0},
		{"mixed", []float64{30, -10, 10}, 4},
	}
	for _, tt := range tests {
		m := Compute(positions(tt.pnls...), store.DefaultConfig())
		if float64(m.ProfitFactor) != tt.want {
			t.Errorf("%s: expected profit factor %v, got %v", tt.name, tt.want, m.ProfitFactor)
		}
	}
}

func TestComputeInfiniteRatiosEncode(t *testing.T) {
	m := Compute(positions(10, 20), store.DefaultConfig())
	if !math.IsInf(float64(m.SortinoRatio), 1) {
		t.Errorf("Expected +Inf sortino without losses, got %v", m.SortinoRatio)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"profit_factor":"Infinity"`) {
		t.Errorf("Expected Infinity profit factor in json, got %s", b)
	}
}

func TestComputeSharpeAndSortino(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Metrics.RiskFreeRate = 0.0252
	cfg.Metrics.TradingDaysPerYear = 252

	// Returns 0.02, -0.01, 0.03, -0.02 on a 1000 notional.
	m := Compute(positions(20, -10, 30, -20), cfg)

	mean := 0.005
	excess := mean - 0.0001
	sd := math.Sqrt((0.015*0.015 + 0.015*0.015 + 0.025*0.025 + 0.025*0.025) / 3)
	wantSharpe := excess / sd * math.Sqrt(252)
	if math.Abs(float64(m.SharpeRatio)-wantSharpe) > 1e-9 {
		t.Errorf("Expected sharpe %f, got %f", wantSharpe, float64(m.SharpeRatio))
	}

	downSD := math.Sqrt((0.005*0.005 + 0.005*0.005) / 1)
	wantSortino := excess / downSD * math.Sqrt(252)
	if math.Abs(float64(m.SortinoRatio)-wantSortino) > 1e-9 {
		t.Errorf("Expected sortino %f, got %f", wantSortino, float64(m.SortinoRatio))
	}

	single := Compute(positions(50), cfg)
	if single.SharpeRatio != 0 || single.SortinoRatio != 0 {
		t.Errorf("Expected zero ratios for one position, got %v %v", single.SharpeRatio, single.SortinoRatio)
	}

	oneLoss := Compute(positions(20, -10, 30), cfg)
	if oneLoss.SortinoRatio != 0 {
		t.Errorf("Expected zero sortino with a single downside return, got %v", oneLoss.SortinoRatio)
	}
}

func TestComputeSkipsZeroNotionalReturns(t *testing.T) {
	ps := positions(10, -5, 20)
	ps[1].Notional = 0
	m := Compute(ps, store.DefaultConfig())
	if !math.IsInf(float64(m.SortinoRatio), 1) {
		t.Errorf("Expected zero-notional loss to be excluded from returns, got sortino %v", m.SortinoRatio)
	}
}

func TestComputeStreaks(t *testing.T) {
	m := Compute(positions(5, 5, 5, 0, 5, -1, -1, 0, -1, -1, -1, 3), store.DefaultConfig())
	if m.MaxWinStreak != 3 {
		t.Errorf("Expected win streak 3, got %d", m.MaxWinStreak)
	}
	if m.MaxLossStreak != 3 {
		t.Errorf("Expected loss streak 3, got %d", m.MaxLossStreak)
	}
	if m.BreakevenTrades != 2 {
		t.Errorf("Expected 2 breakeven trades, got %d", m.BreakevenTrades)
	}
}

func TestComputeCountsAndAverages(t *testing.T) {
	m := Compute(positions(100, -50, 60, -10), store.DefaultConfig())

	if m.WinningTrades != 2 || m.LosingTrades != 2 {
		t.Errorf("Expected 2 wins and 2 losses, got %d and %d", m.WinningTrades, m.LosingTrades)
	}
	if m.WinRate != 50 {
		t.Errorf("Expected win rate 50, got %f", m.WinRate)
	}
	if m.AvgWin != 80 || m.AvgLoss != -30 {
		t.Errorf("Expected avg win 80 and avg loss -30, got %f and %f", m.AvgWin, m.AvgLoss)
	}
	if m.LargestWin != 100 || m.LargestLoss != -50 {
		t.Errorf("Expected extremes 100 and -50, got %f and %f", m.LargestWin, m.LargestLoss)
	}
	if m.GrossProfit != 160 || m.GrossLoss != 60 || m.TotalPnL != 100 {
		t.Errorf("Unexpected totals: %+v", m)
	}
	if m.AvgTradeValue != 1000 || m.AvgHoldingMinutes != 30 {
		t.Errorf("Expected avg value 1000 and holding 30, got %f and %f", m.AvgTradeValue, m.AvgHoldingMinutes)
	}
}

func TestComputeDailyAndDateRange(t *testing.T) {
	ps := positions(10, -5, 20)
	ps[2].CloseTime = ps[2].CloseTime.Add(48 * time.Hour)

	m := Compute(ps, store.DefaultConfig())
	if m.TradingDays != 2 {
		t.Errorf("Expected 2 trading days, got %d", m.TradingDays)
	}
	if m.AvgPositionsPerDay != 1.5 {
		t.Errorf("Expected 1.5 positions per day, got %f", m.AvgPositionsPerDay)
	}
	if m.DateRange.Start != "2024-03-04" || m.DateRange.End != "2024-03-06" {
		t.Errorf("Unexpected date range %v", m.DateRange)
	}

	daily := Daily(ps)
	if len(daily) != 2 || daily[0].Positions != 2 || daily[0].PnL != 5 || daily[0].Wins != 1 {
		t.Errorf("Unexpected daily stats %+v", daily)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	ps := positions(100, -20, 40, -30, 0, 15)
	cfg := store.DefaultConfig()
	first := Compute(ps, cfg)
	second := Compute(ps, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
}
