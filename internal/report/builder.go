package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/types"
)

const maxRecommendations = 10

// DefaultRecommendations stand in when the narrative has no usable bullets.
var DefaultRecommendations = []string{
	"Focus on risk management",
	"Reduce trading frequency",
	"Implement strict stop losses",
}

// Input gathers everything one trader's report is built from.
type Input struct {
	Trader    string
	Kind      types.LedgerKind
	Dropped   int
	Metrics   types.Metrics
	Patterns  types.Patterns
	Analyses  types.Analyses
	Daily     []types.DailyStat
	Narrative types.Narrative
	EMA       types.EMASummary
}

// Build assembles the report and derives the summary fields.
func Build(in Input) *types.Report {
	m := in.Metrics
	return &types.Report{
		Metadata: types.ReportMetadata{
			RunID:          uuid.New().String(),
			GeneratedAt:    time.Now(),
			TraderName:     in.Trader,
			AnalysisPeriod: m.DateRange.String(),
			InputKind:      in.Kind,
			DroppedRows:    in.Dropped,
		},
		ExecutiveSummary: types.ExecutiveSummary{
			TotalTrades:    m.TotalTrades,
			TotalPnL:       m.TotalPnL,
			WinRate:        m.WinRate,
			SharpeRatio:    m.SharpeRatio,
			MaxDrawdownPct: m.MaxDrawdownPct,
			TradingStyle:   TradingStyle(m),
			RiskLevel:      RiskLevel(m),
		},
		Metrics:         m,
		Patterns:        in.Patterns,
		Analyses:        in.Analyses,
		Daily:           in.Daily,
		Narrative:       in.Narrative,
		Recommendations: Recommendations(in.Narrative),
		RiskScore:       RiskScore(m, in.Patterns),
		EMA:             in.EMA,
	}
}

// RiskScore starts at 50 and adds penalties, clamped to [0, 100].
func RiskScore(m types.Metrics, p types.Patterns) int {
	score := 50
	if float64(m.SharpeRatio) < 0 {
		score += 20
	}
	if math.Abs(m.MaxDrawdownPct) > 20 {
		score += 15
	}
	if m.WinRate < 45 {
		score += 10
	}
	if p.IsDetected(types.PatternOvertrading) {
		score += 10
	}
	if p.IsDetected(types.PatternRevenge) {
		score += 10
	}
	return min(100, max(0, score))
}

func RiskLevel(m types.Metrics) string {
	sharpe := float64(m.SharpeRatio)
	dd := math.Abs(m.MaxDrawdownPct)
	switch {
	case sharpe < 0 || dd > 30:
		return "VERY HIGH"
	case sharpe < 0.5 || dd > 20:
		return "HIGH"
	case sharpe < 1 || dd > 10:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// TradingStyle classifies by closed positions per trading day.
func TradingStyle(m types.Metrics) string {
	switch perDay := m.AvgPositionsPerDay; {
	case perDay > 10:
		return "High-Frequency Scalper"
	case perDay > 5:
		return "Day Trader"
	case perDay > 2:
		return "Active Trader"
	default:
		return "Position Trader"
	}
}

// Recommendations takes the bullets of the recommendations section.
func Recommendations(n types.Narrative) []string {
	if n.Recommendations == types.NotAvailable {
		return append([]string(nil), DefaultRecommendations...)
	}
	recs := llm.Bullets(n.Recommendations, maxRecommendations)
	if len(recs) == 0 {
		return append([]string(nil), DefaultRecommendations...)
	}
	return recs
}
