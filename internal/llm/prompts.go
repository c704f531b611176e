package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nileshindira/trading-persona/internal/types"
)

type section struct {
	name  string
	focus string
	task  string
	set   func(*types.Narrative, string)
}

func (s section) prompt(brief string) string {
	return fmt.Sprintf("%s\n\n%s", s.task, brief)
}

var sections = []section{
	{
		name:  "trader_profile",
		focus: "In this answer you classify trading behaviour.",
		task:  "Based on the trading data below, classify this trader. Cover the trader type (scalper, day trader, swing trader), " +
			"the risk appetite and the defining style characteristics. Keep it to 200-300 words.",
		set:   func(n *types.Narrative, s string) { n.TraderProfile = s },
	},
	{
		name:  "risk_assessment",
		focus: "In this answer you act as a risk manager.",
		task:  "Assess the risk profile shown below. State an overall level (LOW/MEDIUM/HIGH/VERY HIGH), the key risk factors, " +
			"the risk-adjusted performance and the main vulnerabilities. Keep it to 200-300 words.",
		set:   func(n *types.Narrative, s string) { n.RiskAssessment = s },
	},
	{
		name:  "behavioral_insights",
		focus: "In this answer you read the psychology behind the patterns.",
		task:  "Using the detected patterns below, describe psychological tendencies, signs of emotional trading, " +
			"discipline issues and positive habits. Keep it to 200-300 words.",
		set:   func(n *types.Narrative, s string) { n.BehavioralInsights = s },
	},
	{
		name:  "recommendations",
		focus: "In this answer you coach the trader.",
		task:  "Give specific, actionable recommendations: immediate actions for the next two weeks, improvements over " +
			"the next three months, longer-term strategy changes and metrics to target. Format every item as a bullet starting with \"-\".",
		set:   func(n *types.Narrative, s string) { n.Recommendations = s },
	},
	{
		name:  "performance_summary",
		focus: "In this answer you write a performance review.",
		task:  "Write an executive summary: an overall verdict (Excellent/Good/Average/Poor/Critical), key strengths, " +
			"major weaknesses and a bottom line. Be direct. Keep it to 150-200 words.",
		set:   func(n *types.Narrative, s string) { n.PerformanceSummary = s },
	},
}

// BuildContext renders metrics and verdicts as the shared prompt context.
func BuildContext(m types.Metrics, p types.Patterns) string {
	var b strings.Builder
	b.WriteString("TRADING METRICS:\n")
	fmt.Fprintf(&b, "- Total Trades: %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "- Total P&L: %.2f\n", m.TotalPnL)
	fmt.Fprintf(&b, "- Win Rate: %.2f%%\n", m.WinRate)
	fmt.Fprintf(&b, "- Sharpe Ratio: %s\n", m.SharpeRatio)
	fmt.Fprintf(&b, "- Max Drawdown: %.2f%%\n", m.MaxDrawdownPct)
	fmt.Fprintf(&b, "- Average Trade Value: %.2f\n", m.AvgTradeValue)

	b.WriteString("\nDETECTED PATTERNS:\n")
	for _, name := range types.PatternOrder {
		if _, ok := p[name]; !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %t\n", name, p.IsDetected(name))
	}

	b.WriteString("\nDETAILS:\n")
	if raw, err := json.MarshalIndent(m, "", "  "); err == nil {
		b.Write(raw)
		b.WriteString("\n")
	}
	if raw, err := json.MarshalIndent(p, "", "  "); err == nil {
		b.Write(raw)
		b.WriteString("\n")
	}
	return b.String()
}
