package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/nileshindira/trading-persona/internal/types"
)

// Markdown renders a condensed report for terminals and chat.
func Markdown(r *types.Report) string {
	var b strings.Builder
	es := r.ExecutiveSummary

	fmt.Fprintf(&b, "# Trading Persona: %s\n\n", r.Metadata.TraderName)
	fmt.Fprintf(&b, "_Period: %s_\n\n", r.Metadata.AnalysisPeriod)

	b.WriteString("## Executive Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total trades | %d |\n", es.TotalTrades)
	fmt.Fprintf(&b, "| Net P&L | %.2f |\n", es.TotalPnL)
	fmt.Fprintf(&b, "| Win rate | %.1f%% |\n", es.WinRate)
	fmt.Fprintf(&b, "| Sharpe | %s |\n", es.SharpeRatio)
	fmt.Fprintf(&b, "| Max drawdown | %.1f%% |\n", es.MaxDrawdownPct)
	fmt.Fprintf(&b, "| Style | %s |\n", es.TradingStyle)
	fmt.Fprintf(&b, "| Risk | %s (%d/100) |\n\n", es.RiskLevel, r.RiskScore)

	if detected := r.Patterns.Detected(); len(detected) > 0 {
		b.WriteString("## Detected Patterns\n\n")
		for _, name := range detected {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	if s := r.Narrative.PerformanceSummary; s != types.NotAvailable {
		b.WriteString("\n## Performance Summary\n\n")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderTerminal styles the markdown summary for the current terminal.
func RenderTerminal(r *types.Report) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return renderer.Render(Markdown(r))
}
