package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/nileshindira/trading-persona/internal/types"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// markdownHTML renders model output. Raw HTML in the source is escaped.
func markdownHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func riskClass(level string) string {
	return "risk-" + strings.ReplaceAll(strings.ToLower(level), " ", "-")
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"md":        markdownHTML,
	"riskClass": riskClass,
	"detected":  func(p types.Patterns, name string) bool { return p.IsDetected(name) },
	"order":     func() []string { return types.PatternOrder },
	"pct":       func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	"money":     func(f float64) string { return fmt.Sprintf("%.2f", f) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Trading Analysis Report - {{.Metadata.TraderName}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
.container { max-width: 1200px; margin: auto; background: white; padding: 30px; border-radius: 10px; }
h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
.metric { display: inline-block; margin: 10px 20px; padding: 15px; background: #ecf0f1; border-radius: 5px; }
.metric-label { font-weight: bold; color: #7f8c8d; font-size: 14px; }
.metric-value { font-size: 24px; color: #2c3e50; font-weight: bold; }
.risk-very-high { color: #c0392b; } .risk-high { color: #e74c3c; } .risk-medium { color: #f39c12; } .risk-low { color: #27ae60; }
.pattern-detected { color: #e74c3c; font-weight: bold; } .pattern-not-detected { color: #27ae60; }
.analysis-section { margin: 20px 0; padding: 15px; background: #f8f9fa; border-left: 4px solid #3498db; }
.analysis-section table { width: 100%; border-collapse: collapse; }
.analysis-section th, .analysis-section td { border: 1px solid #ddd; padding: 8px; }
.footer { margin-top: 40px; border-top: 1px solid #ddd; text-align: center; color: #7f8c8d; }
</style>
</head>
<body>
<div class="container">
<h1>Trading Persona Analysis Report</h1>
<p><strong>Trader:</strong> {{.Metadata.TraderName}}</p>
<p><strong>Analysis Period:</strong> {{.Metadata.AnalysisPeriod}}</p>
<p><strong>Generated:</strong> {{.Metadata.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
<p><strong>Run:</strong> {{.Metadata.RunID}}</p>

<h2>Executive Summary</h2>
<div class="metric"><div class="metric-label">Total Trades</div><div class="metric-value">{{.ExecutiveSummary.TotalTrades}}</div></div>
<div class="metric"><div class="metric-label">Net P&amp;L</div><div class="metric-value">{{money .ExecutiveSummary.TotalPnL}}</div></div>
<div class="metric"><div class="metric-label">Win Rate</div><div class="metric-value">{{pct .ExecutiveSummary.WinRate}}</div></div>
<div class="metric"><div class="metric-label">Sharpe</div><div class="metric-value">{{.ExecutiveSummary.SharpeRatio}}</div></div>
<div class="metric"><div class="metric-label">Max Drawdown</div><div class="metric-value">{{pct .ExecutiveSummary.MaxDrawdownPct}}</div></div>
<div class="metric"><div class="metric-label">Style</div><div class="metric-value">{{.ExecutiveSummary.TradingStyle}}</div></div>
<div class="metric"><div class="metric-label">Risk Level</div><div class="metric-value {{riskClass .ExecutiveSummary.RiskLevel}}">{{.ExecutiveSummary.RiskLevel}}</div></div>
<div class="metric"><div class="metric-label">Risk Score</div><div class="metric-value">{{.RiskScore}}/100</div></div>

<h2>AI Analysis</h2>
<div class="analysis-section"><h3>Trader Profile</h3>{{md .Narrative.TraderProfile}}</div>
<div class="analysis-section"><h3>Risk Assessment</h3>{{md .Narrative.RiskAssessment}}</div>
<div class="analysis-section"><h3>Behavioral Insights</h3>{{md .Narrative.BehavioralInsights}}</div>

<h2>Detected Patterns</h2>
<ul>
{{- $p := .Patterns}}
{{- range order}}{{if index $p .}}
<li>{{.}}: {{if detected $p .}}<span class="pattern-detected">YES</span>{{else}}<span class="pattern-not-detected">NO</span>{{end}}</li>
{{- end}}{{end}}
</ul>

{{- if .EMA.Enabled}}
<h2>EMA Trend Scores</h2>
<table>
<tr><th>Column</th><th>Mean</th><th>Min</th><th>Max</th><th>Coverage</th></tr>
{{- range .EMA.Columns}}
<tr><td>{{.Column}}</td><td>{{printf "%.2f" .Mean}}</td><td>{{.Min}}</td><td>{{.Max}}</td><td>{{.Coverage}}</td></tr>
{{- end}}
</table>
{{- end}}

<h2>Recommendations</h2>
<ul>
{{- range .Recommendations}}
<li>{{.}}</li>
{{- end}}
</ul>

<h2>Performance Summary</h2>
<div class="analysis-section">{{md .Narrative.PerformanceSummary}}</div>

<div class="footer"><p>Generated from trade history with model-assisted commentary. Not financial advice.</p></div>
</div>
</body>
</html>
`))

// RenderHTML renders the report page.
func RenderHTML(r *types.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}

func WriteHTML(path string, r *types.Report) error {
	b, err := RenderHTML(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write html report: %w", err)
	}
	return nil
}
