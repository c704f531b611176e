package report

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nileshindira/trading-persona/internal/types"
)

func TestRiskScore(t *testing.T) {
	overtrading := types.Patterns{types.PatternOvertrading: types.OvertradingVerdict{Detected: true}}
	both := types.Patterns{
		types.PatternOvertrading: types.OvertradingVerdict{Detected: true},
		types.PatternRevenge:     types.RevengeVerdict{Detected: true},
	}

	tests := []struct {
		name string
		m    types.Metrics
		p    types.Patterns
		want int
	}{
		{"base", types.Metrics{TotalTrades: 10, WinRate: 60, SharpeRatio: 1.2, MaxDrawdownPct: -5}, nil, 50},
		{"negative sharpe", types.Metrics{TotalTrades: 10, WinRate: 60, SharpeRatio: -0.1}, nil, 70},
		{"deep drawdown", types.Metrics{TotalTrades: 10, WinRate: 60, MaxDrawdownPct: -25}, nil, 65},
		{"low win rate", types.Metrics{TotalTrades: 10, WinRate: 40}, nil, 60},
		{"overtrading", types.Metrics{TotalTrades: 10, WinRate: 60}, overtrading, 60},
		{"clamped", types.Metrics{TotalTrades: 10, WinRate: 10, SharpeRatio: -2, MaxDrawdownPct: -80}, both, 100},
		{"empty ledger", types.Metrics{}, nil, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskScore(tt.m, tt.p); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		sharpe types.Ratio
		dd     float64
		want   string
	}{
		{-0.5, 0, "VERY HIGH"},
		{2, -35, "VERY HIGH"},
		{0.3, 0, "HIGH"},
		{2, -25, "HIGH"},
		{0.8, 0, "MEDIUM"},
		{2, -15, "MEDIUM"},
		{1.5, -5, "LOW"},
		{types.Ratio(math.Inf(1)), 0, "LOW"},
	}
	for _, tt := range tests {
		if got := RiskLevel(types.Metrics{SharpeRatio: tt.sharpe, MaxDrawdownPct: tt.dd}); got != tt.want {
			t.Errorf("sharpe %v dd %v: expected %s, got %s", tt.sharpe, tt.dd, tt.want, got)
		}
	}
}

func TestTradingStyle(t *testing.T) {
	tests := []struct {
		perDay float64
		want   string
	}{
		{12, "High-Frequency Scalper"},
		{10, "Day Trader"},
		{6, "Day Trader"},
		{3, "Active Trader"},
		{2, "Position Trader"},
		{0, "Position Trader"},
	}
	for _, tt := range tests {
		if got := TradingStyle(types.Metrics{AvgPositionsPerDay: tt.perDay}); got != tt.want {
			t.Errorf("%v per day: expected %s, got %s", tt.perDay, tt.want, got)
		}
	}
}

func TestRecommendations(t *testing.T) {
	n := types.EmptyNarrative()
	if got := Recommendations(n); len(got) != 3 || got[0] != "Focus on risk management" {
		t.Errorf("Expected defaults for N/A section, got %v", got)
	}

	n.Recommendations = "Do better."
	if got := Recommendations(n); len(got) != 3 {
		t.Errorf("Expected defaults without bullets, got %v", got)
	}

	var lines []string
	for i := 0; i < 14; i++ {
		lines = append(lines, "- keep a journal")
	}
	n.Recommendations = strings.Join(lines, "\n")
	if got := Recommendations(n); len(got) != 10 {
		t.Errorf("Expected 10 recommendations, got %d", len(got))
	}
}

func sampleReport() *types.Report {
	return Build(Input{
		Trader: "AB1234",
		Kind:   types.LedgerRaw,
		Metrics: types.Metrics{
			TotalTrades:        4,
			WinRate:            50,
			TotalPnL:           120.5,
			SharpeRatio:        types.Ratio(math.Inf(1)),
			AvgPositionsPerDay: 4,
			DateRange:          types.DateRange{Start: "2024-01-15", End: "2024-01-16"},
		},
		Patterns: types.Patterns{
			types.PatternOvertrading: types.OvertradingVerdict{Detected: true},
			types.PatternHedging:     types.HedgingVerdict{},
		},
		Narrative: types.Narrative{
			TraderProfile:      "An **active** trader.\n\n<script>alert(1)</script>",
			RiskAssessment:     types.NotAvailable,
			BehavioralInsights: types.NotAvailable,
			Recommendations:    "- Cap trades at 5 per day\n- Stop after two losses",
			PerformanceSummary: "Average.",
		},
		EMA: types.EMASummary{Enabled: true, Columns: []types.EMAColumnStats{{Column: "ema_score_stock", Mean: 2, Min: -2, Max: 6, Coverage: 3}}},
	})
}

func TestBuild(t *testing.T) {
	r := sampleReport()

	if r.Metadata.RunID == "" {
		t.Error("Expected a run id")
	}
	if r.Metadata.AnalysisPeriod != "2024-01-15 to 2024-01-16" {
		t.Errorf("Unexpected analysis period %q", r.Metadata.AnalysisPeriod)
	}
	if r.ExecutiveSummary.TradingStyle != "Active Trader" {
		t.Errorf("Expected Active Trader, got %s", r.ExecutiveSummary.TradingStyle)
	}
	if r.RiskScore != 60 {
		t.Errorf("Expected risk score 60, got %d", r.RiskScore)
	}
	if len(r.Recommendations) != 2 || r.Recommendations[1] != "Stop after two losses" {
		t.Errorf("Unexpected recommendations %v", r.Recommendations)
	}
	if _, err := json.Marshal(r); err != nil {
		t.Errorf("Expected report with infinite sharpe to marshal, got %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	b, err := RenderHTML(sampleReport())
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	html := string(b)
	for _, want := range []string{
		"<strong>active</strong>",
		`<span class="pattern-detected">YES</span>`,
		"hedging: <span class=\"pattern-not-detected\">NO</span>",
		"<li>Cap trades at 5 per day</li>",
		"ema_score_stock",
		"∞",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("Expected raw HTML from the narrative to be escaped")
	}
	if strings.Contains(html, "revenge_trading") {
		t.Error("Expected detectors without verdicts to be omitted")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()
	four, minusTwo := 4, -2
	positions := []types.EnrichedPosition{
		{
			ClosedPosition: types.ClosedPosition{Symbol: "INFY", OpenSide: types.Buy, OpenTime: time.Date(2024, 1, 15, 9, 20, 0, 0, time.UTC), Quantity: 5, RealizedPnL: 50},
			Scores:         map[string]*int{"stock": &four, "midcap": nil, "nifty": &minusTwo},
		},
	}

	paths, err := Export(dir, []string{"json", "HTML", "csv"}, r, positions, []string{"stock", "midcap", "nifty"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 outputs, got %v", paths)
	}
	if !strings.HasPrefix(filepath.Base(paths[0]), "AB1234_report_") || filepath.Ext(paths[0]) != ".json" {
		t.Errorf("Unexpected json path %s", paths[0])
	}
	if filepath.Base(paths[2]) != "AB1234_positions.csv" {
		t.Errorf("Unexpected csv path %s", paths[2])
	}

	raw, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	for _, key := range []string{"metadata", "executive_summary", "detailed_metrics", "detected_patterns", "ai_analysis", "recommendations", "risk_score", "ema_summary"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %s in report JSON", key)
		}
	}

	csv, err := os.ReadFile(paths[2])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[0], "ema_score_stock,ema_score_benchmarks") {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",4,nifty=-2") {
		t.Errorf("Unexpected row %q", lines[1])
	}

	if _, err := Export(dir, []string{"pdf"}, r, nil, nil); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{writer: fw, topic: "persona.reports"}
	r := sampleReport()

	if err := p.Publish(context.Background(), r); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(fw.msgs) != 1 || string(fw.msgs[0].Key) != "AB1234" {
		t.Fatalf("Unexpected messages %+v", fw.msgs)
	}
	var decoded types.ExecutiveSummary
	var envelope struct {
		ExecutiveSummary *types.ExecutiveSummary `json:"executive_summary"`
	}
	envelope.ExecutiveSummary = &decoded
	if err := json.Unmarshal(fw.msgs[0].Value, &envelope); err != nil {
		t.Fatalf("Expected JSON payload, got %v", err)
	}
	if decoded.TotalTrades != 4 {
		t.Errorf("Expected 4 trades in payload, got %d", decoded.TotalTrades)
	}

	fw.err = errors.New("broker down")
	if err := p.Publish(context.Background(), r); err == nil {
		t.Error("Expected publish error")
	}
	p.Close()
	if !fw.closed {
		t.Error("Expected writer to be closed")
	}

	if _, err := NewKafkaPublisher(nil, "t"); err == nil {
		t.Error("Expected error without brokers")
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())
	for _, want := range []string{"# Trading Persona: AB1234", "| Sharpe | ∞ |", "- overtrading", "- Stop after two losses", "Average."} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}
