package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

type fakeCompleter struct {
	fail    map[string]bool
	systems []string
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.systems = append(f.systems, system)
	for key := range f.fail {
		if strings.Contains(prompt, key) {
			return "", errors.New("model crashed")
		}
	}
	return "  section text  ", nil
}

func samplePatterns() types.Patterns {
	return types.Patterns{
		types.PatternOvertrading: types.OvertradingVerdict{Detected: true, Severity: types.SeverityHigh},
		types.PatternRevenge:     types.RevengeVerdict{},
	}
}

func TestNarrateFillsSections(t *testing.T) {
	fc := &fakeCompleter{}
	n := NewNarrator(store.DefaultConfig(), fc)

	got := n.Narrate(context.Background(), "AB1234", types.Metrics{TotalTrades: 12}, samplePatterns())

	if fc.calls != 5 {
		t.Errorf("Expected 5 completions, got %d", fc.calls)
	}
	for name, s := range map[string]string{
		"trader_profile":      got.TraderProfile,
		"risk_assessment":     got.RiskAssessment,
		"behavioral_insights": got.BehavioralInsights,
		"recommendations":     got.Recommendations,
		"performance_summary": got.PerformanceSummary,
	} {
		if s != "section text" {
			t.Errorf("%s: expected trimmed text, got %q", name, s)
		}
	}
}

func TestNarrateMarksFailedSectionsUnavailable(t *testing.T) {
	fc := &fakeCompleter{fail: map[string]bool{"executive summary": true}}
	n := NewNarrator(store.DefaultConfig(), fc)

	got := n.Narrate(context.Background(), "AB1234", types.Metrics{}, samplePatterns())

	if got.PerformanceSummary != types.NotAvailable {
		t.Errorf("Expected N/A performance summary, got %q", got.PerformanceSummary)
	}
	if got.TraderProfile != "section text" {
		t.Errorf("Expected other sections to survive, got %q", got.TraderProfile)
	}
}

func TestNarrateWithoutCompleter(t *testing.T) {
	n := NewNarrator(store.DefaultConfig(), nil)
	if got := n.Narrate(context.Background(), "x", types.Metrics{}, nil); got != types.EmptyNarrative() {
		t.Errorf("Expected empty narrative, got %+v", got)
	}
}

func TestNarrateSystemOverride(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.LLM.System = "custom system"
	fc := &fakeCompleter{}
	NewNarrator(cfg, fc).Narrate(context.Background(), "x", types.Metrics{}, nil)

	for _, s := range fc.systems {
		if !strings.HasPrefix(s, "custom system ") {
			t.Errorf("Expected configured persona first, got %q", s)
		}
	}
}

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(types.Metrics{TotalTrades: 7, WinRate: 42.5}, samplePatterns())

	for _, want := range []string{
		"- Total Trades: 7",
		"- Win Rate: 42.50%",
		"- overtrading: true",
		"- revenge_trading: false",
		`"total_trades": 7`,
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("Expected context to contain %q", want)
		}
	}
	if strings.Contains(ctx, "- hedging:") {
		t.Error("Expected absent detectors to be omitted")
	}
}

func TestBullets(t *testing.T) {
	text := "Immediate actions:\n- Cut size after a loss\n• Stop after 5 trades\n  * Journal every trade\nplain line\n-\n"
	got := Bullets(text, 10)
	want := []string{"Cut size after a loss", "Stop after 5 trades", "Journal every trade"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d bullets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Bullet %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if got := Bullets(text, 2); len(got) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(got))
	}
}
