package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nileshindira/trading-persona/internal/runlog"
	"github.com/nileshindira/trading-persona/internal/types"
)

type fakeEngine struct {
	fail map[string]bool
	seen []string
}

func (f *fakeEngine) Analyze(ctx context.Context, trader, path string) (*types.AnalysisResult, error) {
	f.seen = append(f.seen, trader)
	if f.fail[trader] {
		return nil, errors.New("unreadable ledger")
	}
	return &types.AnalysisResult{TraderName: trader, Source: path, Report: &types.Report{RiskScore: 70}}, nil
}

func TestTraderName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/trade_alice.csv", "alice"},
		{"trade_bob.html", "bob"},
		{"/tmp/carol.json", "carol"},
		{"trade_.csv", ""},
	}
	for _, tt := range tests {
		if got := TraderName(tt.path); got != tt.want {
			t.Errorf("TraderName(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "trade_zed.csv", "x")
	writeFile(t, dir, "trade_amy.csv", "x")
	writeFile(t, dir, "notes.txt", "x")
	if err := os.MkdirAll(filepath.Join(dir, "desk2"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "desk2"), "trade_kim.csv", "x")

	eng := &fakeEngine{fail: map[string]bool{"zed": true}}
	logDir := t.TempDir()
	entries, err := Batch(context.Background(), eng, dir, "**/trade_*.csv", runlog.New(logDir))
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	got := strings.Join(eng.seen, ",")
	if got != "kim,amy,zed" {
		t.Errorf("Expected files in sorted path order, got %s", got)
	}
	for _, e := range entries {
		if e.Trader == "zed" && !e.Failed() {
			t.Error("Expected zed to be recorded as failed")
		}
		if e.Trader != "zed" && (e.Failed() || e.Report.RiskScore != 70) {
			t.Errorf("Expected %s to succeed, got %+v", e.Trader, e)
		}
	}

	files, _ := filepath.Glob(filepath.Join(logDir, "*.jsonl"))
	if len(files) != 1 {
		t.Fatalf("Expected failures in the run log, got %v", files)
	}
	b, _ := os.ReadFile(files[0])
	if !strings.Contains(string(b), "unreadable ledger") {
		t.Errorf("Expected failure recorded, got %s", b)
	}
}

func TestBatchNoFiles(t *testing.T) {
	entries, err := Batch(context.Background(), &fakeEngine{}, t.TempDir(), "trade_*.csv", nil)
	if err != nil || len(entries) != 0 {
		t.Errorf("Expected no entries and no error, got %v, %v", entries, err)
	}
}
