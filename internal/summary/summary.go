package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/nileshindira/trading-persona/internal/types"
)

// Entry is the outcome of analysing one trader in a batch.
type Entry struct {
	Trader string
	Source string
	Report *types.Report
	Err    error
}

func (e Entry) Failed() bool { return e.Err != nil || e.Report == nil }

type row struct {
	Trader         string  `csv:"trader"`
	Source         string  `csv:"source"`
	Status         string  `csv:"status"`
	TotalTrades    int     `csv:"total_trades"`
	TotalPnL       float64 `csv:"total_pnl"`
	WinRate        float64 `csv:"win_rate"`
	SharpeRatio    string  `csv:"sharpe_ratio"`
	MaxDrawdownPct float64 `csv:"max_drawdown_pct"`
	RiskScore      int     `csv:"risk_score"`
	RiskLevel      string  `csv:"risk_level"`
	TradingStyle   string  `csv:"trading_style"`
	Patterns       string  `csv:"patterns_detected"`
	Error          string  `csv:"error"`
}

// Sort orders entries by risk score, highest first, with failed traders
// last. Ties break on trader name.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		if !a.Failed() && a.Report.RiskScore != b.Report.RiskScore {
			return a.Report.RiskScore > b.Report.RiskScore
		}
		return a.Trader < b.Trader
	})
}

// WriteBatch writes the batch summary CSV to path.
func WriteBatch(path string, entries []Entry) error {
	sorted := append([]Entry(nil), entries...)
	Sort(sorted)

	rows := make([]row, 0, len(sorted))
	for _, e := range sorted {
		r := row{Trader: e.Trader, Source: e.Source}
		if e.Failed() {
			r.Status = "FAILED"
			if e.Err != nil {
				r.Error = e.Err.Error()
			}
			rows = append(rows, r)
			continue
		}
		es := e.Report.ExecutiveSummary
		r.Status = "OK"
		r.TotalTrades = es.TotalTrades
		r.TotalPnL = es.TotalPnL
		r.WinRate = es.WinRate
		r.SharpeRatio = es.SharpeRatio.String()
		r.MaxDrawdownPct = es.MaxDrawdownPct
		r.RiskScore = e.Report.RiskScore
		r.RiskLevel = es.RiskLevel
		r.TradingStyle = es.TradingStyle
		r.Patterns = strings.Join(e.Report.Patterns.Detected(), ";")
		rows = append(rows, r)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create batch summary: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write batch summary: %w", err)
	}
	return nil
}
