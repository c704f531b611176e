package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/nileshindira/trading-persona/internal/types"
)

const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatCSV  = "csv"

	fileTimeLayout = "20060102_150405"
)

// Export writes the requested formats under dir and returns the paths.
// columns are the EMA score keys carried on positions, stock first.
func Export(dir string, formats []string, r *types.Report, positions []types.EnrichedPosition, columns []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := r.Metadata.GeneratedAt.Format(fileTimeLayout)
	base := safeName(r.Metadata.TraderName)

	var paths []string
	for _, f := range formats {
		var (
			path string
			err  error
		)
		switch strings.ToLower(f) {
		case FormatJSON:
			path = filepath.Join(dir, fmt.Sprintf("%s_report_%s.json", base, stamp))
			err = WriteJSON(path, r)
		case FormatHTML:
			path = filepath.Join(dir, fmt.Sprintf("%s_report_%s.html", base, stamp))
			err = WriteHTML(path, r)
		case FormatCSV:
			path = filepath.Join(dir, base+"_positions.csv")
			err = WritePositions(path, positions, columns)
		default:
			err = fmt.Errorf("unsupported report format: %s", f)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func WriteJSON(path string, r *types.Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// positionRow is the flat CSV layout of an enriched position.
type positionRow struct {
	Symbol         string  `csv:"symbol"`
	OpenSide       string  `csv:"open_side"`
	OpenTime       string  `csv:"open_time"`
	CloseTime      string  `csv:"close_time"`
	Quantity       float64 `csv:"matched_quantity"`
	OpenPrice      float64 `csv:"open_price"`
	ClosePrice     float64 `csv:"close_price"`
	RealizedPnL    float64 `csv:"realized_pnl"`
	HoldingMinutes float64 `csv:"holding_duration_minutes"`
	Fees           float64 `csv:"fees_allocated"`
	EMAStock       string  `csv:"ema_score_stock"`
	EMABenchmarks  string  `csv:"ema_score_benchmarks"`
}

// WritePositions writes one row per position. Missing scores are empty;
// benchmark scores are joined as name=score pairs.
func WritePositions(path string, positions []types.EnrichedPosition, columns []string) error {
	rows := make([]positionRow, 0, len(positions))
	for _, p := range positions {
		row := positionRow{
			Symbol:         p.Symbol,
			OpenSide:       string(p.OpenSide),
			OpenTime:       p.OpenTime.Format("2006-01-02 15:04:05"),
			CloseTime:      p.CloseTime.Format("2006-01-02 15:04:05"),
			Quantity:       p.Quantity,
			OpenPrice:      p.OpenPrice,
			ClosePrice:     p.ClosePrice,
			RealizedPnL:    p.RealizedPnL,
			HoldingMinutes: p.HoldingMinutes,
			Fees:           p.Fees,
		}
		var bench []string
		for i, col := range columns {
			v := p.Scores[col]
			if v == nil {
				continue
			}
			if i == 0 {
				row.EMAStock = fmt.Sprint(*v)
				continue
			}
			bench = append(bench, fmt.Sprintf("%s=%d", col, *v))
		}
		row.EMABenchmarks = strings.Join(bench, ";")
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create positions file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}
	return nil
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "trader"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' || r == ':' {
			return '_'
		}
		return r
	}, s)
}
