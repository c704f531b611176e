package ema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/types"
)

// candleRow is one line of a <SYMBOL>.csv daily history file.
type candleRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSVSource serves daily bars from files on disk, one per symbol.
type CSVSource struct {
	dir string
	loc *time.Location
}

var _ interfaces.PriceSource = (*CSVSource)(nil)

func NewCSVSource(dir string, loc *time.Location) *CSVSource {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVSource{dir: dir, loc: loc}
}

// FileName maps a symbol to its history file, e.g. "NIFTY 50" to "NIFTY_50.csv".
func FileName(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), " ", "_") + ".csv"
}

func (s *CSVSource) DailyCandles(ctx context.Context, symbol, exchange string, before time.Time, n int) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, FileName(symbol))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price history %s: %w", path, err)
	}
	defer f.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price history %s: %w", path, err)
	}

	day := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())
	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(r.Date), s.loc)
		if err != nil {
			continue
		}
		if !d.Before(day) {
			continue
		}
		candles = append(candles, types.Candle{
			Date:   d,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })

	if n > 0 && len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}
