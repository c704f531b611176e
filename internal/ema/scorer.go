package ema

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/ta"
	"github.com/nileshindira/trading-persona/internal/types"
)

const (
	dateLayout  = "2006-01-02"
	StockColumn = "stock"
)

// ErrUnavailable marks a score that could not be computed. Callers treat it
// as an absent value, never as a failed run.
var ErrUnavailable = errors.New("ema score unavailable")

// Scorer computes EMA trend scores for traded symbols and benchmarks.
type Scorer struct {
	source interfaces.PriceSource
	cache  interfaces.ScoreCache
	cfg    *store.Config
}

var _ interfaces.EMAScorer = (*Scorer)(nil)

func NewScorer(cfg *store.Config, source interfaces.PriceSource, cache interfaces.ScoreCache) *Scorer {
	if cache == nil {
		cache = noopCache{}
	}
	return &Scorer{source: source, cache: cache, cfg: cfg}
}

// Score returns the trend score of symbol using bars strictly before asOf's
// calendar day.
func (s *Scorer) Score(ctx context.Context, symbol, exchange string, asOf time.Time) (*types.EMAScore, error) {
	if exchange == "" {
		exchange = s.cfg.EMA.Exchange
	}
	date := asOf.Format(dateLayout)

	cached, ok, err := s.cache.Get(ctx, symbol, exchange, date)
	if err != nil {
		logger.Warn(ctx, "EMA cache read failed", "symbol", symbol, "date", date, "error", err)
	} else if ok {
		return cached, nil
	}

	fetchCtx := ctx
	if s.cfg.EMA.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.EMA.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	bars, err := s.source.DailyCandles(fetchCtx, symbol, exchange, asOf, s.cfg.EMA.LookbackBars)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, symbol, err)
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	closes := make([]float64, 0, len(bars))
	var last time.Time
	for _, b := range bars {
		if !b.Date.Before(day) {
			continue
		}
		closes = append(closes, b.Close)
		last = b.Date
	}
	if len(closes) < s.cfg.EMA.MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars before %s, need %d", ErrUnavailable, symbol, len(closes), date, s.cfg.EMA.MinBars)
	}

	trend, ok := ta.TrendScore(closes)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no usable closes", ErrUnavailable, symbol)
	}

	score := &types.EMAScore{
		Symbol:   symbol,
		Exchange: exchange,
		Date:     date,
		Score:    trend.Score,
		Close:    trend.Close,
		EMA21:    trend.EMA21,
		EMA50:    trend.EMA50,
		EMA100:   trend.EMA100,
		BarDate:  last.Format(dateLayout),
		Computed: time.Now().UTC(),
	}
	if err := s.cache.Put(ctx, *score); err != nil {
		logger.Warn(ctx, "EMA cache write failed", "symbol", symbol, "date", date, "error", err)
	}
	return score, nil
}

type scoreKey struct {
	column string
	symbol string
	date   string
}

type scoreJob struct {
	key  scoreKey
	asOf time.Time
}

// Enrich attaches stock and benchmark scores to each position, keyed by
// the position's open date. Lookups run on a bounded worker pool and each
// (symbol, date) pair is scored once.
func (s *Scorer) Enrich(ctx context.Context, positions []types.ClosedPosition) ([]types.EnrichedPosition, types.EMASummary) {
	columns := Columns(s.cfg)

	seen := make(map[scoreKey]bool)
	var jobs []scoreJob
	add := func(column, symbol string, at time.Time) {
		k := scoreKey{column: column, symbol: symbol, date: at.Format(dateLayout)}
		if symbol == "" || seen[k] {
			return
		}
		seen[k] = true
		jobs = append(jobs, scoreJob{key: k, asOf: at})
	}
	for _, p := range positions {
		add(StockColumn, BaseSymbol(p.Symbol), p.OpenTime)
		for _, name := range columns[1:] {
			add(name, s.cfg.EMA.Benchmarks[name], p.OpenTime)
		}
	}

	results := s.run(ctx, jobs)

	out := make([]types.EnrichedPosition, len(positions))
	for i, p := range positions {
		date := p.OpenTime.Format(dateLayout)
		scores := make(map[string]*int, len(columns))
		scores[StockColumn] = results[scoreKey{column: StockColumn, symbol: BaseSymbol(p.Symbol), date: date}]
		for _, name := range columns[1:] {
			scores[name] = results[scoreKey{column: name, symbol: s.cfg.EMA.Benchmarks[name], date: date}]
		}
		out[i] = types.EnrichedPosition{ClosedPosition: p, Scores: scores}
	}

	return out, Summarize(out, columns)
}

func (s *Scorer) run(ctx context.Context, jobs []scoreJob) map[scoreKey]*int {
	results := make(map[scoreKey]*int, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := s.cfg.EMA.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan scoreJob)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				sc, err := s.Score(ctx, job.key.symbol, "", job.asOf)
				mu.Lock()
				if err != nil {
					failed++
					results[job.key] = nil
				} else {
					v := sc.Score
					results[job.key] = &v
				}
				mu.Unlock()
				if err != nil {
					logger.Debug(ctx, "EMA score skipped", "symbol", job.key.symbol, "date", job.key.date, "error", err)
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queue)
	wg.Wait()

	logger.Info(ctx, "EMA scoring complete", "lookups", len(jobs), "unavailable", failed, "workers", workers)
	return results
}

// Columns lists the score columns: the stock first, then benchmark names in
// lexical order.
func Columns(cfg *store.Config) []string {
	names := make([]string, 0, len(cfg.EMA.Benchmarks))
	for name := range cfg.EMA.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{StockColumn}, names...)
}

// ColumnName is the exported column label for a score key.
func ColumnName(column string) string {
	return "ema_score_" + column
}

// Summarize reports mean, min and max per column over present scores.
func Summarize(positions []types.EnrichedPosition, columns []string) types.EMASummary {
	summary := types.EMASummary{Enabled: true, Columns: make([]types.EMAColumnStats, 0, len(columns))}
	for _, col := range columns {
		st := types.EMAColumnStats{Column: ColumnName(col), Min: math.MaxInt, Max: math.MinInt}
		sum := 0
		for _, p := range positions {
			v := p.Scores[col]
			if v == nil {
				continue
			}
			st.Coverage++
			sum += *v
			st.Min = min(st.Min, *v)
			st.Max = max(st.Max, *v)
		}
		if st.Coverage == 0 {
			st.Min, st.Max = 0, 0
		} else {
			st.Mean = float64(sum) / float64(st.Coverage)
		}
		summary.Columns = append(summary.Columns, st)
	}
	return summary
}

// BaseSymbol strips contract suffixes so derivatives score against their
// underlying: "NIFTY24JAN21500CE" gives "NIFTY", "RELIANCE-EQ" gives
// "RELIANCE".
func BaseSymbol(symbol string) string {
	fields := strings.Fields(strings.ToUpper(symbol))
	if len(fields) == 0 {
		return ""
	}
	s := fields[0]
	for _, series := range []string{"-EQ", "-BE", "-BZ"} {
		s = strings.TrimSuffix(s, series)
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return s
	}
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end <= 0 {
		return s
	}
	return s[:end]
}
