package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/runlog"
	"github.com/nileshindira/trading-persona/internal/summary"
)

const traderFilePrefix = "trade_"

// TraderName derives the trader from an input file: "trade_alice.csv"
// gives "alice".
func TraderName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(stem, traderFilePrefix)
}

// Discover lists the input files matching pattern under dir, sorted.
func Discover(dir, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to match %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Batch analyses every matching file independently. A failed trader is
// logged, recorded in the returned entries and in failures, and the batch
// moves on. failures may be nil.
func Batch(ctx context.Context, eng interfaces.Engine, dir, pattern string, failures *runlog.Log) ([]summary.Entry, error) {
	files, err := Discover(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn(ctx, "No trader files found", "dir", dir, "pattern", pattern)
		return nil, nil
	}

	logger.Info(ctx, "Starting batch analysis", "dir", dir, "pattern", pattern, "files", len(files))

	entries := make([]summary.Entry, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		trader := TraderName(path)
		res, err := eng.Analyze(ctx, trader, path)
		if err != nil {
			logger.ErrorWithErr(ctx, "Trader analysis failed", err, "trader", trader, "file", path)
			entries = append(entries, summary.Entry{Trader: trader, Source: path, Err: err})
			if failures != nil {
				if lerr := failures.Append(runlog.Entry{Trader: trader, Source: path, Error: err.Error()}); lerr != nil {
					logger.Warn(ctx, "Run log append failed", "trader", trader, "error", lerr)
				}
			}
			continue
		}
		entries = append(entries, summary.Entry{Trader: trader, Source: path, Report: res.Report})
	}

	failed := 0
	for _, e := range entries {
		if e.Failed() {
			failed++
		}
	}
	logger.Info(ctx, "Batch analysis complete", "traders", len(entries), "failed", failed)
	return entries, nil
}
