package ema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/types"
)

// SQLiteCache persists scores in a local SQLite file.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
}

var _ interfaces.ScoreCache = (*SQLiteCache)(nil)

func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One connection keeps concurrent workers from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ema_scores (
			symbol TEXT NOT NULL,
			exchange TEXT NOT NULL,
			date TEXT NOT NULL,
			score INTEGER NOT NULL,
			close REAL NOT NULL,
			ema21 REAL NOT NULL,
			ema50 REAL NOT NULL,
			ema100 REAL NOT NULL,
			bar_date TEXT NOT NULL,
			computed_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, exchange, date)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ema_scores table: %w", err)
	}

	return &SQLiteCache{db: db, ttl: ttl}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, symbol, exchange, date string) (*types.EMAScore, bool, error) {
	s := types.EMAScore{Symbol: symbol, Exchange: exchange, Date: date}
	var computed int64
	err := c.db.QueryRowContext(ctx,
		`SELECT score, close, ema21, ema50, ema100, bar_date, computed_at
		 FROM ema_scores WHERE symbol = ? AND exchange = ? AND date = ?`,
		symbol, exchange, date,
	).Scan(&s.Score, &s.Close, &s.EMA21, &s.EMA50, &s.EMA100, &s.BarDate, &computed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ema score: %w", err)
	}

	s.Computed = time.Unix(computed, 0).UTC()
	if expired(s.Computed, c.ttl) {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, s types.EMAScore) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ema_scores (symbol, exchange, date, score, close, ema21, ema50, ema100, bar_date, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, exchange, date) DO UPDATE SET
			score = excluded.score,
			close = excluded.close,
			ema21 = excluded.ema21,
			ema50 = excluded.ema50,
			ema100 = excluded.ema100,
			bar_date = excluded.bar_date,
			computed_at = excluded.computed_at
	`, s.Symbol, s.Exchange, s.Date, s.Score, s.Close, s.EMA21, s.EMA50, s.EMA100, s.BarDate, s.Computed.Unix())
	if err != nil {
		return fmt.Errorf("failed to save ema score: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
