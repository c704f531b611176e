package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	fileExt              = ".jsonl"
	defaultRetentionDays = 30
)

var (
	mu  sync.Mutex
	ist = time.FixedZone("IST", 19800)
)

// Entry records one analysed trader.
type Entry struct {
	Time        string   `json:"time"`
	RunID       string   `json:"run_id,omitempty"`
	Trader      string   `json:"trader"`
	Source      string   `json:"source"`
	TotalTrades int      `json:"total_trades"`
	TotalPnL    float64  `json:"total_pnl"`
	RiskScore   int      `json:"risk_score"`
	RiskLevel   string   `json:"risk_level,omitempty"`
	Patterns    []string `json:"patterns,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Log appends entries to one JSON-lines file per IST day.
type Log struct {
	dir string
}

func New(dir string) *Log {
	if dir == "" {
		dir = "logs"
	}
	return &Log{dir: dir}
}

// FromEnv uses PERSONA_LOG_DIR, defaulting to ./logs.
func FromEnv() *Log {
	return New(os.Getenv("PERSONA_LOG_DIR"))
}

// RetentionDays reads PERSONA_LOG_RETENTION_DAYS.
func RetentionDays() int {
	if v := os.Getenv("PERSONA_LOG_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultRetentionDays
}

func (l *Log) Dir() string { return l.dir }

func (l *Log) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, t.In(ist).Format("2006-01-02")+fileExt)
}

func (l *Log) Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().In(ist)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := l.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode run log entry: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified more than retentionDays ago
// and removes the originals. Zero or negative retention is a no-op.
func (l *Log) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	mu.Lock()
	defer mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != fileExt {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		_ = os.Remove(p)
		compressed++
		return nil
	})
	return compressed, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
