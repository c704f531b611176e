package runlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesJSONLines(t *testing.T) {
	l := New(t.TempDir())

	if err := l.Append(Entry{Trader: "AB1234", TotalTrades: 12, RiskScore: 70, Patterns: []string{"overtrading"}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(Entry{Trader: "CD5678", Error: "missing required columns"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	f, err := os.Open(l.dailyFilepath(time.Now()))
	if err != nil {
		t.Fatalf("Expected daily file, got %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Time == "" || entries[0].RiskScore != 70 {
		t.Errorf("Unexpected first entry %+v", entries[0])
	}
	if entries[1].Error != "missing required columns" {
		t.Errorf("Expected error to be recorded, got %+v", entries[1])
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	old := filepath.Join(dir, "2024-01-01.jsonl")
	fresh := filepath.Join(dir, "2099-01-01.jsonl")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte(`{"trader":"x"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -40)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	n, err := l.CompressOlder(30)
	if err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 file compressed, got %d", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected original to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected recent file to be kept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Expected non-log file to be left alone")
	}

	gz, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("Expected gzip file, got %v", err)
	}
	defer gz.Close()
	zr, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(zr)
	if string(b) != `{"trader":"x"}`+"\n" {
		t.Errorf("Unexpected gzip content %q", b)
	}

	if n, _ := l.CompressOlder(0); n != 0 {
		t.Errorf("Expected zero retention to be a no-op, got %d", n)
	}
}

func TestRetentionDays(t *testing.T) {
	t.Setenv("PERSONA_LOG_RETENTION_DAYS", "")
	if got := RetentionDays(); got != 30 {
		t.Errorf("Expected default 30, got %d", got)
	}
	t.Setenv("PERSONA_LOG_RETENTION_DAYS", "7")
	if got := RetentionDays(); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PERSONA_LOG_DIR", "/tmp/persona-logs")
	if got := FromEnv().Dir(); got != "/tmp/persona-logs" {
		t.Errorf("Expected /tmp/persona-logs, got %s", got)
	}
	t.Setenv("PERSONA_LOG_DIR", "")
	if got := FromEnv().Dir(); got != "logs" {
		t.Errorf("Expected logs, got %s", got)
	}
}
