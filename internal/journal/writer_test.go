package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "chart-test", 16, 1)

	w.Record(`chart_1.chart.timeScale().fitContent()`)
	w.Record(`chart_1.series.update({"time": 1700000000, "close": 42})`)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, date, "chart-test.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var fragments []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad journal line %q: %v", scanner.Text(), err)
		}
		if e.TS == "" {
			t.Fatalf("entry missing timestamp: %q", scanner.Text())
		}
		if _, err := time.Parse(time.RFC3339Nano, e.TS); err != nil {
			t.Fatalf("timestamp %q not RFC3339Nano: %v", e.TS, err)
		}
		fragments = append(fragments, e.Fragment)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan journal: %v", err)
	}

	want := []string{
		`chart_1.chart.timeScale().fitContent()`,
		`chart_1.series.update({"time": 1700000000, "close": 42})`,
	}
	if len(fragments) != len(want) {
		t.Fatalf("journal lines = %d; want %d", len(fragments), len(want))
	}
	for i := range want {
		if fragments[i] != want[i] {
			t.Fatalf("fragment[%d] = %q; want %q", i, fragments[i], want[i])
		}
	}
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "chart-test", 16, 1)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Must not panic or block.
	w.Record("noop()")
}
