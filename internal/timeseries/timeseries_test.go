package timeseries

import (
	"testing"
	"time"
)

func TestNormalizeLabels(t *testing.T) {
	recs := []Record{
		{"Date": "2023-01-02", "Open": 1.0, "CLOSE": 2.0, "MyCol": 3.0},
	}
	out := NormalizeLabels(recs, []string{"MyCol"})

	row := out[0]
	if _, ok := row["time"]; !ok {
		t.Fatalf("Date not renamed to time: %v", row)
	}
	if _, ok := row["open"]; !ok {
		t.Fatalf("Open not folded to lowercase: %v", row)
	}
	if _, ok := row["close"]; !ok {
		t.Fatalf("CLOSE not folded to lowercase: %v", row)
	}
	if _, ok := row["MyCol"]; !ok {
		t.Fatalf("excluded label MyCol was folded: %v", row)
	}
	if _, ok := recs[0]["Date"]; !ok {
		t.Fatalf("input record was mutated: %v", recs[0])
	}
}

func TestNormalizeLabelsIndexFallback(t *testing.T) {
	recs := []Record{
		{"value": 1.0},
		{"value": 2.0},
	}
	out := NormalizeLabels(recs, nil)
	for i, row := range out {
		got, ok := row["time"]
		if !ok {
			t.Fatalf("row %d missing time column: %v", i, row)
		}
		if got != i {
			t.Fatalf("row %d time = %v, want index %d", i, got, i)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2023, 6, 1, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   any
	}{
		{"time.Time", want},
		{"epoch millis int64", want.UnixMilli()},
		{"epoch millis float64", float64(want.UnixMilli())},
		{"rfc3339", "2023-06-01T14:30:00Z"},
		{"datetime string", "2023-06-01 14:30:00"},
	}
	for _, tc := range cases {
		got, err := ParseTime(tc.in)
		if err != nil {
			t.Fatalf("ParseTime(%s) failed: %v", tc.name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTime(%s) = %v, want %v", tc.name, got, want)
		}
	}

	day, err := ParseTime("2023-06-01")
	if err != nil {
		t.Fatalf("ParseTime(date) failed: %v", err)
	}
	if !day.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseTime(date) = %v", day)
	}

	if _, err := ParseTime("not a time"); err == nil {
		t.Fatal("ParseTime accepted garbage string")
	}
	if _, err := ParseTime(struct{}{}); err == nil {
		t.Fatal("ParseTime accepted unsupported type")
	}
}

func TestInferFromMinuteBars(t *testing.T) {
	start := time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)
	times := make([]time.Time, 20)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Minute)
	}
	// One irregular gap must not disturb the mode.
	times[10] = times[10].Add(3 * time.Minute)

	n := NewNormalizer()
	n.InferFrom(times)
	if n.Interval != time.Minute {
		t.Fatalf("Interval = %v, want %v", n.Interval, time.Minute)
	}
	if n.Offset != 0 {
		t.Fatalf("Offset = %v, want 0", n.Offset)
	}
}

func TestInferFromDailyBarsWithOffset(t *testing.T) {
	start := time.Date(2023, 6, 1, 17, 0, 0, 0, time.UTC)
	times := make([]time.Time, 10)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
	}

	n := NewNormalizer()
	n.InferFrom(times)
	if n.Interval != 24*time.Hour {
		t.Fatalf("Interval = %v, want 24h", n.Interval)
	}
	if n.Offset != 17*time.Hour {
		t.Fatalf("Offset = %v, want 17h", n.Offset)
	}

	// A tick mid-bar must land on the bar's own timestamp.
	tick := time.Date(2023, 6, 5, 19, 42, 13, 0, time.UTC)
	got := n.Align(tick)
	want := time.Date(2023, 6, 5, 17, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("Align(%v) = %d, want %d", tick, got, want)
	}
}

func TestInferFromKeepsPriorOnShortInput(t *testing.T) {
	n := &Normalizer{Interval: 5 * time.Minute, Offset: 30 * time.Second}
	n.InferFrom([]time.Time{time.Now()})
	if n.Interval != 5*time.Minute || n.Offset != 30*time.Second {
		t.Fatalf("short input changed normalizer: %+v", n)
	}
}

func TestAlignIsIdempotent(t *testing.T) {
	n := &Normalizer{Interval: time.Hour, Offset: 15 * time.Minute}
	tick := time.Date(2023, 6, 1, 10, 47, 3, 0, time.UTC)

	once := n.Align(tick)
	twice := n.Align(time.Unix(once, 0).UTC())
	if once != twice {
		t.Fatalf("Align not idempotent: %d then %d", once, twice)
	}
}
