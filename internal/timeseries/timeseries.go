package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Record is one row of chart data keyed by column label. Values are whatever
// the caller provides; the time column must parse via ParseTime.
type Record map[string]any

// TimeKey is the canonical label for the time column after normalization.
const TimeKey = "time"

// NormalizeLabels folds column labels to lowercase, renames "date" to "time",
// and backfills a missing time column from the row index. Labels listed in
// excludeLowercase keep their original casing (they are still renamed if the
// folded form would be "date"). Input records are not mutated.
func NormalizeLabels(recs []Record, excludeLowercase []string) []Record {
	exclude := make(map[string]bool, len(excludeLowercase))
	for _, l := range excludeLowercase {
		exclude[l] = true
	}

	out := make([]Record, len(recs))
	for i, rec := range recs {
		row := make(Record, len(rec)+1)
		for k, v := range rec {
			label := k
			if !exclude[k] {
				label = strings.ToLower(k)
			}
			if strings.ToLower(k) == "date" {
				label = TimeKey
			}
			row[label] = v
		}
		if _, ok := row[TimeKey]; !ok {
			row[TimeKey] = i
		}
		out[i] = row
	}
	return out
}

// ParseTime converts a time value from a Record into a time.Time. Numeric
// values are epoch milliseconds. Strings are tried as RFC 3339, then
// "2006-01-02 15:04:05", then a bare date.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable time string %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported time value of type %T", v)
	}
}
