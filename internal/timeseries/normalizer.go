package timeseries

import "time"

// Normalizer quantizes timestamps onto a fixed grid so single-point updates
// land on the same bar the bulk data established. Interval is the bar width
// and Offset shifts the grid, e.g. daily bars stamped at 17:00 keep a
// 17-hour offset so updates do not drift to midnight.
type Normalizer struct {
	Interval time.Duration
	Offset   time.Duration
}

// NewNormalizer returns a Normalizer with a one second interval and no
// offset, the defaults used before any data has been seen.
func NewNormalizer() *Normalizer {
	return &Normalizer{Interval: time.Second}
}

// InferFrom derives Interval and Offset from a sorted series of timestamps.
// The interval is the most common difference between consecutive values. The
// offset is taken from the most common value of each calendar component,
// scanned from the smallest unit up: the first nonzero component wins unless
// it is at least one full interval, in which case the offset stays zero.
// Fewer than two timestamps leave both fields unchanged.
func (n *Normalizer) InferFrom(times []time.Time) {
	if len(times) < 2 {
		return
	}

	diffs := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		diffs = append(diffs, times[i].Sub(times[i-1]))
	}
	n.Interval = modeDuration(diffs)

	micros := make([]int, len(times))
	seconds := make([]int, len(times))
	minutes := make([]int, len(times))
	hours := make([]int, len(times))
	days := make([]int, len(times))
	for i, t := range times {
		micros[i] = t.Nanosecond() / int(time.Microsecond)
		seconds[i] = t.Second()
		minutes[i] = t.Minute()
		hours[i] = t.Hour()
		days[i] = t.Day()
	}
	units := []time.Duration{
		time.Duration(modeInt(micros)) * time.Microsecond,
		time.Duration(modeInt(seconds)) * time.Second,
		time.Duration(modeInt(minutes)) * time.Minute,
		time.Duration(modeInt(hours)) * time.Hour,
		time.Duration(modeInt(days)) * 24 * time.Hour,
	}

	n.Offset = 0
	for _, value := range units {
		if value == 0 {
			continue
		}
		if value >= n.Interval {
			break
		}
		n.Offset = value
		break
	}
}

// Align snaps a timestamp onto the grid and returns it as unix seconds, the
// representation the chart library consumes.
func (n *Normalizer) Align(t time.Time) int64 {
	iv := int64(n.Interval / time.Second)
	if iv <= 0 {
		iv = 1
	}
	sec := t.Unix()
	q := sec / iv
	if sec%iv < 0 {
		q--
	}
	return iv*q + int64(n.Offset/time.Second)
}

func modeDuration(vals []time.Duration) time.Duration {
	counts := make(map[time.Duration]int, len(vals))
	best := vals[0]
	for _, v := range vals {
		counts[v]++
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func modeInt(vals []int) int {
	counts := make(map[int]int, len(vals))
	best := vals[0]
	for _, v := range vals {
		counts[v]++
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
