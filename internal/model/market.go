package model

import (
	"sort"
	"time"
)

// Bar represents a single intraday candlestick. Timestamp is epoch milliseconds, UTC.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Time returns the bar's instant in UTC.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// BarSeries is a session's bars, strictly increasing by Timestamp.
type BarSeries []Bar

// NormalizeSeries sorts bars by time and drops duplicate timestamps, keeping the last one seen.
func NormalizeSeries(bars []Bar) BarSeries {
	if len(bars) == 0 {
		return BarSeries{}
	}
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	out := make(BarSeries, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Timestamp == b.Timestamp {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// FullRange returns the series' first and last timestamps. ok is false for an empty series.
func (s BarSeries) FullRange() (r ViewportRange, ok bool) {
	if len(s) == 0 {
		return ViewportRange{}, false
	}
	return ViewportRange{Min: s[0].Timestamp, Max: s[len(s)-1].Timestamp}, true
}

// ViewportRange is the visible time window of a chart, in epoch milliseconds.
type ViewportRange struct {
	Min int64
	Max int64
}

// Contains reports whether ts lies inside the range, bounds included.
func (r ViewportRange) Contains(ts int64) bool {
	return ts >= r.Min && ts <= r.Max
}
