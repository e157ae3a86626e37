package recorder

import (
	"time"

	"StockTracker/internal/model"
)

// QuoteRecord is one row of quote history.
type QuoteRecord struct {
	Timestamp time.Time
	Symbol    string
	Price     float64
	Change    float64
	Direction model.Direction
}

// BarRefresh summarizes one applied chart series replacement.
type BarRefresh struct {
	Timestamp time.Time
	Symbol    string
	Bars      int
	FirstBar  int64 // epoch ms
	LastBar   int64 // epoch ms
	LastClose float64
}

// Recorder persists quote and chart history for later analysis.
type Recorder interface {
	RecordQuotes(at time.Time, snap model.Snapshot, highlights model.HighlightState) error
	RecordBarRefresh(at time.Time, symbol string, series model.BarSeries) error
	// QuoteHistory returns the latest limit records for symbol, oldest first.
	QuoteHistory(symbol string, limit int) ([]QuoteRecord, error)
	Close() error
}

// NewBarRefresh summarizes series.
func NewBarRefresh(at time.Time, symbol string, series model.BarSeries) BarRefresh {
	r := BarRefresh{Timestamp: at, Symbol: symbol, Bars: len(series)}
	if full, ok := series.FullRange(); ok {
		r.FirstBar, r.LastBar = full.Min, full.Max
		r.LastClose = series[len(series)-1].Close
	}
	return r
}
