package recorder

import (
	"time"

	"StockTracker/internal/model"
)

// NoopRecorder is used when no SQLite path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuotes(time.Time, model.Snapshot, model.HighlightState) error {
	return nil
}
func (n *NoopRecorder) RecordBarRefresh(time.Time, string, model.BarSeries) error { return nil }
func (n *NoopRecorder) QuoteHistory(string, int) ([]QuoteRecord, error)           { return nil, nil }
func (n *NoopRecorder) Close() error                                              { return nil }
