package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockTracker/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordQuotes(t *testing.T) {
	r := openTestRecorder(t)
	t0 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	snap := model.Snapshot{
		"AAPL": {Symbol: "AAPL", CurrentPrice: 180, PriceChange: 1.5},
		"MSFT": {Symbol: "MSFT", CurrentPrice: 400, PriceChange: -2},
	}
	require.NoError(t, r.RecordQuotes(t0, snap, nil))
	snap["AAPL"] = model.Quote{Symbol: "AAPL", CurrentPrice: 181, PriceChange: 2.5}
	require.NoError(t, r.RecordQuotes(t0.Add(5*time.Second), snap, model.HighlightState{"AAPL": model.DirectionUp}))

	hist, err := r.QuoteHistory("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 180.0, hist[0].Price)
	assert.Equal(t, model.Direction(""), hist[0].Direction)
	assert.Equal(t, 181.0, hist[1].Price)
	assert.Equal(t, model.DirectionUp, hist[1].Direction)
	assert.True(t, t0.Add(5*time.Second).Equal(hist[1].Timestamp))
}

func TestSQLiteRecorder_QuoteHistoryKeepsLatest(t *testing.T) {
	r := openTestRecorder(t)
	t0 := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := model.Snapshot{"AAPL": {Symbol: "AAPL", CurrentPrice: 100 + float64(i)}}
		require.NoError(t, r.RecordQuotes(t0.Add(time.Duration(i)*time.Second), snap, nil))
	}

	hist, err := r.QuoteHistory("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 103.0, hist[0].Price)
	assert.Equal(t, 104.0, hist[1].Price)
}

func TestSQLiteRecorder_EmptySnapshot(t *testing.T) {
	r := openTestRecorder(t)
	require.NoError(t, r.RecordQuotes(time.Now(), model.Snapshot{}, nil))
	hist, err := r.QuoteHistory("AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestSQLiteRecorder_RecordBarRefresh(t *testing.T) {
	r := openTestRecorder(t)
	series := model.BarSeries{{Timestamp: 1000, Close: 10}, {Timestamp: 2000, Close: 11}}
	require.NoError(t, r.RecordBarRefresh(time.Now(), "AAPL", series))

	var bars int
	var last float64
	require.NoError(t, r.db.QueryRow(`SELECT bars, last_close FROM bar_refreshes WHERE symbol = 'AAPL'`).Scan(&bars, &last))
	assert.Equal(t, 2, bars)
	assert.Equal(t, 11.0, last)
}

func TestNewBarRefresh(t *testing.T) {
	at := time.Now()
	b := NewBarRefresh(at, "AAPL", model.BarSeries{{Timestamp: 5, Close: 1}, {Timestamp: 9, Close: 2}})
	assert.Equal(t, int64(5), b.FirstBar)
	assert.Equal(t, int64(9), b.LastBar)
	assert.Equal(t, 2.0, b.LastClose)

	empty := NewBarRefresh(at, "AAPL", nil)
	assert.Zero(t, empty.Bars)
	assert.Zero(t, empty.LastClose)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordQuotes(time.Now(), model.Snapshot{"A": {}}, nil))
	assert.NoError(t, r.RecordBarRefresh(time.Now(), "A", nil))
	assert.NoError(t, r.Close())
}
