package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockTracker/internal/collector"
	"StockTracker/internal/console"
	"StockTracker/internal/model"
	"StockTracker/internal/quotes"
	"StockTracker/internal/recorder"
	"StockTracker/internal/watchlist"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingRecorder struct {
	mu      sync.Mutex
	quotes  int
	bars    int
	history []recorder.QuoteRecord
}

func (r *countingRecorder) RecordQuotes(at time.Time, snap model.Snapshot, hl model.HighlightState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes++
	for sym, q := range snap {
		r.history = append(r.history, recorder.QuoteRecord{
			Timestamp: at, Symbol: sym, Price: q.CurrentPrice, Change: q.PriceChange, Direction: hl[sym],
		})
	}
	return nil
}

func (r *countingRecorder) QuoteHistory(symbol string, limit int) ([]recorder.QuoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recorder.QuoteRecord
	for _, rec := range r.history {
		if rec.Symbol == symbol {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *countingRecorder) RecordBarRefresh(time.Time, string, model.BarSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars++
	return nil
}

func (r *countingRecorder) Close() error { return nil }

func (r *countingRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quotes, r.bars
}

type testApp struct {
	*App
	store *watchlist.FileStore
	rec   *countingRecorder
	out   *lockedBuffer
}

func newTestApp(t *testing.T, pageSize int) *testApp {
	t.Helper()
	store := watchlist.NewFileStore(filepath.Join(t.TempDir(), "watchlist.json"))
	rec := &countingRecorder{}
	out := &lockedBuffer{}
	// a Tuesday evening, after the close
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC))
	a := New(collector.NewMockFetcher(100, 7), store, rec, console.NewOutput(out), zap.NewNop().Sugar(), Options{
		QuotePollInterval: time.Hour,
		ChartPollInterval: time.Hour,
		HighlightDuration: time.Second,
		PageSize:          pageSize,
		Timezone:          "EST",
		Clock:             clock,
	})
	t.Cleanup(a.Stop)
	return &testApp{App: a, store: store, rec: rec, out: out}
}

func (ta *testApp) run(t *testing.T, cmd string) string {
	t.Helper()
	reply, err := ta.HandleCommand(context.Background(), cmd)
	require.NoError(t, err, cmd)
	return reply
}

func TestAddAndRemovePersistWatchlist(t *testing.T) {
	ta := newTestApp(t, 10)
	ctx := context.Background()

	reply := ta.run(t, "add aapl Apple Inc")
	assert.Contains(t, reply, "AAPL")
	assert.Contains(t, reply, "Apple Inc")

	saved, err := ta.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.TrackedSymbol{{Symbol: "AAPL", Name: "Apple Inc"}}, saved)

	_, err = ta.HandleCommand(ctx, "add AAPL")
	assert.ErrorIs(t, err, quotes.ErrAlreadyTracked)

	ta.run(t, "rm AAPL")
	saved, err = ta.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)

	_, err = ta.HandleCommand(ctx, "rm AAPL")
	assert.Error(t, err)
	_, err = ta.HandleCommand(ctx, "add")
	assert.Error(t, err)
}

func TestPagingClampsWhenTrackedSetShrinks(t *testing.T) {
	ta := newTestApp(t, 10)
	for i := 0; i < 25; i++ {
		ta.run(t, fmt.Sprintf("add S%02d", i))
	}

	reply := ta.run(t, "page 3")
	assert.Equal(t, 2, ta.Page())
	assert.Contains(t, reply, "page 3/3")

	_, err := ta.HandleCommand(context.Background(), "page 4")
	assert.Error(t, err)
	assert.Equal(t, 2, ta.Page(), "invalid input keeps the current page")

	ta.run(t, "page 2")
	assert.Equal(t, 1, ta.Page())

	ta.run(t, "next")
	ta.run(t, "next")
	assert.Equal(t, 2, ta.Page())

	for i := 15; i < 25; i++ {
		ta.run(t, fmt.Sprintf("rm S%02d", i))
	}
	assert.Equal(t, 1, ta.Page())

	ta.run(t, "prev")
	ta.run(t, "prev")
	assert.Equal(t, 0, ta.Page())
}

func TestChartZoomSurvivesRefresh(t *testing.T) {
	ta := newTestApp(t, 10)

	reply := ta.run(t, "chart aapl")
	assert.Contains(t, reply, "AAPL")
	assert.Contains(t, reply, "full session")
	require.Len(t, ta.Canvas.Series(), 390)

	reply = ta.run(t, "zoom 10:00 11:00")
	assert.Contains(t, reply, "10:00 AM")
	zoom := ta.Canvas.VisibleRange()
	require.NotNil(t, zoom)
	assert.Len(t, ta.Canvas.Visible(), 61)

	ta.run(t, "refresh")
	assert.Equal(t, zoom, ta.Canvas.VisibleRange())

	ta.run(t, "unzoom")
	assert.Nil(t, ta.Canvas.VisibleRange())

	_, bars := ta.rec.counts()
	assert.Equal(t, 2, bars)

	_, err := ta.HandleCommand(context.Background(), "zoom 11:00 10:00")
	assert.Error(t, err)
}

func TestZoomWithoutChart(t *testing.T) {
	ta := newTestApp(t, 10)
	_, err := ta.HandleCommand(context.Background(), "zoom 10:00 11:00")
	assert.Error(t, err)
}

func TestTimezone(t *testing.T) {
	ta := newTestApp(t, 10)
	ta.run(t, "chart AAPL")

	reply := ta.run(t, "tz pst")
	assert.Equal(t, "PST", ta.Zone())
	assert.Contains(t, reply, "PST")

	_, err := ta.HandleCommand(context.Background(), "tz CET")
	assert.Error(t, err)
	assert.Equal(t, "PST", ta.Zone())
}

func TestLiveToggle(t *testing.T) {
	ta := newTestApp(t, 10)
	ta.run(t, "chart AAPL")
	assert.Contains(t, ta.run(t, "live on"), "on")
	assert.True(t, ta.Chart.PollingEnabled())
	ta.run(t, "live off")
	assert.False(t, ta.Chart.PollingEnabled())

	_, err := ta.HandleCommand(context.Background(), "live maybe")
	assert.Error(t, err)
}

func TestRefreshRecordsQuotes(t *testing.T) {
	ta := newTestApp(t, 10)
	ta.run(t, "add MSFT Microsoft")
	ta.run(t, "refresh")
	ta.run(t, "refresh")

	q, _ := ta.rec.counts()
	assert.Equal(t, 2, q)
	assert.Contains(t, ta.out.String(), "MSFT", "table is re-rendered on refresh")
}

func TestHistoryReadsRecordedQuotes(t *testing.T) {
	ta := newTestApp(t, 10)
	ctx := context.Background()

	assert.Contains(t, ta.run(t, "history aapl"), "no history")

	ta.run(t, "add MSFT Microsoft")
	ta.run(t, "refresh")
	ta.run(t, "refresh")
	ta.run(t, "refresh")

	reply := ta.run(t, "history msft 2")
	assert.Contains(t, reply, "MSFT")
	assert.Equal(t, 2, strings.Count(reply, "Mar 05"), "one line per requested row")
	assert.Equal(t, 3, strings.Count(ta.run(t, "history MSFT"), "Mar 05"))

	for _, bad := range []string{"history", "history MSFT zero", "history MSFT 0", "history A B C"} {
		_, err := ta.HandleCommand(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestInfo(t *testing.T) {
	ta := newTestApp(t, 10)
	reply := ta.run(t, "info tsla")
	assert.Contains(t, reply, "TSLA Mock Corp")
	assert.Contains(t, reply, "no articles")
}

func TestStartLoadsWatchlist(t *testing.T) {
	ta := newTestApp(t, 10)
	ctx := context.Background()
	require.NoError(t, ta.store.Save(ctx, []model.TrackedSymbol{{Symbol: "NVDA", Name: "Nvidia"}}))

	reply, err := ta.Start(ctx)
	require.NoError(t, err)
	assert.Contains(t, reply, "NVDA")
	assert.Equal(t, []model.TrackedSymbol{{Symbol: "NVDA", Name: "Nvidia"}}, ta.Quotes.Tracked())
	assert.Eventually(t, func() bool {
		_, ok := ta.Quotes.View().Snapshot["NVDA"]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestMiscCommands(t *testing.T) {
	ta := newTestApp(t, 10)
	ctx := context.Background()

	assert.Contains(t, ta.run(t, "help"), "quit")
	assert.Contains(t, ta.run(t, "table"), "no tracked symbols")

	_, err := ta.HandleCommand(ctx, "frobnicate")
	assert.Error(t, err)

	reply, err := ta.HandleCommand(ctx, "quit")
	assert.ErrorIs(t, err, console.ErrQuit)
	assert.Equal(t, "bye", reply)
}
