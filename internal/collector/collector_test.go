package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockTracker/internal/model"
)

type stubFetcher struct {
	*MockFetcher
	profileErr error
	newsErr    error
	news       []model.NewsArticle
}

func (s *stubFetcher) FetchProfile(ctx context.Context, symbol string) (*model.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.MockFetcher.FetchProfile(ctx, symbol)
}

func (s *stubFetcher) FetchNews(_ context.Context, _ string, _ int) ([]model.NewsArticle, error) {
	return s.news, s.newsErr
}

func TestCollector_Detail(t *testing.T) {
	news := []model.NewsArticle{{Title: "Earnings beat", Publisher: "Wire"}}
	c := NewCollector(&stubFetcher{MockFetcher: NewMockFetcher(100, 1), news: news}, zap.NewNop().Sugar())

	d, err := c.Detail(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", d.Profile.Symbol)
	assert.Equal(t, news, d.News)
}

func TestCollector_NewsFailureDegrades(t *testing.T) {
	c := NewCollector(&stubFetcher{MockFetcher: NewMockFetcher(100, 1), newsErr: ErrUnsupported}, zap.NewNop().Sugar())

	d, err := c.Detail(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.NotNil(t, d.Profile)
	assert.Empty(t, d.News)
}

func TestCollector_ProfileFailure(t *testing.T) {
	boom := errors.New("401 unauthorized")
	c := NewCollector(&stubFetcher{MockFetcher: NewMockFetcher(100, 1), profileErr: boom}, zap.NewNop().Sugar())

	_, err := c.Detail(context.Background(), "AAPL")
	assert.ErrorIs(t, err, boom)
}

func TestMockFetcher_QuotesCoverEverySymbol(t *testing.T) {
	m := NewMockFetcher(100, 42)
	got, err := m.FetchQuotes(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for sym, q := range got {
		assert.Equal(t, sym, q.Symbol)
		assert.InDelta(t, 100, q.Price, 0.5)
		assert.InDelta(t, q.Price-100, q.Change, 1e-9)
	}
}

func TestGenerateMockBars_StrictlyIncreasing(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, newYork())
	bars := generateMockBars(100, day, day.AddDate(0, 0, 1))
	require.Len(t, bars, 390)
	for i := 1; i < len(bars); i++ {
		assert.Greater(t, bars[i].Timestamp, bars[i-1].Timestamp)
	}
}

func TestSessionDay(t *testing.T) {
	ny := newYork()
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"weekday", time.Date(2024, 3, 6, 15, 0, 0, 0, ny), time.Date(2024, 3, 6, 0, 0, 0, 0, ny)},
		{"saturday falls back to friday", time.Date(2024, 3, 9, 12, 0, 0, 0, ny), time.Date(2024, 3, 8, 0, 0, 0, 0, ny)},
		{"sunday falls back to friday", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), time.Date(2024, 3, 8, 0, 0, 0, 0, ny)},
		{"utc evening is still the ny day", time.Date(2024, 3, 6, 23, 0, 0, 0, time.UTC), time.Date(2024, 3, 6, 0, 0, 0, 0, ny)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionDay(tt.now)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}
