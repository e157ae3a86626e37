package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"StockTracker/internal/model"
)

// MockFetcher returns a random walk around a base price, for offline development.
type MockFetcher struct {
	BasePrice float64

	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
}

// NewMockFetcher creates a MockFetcher seeded from seed.
func NewMockFetcher(basePrice float64, seed int64) *MockFetcher {
	return &MockFetcher{
		BasePrice: basePrice,
		rng:       rand.New(rand.NewSource(seed)),
		prices:    make(map[string]float64),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// step moves symbol's price by up to ±0.5% and returns it with the change from base.
func (m *MockFetcher) step(symbol string) model.PriceUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	if !ok {
		p = m.BasePrice
	}
	p *= 1 + (m.rng.Float64()-0.5)*0.01
	m.prices[symbol] = p
	return model.PriceUpdate{Symbol: symbol, Price: p, Change: p - m.BasePrice}
}

func (m *MockFetcher) FetchQuotes(_ context.Context, symbols []string) (map[string]model.PriceUpdate, error) {
	out := make(map[string]model.PriceUpdate, len(symbols))
	for _, s := range symbols {
		out[s] = m.step(s)
	}
	return out, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (model.PriceUpdate, error) {
	return m.step(symbol), nil
}

// FetchSessionBars generates one bar per minute from 09:30 New York time up to now or the close.
func (m *MockFetcher) FetchSessionBars(_ context.Context, _ string, day time.Time) (model.BarSeries, error) {
	return generateMockBars(m.BasePrice, day, time.Now()), nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, symbol string) (*model.Profile, error) {
	return &model.Profile{Symbol: symbol, Name: symbol + " Mock Corp", PrimaryExchange: "XNYS"}, nil
}

func (m *MockFetcher) FetchNews(_ context.Context, _ string, _ int) ([]model.NewsArticle, error) {
	return nil, nil
}

func generateMockBars(basePrice float64, day, now time.Time) model.BarSeries {
	open := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, newYork())
	closeAt := open.Add(390 * time.Minute)
	if now.Before(closeAt) {
		closeAt = now
	}
	var bars []model.Bar
	i := 0
	for t := open; t.Before(closeAt); t = t.Add(time.Minute) {
		p := basePrice * (1 + float64(i%60-30)*0.0005)
		bars = append(bars, model.Bar{
			Timestamp: t.UnixMilli(),
			Open:      p * 0.999,
			High:      p * 1.002,
			Low:       p * 0.998,
			Close:     p,
			Volume:    1000,
		})
		i++
	}
	return model.NormalizeSeries(bars)
}
