package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"StockTracker/internal/model"
)

// PolygonFetcher implements Fetcher using the Polygon.io REST API.
type PolygonFetcher struct {
	client *polygon.Client
}

// NewPolygonFetcher creates a fetcher with optional proxy support.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	return newPolygonFetcher(apiKey, newHTTPClient(proxyURL))
}

func newPolygonFetcher(apiKey string, hc *http.Client) *PolygonFetcher {
	return &PolygonFetcher{client: polygon.NewWithClient(apiKey, hc)}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func (f *PolygonFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.PriceUpdate, error) {
	out := make(map[string]model.PriceUpdate, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	tickers := strings.Join(symbols, ",")
	res, err := f.client.GetAllTickersSnapshot(ctx, &models.GetAllTickersSnapshotParams{
		Locale:     models.US,
		MarketType: models.Stocks,
		Tickers:    &tickers,
	})
	if err != nil {
		return nil, fmt.Errorf("polygon snapshot %s: %w", tickers, err)
	}

	for _, t := range res.Tickers {
		if t.Ticker == "" || t.LastTrade.Price == 0 {
			continue // no trade yet; leave the symbol absent
		}
		out[t.Ticker] = model.PriceUpdate{
			Symbol: t.Ticker,
			Price:  t.LastTrade.Price,
			Change: t.TodaysChange,
		}
	}
	return out, nil
}

func (f *PolygonFetcher) FetchQuote(ctx context.Context, symbol string) (model.PriceUpdate, error) {
	res, err := f.client.GetTickerSnapshot(ctx, &models.GetTickerSnapshotParams{
		Locale:     models.US,
		MarketType: models.Stocks,
		Ticker:     symbol,
	})
	if err != nil {
		return model.PriceUpdate{}, fmt.Errorf("polygon ticker snapshot %s: %w", symbol, err)
	}
	if res.Snapshot.LastTrade.Price == 0 {
		return model.PriceUpdate{}, fmt.Errorf("polygon ticker snapshot %s: no last trade", symbol)
	}
	return model.PriceUpdate{
		Symbol: symbol,
		Price:  res.Snapshot.LastTrade.Price,
		Change: res.Snapshot.TodaysChange,
	}, nil
}

func (f *PolygonFetcher) FetchSessionBars(ctx context.Context, symbol string, day time.Time) (model.BarSeries, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	params := &models.ListAggsParams{
		Ticker:     symbol,
		Timespan:   models.Minute,
		Multiplier: 1,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}
	lim := 50000
	asc := models.Asc
	adj := true
	params.Limit = &lim
	params.Order = &asc
	params.Adjusted = &adj

	iter := f.client.ListAggs(ctx, params)
	var bars []model.Bar
	for iter.Next() {
		a := iter.Item()
		bars = append(bars, model.Bar{
			Timestamp: time.Time(a.Timestamp).UnixMilli(),
			Open:      a.Open,
			High:      a.High,
			Low:       a.Low,
			Close:     a.Close,
			Volume:    a.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}
	return model.NormalizeSeries(bars), nil
}

func (f *PolygonFetcher) FetchProfile(ctx context.Context, symbol string) (*model.Profile, error) {
	res, err := f.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		return nil, fmt.Errorf("polygon ticker details %s: %w", symbol, err)
	}
	r := res.Results
	return &model.Profile{
		Symbol:          symbol,
		Name:            r.Name,
		Description:     r.Description,
		HomepageURL:     r.HomepageURL,
		PrimaryExchange: r.PrimaryExchange,
		MarketCap:       r.MarketCap,
	}, nil
}

func (f *PolygonFetcher) FetchNews(ctx context.Context, symbol string, limit int) ([]model.NewsArticle, error) {
	params := models.ListTickerNewsParams{}.
		WithTicker(models.EQ, symbol).
		WithSort(models.PublishedUTC).
		WithOrder(models.Desc).
		WithLimit(limit)

	iter := f.client.ListTickerNews(ctx, params)
	var out []model.NewsArticle
	for iter.Next() && len(out) < limit {
		n := iter.Item()
		out = append(out, model.NewsArticle{
			Title:       n.Title,
			Author:      n.Author,
			Publisher:   n.Publisher.Name,
			URL:         n.ArticleURL,
			PublishedAt: time.Time(n.PublishedUTC),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon news %s: %w", symbol, err)
	}
	return out, nil
}
