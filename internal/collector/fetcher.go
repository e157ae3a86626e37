package collector

import (
	"context"
	"errors"
	"time"

	"StockTracker/internal/model"
)

// ErrUnsupported is returned by sources that lack an endpoint.
var ErrUnsupported = errors.New("not supported by this data source")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchQuotes performs one batched snapshot request for all symbols. Symbols the
	// source has no price for are absent from the result.
	FetchQuotes(ctx context.Context, symbols []string) (map[string]model.PriceUpdate, error)
	// FetchQuote looks up a single ticker, used to seed a newly tracked symbol.
	FetchQuote(ctx context.Context, symbol string) (model.PriceUpdate, error)
	// FetchSessionBars returns the 1-minute bars of the trading session on day, ascending.
	FetchSessionBars(ctx context.Context, symbol string, day time.Time) (model.BarSeries, error)
	FetchProfile(ctx context.Context, symbol string) (*model.Profile, error)
	FetchNews(ctx context.Context, symbol string, limit int) ([]model.NewsArticle, error)
	Name() string
}
