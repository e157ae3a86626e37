package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"StockTracker/internal/model"
)

// NewsLimit is how many headlines a detail view shows.
const NewsLimit = 10

// Collector loads the reference data of a symbol detail view. Each call is a single fetch;
// nothing here is polled.
type Collector struct {
	Fetcher Fetcher
	log     *zap.SugaredLogger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log *zap.SugaredLogger) *Collector {
	return &Collector{Fetcher: fetcher, log: log}
}

// Detail fetches the profile and recent news of symbol. A news failure degrades to no news;
// a profile failure is returned.
func (c *Collector) Detail(ctx context.Context, symbol string) (*model.Detail, error) {
	profile, err := c.Fetcher.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	d := &model.Detail{Profile: profile}
	news, err := c.Fetcher.FetchNews(ctx, symbol, NewsLimit)
	if err != nil {
		c.log.Warnf("news for %s unavailable: %v", symbol, err)
		return d, nil
	}
	d.News = news
	return d, nil
}
