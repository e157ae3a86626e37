package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockTracker/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
// It needs no credential but has no profile or news endpoint.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:  newHTTPClient(proxyURL),
		BaseURL: "https://query1.finance.yahoo.com",
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func deref(v []*float64, i int) float64 {
	if i >= len(v) || v[i] == nil {
		return 0
	}
	return *v[i]
}

func (f *YahooFetcher) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, query url.Values) (*yahooChart, error) {
	var chart yahooChart
	path := fmt.Sprintf("/v8/finance/chart/%s?%s", url.PathEscape(symbol), query.Encode())
	if err := f.getJSON(ctx, path, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}
	return &chart, nil
}

func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (model.PriceUpdate, error) {
	chart, err := f.fetchChart(ctx, symbol, url.Values{"interval": {"1d"}, "range": {"1d"}})
	if err != nil {
		return model.PriceUpdate{}, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return model.PriceUpdate{}, fmt.Errorf("yahoo: no price for %s", symbol)
	}
	return model.PriceUpdate{
		Symbol: symbol,
		Price:  meta.RegularMarketPrice,
		Change: meta.RegularMarketPrice - meta.ChartPreviousClose,
	}, nil
}

// yahooSpark is the response structure from the Yahoo Finance spark API, which carries
// chart metadata for several symbols in one response.
type yahooSpark struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					ChartPreviousClose float64 `json:"chartPreviousClose"`
				} `json:"meta"`
			} `json:"response"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"spark"`
}

// FetchQuotes requests every symbol in one spark call. Symbols the response leaves out or
// reports without a price are absent from the result.
func (f *YahooFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.PriceUpdate, error) {
	out := make(map[string]model.PriceUpdate, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	query := url.Values{
		"symbols":  {strings.Join(symbols, ",")},
		"range":    {"1d"},
		"interval": {"1d"},
	}
	var spark yahooSpark
	if err := f.getJSON(ctx, "/v7/finance/spark?"+query.Encode(), &spark); err != nil {
		return nil, err
	}
	if spark.Spark.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", spark.Spark.Error.Description)
	}

	for _, r := range spark.Spark.Result {
		if len(r.Response) == 0 {
			continue
		}
		meta := r.Response[0].Meta
		if r.Symbol == "" || meta.RegularMarketPrice == 0 {
			continue
		}
		out[r.Symbol] = model.PriceUpdate{
			Symbol: r.Symbol,
			Price:  meta.RegularMarketPrice,
			Change: meta.RegularMarketPrice - meta.ChartPreviousClose,
		}
	}
	return out, nil
}

func (f *YahooFetcher) FetchSessionBars(ctx context.Context, symbol string, day time.Time) (model.BarSeries, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	chart, err := f.fetchChart(ctx, symbol, url.Values{
		"interval": {"1m"},
		"period1":  {fmt.Sprint(from.Unix())},
		"period2":  {fmt.Sprint(from.AddDate(0, 0, 1).Unix())},
	})
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.BarSeries{}, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := deref(quote.Close, i)
		if c == 0 {
			continue // null bar
		}
		bars = append(bars, model.Bar{
			Timestamp: ts * 1000,
			Open:      deref(quote.Open, i),
			High:      deref(quote.High, i),
			Low:       deref(quote.Low, i),
			Close:     c,
			Volume:    deref(quote.Volume, i),
		})
	}
	return model.NormalizeSeries(bars), nil
}

func (f *YahooFetcher) FetchProfile(_ context.Context, _ string) (*model.Profile, error) {
	return nil, fmt.Errorf("yahoo profile: %w", ErrUnsupported)
}

func (f *YahooFetcher) FetchNews(_ context.Context, _ string, _ int) ([]model.NewsArticle, error) {
	return nil, fmt.Errorf("yahoo news: %w", ErrUnsupported)
}
