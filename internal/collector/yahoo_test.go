package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yahooServer(t *testing.T) *YahooFetcher {
	f, _ := yahooServerWithLog(t)
	return f
}

func yahooServerWithLog(t *testing.T) (*YahooFetcher, *requestLog) {
	t.Helper()
	rec := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL)
		if r.URL.Path == "/v7/finance/spark" {
			writeSpark(w, strings.Split(r.URL.Query().Get("symbols"), ","))
			return
		}
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		switch sym {
		case "AAPL":
			fmt.Fprint(w, `{"chart":{"result":[{
				"meta":{"symbol":"AAPL","regularMarketPrice":190.5,"chartPreviousClose":188.0},
				"timestamp":[1709740860,1709740800,1709740920],
				"indicators":{"quote":[{
					"open":[190.1,190.0,null],"high":[190.6,190.2,null],
					"low":[190.0,189.9,null],"close":[190.5,190.1,null],"volume":[200,100,null]}]}}],
				"error":null}}`)
		case "BAD":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		default:
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		}
	}))
	t.Cleanup(srv.Close)

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	return f, rec
}

// writeSpark answers AAPL and MSFT, reports NOPE without a price and leaves anything else out.
func writeSpark(w http.ResponseWriter, symbols []string) {
	if len(symbols) == 1 && symbols[0] == "BAD" {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"spark":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		return
	}
	var parts []string
	for _, s := range symbols {
		switch s {
		case "AAPL":
			parts = append(parts, `{"symbol":"AAPL","response":[{"meta":{"regularMarketPrice":190.5,"chartPreviousClose":188.0}}]}`)
		case "MSFT":
			parts = append(parts, `{"symbol":"MSFT","response":[{"meta":{"regularMarketPrice":410.0,"chartPreviousClose":412.0}}]}`)
		case "NOPE":
			parts = append(parts, `{"symbol":"NOPE","response":[{"meta":{}}]}`)
		}
	}
	fmt.Fprintf(w, `{"spark":{"result":[%s],"error":null}}`, strings.Join(parts, ","))
}

func TestYahoo_FetchQuote(t *testing.T) {
	f := yahooServer(t)
	q, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, q.Price)
	assert.InDelta(t, 2.5, q.Change, 1e-9)
}

func TestYahoo_FetchQuotesSingleBatch(t *testing.T) {
	f, rec := yahooServerWithLog(t)
	got, err := f.FetchQuotes(context.Background(), []string{"AAPL", "MSFT", "NOPE", "GONE"})
	require.NoError(t, err)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v7/finance/spark", reqs[0].Path)
	assert.Equal(t, "AAPL,MSFT,NOPE,GONE", reqs[0].Query().Get("symbols"))

	require.Len(t, got, 2)
	assert.Equal(t, 190.5, got["AAPL"].Price)
	assert.InDelta(t, -2.0, got["MSFT"].Change, 1e-9)
	assert.NotContains(t, got, "NOPE")
	assert.NotContains(t, got, "GONE")
}

func TestYahoo_FetchQuotesRequestFailure(t *testing.T) {
	f := yahooServer(t)
	_, err := f.FetchQuotes(context.Background(), []string{"BAD"})
	assert.ErrorContains(t, err, "status 404")
}

func TestYahoo_FetchQuotesEmpty(t *testing.T) {
	f, rec := yahooServerWithLog(t)
	got, err := f.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rec.all())
}

func TestYahoo_FetchSessionBarsSortedAndNullsDropped(t *testing.T) {
	f := yahooServer(t)
	bars, err := f.FetchSessionBars(context.Background(), "AAPL", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int64(1709740800000), bars[0].Timestamp)
	assert.Equal(t, int64(1709740860000), bars[1].Timestamp)
	assert.Equal(t, 190.5, bars[1].Close)
}

func TestYahoo_ProfileUnsupported(t *testing.T) {
	f := NewYahooFetcher("")
	_, err := f.FetchProfile(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnsupported)
}
