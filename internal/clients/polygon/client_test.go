package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", zerolog.Nop())
}

func TestSnapshotTickers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/snapshot/locale/us/markets/stocks/tickers", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tickers": [
				{"ticker":"AAPL","todaysChangePerc":1.5,"day":{"c":230.1,"v":5000000},"prevDay":{"c":226.7}},
				{"ticker":"","day":{"v":1}},
				{"ticker":"TSLA","todaysChangePerc":-2.0,"day":{"c":250.0,"v":9000000},"prevDay":{"c":255.1}}
			]
		}`))
	})

	got, err := c.SnapshotTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2) // nameless record dropped

	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, 5_000_000.0, got[0].DayVolume)
	assert.Equal(t, 226.7, got[0].PrevClose)
	assert.Equal(t, 1.5, got[0].TodayChangePct)
	assert.Equal(t, "TSLA", got[1].Symbol)
}

func TestDailyBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/AAPL/range/1/day/2026-08-01/2026-08-26", r.URL.Path)
		assert.Equal(t, "asc", r.URL.Query().Get("sort"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"t":1754001000000,"o":1,"h":2,"l":0.5,"c":1.5,"v":1000},
				{"t":1754087400000,"o":1.5,"h":3,"l":1,"c":2.5,"v":2000}
			]
		}`))
	})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	bars, err := c.DailyBars(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 2000.0, bars[1].Volume)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestLastTrade_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.LastTrade(context.Background(), "O:AAPL260918C00230000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_ErrorStatusIncludesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := c.SnapshotTickers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("http://x", "", zerolog.Nop()).Configured())
	assert.True(t, NewClient("http://x", "k", zerolog.Nop()).Configured())
}
