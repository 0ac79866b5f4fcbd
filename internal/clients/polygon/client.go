// Package polygon provides the market data client used by every scanner bot.
// Responses are adapted into normalized value objects at this boundary so the
// bots never touch provider-specific shapes.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned for 404 responses, which the provider uses for
// symbols with no trades yet.
var ErrNotFound = fmt.Errorf("polygon: not found")

// Client is a rate-limited HTTP client for the Polygon REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a polygon client.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		// The paid tier allows far more, but ~10 req/s keeps a dozen bots
		// comfortably inside any plan's ceiling.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     log.With().Str("client", "polygon").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SnapshotTickers fetches the full US equity market snapshot, normalized and
// unsorted. Used by the universe resolver's liquidity ranking.
func (c *Client) SnapshotTickers(ctx context.Context) ([]TickerSnapshot, error) {
	var payload snapshotResponse
	params := url.Values{"limit": {"1000"}}
	if err := c.get(ctx, "/v2/snapshot/locale/us/markets/stocks/tickers", params, &payload); err != nil {
		return nil, fmt.Errorf("snapshot tickers: %w", err)
	}

	out := make([]TickerSnapshot, 0, len(payload.Tickers))
	for _, t := range payload.Tickers {
		if t.Ticker == "" {
			continue
		}
		out = append(out, t.normalize())
	}
	return out, nil
}

// DailyBars fetches daily aggregates for symbol over [from, to], ascending.
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(symbol), from.Format("2006-01-02"), to.Format("2006-01-02"))
	params := url.Values{"sort": {"asc"}, "limit": {"120"}}

	var payload aggsResponse
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, r.normalize())
	}
	return bars, nil
}

// LastTrade fetches the most recent trade for a symbol (equity or option
// contract). Returns ErrNotFound when the provider has no trade on record.
func (c *Client) LastTrade(ctx context.Context, symbol string) (Trade, error) {
	path := "/v2/last/trade/" + url.PathEscape(symbol)

	var payload lastTradeResponse
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return Trade{}, fmt.Errorf("last trade %s: %w", symbol, err)
	}

	return Trade{
		Price: payload.Results.Price,
		Size:  payload.Results.Size,
		Time:  time.Unix(0, payload.Results.Timestamp).UTC(),
	}, nil
}

// get performs a rate-limited GET and decodes the JSON body into dest.
func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
