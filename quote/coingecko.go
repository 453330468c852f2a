// Package quote implements the upstream price collaborators: a CoinGecko
// client covering bulk quotes and coin resolution, and a Binance alternative
// for registries keyed by exchange symbols.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"

	"github.com/coinward/coinward/core"
)

const defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches USD quotes from the CoinGecko simple-price API and
// resolves free-form coin names through its search endpoint.
type CoinGecko struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	attempts int
	backoff  backoff.Backoff
}

// CoinGeckoOption configures a CoinGecko client.
type CoinGeckoOption func(*CoinGecko)

// WithAPIKey sets the x-cg-api-key header on every request.
func WithAPIKey(key string) CoinGeckoOption {
	return func(c *CoinGecko) { c.apiKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) CoinGeckoOption {
	return func(c *CoinGecko) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) CoinGeckoOption {
	return func(c *CoinGecko) { c.client = client }
}

func NewCoinGecko(options ...CoinGeckoOption) *CoinGecko {
	c := &CoinGecko{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  defaultCoinGeckoURL,
		attempts: 3,
		backoff: backoff.Backoff{
			Min:    500 * time.Millisecond,
			Max:    5 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// GetQuotes fetches USD prices for all ids in a single request. Transient
// upstream failures are retried with exponential backoff before giving up.
func (c *CoinGecko) GetQuotes(ctx context.Context, coinIDs []string) (core.Quotes, error) {
	if len(coinIDs) == 0 {
		return core.Quotes{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(coinIDs, ","))
	params.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	var payload map[string]struct {
		USD decimal.Decimal `json:"usd"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("coingecko simple price: %w", err)
	}

	quotes := make(core.Quotes, len(payload))
	for id, entry := range payload {
		quotes[id] = entry.USD
	}
	return quotes, nil
}

// Resolve finds the best-matching coin for a user query via /search.
func (c *CoinGecko) Resolve(ctx context.Context, query string) (string, string, error) {
	params := url.Values{}
	params.Set("query", query)
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var payload struct {
		Coins []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"coins"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return "", "", fmt.Errorf("coingecko search: %w", err)
	}
	if len(payload.Coins) == 0 {
		return "", "", core.ErrUnknownCoin
	}
	return payload.Coins[0].ID, payload.Coins[0].Name, nil
}

func (c *CoinGecko) getJSON(ctx context.Context, endpoint string, out any) error {
	retry := c.backoff
	retry.Reset()

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-api-key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("decode response: %w", err)
			continue
		}
		return nil
	}
	return lastErr
}
