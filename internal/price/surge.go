// Package price resolves USD prices for asset symbols via the Switchboard
// Surge API, deduplicating lookups within a run.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource fetches USD quotes for trading pairs like "SOL/USD".
type QuoteSource interface {
	// GetPrice returns the price for one trading pair.
	GetPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	// GetPrices returns prices for several pairs at once. Pairs the source
	// cannot quote are absent from the result.
	GetPrices(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error)
}

// SurgeClient queries the Switchboard Surge price API.
type SurgeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewSurgeClient creates a new Surge API client.
func NewSurgeClient(baseURL, apiKey string, delay time.Duration, maxRetries int) *SurgeClient {
	return &SurgeClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

type surgeQuote struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// GetPrice fetches the price for one trading pair.
func (c *SurgeClient) GetPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/v1/price?pair=%s", c.baseURL, url.QueryEscape(pair))

	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return decimal.Zero, err
	}

	var quote surgeQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("parsing Surge response: %w", err)
	}

	return decimal.NewFromFloat(quote.Value), nil
}

// GetPrices fetches prices for several pairs in one request.
func (c *SurgeClient) GetPrices(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	if len(pairs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	u := fmt.Sprintf("%s/v1/prices?pairs=%s", c.baseURL, url.QueryEscape(strings.Join(pairs, ",")))

	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	var quotes []surgeQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("parsing Surge response: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = decimal.NewFromFloat(q.Value)
	}
	return prices, nil
}

func (c *SurgeClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating Surge request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("Surge request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading Surge response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("Surge rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("Surge HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
