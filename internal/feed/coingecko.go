// Package feed implements the external market-data collaborators: the
// CoinGecko price feed, the news-based sentiment feed, and the DEX
// liquidity source.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// CoinGeckoFeed implements domain.PriceFeed against the CoinGecko REST
// API, quoting prices in the configured vs-currency.
type CoinGeckoFeed struct {
	baseURL    string
	vsCurrency string
	retries    int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCoinGeckoFeed creates a price feed client. baseURL is the API root,
// e.g. "https://api.coingecko.com". retries bounds the local retry loop
// for current-price lookups.
func NewCoinGeckoFeed(baseURL, vsCurrency string, retries int, logger *slog.Logger) *CoinGeckoFeed {
	if retries < 1 {
		retries = 1
	}
	return &CoinGeckoFeed{
		baseURL:    baseURL,
		vsCurrency: vsCurrency,
		retries:    retries,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(slog.String("component", "coingecko_feed")),
	}
}

// CurrentPrice returns the spot price of the asset. Transient failures are
// retried up to the configured bound before the error propagates.
func (f *CoinGeckoFeed) CurrentPrice(ctx context.Context, asset string) (float64, error) {
	params := url.Values{}
	params.Set("ids", asset)
	params.Set("vs_currencies", f.vsCurrency)
	path := "/api/v3/simple/price?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		body, err := f.doGet(ctx, path)
		if err != nil {
			lastErr = err
			f.logger.Warn("price fetch failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", f.retries),
				slog.String("error", err.Error()),
			)
			continue
		}

		var payload map[string]map[string]float64
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = fmt.Errorf("feed: decode price: %w", err)
			continue
		}

		price, ok := payload[asset][f.vsCurrency]
		if !ok {
			lastErr = fmt.Errorf("feed: no %s price for %s: %w", f.vsCurrency, asset, domain.ErrDataUnavailable)
			continue
		}
		return price, nil
	}

	return 0, fmt.Errorf("feed: current price after %d attempts: %w", f.retries, lastErr)
}

// HistoricalPrices returns the last days of daily prices, oldest first.
func (f *CoinGeckoFeed) HistoricalPrices(ctx context.Context, asset string, days int) ([]float64, error) {
	params := url.Values{}
	params.Set("vs_currency", f.vsCurrency)
	params.Set("days", strconv.Itoa(days))
	path := fmt.Sprintf("/api/v3/coins/%s/market_chart?%s", url.PathEscape(asset), params.Encode())

	body, err := f.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("feed: historical prices: %w", err)
	}

	// CoinGecko returns [timestamp, price] pairs ordered oldest first.
	var payload struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("feed: decode historical prices: %w", err)
	}

	prices := make([]float64, 0, len(payload.Prices))
	for _, pair := range payload.Prices {
		prices = append(prices, pair[1])
	}
	return prices, nil
}

func (f *CoinGeckoFeed) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed: %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: read response: %w", err)
	}
	return body, nil
}

// Compile-time interface check.
var _ domain.PriceFeed = (*CoinGeckoFeed)(nil)
