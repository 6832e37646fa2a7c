package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// CachingPriceFeed decorates a PriceFeed with a read-through price cache.
// A fresh cached price short-circuits the upstream call; every fetched
// price is written back to the cache on a best-effort basis.
type CachingPriceFeed struct {
	upstream domain.PriceFeed
	cache    domain.PriceCache
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewCachingPriceFeed wraps upstream with the given cache. maxAge bounds
// how stale a cached price may be before the upstream feed is consulted.
func NewCachingPriceFeed(upstream domain.PriceFeed, cache domain.PriceCache, maxAge time.Duration, logger *slog.Logger) *CachingPriceFeed {
	return &CachingPriceFeed{
		upstream: upstream,
		cache:    cache,
		maxAge:   maxAge,
		logger:   logger.With(slog.String("component", "price_cache")),
	}
}

// CurrentPrice serves from the cache when fresh, otherwise fetches from
// the upstream feed and refreshes the cache. Cache errors are never fatal;
// the upstream feed remains the source of truth.
func (c *CachingPriceFeed) CurrentPrice(ctx context.Context, asset string) (float64, error) {
	if price, ts, err := c.cache.GetPrice(ctx, asset); err == nil {
		if time.Since(ts) <= c.maxAge {
			return price, nil
		}
	}

	price, err := c.upstream.CurrentPrice(ctx, asset)
	if err != nil {
		return 0, err
	}

	if cacheErr := c.cache.SetPrice(ctx, asset, price, time.Now().UTC()); cacheErr != nil {
		c.logger.Warn("price cache write failed",
			slog.String("asset", asset),
			slog.String("error", cacheErr.Error()),
		)
	}
	return price, nil
}

// HistoricalPrices always goes to the upstream feed; the history is
// recomputed fully each cycle and is not worth caching.
func (c *CachingPriceFeed) HistoricalPrices(ctx context.Context, asset string, days int) ([]float64, error) {
	return c.upstream.HistoricalPrices(ctx, asset, days)
}

// Compile-time interface check.
var _ domain.PriceFeed = (*CachingPriceFeed)(nil)
