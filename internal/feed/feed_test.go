package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestCoinGeckoFeed_CurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "chainlink", r.URL.Query().Get("ids"))
		assert.Equal(t, "eth", r.URL.Query().Get("vs_currencies"))
		fmt.Fprint(w, `{"chainlink":{"eth":0.0042}}`)
	}))
	defer srv.Close()

	f := NewCoinGeckoFeed(srv.URL, "eth", 3, testLogger())

	price, err := f.CurrentPrice(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, 0.0042, price)
}

func TestCoinGeckoFeed_CurrentPriceRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"chainlink":{"eth":0.004}}`)
	}))
	defer srv.Close()

	f := NewCoinGeckoFeed(srv.URL, "eth", 3, testLogger())

	price, err := f.CurrentPrice(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, 0.004, price)
	assert.Equal(t, 3, calls)
}

func TestCoinGeckoFeed_CurrentPriceExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewCoinGeckoFeed(srv.URL, "eth", 3, testLogger())

	_, err := f.CurrentPrice(context.Background(), "chainlink")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestCoinGeckoFeed_HistoricalPricesOrderedOldestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/coins/chainlink/market_chart", r.URL.Path)
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"prices":[[1000,100.0],[2000,101.5],[3000,99.75]]}`)
	}))
	defer srv.Close()

	f := NewCoinGeckoFeed(srv.URL, "eth", 3, testLogger())

	prices, err := f.HistoricalPrices(context.Background(), "chainlink", 14)
	require.NoError(t, err)
	assert.Equal(t, []float64{100.0, 101.5, 99.75}, prices)
}

func TestNewsSentimentFeed_ScoresHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chainlink", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"articles":[
			{"title":"Chainlink set to rise after upgrade"},
			{"title":"Analysts expect further gains"},
			{"title":"Token falls amid broader loss"},
			{"title":"Unrelated market news"}
		]}`)
	}))
	defer srv.Close()

	f := NewNewsSentimentFeed(srv.URL, "test-key", testLogger())

	score, err := f.Sentiment(context.Background(), "chainlink")
	require.NoError(t, err)
	// Two bullish headlines, one bearish. A headline counts once per side
	// no matter how many keywords it contains.
	assert.Equal(t, domain.SentimentScore(1), score)
}

func TestNewsSentimentFeed_NeutralOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewNewsSentimentFeed(srv.URL, "bad-key", testLogger())

	score, err := f.Sentiment(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentScore(0), score)
}

func TestDexLiquiditySource_Liquidity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chainlink", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{"liquidity":125000.5}`)
	}))
	defer srv.Close()

	s := NewDexLiquiditySource(srv.URL, testLogger())

	liq, err := s.Liquidity(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, 125000.5, liq)
}

func TestDexLiquiditySource_ErrorPropagatesAsRiskDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewDexLiquiditySource(srv.URL, testLogger())

	_, err := s.Liquidity(context.Background(), "chainlink")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRiskDataUnavailable)
}

type memoryPriceCache struct {
	mu     sync.Mutex
	prices map[string]float64
	stamps map[string]time.Time
	sets   int
}

func newMemoryPriceCache() *memoryPriceCache {
	return &memoryPriceCache{
		prices: make(map[string]float64),
		stamps: make(map[string]time.Time),
	}
}

func (c *memoryPriceCache) SetPrice(_ context.Context, asset string, price float64, ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[asset] = price
	c.stamps[asset] = ts
	c.sets++
	return nil
}

func (c *memoryPriceCache) GetPrice(_ context.Context, asset string) (float64, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	price, ok := c.prices[asset]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return price, c.stamps[asset], nil
}

type countingFeed struct {
	price float64
	calls int
	err   error
}

func (f *countingFeed) CurrentPrice(context.Context, string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *countingFeed) HistoricalPrices(context.Context, string, int) ([]float64, error) {
	return []float64{f.price}, nil
}

func TestCachingPriceFeed_ServesFreshCacheWithoutUpstreamCall(t *testing.T) {
	cache := newMemoryPriceCache()
	require.NoError(t, cache.SetPrice(context.Background(), "chainlink", 0.005, time.Now().UTC()))

	upstream := &countingFeed{price: 0.006}
	f := NewCachingPriceFeed(upstream, cache, time.Minute, testLogger())

	price, err := f.CurrentPrice(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, 0.005, price)
	assert.Zero(t, upstream.calls)
}

func TestCachingPriceFeed_StaleEntryRefreshesFromUpstream(t *testing.T) {
	cache := newMemoryPriceCache()
	require.NoError(t, cache.SetPrice(context.Background(), "chainlink", 0.005, time.Now().UTC().Add(-2*time.Minute)))

	upstream := &countingFeed{price: 0.006}
	f := NewCachingPriceFeed(upstream, cache, time.Minute, testLogger())

	price, err := f.CurrentPrice(context.Background(), "chainlink")
	require.NoError(t, err)
	assert.Equal(t, 0.006, price)
	assert.Equal(t, 1, upstream.calls)
	// The refreshed price was written back.
	assert.Equal(t, 2, cache.sets)
}

func TestCachingPriceFeed_UpstreamErrorPropagates(t *testing.T) {
	cache := newMemoryPriceCache()
	upstream := &countingFeed{err: errors.New("rate limited")}
	f := NewCachingPriceFeed(upstream, cache, time.Minute, testLogger())

	_, err := f.CurrentPrice(context.Background(), "chainlink")
	assert.Error(t, err)
}
