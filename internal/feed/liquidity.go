package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// DexLiquiditySource implements domain.LiquiditySource against a DEX
// liquidity API. Unlike the sentiment feed, fetch errors propagate to the
// caller: the risk gate must fail closed on missing liquidity data, never
// trade on a defaulted value.
type DexLiquiditySource struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDexLiquiditySource creates a liquidity client against the given API
// root.
func NewDexLiquiditySource(baseURL string, logger *slog.Logger) *DexLiquiditySource {
	return &DexLiquiditySource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With(slog.String("component", "liquidity_source")),
	}
}

// Liquidity returns the available pool liquidity for the asset.
func (s *DexLiquiditySource) Liquidity(ctx context.Context, asset string) (float64, error) {
	params := url.Values{}
	params.Set("token", asset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/liquidity?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("feed: create liquidity request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("feed: fetch liquidity for %s: %w: %w", asset, domain.ErrRiskDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("feed: liquidity for %s returned status %d: %w", asset, resp.StatusCode, domain.ErrRiskDataUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("feed: read liquidity response: %w", err)
	}

	var payload struct {
		Liquidity float64 `json:"liquidity"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("feed: decode liquidity: %w: %w", domain.ErrRiskDataUnavailable, err)
	}

	s.logger.Debug("liquidity fetched",
		slog.String("asset", asset),
		slog.Float64("liquidity", payload.Liquidity),
	)
	return payload.Liquidity, nil
}

// Compile-time interface check.
var _ domain.LiquiditySource = (*DexLiquiditySource)(nil)
