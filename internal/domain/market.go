package domain

import "context"

// PriceFeed supplies current and historical prices for an asset, quoted in
// the base currency. Historical series are ordered oldest first.
type PriceFeed interface {
	CurrentPrice(ctx context.Context, asset string) (float64, error)
	HistoricalPrices(ctx context.Context, asset string, days int) ([]float64, error)
}

// SentimentFeed supplies a signed sentiment score for an asset.
// Implementations degrade to a neutral zero score on failure rather than
// failing the evaluation cycle.
type SentimentFeed interface {
	Sentiment(ctx context.Context, asset string) (SentimentScore, error)
}

// LiquiditySource reports available pool liquidity for an asset. Errors
// must propagate to the caller: the risk gate fails closed on missing
// liquidity data instead of assuming a tradable default.
type LiquiditySource interface {
	Liquidity(ctx context.Context, asset string) (float64, error)
}

// SwapDirection names the two sides of a swap against the base currency.
type SwapDirection string

const (
	SwapBaseToAsset SwapDirection = "base_to_asset" // spend ETH, receive asset
	SwapAssetToBase SwapDirection = "asset_to_base" // spend asset, receive ETH
)

// GasEstimator estimates the cost of a swap in base-currency units.
type GasEstimator interface {
	EstimateGas(ctx context.Context, amount float64, direction SwapDirection) (float64, error)
}

// TradeExecutor submits a swap on-chain and returns an execution reference
// (transaction hash) once confirmed. It must be invoked at most once per
// authorized decision per cycle.
type TradeExecutor interface {
	ExecuteSwap(ctx context.Context, direction SwapDirection, amount float64, asset string) (string, error)
}

// WalletReader exposes the balances the agent trades with. Both values are
// returned in their native units; the asset balance is converted to
// base-currency terms by the caller where needed.
type WalletReader interface {
	BaseBalance(ctx context.Context) (float64, error)
	AssetBalance(ctx context.Context, asset string) (float64, error)
}
