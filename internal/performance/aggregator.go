// Package performance derives realized performance from the trade log.
package performance

import (
	"context"
	"fmt"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Summarize folds a trade log into a PerformanceSummary. It is a pure
// function of the log: an empty log yields zeros and the input is never
// mutated. Realized profit and loss is the price-weighted sell volume
// minus the price-weighted buy volume.
func Summarize(trades []domain.ClosedTrade) domain.PerformanceSummary {
	var summary domain.PerformanceSummary
	var buyVolume, sellVolume float64

	for _, trade := range trades {
		switch trade.Action {
		case domain.TradeActionBuy:
			summary.TotalBought += trade.Amount
			buyVolume += trade.Amount * trade.Price
		case domain.TradeActionSell:
			summary.TotalSold += trade.Amount
			sellVolume += trade.Amount * trade.Price
		}
	}

	summary.ProfitLoss = sellVolume - buyVolume
	summary.TradeCount = len(trades)
	return summary
}

// Aggregator reads the persisted trade log and summarizes it.
type Aggregator struct {
	trades domain.TradeStore
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(trades domain.TradeStore) *Aggregator {
	return &Aggregator{trades: trades}
}

// Summary loads the full trade log and folds it. The summary is recomputed
// from scratch on every call so it stays consistent with the log.
func (a *Aggregator) Summary(ctx context.Context) (domain.PerformanceSummary, error) {
	trades, err := a.trades.List(ctx)
	if err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("performance: list trades: %w", err)
	}
	return Summarize(trades), nil
}
