package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

func TestSummarize_EmptyLog(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, domain.PerformanceSummary{}, summary)
}

func TestSummarize(t *testing.T) {
	trades := []domain.ClosedTrade{
		{Action: domain.TradeActionBuy, Price: 100, Amount: 0.5},
		{Action: domain.TradeActionSell, Price: 110, Amount: 0.5},
		{Action: domain.TradeActionBuy, Price: 105, Amount: 0.2},
	}

	summary := Summarize(trades)

	assert.Equal(t, 3, summary.TradeCount)
	assert.InDelta(t, 0.7, summary.TotalBought, 1e-9)
	assert.InDelta(t, 0.5, summary.TotalSold, 1e-9)
	// Sell volume 55 minus buy volume 50+21.
	assert.InDelta(t, -16.0, summary.ProfitLoss, 1e-9)
}

func TestSummarize_Idempotent(t *testing.T) {
	trades := []domain.ClosedTrade{
		{Action: domain.TradeActionBuy, Price: 100, Amount: 1},
		{Action: domain.TradeActionSell, Price: 105, Amount: 1},
	}

	first := Summarize(trades)
	second := Summarize(trades)
	assert.Equal(t, first, second)

	// Appending a trade changes only the fields affected by that trade.
	extended := append(trades, domain.ClosedTrade{
		Action: domain.TradeActionSell, Price: 120, Amount: 0.5,
	})
	third := Summarize(extended)

	assert.Equal(t, first.TotalBought, third.TotalBought)
	assert.Equal(t, first.TradeCount+1, third.TradeCount)
	assert.InDelta(t, first.TotalSold+0.5, third.TotalSold, 1e-9)
	assert.InDelta(t, first.ProfitLoss+60, third.ProfitLoss, 1e-9)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	trades := []domain.ClosedTrade{
		{Action: domain.TradeActionBuy, Price: 100, Amount: 1},
	}
	original := trades[0]

	_ = Summarize(trades)
	assert.Equal(t, original, trades[0])
}
