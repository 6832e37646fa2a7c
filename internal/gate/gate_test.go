package gate

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

type fakeLiquidity struct {
	liquidity float64
	err       error
}

func (f *fakeLiquidity) Liquidity(_ context.Context, _ string) (float64, error) {
	return f.liquidity, f.err
}

type fakeGas struct {
	cost float64
	err  error
}

func (f *fakeGas) EstimateGas(_ context.Context, _ float64, _ domain.SwapDirection) (float64, error) {
	return f.cost, f.err
}

func testConfig() Config {
	return Config{
		MinLiquidity:   100,
		MaxSlippage:    0.05,
		MaxTradeAmount: 1.0,
		MaxGasCost:     0.01,
	}
}

func TestEvaluateRisk_Passes(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 1000}, &fakeGas{}, testConfig(), slog.Default())

	risk, err := g.EvaluateRisk(context.Background(), "chainlink", 101, 100)
	require.NoError(t, err)
	assert.True(t, risk.Passed)
	assert.InDelta(t, 0.01, risk.Slippage, 1e-9)
	assert.Equal(t, 1000.0, risk.Liquidity)
}

func TestEvaluateRisk_FailsOnThinLiquidity(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 50}, &fakeGas{}, testConfig(), slog.Default())

	risk, err := g.EvaluateRisk(context.Background(), "chainlink", 100, 100)
	require.NoError(t, err)
	assert.False(t, risk.Passed)
}

func TestEvaluateRisk_FailsOnSlippage(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 1000}, &fakeGas{}, testConfig(), slog.Default())

	// 10% deviation against a 5% limit.
	risk, err := g.EvaluateRisk(context.Background(), "chainlink", 110, 100)
	require.NoError(t, err)
	assert.False(t, risk.Passed)
}

func TestEvaluateRisk_FailsClosedOnFetchError(t *testing.T) {
	g := New(&fakeLiquidity{err: errors.New("subgraph down")}, &fakeGas{}, testConfig(), slog.Default())

	_, err := g.EvaluateRisk(context.Background(), "chainlink", 100, 100)
	assert.ErrorIs(t, err, domain.ErrRiskDataUnavailable)
}

func TestCheckCompliance_AmountOverLimitFails(t *testing.T) {
	g := New(&fakeLiquidity{}, &fakeGas{}, testConfig(), slog.Default())

	// Oversized trade fails regardless of healthy liquidity and gas.
	res := g.CheckCompliance(1.5, 1000, 0.001)
	assert.False(t, res.Passed)
	assert.Equal(t, []domain.ComplianceRule{domain.RuleMaxTradeAmount}, res.Reasons)
}

func TestCheckCompliance_ReportsEveryViolation(t *testing.T) {
	g := New(&fakeLiquidity{}, &fakeGas{}, testConfig(), slog.Default())

	res := g.CheckCompliance(2.0, 10, 0.5)
	assert.False(t, res.Passed)
	assert.ElementsMatch(t, []domain.ComplianceRule{
		domain.RuleMaxTradeAmount,
		domain.RuleMinLiquidity,
		domain.RuleMaxGasCost,
	}, res.Reasons)
}

func TestCheckCompliance_Passes(t *testing.T) {
	g := New(&fakeLiquidity{}, &fakeGas{}, testConfig(), slog.Default())

	res := g.CheckCompliance(0.5, 1000, 0.001)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Reasons)
}

func TestAuthorize_GrantsWhenBothPass(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 1000}, &fakeGas{cost: 0.001}, testConfig(), slog.Default())

	auth, err := g.Authorize(context.Background(), "chainlink", 0.5, 101, 100, domain.SwapBaseToAsset)
	require.NoError(t, err)
	assert.True(t, auth.Granted())
}

func TestAuthorize_DeniesOnComplianceFailure(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 1000}, &fakeGas{cost: 0.5}, testConfig(), slog.Default())

	auth, err := g.Authorize(context.Background(), "chainlink", 0.5, 101, 100, domain.SwapBaseToAsset)
	require.NoError(t, err)
	assert.False(t, auth.Granted())
	assert.Contains(t, auth.Compliance.Reasons, domain.RuleMaxGasCost)
}

func TestAuthorize_FailsClosedOnGasError(t *testing.T) {
	g := New(&fakeLiquidity{liquidity: 1000}, &fakeGas{err: errors.New("rpc timeout")}, testConfig(), slog.Default())

	_, err := g.Authorize(context.Background(), "chainlink", 0.5, 101, 100, domain.SwapBaseToAsset)
	assert.ErrorIs(t, err, domain.ErrRiskDataUnavailable)
}
