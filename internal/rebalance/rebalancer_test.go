package rebalance

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

type fakeExecutor struct {
	calls int
	last  domain.SwapDirection
}

func (f *fakeExecutor) ExecuteSwap(_ context.Context, direction domain.SwapDirection, _ float64, _ string) (string, error) {
	f.calls++
	f.last = direction
	return "0xdef456", nil
}

type fakeGas struct {
	cost float64
}

func (f *fakeGas) EstimateGas(_ context.Context, _ float64, _ domain.SwapDirection) (float64, error) {
	return f.cost, nil
}

func TestRebalance_SellsExcessBase(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(exec, &fakeGas{cost: 0.0005}, DefaultConfig(), slog.Default())

	// Total 2.0 at a 70% target: target base is 1.4, excess 0.1.
	out, err := r.Rebalance(context.Background(), "chainlink", 1.5, 0.5)
	require.NoError(t, err)

	assert.True(t, out.Executed)
	assert.Equal(t, domain.SwapBaseToAsset, out.Direction)
	assert.InDelta(t, 0.1, out.Amount, 1e-9)
	assert.Equal(t, "0xdef456", out.ExecutionRef)
	assert.Equal(t, 1, exec.calls)
}

func TestRebalance_SellsExcessAsset(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(exec, &fakeGas{cost: 0.0005}, DefaultConfig(), slog.Default())

	out, err := r.Rebalance(context.Background(), "chainlink", 0.2, 1.8)
	require.NoError(t, err)

	assert.True(t, out.Executed)
	assert.Equal(t, domain.SwapAssetToBase, out.Direction)
	assert.InDelta(t, 0.4, out.Amount, 1e-9)
}

func TestRebalance_SkipsOnHighGas(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(exec, &fakeGas{cost: 0.01}, DefaultConfig(), slog.Default())

	out, err := r.Rebalance(context.Background(), "chainlink", 1.5, 0.5)
	require.NoError(t, err)

	assert.False(t, out.Executed)
	assert.True(t, out.SkippedGas)
	assert.Equal(t, 0, exec.calls, "no swap may be submitted when gas exceeds the ceiling")
}

func TestRebalance_BalancedPortfolioIsNoOp(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(exec, &fakeGas{cost: 0.0005}, DefaultConfig(), slog.Default())

	out, err := r.Rebalance(context.Background(), "chainlink", 1.4, 0.6)
	require.NoError(t, err)

	assert.False(t, out.Executed)
	assert.False(t, out.SkippedGas)
	assert.Empty(t, out.Direction)
	assert.Equal(t, 0, exec.calls)
}

func TestRebalance_TinyDeviationIgnored(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(exec, &fakeGas{cost: 0.0005}, DefaultConfig(), slog.Default())

	// Excess of 0.0005 is below the 0.001 minimum trade amount.
	out, err := r.Rebalance(context.Background(), "chainlink", 1.4005, 0.5995)
	require.NoError(t, err)
	assert.False(t, out.Executed)
	assert.Equal(t, 0, exec.calls)
}
