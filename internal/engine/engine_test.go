package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
	"github.com/Mettice/Defi-Trading-Agent/internal/gate"
	"github.com/Mettice/Defi-Trading-Agent/internal/performance"
	"github.com/Mettice/Defi-Trading-Agent/internal/position"
	"github.com/Mettice/Defi-Trading-Agent/internal/rebalance"
	"github.com/Mettice/Defi-Trading-Agent/internal/signal"
)

// risingSeries yields a buy vote at price 105 and a hold at 110.
func risingSeries() []float64 {
	out := make([]float64, 14)
	for i := range out {
		out[i] = float64(100 + i)
	}
	return out
}

type fakeFeed struct {
	price   float64
	history []float64
}

func (f *fakeFeed) CurrentPrice(context.Context, string) (float64, error) {
	return f.price, nil
}

func (f *fakeFeed) HistoricalPrices(context.Context, string, int) ([]float64, error) {
	return f.history, nil
}

type fakeSentiment struct {
	score domain.SentimentScore
}

func (f *fakeSentiment) Sentiment(context.Context, string) (domain.SentimentScore, error) {
	return f.score, nil
}

type fakeWallet struct {
	base  float64
	asset float64
}

func (f *fakeWallet) BaseBalance(context.Context) (float64, error) {
	return f.base, nil
}

func (f *fakeWallet) AssetBalance(context.Context, string) (float64, error) {
	return f.asset, nil
}

type fakeLiquidity struct {
	liquidity float64
	fetches   int
}

func (f *fakeLiquidity) Liquidity(context.Context, string) (float64, error) {
	f.fetches++
	return f.liquidity, nil
}

type fakeGas struct {
	cost float64
}

func (f *fakeGas) EstimateGas(context.Context, float64, domain.SwapDirection) (float64, error) {
	return f.cost, nil
}

type swapCall struct {
	direction domain.SwapDirection
	amount    float64
}

type fakeExecutor struct {
	calls []swapCall
}

func (f *fakeExecutor) ExecuteSwap(_ context.Context, direction domain.SwapDirection, amount float64, _ string) (string, error) {
	f.calls = append(f.calls, swapCall{direction: direction, amount: amount})
	return "0xcycle", nil
}

type fakePositionStore struct {
	pos *domain.Position
}

func (f *fakePositionStore) Get(context.Context) (domain.Position, error) {
	if f.pos == nil {
		return domain.Position{}, domain.ErrNotFound
	}
	return *f.pos, nil
}

func (f *fakePositionStore) Create(_ context.Context, pos domain.Position) error {
	f.pos = &pos
	return nil
}

func (f *fakePositionStore) Delete(context.Context, string) error {
	f.pos = nil
	return nil
}

type fakeTradeStore struct {
	trades []domain.ClosedTrade
}

func (f *fakeTradeStore) Append(_ context.Context, trade domain.ClosedTrade) error {
	f.trades = append(f.trades, trade)
	return nil
}

func (f *fakeTradeStore) List(context.Context) ([]domain.ClosedTrade, error) {
	return f.trades, nil
}

func (f *fakeTradeStore) ListBefore(_ context.Context, cutoff time.Time) ([]domain.ClosedTrade, error) {
	var out []domain.ClosedTrade
	for _, tr := range f.trades {
		if tr.Timestamp.Before(cutoff) {
			out = append(out, tr)
		}
	}
	return out, nil
}

type fakeCounterStore struct {
	counter domain.DailyTradeCounter
}

func (f *fakeCounterStore) Get(context.Context) (domain.DailyTradeCounter, error) {
	return f.counter, nil
}

func (f *fakeCounterStore) Increment(context.Context) (domain.DailyTradeCounter, error) {
	f.counter.Count++
	return f.counter, nil
}

func (f *fakeCounterStore) Reset(_ context.Context, windowStart time.Time) error {
	f.counter = domain.DailyTradeCounter{WindowStart: windowStart}
	return nil
}

type heldLockManager struct{}

func (heldLockManager) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, domain.ErrLockHeld
}

type fixture struct {
	engine    *Engine
	feed      *fakeFeed
	wallet    *fakeWallet
	liquidity *fakeLiquidity
	executor  *fakeExecutor
	positions *fakePositionStore
	trades    *fakeTradeStore
	counter   *fakeCounterStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.Default()

	f := &fixture{
		feed:      &fakeFeed{price: 105, history: risingSeries()},
		wallet:    &fakeWallet{base: 1.0, asset: 0.43},
		liquidity: &fakeLiquidity{liquidity: 1000},
		executor:  &fakeExecutor{},
		positions: &fakePositionStore{},
		trades:    &fakeTradeStore{},
		counter:   &fakeCounterStore{counter: domain.DailyTradeCounter{WindowStart: time.Now().UTC()}},
	}

	gas := &fakeGas{cost: 0.001}
	manager := position.NewManager(
		f.positions, f.trades, f.counter, f.executor, nil,
		position.DefaultConfig(), logger)
	g := gate.New(f.liquidity, gas, gate.Config{
		MinLiquidity:   100,
		MaxSlippage:    0.1,
		MaxTradeAmount: 0.01,
		MaxGasCost:     0.002,
	}, logger)
	rebalancer := rebalance.New(f.executor, gas, rebalance.DefaultConfig(), logger)

	f.engine = New(
		f.feed, &fakeSentiment{}, f.wallet,
		signal.NewEngine(signal.DefaultConfig(), logger),
		g, manager, rebalancer,
		performance.NewAggregator(f.trades),
		nil, nil,
		Config{
			Asset:          "chainlink",
			HistoryDays:    14,
			GasBuffer:      0.005,
			MaxTradeAmount: 0.01,
			PollInterval:   time.Minute,
			LockTTL:        time.Minute,
		}, logger)
	return f
}

func TestCycleOpensPositionOnAuthorizedBuy(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.RunCycle(context.Background()))

	require.NotNil(t, f.positions.pos)
	assert.Equal(t, 105.0, f.positions.pos.OpenPrice)

	// Spend is min(max trade amount, 10% of spendable balance).
	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, domain.SwapBaseToAsset, f.executor.calls[0].direction)
	assert.InDelta(t, 0.01, f.executor.calls[0].amount, 1e-12)

	require.Len(t, f.trades.trades, 1)
	assert.Equal(t, domain.TradeActionBuy, f.trades.trades[0].Action)
	assert.Equal(t, 1, f.counter.counter.Count)
}

func TestCycleClosesPositionOnProfitTrigger(t *testing.T) {
	f := newFixture(t)
	f.feed.price = 110 // +10% over open, and a hold signal afterwards
	now := time.Now().UTC()
	f.positions.pos = &domain.Position{
		ID: "p1", Asset: "chainlink", OpenPrice: 100, Amount: 0.0001, OpenedAt: now,
	}

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Nil(t, f.positions.pos)
	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, domain.SwapAssetToBase, f.executor.calls[0].direction)
	require.Len(t, f.trades.trades, 1)
	assert.Equal(t, domain.TradeActionSell, f.trades.trades[0].Action)
}

func TestCycleHoldsWhilePositionOpen(t *testing.T) {
	f := newFixture(t)
	f.feed.price = 101 // no close trigger at +1%
	now := time.Now().UTC()
	f.positions.pos = &domain.Position{
		ID: "p1", Asset: "chainlink", OpenPrice: 100, Amount: 0.0001, OpenedAt: now,
	}

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.NotNil(t, f.positions.pos)
	assert.Empty(t, f.executor.calls)
	assert.Empty(t, f.trades.trades)
}

func TestCycleSkipsWhenBalanceBelowGasBuffer(t *testing.T) {
	f := newFixture(t)
	f.wallet.base = 0.004

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Empty(t, f.executor.calls)
	assert.Nil(t, f.positions.pos)
}

func TestCycleBlocksBuyWhenGateDenies(t *testing.T) {
	f := newFixture(t)
	f.liquidity.liquidity = 50 // below the 100 minimum

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Empty(t, f.executor.calls)
	assert.Nil(t, f.positions.pos)
	assert.Empty(t, f.trades.trades)
}

func TestCycleBlocksBuyAtDailyCap(t *testing.T) {
	f := newFixture(t)
	f.counter.counter.Count = position.DefaultConfig().MaxDailyTrades

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Empty(t, f.executor.calls)
	assert.Nil(t, f.positions.pos)
	assert.Equal(t, position.DefaultConfig().MaxDailyTrades, f.counter.counter.Count)

	// The cap is checked before the gate, so no risk data is fetched for
	// a buy that cannot execute.
	assert.Zero(t, f.liquidity.fetches)
}

func TestCycleRebalancesExcessBase(t *testing.T) {
	f := newFixture(t)
	f.feed.price = 110 // hold signal, no position activity
	f.wallet.base = 1.5
	f.wallet.asset = 0.5

	require.NoError(t, f.engine.RunCycle(context.Background()))

	// Target base is 70% of 2.0; the 0.1 excess is swapped into the asset.
	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, domain.SwapBaseToAsset, f.executor.calls[0].direction)
	assert.InDelta(t, 0.1, f.executor.calls[0].amount, 1e-9)
	assert.Nil(t, f.positions.pos)
}

func TestCycleSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	f.engine.locks = heldLockManager{}

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.executor.calls)
}
