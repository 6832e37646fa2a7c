// Package engine runs the trading cycle: refresh market data, close or
// open the position through the risk gate, rebalance the portfolio, and
// report performance. One cycle runs at a time; overlapping triggers and
// concurrent agent instances are serialized away.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
	"github.com/Mettice/Defi-Trading-Agent/internal/gate"
	"github.com/Mettice/Defi-Trading-Agent/internal/notify"
	"github.com/Mettice/Defi-Trading-Agent/internal/performance"
	"github.com/Mettice/Defi-Trading-Agent/internal/position"
	"github.com/Mettice/Defi-Trading-Agent/internal/rebalance"
	"github.com/Mettice/Defi-Trading-Agent/internal/signal"
)

// cycleLockKey is the distributed lock guarding the read-decide-write
// sequence across agent instances.
const cycleLockKey = "trading-cycle"

// Config holds the cycle parameters.
type Config struct {
	// Asset is the traded asset's feed identifier.
	Asset string
	// HistoryDays is the price history window for the signal engine.
	HistoryDays int
	// GasBuffer is the base-currency reserve that must never be spent.
	GasBuffer float64
	// MaxTradeAmount caps the base currency spent on one buy.
	MaxTradeAmount float64
	// PollInterval is the cycle period.
	PollInterval time.Duration
	// LockTTL bounds how long a crashed instance can hold the cycle lock.
	LockTTL time.Duration
}

// Engine wires the decision pipeline to the market collaborators.
type Engine struct {
	feed       domain.PriceFeed
	sentiment  domain.SentimentFeed
	wallet     domain.WalletReader
	signals    *signal.Engine
	gate       *gate.Gate
	positions  *position.Manager
	rebalancer *rebalance.Rebalancer
	perf       *performance.Aggregator
	locks      domain.LockManager
	notifier   *notify.Notifier
	cfg        Config

	mu     sync.Mutex
	logger *slog.Logger
}

// New creates an Engine. locks and notifier may be nil; a nil lock manager
// disables cross-instance serialization, a nil notifier disables alerts.
func New(
	feed domain.PriceFeed,
	sentiment domain.SentimentFeed,
	wallet domain.WalletReader,
	signals *signal.Engine,
	g *gate.Gate,
	positions *position.Manager,
	rebalancer *rebalance.Rebalancer,
	perf *performance.Aggregator,
	locks domain.LockManager,
	notifier *notify.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		feed:       feed,
		sentiment:  sentiment,
		wallet:     wallet,
		signals:    signals,
		gate:       g,
		positions:  positions,
		rebalancer: rebalancer,
		perf:       perf,
		locks:      locks,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "engine")),
	}
}

// RunCycle executes one trading cycle. Failures inside a cycle are
// reported to the caller but never leave partial position state behind;
// all state transitions happen inside the position manager.
func (e *Engine) RunCycle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locks != nil {
		unlock, err := e.locks.Acquire(ctx, cycleLockKey, e.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			e.logger.Info("cycle lock held elsewhere, skipping cycle")
			return nil
		}
		if err != nil {
			return fmt.Errorf("engine: acquire cycle lock: %w", err)
		}
		defer unlock()
	}

	now := time.Now().UTC()
	if err := e.positions.ResetWindowIfExpired(ctx, now); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	baseBalance, err := e.wallet.BaseBalance(ctx)
	if err != nil {
		return fmt.Errorf("engine: read base balance: %w", err)
	}
	currentPrice, err := e.feed.CurrentPrice(ctx, e.cfg.Asset)
	if err != nil {
		return fmt.Errorf("engine: fetch current price: %w", err)
	}

	e.logger.Info("cycle started",
		slog.Float64("base_balance", baseBalance),
		slog.Float64("current_price", currentPrice),
	)

	// Never trade the gas reserve away.
	if baseBalance < e.cfg.GasBuffer {
		e.logger.Warn("base balance below gas buffer, skipping cycle",
			slog.Float64("base_balance", baseBalance),
			slog.Float64("gas_buffer", e.cfg.GasBuffer),
		)
		return nil
	}

	if err := e.closePhase(ctx, currentPrice, now); err != nil {
		return err
	}

	// A surviving position means the cycle holds; rebalancing waits until
	// the position is closed so the swap does not fight the allocation.
	if _, err := e.positions.Open(ctx); err == nil {
		e.logger.Info("position open, holding")
		return nil
	} else if !errors.Is(err, domain.ErrNoOpenPosition) {
		return fmt.Errorf("engine: %w", err)
	}

	if err := e.openPhase(ctx, currentPrice, baseBalance, now); err != nil {
		return err
	}

	if err := e.rebalancePhase(ctx); err != nil {
		return err
	}

	summary, err := e.perf.Summary(ctx)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.logger.Info("cycle complete",
		slog.Float64("profit_loss", summary.ProfitLoss),
		slog.Int("trade_count", summary.TradeCount),
	)
	return nil
}

// closePhase closes the open position when a trigger fires. A full daily
// cap only defers the close to a later window.
func (e *Engine) closePhase(ctx context.Context, currentPrice float64, now time.Time) error {
	closed, err := e.positions.EvaluateClose(ctx, currentPrice, now)
	if errors.Is(err, domain.ErrDailyLimitReached) {
		e.logger.Warn("close trigger fired but daily limit reached, deferring")
		return nil
	}
	if err != nil {
		return fmt.Errorf("engine: evaluate close: %w", err)
	}
	if closed != nil && e.notifier != nil {
		e.notifier.PositionClosed(ctx, *closed, string(closed.Reason))
	}
	return nil
}

// openPhase runs the signal engine and, on an authorized buy, opens a
// position sized from the spendable balance.
func (e *Engine) openPhase(ctx context.Context, currentPrice, baseBalance float64, now time.Time) error {
	// A full counter makes the whole open path moot; skip it before any
	// history, sentiment, liquidity, or gas calls.
	if err := e.positions.CheckDailyCap(ctx); err != nil {
		if errors.Is(err, domain.ErrDailyLimitReached) {
			e.logger.Info("daily trade limit reached, skipping open evaluation")
			return nil
		}
		return fmt.Errorf("engine: %w", err)
	}

	history, err := e.feed.HistoricalPrices(ctx, e.cfg.Asset, e.cfg.HistoryDays)
	if err != nil {
		return fmt.Errorf("engine: fetch price history: %w", err)
	}
	score, err := e.sentiment.Sentiment(ctx, e.cfg.Asset)
	if err != nil {
		// Sentiment implementations degrade to neutral themselves; an
		// error here still must not block the cycle.
		e.logger.Warn("sentiment fetch failed, using neutral score",
			slog.String("error", err.Error()))
		score = 0
	}

	decision := e.signals.Decide(currentPrice, history, score)
	if decision != domain.DecisionBuy {
		// A sell with nothing open is a hold; closes are trigger-driven.
		e.logger.Info("no buy signal", slog.String("decision", string(decision)))
		return nil
	}

	spendable := baseBalance - e.cfg.GasBuffer
	spend := math.Min(e.cfg.MaxTradeAmount, spendable*0.1)
	if spend <= 0 {
		e.logger.Info("buy signal but nothing spendable after gas buffer",
			slog.Float64("spendable", spendable))
		return nil
	}

	expectedPrice := currentPrice
	if len(history) > 0 {
		expectedPrice = history[len(history)-1]
	}

	auth, err := e.gate.Authorize(ctx, e.cfg.Asset, spend, currentPrice, expectedPrice, domain.SwapBaseToAsset)
	if err != nil {
		// Fail closed: missing risk data blocks the trade, not the cycle.
		e.logger.Warn("authorization failed, trade blocked", slog.String("error", err.Error()))
		return nil
	}
	if !auth.Granted() {
		if e.notifier != nil {
			e.notifier.TradeRejected(ctx, decision, rejectionReasons(auth))
		}
		return nil
	}

	pos, err := e.positions.TryOpen(ctx, e.cfg.Asset, currentPrice, spend, now)
	switch {
	case errors.Is(err, domain.ErrDailyLimitReached):
		e.logger.Warn("buy authorized but daily limit reached")
		return nil
	case errors.Is(err, domain.ErrPositionOpen):
		return nil
	case errors.Is(err, domain.ErrExecutionFailed):
		e.logger.Error("buy execution failed", slog.String("error", err.Error()))
		return nil
	case err != nil:
		return fmt.Errorf("engine: open position: %w", err)
	}

	if e.notifier != nil {
		e.notifier.PositionOpened(ctx, pos)
	}
	return nil
}

// rebalancePhase restores the target allocation with post-trade balances.
func (e *Engine) rebalancePhase(ctx context.Context) error {
	baseBalance, err := e.wallet.BaseBalance(ctx)
	if err != nil {
		return fmt.Errorf("engine: read base balance: %w", err)
	}
	assetBalance, err := e.wallet.AssetBalance(ctx, e.cfg.Asset)
	if err != nil {
		return fmt.Errorf("engine: read asset balance: %w", err)
	}

	outcome, err := e.rebalancer.Rebalance(ctx, e.cfg.Asset, baseBalance, assetBalance)
	if err != nil {
		// A failed rebalance swap does not poison the cycle; the next run
		// sees the same imbalance and retries.
		e.logger.Error("rebalance failed", slog.String("error", err.Error()))
		return nil
	}
	if outcome.Executed && e.notifier != nil {
		e.notifier.Rebalanced(ctx, outcome.Direction, outcome.Amount)
	}
	return nil
}

// rejectionReasons flattens a denied authorization for the notifier.
func rejectionReasons(auth domain.Authorization) []string {
	var reasons []string
	if !auth.Risk.Passed {
		reasons = append(reasons, fmt.Sprintf(
			"risk check failed (liquidity %.2f, slippage %.4f)",
			auth.Risk.Liquidity, auth.Risk.Slippage))
	}
	for _, rule := range auth.Compliance.Reasons {
		reasons = append(reasons, string(rule))
	}
	return reasons
}
