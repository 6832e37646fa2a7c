// Package position owns the lifecycle of the single speculative position:
// opening on authorized buy decisions, closing on profit, loss, or
// duration triggers, and enforcing the daily trade cap. All state changes
// to the position set and the trade log happen here and nowhere else.
package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Config holds the close triggers and the daily cap.
type Config struct {
	// ProfitThreshold is the relative gain at which a position closes.
	ProfitThreshold float64
	// LossThreshold is the relative loss at which a position closes; it is
	// negative.
	LossThreshold float64
	// MaxDuration closes a position that has been open this long even
	// without hitting a price trigger.
	MaxDuration time.Duration
	// MaxDailyTrades caps open plus close actions per counter window.
	MaxDailyTrades int
}

// DefaultConfig returns the production lifecycle parameters.
func DefaultConfig() Config {
	return Config{
		ProfitThreshold: 0.05,
		LossThreshold:   -0.03,
		MaxDuration:     24 * time.Hour,
		MaxDailyTrades:  5,
	}
}

// Manager is the position lifecycle state machine. A position moves from
// empty to open and back to empty; there are no intermediate states.
type Manager struct {
	positions domain.PositionStore
	trades    domain.TradeStore
	counter   domain.CounterStore
	executor  domain.TradeExecutor
	audit     domain.AuditStore
	cfg       Config
	logger    *slog.Logger
}

// NewManager creates a Manager with all required dependencies.
func NewManager(
	positions domain.PositionStore,
	trades domain.TradeStore,
	counter domain.CounterStore,
	executor domain.TradeExecutor,
	audit domain.AuditStore,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		positions: positions,
		trades:    trades,
		counter:   counter,
		executor:  executor,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "position_manager")),
	}
}

// ResetWindowIfExpired resets the daily trade counter when now falls in a
// later UTC calendar day than the counter's window start. It is evaluated
// at the start of every cycle so trading limits survive restarts without
// capping the agent forever.
func (m *Manager) ResetWindowIfExpired(ctx context.Context, now time.Time) error {
	counter, err := m.counter.Get(ctx)
	if err != nil {
		return fmt.Errorf("position: get counter: %w", err)
	}

	if !counter.Expired(now) {
		return nil
	}

	windowStart := now.UTC().Truncate(24 * time.Hour)
	if err := m.counter.Reset(ctx, windowStart); err != nil {
		return fmt.Errorf("position: reset counter: %w", err)
	}

	m.logger.Info("daily trade counter reset",
		slog.Time("window_start", windowStart),
		slog.Int("previous_count", counter.Count),
	)
	return nil
}

// Open returns the currently open position, or ErrNoOpenPosition when the
// agent holds nothing.
func (m *Manager) Open(ctx context.Context) (domain.Position, error) {
	pos, err := m.positions.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Position{}, domain.ErrNoOpenPosition
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("position: get open position: %w", err)
	}
	return pos, nil
}

// TryOpen opens a new position by spending spendBase of the base currency
// at the given execution price. Preconditions: no position is open and the
// daily cap has not been reached. The swap executes before any state is
// mutated, so an execution failure leaves the log and position set
// untouched.
func (m *Manager) TryOpen(ctx context.Context, asset string, price, spendBase float64, now time.Time) (domain.Position, error) {
	if _, err := m.positions.Get(ctx); err == nil {
		// At most one position may be open.
		return domain.Position{}, domain.ErrPositionOpen
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Position{}, fmt.Errorf("position: check open position: %w", err)
	}

	if err := m.CheckDailyCap(ctx); err != nil {
		return domain.Position{}, err
	}

	txHash, err := m.executor.ExecuteSwap(ctx, domain.SwapBaseToAsset, spendBase, asset)
	if err != nil {
		return domain.Position{}, fmt.Errorf("position: buy swap: %w: %w", domain.ErrExecutionFailed, err)
	}

	pos := domain.Position{
		ID:        uuid.New().String(),
		Asset:     asset,
		OpenPrice: price,
		Amount:    spendBase / price,
		OpenedAt:  now.UTC(),
	}

	if err := m.trades.Append(ctx, domain.ClosedTrade{
		ID:           uuid.New().String(),
		Action:       domain.TradeActionBuy,
		Price:        price,
		Amount:       spendBase,
		ExecutionRef: txHash,
		Timestamp:    now.UTC(),
	}); err != nil {
		return domain.Position{}, fmt.Errorf("position: log buy trade: %w", err)
	}

	if err := m.positions.Create(ctx, pos); err != nil {
		return domain.Position{}, fmt.Errorf("position: create position: %w", err)
	}

	if _, err := m.counter.Increment(ctx); err != nil {
		return domain.Position{}, fmt.Errorf("position: increment counter: %w", err)
	}

	m.auditLog(ctx, "position_opened", map[string]any{
		"position_id": pos.ID,
		"asset":       asset,
		"open_price":  price,
		"amount":      pos.Amount,
		"tx_hash":     txHash,
	})

	m.logger.Info("position opened",
		slog.String("position_id", pos.ID),
		slog.Float64("open_price", price),
		slog.Float64("amount", pos.Amount),
		slog.String("tx_hash", txHash),
	)
	return pos, nil
}

// EvaluateClose checks the open position against the close triggers and
// closes it when one fires. It returns nil when there is no open position
// or no trigger fired. Close conditions (all bounds inclusive):
//
//	priceChange >= ProfitThreshold
//	priceChange <= LossThreshold
//	duration    >= MaxDuration
func (m *Manager) EvaluateClose(ctx context.Context, currentPrice float64, now time.Time) (*domain.ClosedPosition, error) {
	pos, err := m.positions.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("position: get open position: %w", err)
	}

	priceChange := pos.PriceChange(currentPrice)
	duration := pos.Duration(now)

	var reason domain.CloseReason
	switch {
	case priceChange >= m.cfg.ProfitThreshold:
		reason = domain.CloseReasonProfitTarget
	case priceChange <= m.cfg.LossThreshold:
		reason = domain.CloseReasonStopLoss
	case duration >= m.cfg.MaxDuration:
		reason = domain.CloseReasonDurationLimit
	default:
		return nil, nil
	}

	if err := m.CheckDailyCap(ctx); err != nil {
		return nil, err
	}

	txHash, err := m.executor.ExecuteSwap(ctx, domain.SwapAssetToBase, pos.Amount, pos.Asset)
	if err != nil {
		return nil, fmt.Errorf("position: sell swap: %w: %w", domain.ErrExecutionFailed, err)
	}

	if err := m.trades.Append(ctx, domain.ClosedTrade{
		ID:           uuid.New().String(),
		Action:       domain.TradeActionSell,
		Price:        currentPrice,
		Amount:       pos.Amount,
		ExecutionRef: txHash,
		Timestamp:    now.UTC(),
	}); err != nil {
		return nil, fmt.Errorf("position: log sell trade: %w", err)
	}

	if err := m.positions.Delete(ctx, pos.ID); err != nil {
		return nil, fmt.Errorf("position: delete position: %w", err)
	}

	if _, err := m.counter.Increment(ctx); err != nil {
		return nil, fmt.Errorf("position: increment counter: %w", err)
	}

	closed := &domain.ClosedPosition{
		OpenPrice:        pos.OpenPrice,
		ClosePrice:       currentPrice,
		Amount:           pos.Amount,
		ProfitLoss:       (currentPrice - pos.OpenPrice) * pos.Amount,
		PercentageChange: priceChange * 100,
		Duration:         duration,
		Reason:           reason,
	}

	m.auditLog(ctx, "position_closed", map[string]any{
		"position_id":  pos.ID,
		"reason":       string(reason),
		"open_price":   pos.OpenPrice,
		"close_price":  currentPrice,
		"profit_loss":  closed.ProfitLoss,
		"pct_change":   closed.PercentageChange,
		"duration_sec": duration.Seconds(),
		"tx_hash":      txHash,
	})

	m.logger.Info("position closed",
		slog.String("position_id", pos.ID),
		slog.Float64("close_price", currentPrice),
		slog.Float64("profit_loss", closed.ProfitLoss),
		slog.Float64("pct_change", closed.PercentageChange),
	)
	return closed, nil
}

// CheckDailyCap refuses any transition once the counter window is full.
// The engine consults it before spending external calls on a buy that
// cannot execute; TryOpen and EvaluateClose re-check it themselves.
func (m *Manager) CheckDailyCap(ctx context.Context) error {
	counter, err := m.counter.Get(ctx)
	if err != nil {
		return fmt.Errorf("position: get counter: %w", err)
	}
	if counter.Count >= m.cfg.MaxDailyTrades {
		m.logger.Warn("daily trade limit reached, refusing transition",
			slog.Int("count", counter.Count),
			slog.Int("max", m.cfg.MaxDailyTrades),
		)
		return domain.ErrDailyLimitReached
	}
	return nil
}

// auditLog records an event, warning on failure rather than failing the
// transition that already happened on-chain.
func (m *Manager) auditLog(ctx context.Context, event string, detail map[string]any) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Log(ctx, event, detail); err != nil {
		m.logger.Warn("audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
