package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mettice/Defi-Trading-Agent/internal/crypto"
	"github.com/Mettice/Defi-Trading-Agent/internal/engine"
	"github.com/Mettice/Defi-Trading-Agent/internal/gate"
	"github.com/Mettice/Defi-Trading-Agent/internal/performance"
	"github.com/Mettice/Defi-Trading-Agent/internal/position"
	"github.com/Mettice/Defi-Trading-Agent/internal/rebalance"
	"github.com/Mettice/Defi-Trading-Agent/internal/signal"
)

// archiveInterval is the cadence of periodic trade-log archival inside
// trade mode. Archive mode runs once and exits instead.
const archiveInterval = 24 * time.Hour

// TradeMode runs the trading loop until the context is cancelled,
// optionally alongside a periodic trade-log archiver.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode",
		slog.String("asset", a.cfg.Market.AssetID),
		slog.Duration("poll_interval", a.cfg.Trading.PollInterval.Duration),
	)

	signals := signal.NewEngine(signal.Config{
		VolatilityBreakerPct: a.cfg.Signal.VolatilityBreakerPct,
		VolatilityMultiplier: a.cfg.Signal.VolatilityMultiplier,
		SentimentThreshold:   a.cfg.Signal.SentimentThreshold,
	}, a.logger)

	riskGate := gate.New(deps.LiquiditySource, deps.Gas, gate.Config{
		MinLiquidity:   a.cfg.Trading.MinLiquidity,
		MaxSlippage:    a.cfg.Trading.MaxSlippage,
		MaxTradeAmount: a.cfg.Trading.MaxTradeAmount,
		MaxGasCost:     a.cfg.Trading.MaxGasCost,
	}, a.logger)

	positions := position.NewManager(
		deps.PositionStore, deps.TradeStore, deps.CounterStore,
		deps.Executor, deps.AuditStore,
		position.Config{
			ProfitThreshold: a.cfg.Trading.ProfitThreshold,
			LossThreshold:   a.cfg.Trading.LossThreshold,
			MaxDuration:     a.cfg.Trading.MaxPositionDuration.Duration,
			MaxDailyTrades:  a.cfg.Trading.MaxDailyTrades,
		},
		a.logger,
	)

	rebalancer := rebalance.New(deps.Executor, deps.Gas, rebalance.Config{
		TargetBasePct:  a.cfg.Rebalance.TargetAllocationPct,
		MinTradeAmount: a.cfg.Rebalance.MinRebalanceAmount,
		GasCeiling:     a.cfg.Rebalance.GasCeiling,
	}, a.logger)

	eng := engine.New(
		deps.PriceFeed, deps.SentimentFeed, deps.Wallet,
		signals, riskGate, positions, rebalancer,
		performance.NewAggregator(deps.TradeStore),
		deps.LockManager, deps.Notifier,
		engine.Config{
			Asset:          a.cfg.Market.AssetID,
			HistoryDays:    a.cfg.Market.HistoryDays,
			GasBuffer:      a.cfg.Trading.GasBuffer,
			MaxTradeAmount: a.cfg.Trading.MaxTradeAmount,
			PollInterval:   a.cfg.Trading.PollInterval.Duration,
			LockTTL:        a.cfg.Trading.PollInterval.Duration,
		},
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	runner := engine.NewRunner(eng, a.cfg.Trading.PollInterval.Duration, a.logger)
	g.Go(func() error {
		return runner.Run(ctx)
	})

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			ticker := time.NewTicker(archiveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					archived, err := deps.Archiver.Run(ctx)
					if err != nil {
						a.logger.ErrorContext(ctx, "periodic archival failed",
							slog.String("error", err.Error()),
						)
						continue
					}
					if archived > 0 {
						a.logger.InfoContext(ctx, "periodic archival complete",
							slog.Int64("trades_archived", archived),
						)
					}
				}
			}
		})
	}

	return g.Wait()
}

// ReportMode prints a one-shot performance summary covering the persisted
// trade log plus any archived batches, along with the most recent audit
// entries, then exits.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting report mode")

	trades, err := deps.TradeStore.List(ctx)
	if err != nil {
		return fmt.Errorf("report mode: list trades: %w", err)
	}

	// Archival moves aged rows to object storage; fold them back in so
	// the summary still spans the full history.
	var archivedCount int
	if deps.Archiver != nil {
		archived, err := deps.Archiver.ArchivedTrades(ctx)
		if err != nil {
			return fmt.Errorf("report mode: read archived trades: %w", err)
		}
		archivedCount = len(archived)
		trades = append(archived, trades...)
	}

	summary := performance.Summarize(trades)
	a.logger.InfoContext(ctx, "performance summary",
		slog.Float64("total_bought", summary.TotalBought),
		slog.Float64("total_sold", summary.TotalSold),
		slog.Float64("profit_loss", summary.ProfitLoss),
		slog.Int("trade_count", summary.TradeCount),
		slog.Int("archived_trades", archivedCount),
	)

	entries, err := deps.AuditStore.List(ctx, 20)
	if err != nil {
		return fmt.Errorf("report mode: list audit log: %w", err)
	}
	for _, entry := range entries {
		a.logger.InfoContext(ctx, "audit entry",
			slog.Int64("id", entry.ID),
			slog.String("event", entry.Event),
			slog.Time("created_at", entry.CreatedAt),
			slog.Any("detail", entry.Detail),
		)
	}

	return nil
}

// KeygenMode seals the configured raw private key into the encrypted key
// file named by wallet.encrypted_key_path, then exits. The plain key can
// be dropped from the config afterwards; trade mode decrypts the file
// with wallet.key_password on startup.
func (a *App) KeygenMode(ctx context.Context) error {
	key := strings.TrimPrefix(a.cfg.Wallet.PrivateKey, "0x")
	blob, err := crypto.EncryptKeyFile(key, a.cfg.Wallet.KeyPassword)
	if err != nil {
		return fmt.Errorf("keygen mode: %w", err)
	}
	if err := os.WriteFile(a.cfg.Wallet.EncryptedKeyPath, blob, 0o600); err != nil {
		return fmt.Errorf("keygen mode: write key file: %w", err)
	}

	a.logger.InfoContext(ctx, "encrypted key file written",
		slog.String("path", a.cfg.Wallet.EncryptedKeyPath),
	)
	return nil
}

// ArchiveMode runs a single archival pass and exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
	)

	archived, err := deps.Archiver.Run(ctx)
	if err != nil {
		return fmt.Errorf("archive mode: %w", err)
	}
	a.logger.InfoContext(ctx, "archival complete", slog.Int64("trades_archived", archived))

	return nil
}
