// Package rebalance implements the gas-aware portfolio rebalancing policy.
// It nudges holdings back toward a target base-currency allocation with at
// most one advisory swap per run and never touches the speculative
// position.
package rebalance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Config holds the rebalancing policy parameters.
type Config struct {
	// TargetBasePct is the desired base-currency share of total value, in
	// percent.
	TargetBasePct float64
	// MinTradeAmount is the smallest deviation worth correcting.
	MinTradeAmount float64
	// GasCeiling skips the swap when the gas estimate exceeds it.
	GasCeiling float64
}

// DefaultConfig returns the production rebalancing parameters.
func DefaultConfig() Config {
	return Config{
		TargetBasePct:  70,
		MinTradeAmount: 0.001,
		GasCeiling:     0.002,
	}
}

// Outcome describes what a rebalancing run did.
type Outcome struct {
	// Direction is the proposed swap direction, empty when nothing fired.
	Direction domain.SwapDirection
	// Amount is the swapped excess in base-currency terms.
	Amount float64
	// Executed is true when the swap was submitted.
	Executed bool
	// SkippedGas is true when a deviation existed but the gas estimate
	// exceeded the ceiling.
	SkippedGas bool
	// ExecutionRef is the transaction hash of the submitted swap.
	ExecutionRef string
}

// Rebalancer proposes and executes corrective swaps toward the target
// allocation.
type Rebalancer struct {
	executor domain.TradeExecutor
	gas      domain.GasEstimator
	cfg      Config
	logger   *slog.Logger
}

// New creates a Rebalancer.
func New(executor domain.TradeExecutor, gas domain.GasEstimator, cfg Config, logger *slog.Logger) *Rebalancer {
	return &Rebalancer{
		executor: executor,
		gas:      gas,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "rebalancer")),
	}
}

// Rebalance compares both balances (both measured in base-currency terms)
// against the target allocation of their sum. When one side exceeds the
// target by more than the minimum trade amount it proposes swapping the
// excess to the other side; the two branches are mutually exclusive since
// both compare against the same target. The swap is skipped, with no
// balance mutation, when its gas estimate exceeds the ceiling.
func (r *Rebalancer) Rebalance(ctx context.Context, asset string, baseBalance, assetBalance float64) (Outcome, error) {
	target := (baseBalance + assetBalance) * (r.cfg.TargetBasePct / 100)

	switch {
	case baseBalance-target > r.cfg.MinTradeAmount:
		excess := baseBalance - target
		return r.propose(ctx, asset, domain.SwapBaseToAsset, excess)
	case assetBalance-target > r.cfg.MinTradeAmount:
		excess := assetBalance - target
		return r.propose(ctx, asset, domain.SwapAssetToBase, excess)
	default:
		r.logger.Debug("portfolio balanced, nothing to do",
			slog.Float64("base_balance", baseBalance),
			slog.Float64("asset_balance", assetBalance),
			slog.Float64("target", target),
		)
		return Outcome{}, nil
	}
}

// propose estimates gas for the corrective swap and either executes it or
// reports a gas skip.
func (r *Rebalancer) propose(ctx context.Context, asset string, direction domain.SwapDirection, amount float64) (Outcome, error) {
	gasCost, err := r.gas.EstimateGas(ctx, amount, direction)
	if err != nil {
		return Outcome{}, fmt.Errorf("rebalance: estimate gas: %w", err)
	}

	if gasCost > r.cfg.GasCeiling {
		r.logger.Info("skipping rebalance, gas above ceiling",
			slog.Float64("gas_cost", gasCost),
			slog.Float64("ceiling", r.cfg.GasCeiling),
		)
		return Outcome{Direction: direction, Amount: amount, SkippedGas: true}, nil
	}

	txHash, err := r.executor.ExecuteSwap(ctx, direction, amount, asset)
	if err != nil {
		return Outcome{}, fmt.Errorf("rebalance: execute swap: %w: %w", domain.ErrExecutionFailed, err)
	}

	r.logger.Info("rebalance swap executed",
		slog.String("direction", string(direction)),
		slog.Float64("amount", amount),
		slog.String("tx_hash", txHash),
	)
	return Outcome{
		Direction:    direction,
		Amount:       amount,
		Executed:     true,
		ExecutionRef: txHash,
	}, nil
}
