// Package gate implements the pre-trade risk and compliance checks. Both
// halves must pass before a decision may be executed, and any failure to
// obtain risk data fails the gate closed rather than authorizing by
// default.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Config holds the gate thresholds.
type Config struct {
	// MinLiquidity is the pool liquidity below which the trade is too
	// risky to execute.
	MinLiquidity float64
	// MaxSlippage is the highest tolerated relative deviation between the
	// current and expected execution price.
	MaxSlippage float64
	// MaxTradeAmount caps the size of a single trade.
	MaxTradeAmount float64
	// MaxGasCost caps the acceptable gas cost in base-currency units.
	MaxGasCost float64
}

// Gate evaluates trade risk and compliance against external liquidity and
// gas data.
type Gate struct {
	liquidity domain.LiquiditySource
	gas       domain.GasEstimator
	cfg       Config
	logger    *slog.Logger
}

// New creates a Gate with the given collaborators and thresholds.
func New(liquidity domain.LiquiditySource, gas domain.GasEstimator, cfg Config, logger *slog.Logger) *Gate {
	return &Gate{
		liquidity: liquidity,
		gas:       gas,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "gate")),
	}
}

// EvaluateRisk fetches liquidity for the asset and computes slippage as the
// relative deviation of the current price from the expected price. The
// assessment passes only when liquidity exceeds the minimum and slippage
// stays below the maximum. A liquidity fetch error propagates as a failed
// assessment, never a default pass.
func (g *Gate) EvaluateRisk(ctx context.Context, asset string, currentPrice, expectedPrice float64) (domain.RiskAssessment, error) {
	liquidity, err := g.liquidity.Liquidity(ctx, asset)
	if err != nil {
		g.logger.Warn("liquidity fetch failed, failing closed",
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		return domain.RiskAssessment{}, fmt.Errorf("gate: fetch liquidity: %w: %w", domain.ErrRiskDataUnavailable, err)
	}

	slippage := math.Abs(currentPrice-expectedPrice) / expectedPrice

	assessment := domain.RiskAssessment{
		Liquidity: liquidity,
		Slippage:  slippage,
		Passed:    liquidity > g.cfg.MinLiquidity && slippage < g.cfg.MaxSlippage,
	}

	g.logger.Debug("risk evaluated",
		slog.Float64("liquidity", liquidity),
		slog.Float64("slippage", slippage),
		slog.Bool("passed", assessment.Passed),
	)
	return assessment, nil
}

// CheckCompliance verifies the trade amount, liquidity, and gas cost
// against their configured limits. All three clauses must hold; every
// violated clause is reported so the audit log can name the failing rules.
func (g *Gate) CheckCompliance(amount, liquidity, gasCost float64) domain.ComplianceResult {
	var reasons []domain.ComplianceRule

	if amount > g.cfg.MaxTradeAmount {
		reasons = append(reasons, domain.RuleMaxTradeAmount)
	}
	if liquidity < g.cfg.MinLiquidity {
		reasons = append(reasons, domain.RuleMinLiquidity)
	}
	if gasCost > g.cfg.MaxGasCost {
		reasons = append(reasons, domain.RuleMaxGasCost)
	}

	return domain.ComplianceResult{
		Passed:  len(reasons) == 0,
		Reasons: reasons,
	}
}

// Authorize runs both halves of the gate for a proposed trade. The gas
// cost is estimated for the proposed amount and direction; an estimation
// error fails closed like missing liquidity data.
func (g *Gate) Authorize(ctx context.Context, asset string, amount, currentPrice, expectedPrice float64, direction domain.SwapDirection) (domain.Authorization, error) {
	risk, err := g.EvaluateRisk(ctx, asset, currentPrice, expectedPrice)
	if err != nil {
		return domain.Authorization{}, err
	}

	gasCost, err := g.gas.EstimateGas(ctx, amount, direction)
	if err != nil {
		g.logger.Warn("gas estimation failed, failing closed",
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		return domain.Authorization{}, fmt.Errorf("gate: estimate gas: %w: %w", domain.ErrRiskDataUnavailable, err)
	}

	compliance := g.CheckCompliance(amount, risk.Liquidity, gasCost)

	auth := domain.Authorization{Risk: risk, Compliance: compliance}
	if !auth.Granted() {
		g.logger.Info("trade not authorized",
			slog.Bool("risk_passed", risk.Passed),
			slog.Bool("compliance_passed", compliance.Passed),
			slog.Any("violations", compliance.Reasons),
		)
	}
	return auth, nil
}
