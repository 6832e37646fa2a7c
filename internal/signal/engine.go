// Package signal turns price history and sentiment into a buy/sell/hold
// decision. The engine is a pure function of its inputs; fetching the data
// and acting on the decision belong to the cycle orchestrator and the
// position manager.
package signal

import (
	"log/slog"
	"math"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
	"github.com/Mettice/Defi-Trading-Agent/internal/indicator"
)

// minHistoryPoints is the shortest price history the engine will act on.
// Anything less resolves to hold as a data-sufficiency safeguard.
const minHistoryPoints = 14

// votesRequired is how many of the four vote-casting signals must agree
// before the fallback vote produces a non-hold decision.
const votesRequired = 3

// Config holds the tunable decision thresholds.
type Config struct {
	// VolatilityBreakerPct is the relative deviation of the current price
	// from the short SMA beyond which the circuit breaker forces hold.
	VolatilityBreakerPct float64
	// VolatilityMultiplier scales the sentiment price thresholds when the
	// oscillator signals an overbought or oversold market.
	VolatilityMultiplier float64
	// SentimentThreshold is the magnitude the sentiment score must clear
	// before it can override the indicator vote.
	SentimentThreshold float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		VolatilityBreakerPct: 0.20,
		VolatilityMultiplier: 1.5,
		SentimentThreshold:   3,
	}
}

// Engine evaluates market data into a trading decision.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an Engine with the given thresholds.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "signal_engine")),
	}
}

// Decide evaluates the current price against the price history and the
// sentiment score. The history must be ordered oldest first. The decision
// rules, in priority order:
//
//  1. Invalid price or fewer than 14 history points: hold.
//  2. Circuit breaker: price more than VolatilityBreakerPct away from the
//     short SMA forces hold, overriding everything below.
//  3. Sentiment override: a strong score combined with a confirming price
//     and oscillator reading short-circuits the vote.
//  4. Four-signal vote: SMA cross, price vs short SMA, oscillator bounds,
//     and MACD alignment each cast one vote; three agreeing votes decide,
//     anything less holds.
func (e *Engine) Decide(currentPrice float64, history []float64, sentiment domain.SentimentScore) domain.Decision {
	if math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) || currentPrice <= 0 {
		e.logger.Warn("invalid current price, holding", slog.Float64("price", currentPrice))
		return domain.DecisionHold
	}

	if len(history) < minHistoryPoints {
		e.logger.Warn("not enough historical data, holding as a safeguard",
			slog.Int("points", len(history)),
			slog.Int("required", minHistoryPoints),
		)
		return domain.DecisionHold
	}

	snap, err := indicator.Snapshot(history)
	if err != nil {
		e.logger.Warn("indicator computation failed, holding", slog.String("error", err.Error()))
		return domain.DecisionHold
	}

	// Circuit breaker comes before every other rule.
	deviation := math.Abs(currentPrice-snap.ShortSMA) / snap.ShortSMA
	if deviation > e.cfg.VolatilityBreakerPct {
		e.logger.Warn("circuit breaker triggered, holding",
			slog.Float64("deviation", deviation),
			slog.Float64("limit", e.cfg.VolatilityBreakerPct),
		)
		return domain.DecisionHold
	}

	// Widen the sentiment price bands in volatile conditions.
	multiplier := 1.0
	if snap.RSI > 70 || snap.RSI < 30 {
		multiplier = e.cfg.VolatilityMultiplier
	}

	if sentiment.Bullish(e.cfg.SentimentThreshold) &&
		currentPrice > snap.ShortSMA*1.02*multiplier && snap.RSI > 60 {
		e.logger.Info("sentiment override: overbought, selling",
			slog.Float64("sentiment", float64(sentiment)),
			slog.Float64("rsi", snap.RSI),
		)
		return domain.DecisionSell
	}
	if sentiment.Bearish(e.cfg.SentimentThreshold) &&
		currentPrice < snap.ShortSMA*0.98*multiplier && snap.RSI < 40 {
		e.logger.Info("sentiment override: oversold, buying",
			slog.Float64("sentiment", float64(sentiment)),
			slog.Float64("rsi", snap.RSI),
		)
		return domain.DecisionBuy
	}

	buyVotes, sellVotes := e.countVotes(currentPrice, snap)

	e.logger.Debug("indicator vote",
		slog.Int("buy_votes", buyVotes),
		slog.Int("sell_votes", sellVotes),
		slog.Float64("sma7", snap.ShortSMA),
		slog.Float64("sma14", snap.LongSMA),
		slog.Float64("rsi", snap.RSI),
		slog.Float64("macd", snap.MACD),
	)

	switch {
	case buyVotes >= votesRequired:
		return domain.DecisionBuy
	case sellVotes >= votesRequired:
		return domain.DecisionSell
	default:
		return domain.DecisionHold
	}
}

// countVotes tallies the four independent indicator signals.
func (e *Engine) countVotes(price float64, snap domain.IndicatorSnapshot) (buy, sell int) {
	// SMA cross.
	if snap.ShortSMA > snap.LongSMA {
		buy++
	} else if snap.ShortSMA < snap.LongSMA {
		sell++
	}

	// Price vs short SMA.
	if price > snap.ShortSMA*1.01 {
		sell++
	} else if price < snap.ShortSMA*0.99 {
		buy++
	}

	// Oscillator bounds.
	if snap.RSI > 70 {
		sell++
	} else if snap.RSI < 30 {
		buy++
	}

	// MACD alignment.
	if snap.Histogram > 0 && snap.MACD > snap.Signal {
		buy++
	} else if snap.Histogram < 0 && snap.MACD < snap.Signal {
		sell++
	}

	return buy, sell
}
