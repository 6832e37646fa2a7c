// Package domain defines the core types, interfaces, and sentinel errors
// shared by every layer of the trading agent.
package domain

// Decision is the outcome of one signal evaluation. It carries no side
// effects; acting on it is the position manager's job.
type Decision string

const (
	DecisionBuy  Decision = "buy"
	DecisionSell Decision = "sell"
	DecisionHold Decision = "hold"
)

// SentimentScore is a signed market-sentiment scalar. Positive values are
// bullish, negative bearish, zero neutral or unavailable.
type SentimentScore float64

// Bullish reports whether the score clears the given positive threshold.
func (s SentimentScore) Bullish(threshold float64) bool {
	return float64(s) > threshold
}

// Bearish reports whether the score clears the given negative threshold.
func (s SentimentScore) Bearish(threshold float64) bool {
	return float64(s) < -threshold
}
