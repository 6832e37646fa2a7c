package domain

import "time"

// TradeAction is the side of a logged trade.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
)

// ClosedTrade is one entry of the append-only trade log. Entries are never
// mutated, reordered, or deleted after being written.
type ClosedTrade struct {
	ID           string
	Action       TradeAction
	Price        float64 // execution price, base currency per asset unit
	Amount       float64 // asset units for sells, base currency for buys
	ExecutionRef string  // transaction hash from the executor
	Timestamp    time.Time
}
