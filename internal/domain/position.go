package domain

import "time"

// Position is the single speculative holding the agent may carry. The
// position manager enforces that at most one exists at any time, although
// the persisted store is shaped as a 0-or-1-row collection for
// compatibility with the historical on-disk format.
type Position struct {
	ID        string
	Asset     string
	OpenPrice float64 // asset price in base currency at open
	Amount    float64 // asset units held
	OpenedAt  time.Time
}

// PriceChange returns the relative price move since the position opened.
func (p Position) PriceChange(currentPrice float64) float64 {
	return (currentPrice - p.OpenPrice) / p.OpenPrice
}

// Duration returns how long the position has been open as of now.
func (p Position) Duration(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// CloseReason names the trigger that ended a position.
type CloseReason string

const (
	CloseReasonProfitTarget  CloseReason = "profit_target"
	CloseReasonStopLoss      CloseReason = "stop_loss"
	CloseReasonDurationLimit CloseReason = "duration_limit"
)

// ClosedPosition is the result of a close transition: realized figures
// derived from the open position and the exit price.
type ClosedPosition struct {
	OpenPrice        float64
	ClosePrice       float64
	Amount           float64
	ProfitLoss       float64 // (close - open) * amount, in base currency
	PercentageChange float64 // price change in percent
	Duration         time.Duration
	Reason           CloseReason
}

// DailyTradeCounter bounds the number of open+close actions per calendar
// window. It is persisted so restarts do not reset trading limits.
type DailyTradeCounter struct {
	Count       int
	WindowStart time.Time
}

// Expired reports whether now falls in a later UTC calendar day than the
// window start, meaning the counter should reset before the next cycle.
func (c DailyTradeCounter) Expired(now time.Time) bool {
	ws := c.WindowStart.UTC()
	n := now.UTC()
	return n.Year() != ws.Year() || n.YearDay() != ws.YearDay()
}
