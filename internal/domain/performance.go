package domain

// PerformanceSummary is the realized performance derived from the full
// trade log. It is recomputed from scratch on every request so it can
// never drift out of sync with the log.
type PerformanceSummary struct {
	ProfitLoss  float64 // sell volume minus buy volume, base currency
	TradeCount  int
	TotalBought float64
	TotalSold   float64
}
