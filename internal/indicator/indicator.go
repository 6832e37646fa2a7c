// Package indicator provides pure technical-indicator calculations over an
// ordered price series (oldest first). Nothing here carries state between
// calls; every value is recomputed from the full series.
package indicator

import (
	"fmt"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// MACD periods. Only the last value of each series is consumed downstream.
const (
	macdShortPeriod  = 12
	macdLongPeriod   = 26
	macdSignalPeriod = 9
)

// SMA returns the arithmetic mean of the last period prices. It fails with
// domain.ErrInsufficientData when the series is shorter than the period;
// callers treat that as a signal to hold.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicator: invalid SMA period %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("indicator: SMA(%d) needs %d points, have %d: %w",
			period, period, len(prices), domain.ErrInsufficientData)
	}

	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// RSI returns the momentum oscillator on a 0-100 scale. Gains and losses
// are accumulated across the whole series, not just the last period, then
// averaged by the period. When the series shows no losses the gain/loss
// ratio is undefined and the oscillator saturates to 100.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicator: invalid RSI period %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("indicator: RSI(%d) needs %d points, have %d: %w",
			period, period, len(prices), domain.ErrInsufficientData)
	}

	var gains, losses float64
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta >= 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// EMA returns the exponential moving average sequence aligned with the
// input, seeded with the first price and smoothed with k = 2/(period+1).
// The full sequence is needed by MACD, not just the last value.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 {
		return nil
	}

	k := 2.0 / float64(period+1)
	ema := make([]float64, len(prices))
	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = prices[i]*k + ema[i-1]*(1-k)
	}
	return ema
}

// MACD computes the convergence/divergence oscillator: the EMA12-EMA26
// line, its EMA9 signal line, and the main-minus-signal histogram. The
// returned values are the last element of each series.
func MACD(prices []float64) (macd, signal, histogram float64) {
	if len(prices) == 0 {
		return 0, 0, 0
	}

	short := EMA(prices, macdShortPeriod)
	long := EMA(prices, macdLongPeriod)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = short[i] - long[i]
	}

	signalLine := EMA(line, macdSignalPeriod)

	last := len(prices) - 1
	macd = line[last]
	signal = signalLine[last]
	histogram = macd - signal
	return macd, signal, histogram
}

// Snapshot computes every indicator the signal engine consumes in one
// pass: 7- and 14-period SMAs, the 14-period RSI, and the MACD triple.
func Snapshot(prices []float64) (domain.IndicatorSnapshot, error) {
	shortSMA, err := SMA(prices, 7)
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	longSMA, err := SMA(prices, 14)
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	rsi, err := RSI(prices, 14)
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	macd, signal, histogram := MACD(prices)

	return domain.IndicatorSnapshot{
		ShortSMA:  shortSMA,
		LongSMA:   longSMA,
		RSI:       rsi,
		MACD:      macd,
		Signal:    signal,
		Histogram: histogram,
	}, nil
}
