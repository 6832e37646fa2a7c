package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// risingSeries is the regression fixture: fourteen strictly rising prices.
func risingSeries() []float64 {
	return []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113}
}

func TestSMA(t *testing.T) {
	prices := risingSeries()

	sma7, err := SMA(prices, 7)
	require.NoError(t, err)
	// Mean of 107..113.
	assert.InDelta(t, 110.0, sma7, 1e-9)

	sma14, err := SMA(prices, 14)
	require.NoError(t, err)
	assert.InDelta(t, 106.5, sma14, 1e-9)
}

func TestSMA_InsufficientData(t *testing.T) {
	_, err := SMA([]float64{100, 101, 102}, 7)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRSI_SaturatesWithoutLosses(t *testing.T) {
	// Thirteen positive deltas and no losses: the gain/loss ratio is
	// undefined and the oscillator must saturate to 100.
	rsi, err := RSI(risingSeries(), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestRSI_MixedSeries(t *testing.T) {
	// Gains total 13, losses total 7 over the series, averaged by 14:
	// RS = 13/7, RSI = 100 - 100/(1+13/7) = 65.
	prices := []float64{100, 103, 105, 107, 109, 111, 112, 113, 112, 110, 109, 108, 107, 106}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.InDelta(t, 65.0, rsi, 1e-9)
}

func TestRSI_AllLosses(t *testing.T) {
	prices := []float64{113, 112, 111, 110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rsi)
}

func TestEMA(t *testing.T) {
	// Hand-computed with k = 2/3 for period 2, seeded at the first price.
	ema := EMA([]float64{1, 2, 3}, 2)
	require.Len(t, ema, 3)
	assert.InDelta(t, 1.0, ema[0], 1e-9)
	assert.InDelta(t, 5.0/3.0, ema[1], 1e-9)
	assert.InDelta(t, 23.0/9.0, ema[2], 1e-9)
}

func TestEMA_Empty(t *testing.T) {
	assert.Nil(t, EMA(nil, 12))
}

func TestMACD_RisingSeries(t *testing.T) {
	macd, signal, histogram := MACD(risingSeries())

	// The short EMA tracks a rising series more closely than the long one,
	// so the main line is positive and above its own smoothed signal.
	assert.Positive(t, macd)
	assert.Positive(t, histogram)
	assert.InDelta(t, macd-signal, histogram, 1e-9)
}

func TestMACD_FallingSeries(t *testing.T) {
	prices := []float64{113, 112, 111, 110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100}

	macd, signal, histogram := MACD(prices)
	assert.Negative(t, macd)
	assert.Negative(t, histogram)
	assert.Less(t, macd, signal)
}

func TestSnapshot(t *testing.T) {
	snap, err := Snapshot(risingSeries())
	require.NoError(t, err)

	assert.InDelta(t, 110.0, snap.ShortSMA, 1e-9)
	assert.InDelta(t, 106.5, snap.LongSMA, 1e-9)
	assert.Equal(t, 100.0, snap.RSI)
	assert.InDelta(t, snap.MACD-snap.Signal, snap.Histogram, 1e-9)
}

func TestSnapshot_InsufficientData(t *testing.T) {
	_, err := Snapshot([]float64{100, 101})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
