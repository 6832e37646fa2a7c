package domain

// IndicatorSnapshot holds the derived indicator values for one evaluation
// instant. It is computed fresh from the full price history each cycle;
// no incremental state is carried between cycles.
type IndicatorSnapshot struct {
	ShortSMA  float64 // 7-period simple moving average
	LongSMA   float64 // 14-period simple moving average
	RSI       float64 // 14-period momentum oscillator, 0-100
	MACD      float64 // last value of the EMA12-EMA26 line
	Signal    float64 // last value of the EMA9 of the MACD line
	Histogram float64 // MACD minus Signal
}
