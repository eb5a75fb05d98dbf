package calculator

import "SkyTrader/internal/model"

// Default MACD windows.
const (
	DefaultMACDShort  = 12
	DefaultMACDLong   = 26
	DefaultMACDSignal = 9
)

// MACD computes the MACD line, its signal line and the histogram. The two EMAs
// are aligned on the last bar and cut to the shorter one before subtracting;
// the histogram uses the tail of the MACD line matching the signal length.
// All three results are nil when there is not enough history.
func MACD(prices []float64, shortWindow, longWindow, signalWindow int) (line, signal, hist []float64) {
	shortEMA, err := EMA(prices, shortWindow)
	if err != nil || len(shortEMA) == 0 {
		return nil, nil, nil
	}
	longEMA, err := EMA(prices, longWindow)
	if err != nil || len(longEMA) == 0 {
		return nil, nil, nil
	}

	n := len(shortEMA)
	if len(longEMA) < n {
		n = len(longEMA)
	}
	shortEMA = shortEMA[len(shortEMA)-n:]
	longEMA = longEMA[len(longEMA)-n:]

	line = make([]float64, n)
	for i := range line {
		line[i] = shortEMA[i] - longEMA[i]
	}

	signal, err = EMA(line, signalWindow)
	if err != nil || len(signal) == 0 {
		return nil, nil, nil
	}

	tail := line[len(line)-len(signal):]
	hist = make([]float64, len(signal))
	for i := range hist {
		hist[i] = tail[i] - signal[i]
	}
	return line, signal, hist
}

// MACDSeries returns the MACD outputs aligned to the price series.
func MACDSeries(prices []float64, shortWindow, longWindow, signalWindow int) (line, signal, hist model.Series) {
	l, s, h := MACD(prices, shortWindow, longWindow, signalWindow)
	n := len(prices)
	return AlignRight(l, n), AlignRight(s, n), AlignRight(h, n)
}
