package calculator

import (
	"math"

	"SkyTrader/internal/model"
)

// DefaultATRWindow is the conventional ATR lookback.
const DefaultATRWindow = 14

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) for each
// bar. The first bar has no previous close and uses high-low. Inputs of
// unequal length are cut to the shortest.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := minInt(len(highs), len(lows), len(closes))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			prev := closes[i-1]
			tr = math.Max(tr, math.Abs(highs[i]-prev))
			tr = math.Max(tr, math.Abs(lows[i]-prev))
		}
		out[i] = tr
	}
	return out
}

// ATR is the rolling mean of the true range over window.
func ATR(highs, lows, closes []float64, window int) (model.Series, error) {
	return SMA(TrueRange(highs, lows, closes), window)
}

// ATRFromBars computes ATR straight from bars.
func ATRFromBars(bars []model.OHLCV, window int) (model.Series, error) {
	return ATR(model.Highs(bars), model.Lows(bars), model.Closes(bars), window)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
