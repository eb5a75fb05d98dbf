package calculator

import "SkyTrader/internal/model"

// DefaultRSIWindow is the conventional RSI lookback.
const DefaultRSIWindow = 14

// RSI computes the Wilder-smoothed relative strength index for every bar.
// Bars before window all carry the value derived from the seed averages; this
// flat lead-in is intentional. When the average loss is zero the RSI is 100.
// Fewer than window+1 prices yield an all-undefined series.
func RSI(prices []float64, window int) (model.Series, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	out := model.NewSeries(len(prices))
	if len(prices) < window+1 {
		return out, nil
	}

	// Seed averages over the first window changes
	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		gain, loss := splitChange(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)

	seed := model.Some(rsiFromAverages(avgGain, avgLoss))
	for i := 0; i < window; i++ {
		out[i] = seed
	}

	n := float64(window)
	for i := window; i < len(prices); i++ {
		gain, loss := splitChange(prices[i] - prices[i-1])
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		out[i] = model.Some(rsiFromAverages(avgGain, avgLoss))
	}
	return out, nil
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
