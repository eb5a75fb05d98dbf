package calculator

import (
	"errors"

	"SkyTrader/internal/model"
)

// ErrInvalidWindow is returned when an indicator window is smaller than 1.
var ErrInvalidWindow = errors.New("window must be positive")

// SMA computes the simple moving average over window. The result has the same
// length as prices; positions before window-1 are undefined. A window longer
// than the input yields an all-undefined series.
func SMA(prices []float64, window int) (model.Series, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	out := model.NewSeries(len(prices))
	for i := window - 1; i < len(prices); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += prices[j]
		}
		out[i] = model.Some(sum / float64(window))
	}
	return out, nil
}

// EMA computes the exponential moving average seeded with the simple mean of
// the first window prices. The output is right-aligned with prices and has
// len(prices)-window+1 entries; it is empty when there is not enough data.
func EMA(prices []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	if len(prices) < window {
		return []float64{}, nil
	}
	multiplier := 2.0 / float64(window+1)
	out := make([]float64, 0, len(prices)-window+1)

	seed := 0.0
	for _, p := range prices[:window] {
		seed += p
	}
	prev := seed / float64(window)
	out = append(out, prev)

	for _, p := range prices[window:] {
		prev = p + (prev-p)*multiplier
		out = append(out, prev)
	}
	return out, nil
}

// AlignRight pads a right-aligned output (EMA, MACD) to n positions so that
// index i refers to the same bar as prices[i]. Values that do not fit are
// dropped from the front.
func AlignRight(values []float64, n int) model.Series {
	out := model.NewSeries(n)
	offset := n - len(values)
	for i, v := range values {
		if offset+i < 0 {
			continue
		}
		out[offset+i] = model.Some(v)
	}
	return out
}

// EMASeries is EMA aligned to the input length.
func EMASeries(prices []float64, window int) (model.Series, error) {
	ema, err := EMA(prices, window)
	if err != nil {
		return nil, err
	}
	return AlignRight(ema, len(prices)), nil
}
