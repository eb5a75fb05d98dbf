package calculator

import (
	"github.com/markcheno/go-talib"

	"SkyTrader/internal/model"
)

// Default Bollinger Band parameters.
const (
	DefaultBollingerWindow = 20
	DefaultBollingerDev    = 2.0
)

// BollingerBands returns the upper, middle and lower bands. The middle band is
// the SMA over window and the half-widths are the rolling population standard
// deviation scaled by nDevUp and nDevDown.
func BollingerBands(prices []float64, window int, nDevUp, nDevDown float64) (upper, middle, lower model.Series, err error) {
	if window < 1 {
		return nil, nil, nil, ErrInvalidWindow
	}
	n := len(prices)
	upper, middle, lower = model.NewSeries(n), model.NewSeries(n), model.NewSeries(n)
	if n < window {
		return upper, middle, lower, nil
	}
	if window == 1 {
		for i, p := range prices {
			upper[i], middle[i], lower[i] = model.Some(p), model.Some(p), model.Some(p)
		}
		return upper, middle, lower, nil
	}

	up, mid, low := talib.BBands(prices, window, nDevUp, nDevDown, talib.SMA)
	for i := window - 1; i < n; i++ {
		upper[i] = model.Some(up[i])
		middle[i] = model.Some(mid[i])
		lower[i] = model.Some(low[i])
	}
	return upper, middle, lower, nil
}
