package calculator

import (
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SkyTrader/internal/model"
)

const tolerance = 1e-9

var samplePrices = []float64{
	100, 102, 105, 110, 108, 109, 107, 105, 103, 100, 98, 96, 95, 97, 98, 100,
	101, 104, 103, 106, 108, 107, 111, 113, 112, 110, 109, 111, 114, 116,
	115, 117, 119, 118, 116, 113, 112, 114, 117, 120,
}

func TestSMA(t *testing.T) {
	t.Run("mean of trailing window", func(t *testing.T) {
		sma, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
		require.NoError(t, err)
		require.Len(t, sma, 5)
		assert.False(t, sma[0].Valid)
		assert.False(t, sma[1].Valid)
		assert.Equal(t, model.Some(2), sma[2])
		assert.Equal(t, model.Some(3), sma[3])
		assert.Equal(t, model.Some(4), sma[4])
	})

	t.Run("window longer than input", func(t *testing.T) {
		sma, err := SMA([]float64{1, 2}, 5)
		require.NoError(t, err)
		assert.Len(t, sma, 2)
		assert.True(t, sma.Empty())
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := SMA([]float64{1, 2}, 0)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("undefined before window and mean after", func(t *testing.T) {
		for _, w := range []int{1, 2, 5, 14, 20} {
			sma, err := SMA(samplePrices, w)
			require.NoError(t, err)
			for i, v := range sma {
				if i < w-1 {
					assert.False(t, v.Valid, "w=%d i=%d", w, i)
					continue
				}
				sum := 0.0
				for _, p := range samplePrices[i-w+1 : i+1] {
					sum += p
				}
				assert.InDelta(t, sum/float64(w), v.Float, tolerance, "w=%d i=%d", w, i)
			}
		}
	})

	t.Run("matches ta-lib", func(t *testing.T) {
		w := 10
		sma, err := SMA(samplePrices, w)
		require.NoError(t, err)
		ref := talib.Sma(samplePrices, w)
		for i := w - 1; i < len(samplePrices); i++ {
			assert.InDelta(t, ref[i], sma[i].Float, 1e-6)
		}
	})
}

func TestEMA(t *testing.T) {
	t.Run("seed and recurrence", func(t *testing.T) {
		ema, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
		require.NoError(t, err)
		require.Len(t, ema, 3)
		assert.InDelta(t, 2.0, ema[0], tolerance)
		assert.InDelta(t, 3.0, ema[1], tolerance)
		assert.InDelta(t, 4.0, ema[2], tolerance)
	})

	t.Run("output length", func(t *testing.T) {
		for _, w := range []int{1, 3, 12, 26, 40} {
			ema, err := EMA(samplePrices, w)
			require.NoError(t, err)
			assert.Len(t, ema, len(samplePrices)-w+1)
		}
	})

	t.Run("insufficient data is empty", func(t *testing.T) {
		ema, err := EMA([]float64{1, 2}, 3)
		require.NoError(t, err)
		assert.NotNil(t, ema)
		assert.Empty(t, ema)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := EMA([]float64{1}, -1)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("aligned series", func(t *testing.T) {
		s, err := EMASeries([]float64{1, 2, 3, 4, 5}, 3)
		require.NoError(t, err)
		require.Len(t, s, 5)
		assert.False(t, s[1].Valid)
		assert.True(t, s[2].Valid)
		assert.InDelta(t, 4.0, s[4].Float, tolerance)
	})
}

func TestRSI(t *testing.T) {
	t.Run("seeded lead-in then wilder smoothing", func(t *testing.T) {
		rsi, err := RSI([]float64{1, 2, 3, 2, 3}, 2)
		require.NoError(t, err)
		require.Len(t, rsi, 5)
		assert.InDelta(t, 100.0, rsi[0].Float, tolerance)
		assert.InDelta(t, 100.0, rsi[1].Float, tolerance)
		assert.InDelta(t, 100.0, rsi[2].Float, tolerance)
		assert.InDelta(t, 50.0, rsi[3].Float, tolerance)
		assert.InDelta(t, 75.0, rsi[4].Float, tolerance)
	})

	t.Run("constant prices are 100", func(t *testing.T) {
		prices := make([]float64, 30)
		for i := range prices {
			prices[i] = 42
		}
		rsi, err := RSI(prices, 14)
		require.NoError(t, err)
		for _, v := range rsi {
			require.True(t, v.Valid)
			assert.Equal(t, 100.0, v.Float)
		}
		sma, err := SMA(prices, 14)
		require.NoError(t, err)
		for _, v := range sma {
			if v.Valid {
				assert.InDelta(t, 42.0, v.Float, tolerance)
			}
		}
	})

	t.Run("bounded", func(t *testing.T) {
		for _, w := range []int{2, 5, 14} {
			rsi, err := RSI(samplePrices, w)
			require.NoError(t, err)
			for _, v := range rsi {
				require.True(t, v.Valid)
				assert.GreaterOrEqual(t, v.Float, 0.0)
				assert.LessOrEqual(t, v.Float, 100.0)
			}
		}
	})

	t.Run("lead-in is flat", func(t *testing.T) {
		rsi, err := RSI(samplePrices, 14)
		require.NoError(t, err)
		for i := 1; i < 14; i++ {
			assert.Equal(t, rsi[0], rsi[i])
		}
	})

	t.Run("all losses", func(t *testing.T) {
		rsi, err := RSI([]float64{10, 9, 8, 7}, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, rsi[3].Float, tolerance)
	})

	t.Run("insufficient data", func(t *testing.T) {
		rsi, err := RSI([]float64{1, 2, 3}, 14)
		require.NoError(t, err)
		assert.Len(t, rsi, 3)
		assert.True(t, rsi.Empty())
	})
}

func TestMACD(t *testing.T) {
	t.Run("short history returns nothing", func(t *testing.T) {
		prices := []float64{100, 102, 105, 110, 108, 109, 107, 105, 103, 100, 98, 96, 95, 97, 98, 100}
		line, signal, hist := MACD(prices, 12, 26, 9)
		assert.Nil(t, line)
		assert.Nil(t, signal)
		assert.Nil(t, hist)
	})

	t.Run("lengths and histogram alignment", func(t *testing.T) {
		line, signal, hist := MACD(samplePrices, DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
		require.Len(t, line, len(samplePrices)-26+1)
		require.Len(t, signal, len(line)-9+1)
		require.Len(t, hist, len(signal))
		offset := len(line) - len(signal)
		for i := range hist {
			assert.InDelta(t, line[offset+i]-signal[i], hist[i], tolerance)
		}
	})

	t.Run("line is difference of right-aligned emas", func(t *testing.T) {
		prices := []float64{1, 2, 3, 4, 5, 6}
		line, signal, hist := MACD(prices, 2, 3, 2)
		require.Len(t, line, 4)
		require.Len(t, signal, 3)
		require.Len(t, hist, 3)

		short, _ := EMA(prices, 2)
		long, _ := EMA(prices, 3)
		for i := range line {
			assert.InDelta(t, short[i+1]-long[i], line[i], tolerance)
		}
		assert.InDelta(t, 0.0, line[0], tolerance)
		assert.InDelta(t, (line[0]+line[1])/2, signal[0], tolerance)
	})

	t.Run("signal window too long", func(t *testing.T) {
		line, signal, hist := MACD(samplePrices, 12, 26, 30)
		assert.Nil(t, line)
		assert.Nil(t, signal)
		assert.Nil(t, hist)
	})

	t.Run("aligned series", func(t *testing.T) {
		line, signal, hist := MACDSeries(samplePrices, 12, 26, 9)
		require.Len(t, line, len(samplePrices))
		require.Len(t, signal, len(samplePrices))
		require.Len(t, hist, len(samplePrices))
		assert.False(t, line[24].Valid)
		assert.True(t, line[25].Valid)
		assert.False(t, signal[32].Valid)
		assert.True(t, signal[33].Valid)
		assert.InDelta(t, line[39].Float-signal[39].Float, hist[39].Float, tolerance)
	})
}

func TestBollingerBands(t *testing.T) {
	t.Run("population deviation", func(t *testing.T) {
		prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		upper, middle, lower, err := BollingerBands(prices, 8, 2, 2)
		require.NoError(t, err)
		assert.False(t, middle[6].Valid)
		assert.InDelta(t, 5.0, middle[7].Float, 1e-9)
		assert.InDelta(t, 9.0, upper[7].Float, 1e-9)
		assert.InDelta(t, 1.0, lower[7].Float, 1e-9)
	})

	t.Run("asymmetric multipliers", func(t *testing.T) {
		prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		upper, _, lower, err := BollingerBands(prices, 8, 1, 3)
		require.NoError(t, err)
		assert.InDelta(t, 7.0, upper[7].Float, 1e-9)
		assert.InDelta(t, -1.0, lower[7].Float, 1e-9)
	})

	t.Run("middle band is the sma", func(t *testing.T) {
		_, middle, _, err := BollingerBands(samplePrices, DefaultBollingerWindow, DefaultBollingerDev, DefaultBollingerDev)
		require.NoError(t, err)
		sma, err := SMA(samplePrices, DefaultBollingerWindow)
		require.NoError(t, err)
		for i := range sma {
			assert.Equal(t, sma[i].Valid, middle[i].Valid)
			if sma[i].Valid {
				assert.InDelta(t, sma[i].Float, middle[i].Float, 1e-6)
			}
		}
	})

	t.Run("insufficient data", func(t *testing.T) {
		upper, middle, lower, err := BollingerBands([]float64{1, 2, 3}, 20, 2, 2)
		require.NoError(t, err)
		assert.True(t, upper.Empty())
		assert.True(t, middle.Empty())
		assert.True(t, lower.Empty())
	})

	t.Run("invalid window", func(t *testing.T) {
		_, _, _, err := BollingerBands(samplePrices, 0, 2, 2)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestATR(t *testing.T) {
	highs := []float64{10, 11, 12, 11}
	lows := []float64{8, 9, 10.5, 7}
	closes := []float64{9, 10, 11, 8}

	t.Run("true range uses previous close", func(t *testing.T) {
		assert.Equal(t, []float64{2, 2, 2, 4}, TrueRange(highs, lows, closes))
	})

	t.Run("rolling mean", func(t *testing.T) {
		atr, err := ATR(highs, lows, closes, 2)
		require.NoError(t, err)
		require.Len(t, atr, 4)
		assert.False(t, atr[0].Valid)
		assert.InDelta(t, 2.0, atr[1].Float, tolerance)
		assert.InDelta(t, 2.0, atr[2].Float, tolerance)
		assert.InDelta(t, 3.0, atr[3].Float, tolerance)
	})

	t.Run("unequal inputs are truncated", func(t *testing.T) {
		assert.Len(t, TrueRange(highs, lows[:2], closes), 2)
	})

	t.Run("from bars", func(t *testing.T) {
		bars := make([]model.OHLCV, len(highs))
		for i := range bars {
			bars[i] = model.OHLCV{High: highs[i], Low: lows[i], Close: closes[i]}
		}
		atr, err := ATRFromBars(bars, 2)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, atr[3].Float, tolerance)
	})
}
