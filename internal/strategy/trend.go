package strategy

import "SkyTrader/internal/model"

// regime values used by Trend.
const (
	regimeFlat  = 0
	regimeLong  = 1
	regimeShort = -1
)

// Trend classifies each bar into a regime and signals on its first
// difference. The regime is long when the short average is above the long
// one and RSI is below rsiThreshold, short when the short average is below
// the long one or RSI is above 100-rsiThreshold, flat otherwise. A step of +1
// is a Buy and a step of -1 is a Sell; larger jumps and no change are Hold.
func Trend(short, long, rsi model.Series, rsiThreshold float64) []model.Signal {
	n := model.MinLen(short, long, rsi)
	signals := make([]model.Signal, n)
	prev := regimeFlat
	for i := 0; i < n; i++ {
		cur := trendRegime(short[i], long[i], rsi[i], rsiThreshold)
		if i > 0 {
			switch cur - prev {
			case 1:
				signals[i] = model.Buy
			case -1:
				signals[i] = model.Sell
			}
		}
		prev = cur
	}
	return signals
}

// trendRegime treats a comparison involving an undefined value as false. The
// short condition takes precedence when both hold.
func trendRegime(short, long, rsi model.Value, thr float64) int {
	bothMA := short.Valid && long.Valid
	if (bothMA && short.Float < long.Float) || (rsi.Valid && rsi.Float > 100-thr) {
		return regimeShort
	}
	if bothMA && rsi.Valid && short.Float > long.Float && rsi.Float < thr {
		return regimeLong
	}
	return regimeFlat
}
