package strategy

import "SkyTrader/internal/model"

// Crossover emits Buy when the short average moves from at-or-below to
// strictly above the long average, Sell on the opposite move, and Hold
// otherwise. The first index has no predecessor and is always Hold.
func Crossover(short, long model.Series) []model.Signal {
	n := model.MinLen(short, long)
	signals := make([]model.Signal, n)
	for i := 1; i < n; i++ {
		s, l := short[i], long[i]
		ps, pl := short[i-1], long[i-1]
		if !s.Valid || !l.Valid || !ps.Valid || !pl.Valid {
			continue
		}
		switch {
		case s.Float > l.Float && ps.Float <= pl.Float:
			signals[i] = model.Buy
		case s.Float < l.Float && ps.Float >= pl.Float:
			signals[i] = model.Sell
		}
	}
	return signals
}
