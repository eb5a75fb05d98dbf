package strategy

import "SkyTrader/internal/model"

// Threshold combines three rules with logical AND:
//
//	Buy:  sma > price, rsi > buy, macd > signal
//	Sell: sma < price, rsi < sell, macd < signal
//
// Any undefined input at an index forces Hold there.
func Threshold(prices []float64, sma, rsi, macd, signal model.Series, buy, sell float64) []model.Signal {
	n := model.MinLen(sma, rsi, macd, signal)
	if len(prices) < n {
		n = len(prices)
	}
	signals := make([]model.Signal, n)
	for i := 0; i < n; i++ {
		s, r, m, sg := sma[i], rsi[i], macd[i], signal[i]
		if !s.Valid || !r.Valid || !m.Valid || !sg.Valid {
			continue
		}
		price := prices[i]
		switch {
		case s.Float > price && r.Float > buy && m.Float > sg.Float:
			signals[i] = model.Buy
		case s.Float < price && r.Float < sell && m.Float < sg.Float:
			signals[i] = model.Sell
		}
	}
	return signals
}
