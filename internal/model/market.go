package model

import "time"

// OHLCV represents a single daily price bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the bars fetched for one symbol over a date range.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	Start     time.Time
	End       time.Time
	Source    string
	FetchedAt time.Time
}

// Len returns the number of bars.
func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Bars)
}

// Closes extracts the close prices, index-aligned with bars.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high prices, index-aligned with bars.
func Highs(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low prices, index-aligned with bars.
func Lows(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}
