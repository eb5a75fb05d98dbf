package model

import "time"

// Signal is the per-bar action emitted by a strategy.
type Signal int8

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is one executed transition of the simulator.
type TradeRecord struct {
	Side             Side      `json:"side" csv:"side"`
	Index            int       `json:"index" csv:"index"`
	Time             time.Time `json:"time" csv:"time"`
	Price            float64   `json:"price" csv:"price"`
	Shares           float64   `json:"shares" csv:"shares"`
	ResultingBalance float64   `json:"resulting_balance" csv:"resulting_balance"`
	Forced           bool      `json:"forced" csv:"forced"`
}

// Report is the terminal result of a backtest.
type Report struct {
	Symbol         string
	Strategy       string
	InitialBalance float64
	FinalBalance   float64
	TotalReturnPct float64
	WinningTrades  int
	LosingTrades   int
	Trades         []TradeRecord
	Values         []float64
	DailyReturns   []float64
	SharpeRatio    float64
	MaxDrawdown    float64
	PeakValue      float64
	Bars           int
}

// ClosedTrades returns the number of completed round trips.
func (r *Report) ClosedTrades() int {
	return r.WinningTrades + r.LosingTrades
}
