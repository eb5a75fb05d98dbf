package backtest

import (
	"math"
	"time"

	"SkyTrader/internal/model"
)

// State is the ledger state. Only long positions exist.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "LONG"
	}
	return "FLAT"
}

// Position is the simulator ledger. Shares > 0 exactly when State is Long.
type Position struct {
	State        State
	Shares       float64
	Cash         float64
	EntryBalance float64
}

// Value is the mark-to-market portfolio value at price.
func (p Position) Value(price float64) float64 {
	return p.Cash + p.Shares*price
}

// Outcome classifies what a Step did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeOpened
	OutcomeWin
	OutcomeLoss
)

// Bar is the per-index input to Step.
type Bar struct {
	Index int
	Time  time.Time
	Price float64
	ATR   model.Value
}

// positionDollars returns the dollars a Buy commits, capped at cash. Zero
// means the Buy cannot be sized.
func positionDollars(cash float64, atr model.Value, cfg Config) float64 {
	var dollars float64
	switch cfg.Sizing {
	case SizingATR:
		if !atr.Valid || atr.Float <= 0 || cfg.StopLossFraction <= 0 {
			return 0
		}
		dollars = cfg.MaxLossPerTrade / (atr.Float * cfg.StopLossFraction)
	default:
		dollars = cash * cfg.Fraction
	}
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0
	}
	return math.Min(dollars, cash)
}
