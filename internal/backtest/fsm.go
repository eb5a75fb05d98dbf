package backtest

import (
	"math"

	"SkyTrader/internal/model"
)

// Step is the pure transition function of the Flat/Long machine. It returns
// the next position, the trade it executed (nil for none) and its outcome.
//
//	Flat + Buy  -> Long  (sized entry)
//	Long + Sell -> Flat  (win iff cash ends above the entry balance)
//
// Every other combination leaves the position unchanged, as does a trade at
// a price that is not positive.
func Step(pos Position, sig model.Signal, bar Bar, cfg Config) (Position, *model.TradeRecord, Outcome) {
	switch {
	case sig == model.Buy && pos.State == Flat:
		return enter(pos, bar, cfg)
	case sig == model.Sell && pos.State == Long:
		return exit(pos, bar)
	}
	return pos, nil, OutcomeNone
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

func enter(pos Position, bar Bar, cfg Config) (Position, *model.TradeRecord, Outcome) {
	if !validPrice(bar.Price) {
		return pos, nil, OutcomeNone
	}
	dollars := positionDollars(pos.Cash, bar.ATR, cfg)
	if dollars <= 0 {
		return pos, nil, OutcomeNone
	}
	shares := dollars / bar.Price
	if shares <= 0 {
		return pos, nil, OutcomeNone
	}

	next := Position{
		State:        Long,
		Shares:       shares,
		Cash:         pos.Cash - dollars,
		EntryBalance: pos.Cash,
	}
	rec := &model.TradeRecord{
		Side:             model.SideBuy,
		Index:            bar.Index,
		Time:             bar.Time,
		Price:            bar.Price,
		Shares:           shares,
		ResultingBalance: next.Cash,
	}
	return next, rec, OutcomeOpened
}

func exit(pos Position, bar Bar) (Position, *model.TradeRecord, Outcome) {
	if !validPrice(bar.Price) {
		return pos, nil, OutcomeNone
	}
	cash := pos.Cash + pos.Shares*bar.Price
	rec := &model.TradeRecord{
		Side:             model.SideSell,
		Index:            bar.Index,
		Time:             bar.Time,
		Price:            bar.Price,
		Shares:           pos.Shares,
		ResultingBalance: cash,
	}
	outcome := OutcomeLoss
	if cash > pos.EntryBalance {
		outcome = OutcomeWin
	}
	return Position{State: Flat, Cash: cash}, rec, outcome
}
