package backtest

import (
	"time"

	"SkyTrader/internal/model"
)

// Run replays signals against prices and returns the terminal report. The
// replay covers min(len(prices), len(signals)) bars, further cut to len(atr)
// when an ATR series is given. A position still open at the last bar is
// closed at that bar's price and the closing record is marked Forced. Bars
// without a positive price execute nothing; the open position is valued and
// force-closed at the last valid price instead.
func Run(prices []float64, signals []model.Signal, atr model.Series, cfg Config) *model.Report {
	return run(prices, nil, signals, atr, cfg)
}

// RunBars is Run over bars; trade records carry the bar timestamps.
func RunBars(bars []model.OHLCV, signals []model.Signal, atr model.Series, cfg Config) *model.Report {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}
	return run(model.Closes(bars), times, signals, atr, cfg)
}

func run(prices []float64, times []time.Time, signals []model.Signal, atr model.Series, cfg Config) *model.Report {
	cfg = cfg.WithDefaults()
	n := len(prices)
	if len(signals) < n {
		n = len(signals)
	}
	if atr != nil && len(atr) < n {
		n = len(atr)
	}

	report := &model.Report{
		InitialBalance: cfg.InitialBalance,
		Bars:           n,
		Values:         make([]float64, 0, n),
	}
	pos := Position{State: Flat, Cash: cfg.InitialBalance}
	var mark float64

	for i := 0; i < n; i++ {
		bar := Bar{Index: i, Price: prices[i], ATR: atr.At(i)}
		if times != nil {
			bar.Time = times[i]
		}
		if validPrice(bar.Price) {
			mark = bar.Price
		}

		var (
			rec     *model.TradeRecord
			outcome Outcome
		)
		pos, rec, outcome = Step(pos, signals[i], bar, cfg)
		if i == n-1 && pos.State == Long {
			closing := bar
			closing.Price = mark
			pos, rec, outcome = Step(pos, model.Sell, closing, cfg)
			rec.Forced = true
		}
		record(report, rec, outcome)
		report.Values = append(report.Values, pos.Value(mark))
	}

	report.FinalBalance = pos.Cash
	report.TotalReturnPct = (report.FinalBalance - cfg.InitialBalance) / cfg.InitialBalance * 100
	report.DailyReturns = DailyReturns(report.Values)
	report.SharpeRatio = SharpeRatio(report.DailyReturns)
	report.MaxDrawdown = MaxDrawdown(report.Values)
	report.PeakValue = PeakValue(report.Values)
	return report
}

func record(report *model.Report, rec *model.TradeRecord, outcome Outcome) {
	if rec == nil {
		return
	}
	report.Trades = append(report.Trades, *rec)
	switch outcome {
	case OutcomeWin:
		report.WinningTrades++
	case OutcomeLoss:
		report.LosingTrades++
	}
}
