package backtest

import (
	"math"

	"github.com/montanaflynn/stats"
)

// TradingDaysPerYear annualises daily Sharpe ratios.
const TradingDaysPerYear = 252

// DailyReturns returns v[t]/v[t-1]-1 for consecutive portfolio values. A
// non-positive previous value yields a zero return for that step.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			continue
		}
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// SharpeRatio is mean/sample-stddev of returns scaled by sqrt(252). It is 0
// for fewer than two returns or zero variance.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown is min over t of (v[t]-runMax[t])/runMax[t]. It is 0 or
// negative; positions where the running max is not positive contribute 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	runMax := values[0]
	worst := 0.0
	for _, v := range values {
		if v > runMax {
			runMax = v
		}
		if runMax <= 0 {
			continue
		}
		if dd := (v - runMax) / runMax; dd < worst {
			worst = dd
		}
	}
	return worst
}

// PeakValue returns the highest portfolio value reached.
func PeakValue(values []float64) float64 {
	peak, err := stats.Max(values)
	if err != nil {
		return 0
	}
	return peak
}
