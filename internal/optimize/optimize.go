package optimize

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"SkyTrader/internal/backtest"
	"SkyTrader/internal/model"
	"SkyTrader/internal/strategy"
)

// Metric ranks grid results.
type Metric string

const (
	MetricBalance Metric = "balance"
	MetricSharpe  Metric = "sharpe"
)

var (
	// ErrEmptyGrid is returned when no (short, long) pair satisfies short < long.
	ErrEmptyGrid = errors.New("empty parameter grid")
	// ErrUnsupportedKind is returned for strategies that do not use the
	// short and long moving-average windows.
	ErrUnsupportedKind = errors.New("strategy has no window grid")
	ErrUnknownMetric   = errors.New("unknown ranking metric")
)

// ParseMetric maps a name to a Metric; empty means MetricBalance.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case "", MetricBalance:
		return MetricBalance, nil
	case MetricSharpe:
		return MetricSharpe, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Candidate is one point of the window grid.
type Candidate struct {
	Short int
	Long  int
}

func (c Candidate) String() string {
	return fmt.Sprintf("%d/%d", c.Short, c.Long)
}

// Result is a scored backtest for one candidate.
type Result struct {
	Candidate
	Report *model.Report
	Score  float64
}

// Options configures Search.
type Options struct {
	Shorts  []int
	Longs   []int
	Metric  Metric
	Workers int
}

// Grid enumerates (short, long) pairs in input order, skipping pairs where
// short >= long or either window is not positive.
func Grid(shorts, longs []int) []Candidate {
	var out []Candidate
	for _, s := range shorts {
		for _, l := range longs {
			if s < 1 || l < 1 || s >= l {
				continue
			}
			out = append(out, Candidate{Short: s, Long: l})
		}
	}
	return out
}

// Search backtests every grid candidate concurrently and returns the best
// result together with all results in grid order. Every candidate runs its
// own signal generation and simulator; nothing is shared between goroutines
// except the read-only bars. Ties keep the earliest candidate. Only the
// crossover and trend strategies have windows to search.
func Search(ctx context.Context, bars []model.OHLCV, scfg strategy.Config, bcfg backtest.Config, opts Options) (*Result, []Result, error) {
	switch kind := scfg.WithDefaults().Kind; kind {
	case strategy.KindCrossover, strategy.KindTrend:
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	metric, err := ParseMetric(string(opts.Metric))
	if err != nil {
		return nil, nil, err
	}
	grid := Grid(opts.Shorts, opts.Longs)
	if len(grid) == 0 {
		return nil, nil, ErrEmptyGrid
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(grid))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, c := range grid {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			cfg := scfg
			cfg.ShortWindow = c.Short
			cfg.LongWindow = c.Long
			res, err := strategy.Generate(bars, cfg)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", c, err)
			}
			report := backtest.RunBars(bars, res.Signals, res.Indicator(strategy.IndATR), bcfg)
			results[i] = Result{Candidate: c, Report: report, Score: score(report, metric)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[best].Score {
			best = i
		}
	}
	return &results[best], results, nil
}

func score(r *model.Report, m Metric) float64 {
	if m == MetricSharpe {
		return r.SharpeRatio
	}
	return r.FinalBalance
}
