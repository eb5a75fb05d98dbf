package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SkyTrader/internal/backtest"
	"SkyTrader/internal/model"
	"SkyTrader/internal/strategy"
)

func testBars(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

var wave = []float64{10, 9, 8, 7, 6, 5, 6, 7, 8, 9, 10, 9, 8, 7, 6, 5, 6, 7, 8, 9, 10, 11, 12}

func TestGrid(t *testing.T) {
	got := Grid([]int{2, 5, 10}, []int{5, 20})
	assert.Equal(t, []Candidate{{2, 5}, {2, 20}, {5, 20}, {10, 20}}, got)
	assert.Empty(t, Grid([]int{30}, []int{10}))
	assert.Empty(t, Grid([]int{0}, []int{10}))
}

func TestSearchMatchesSequentialRuns(t *testing.T) {
	bars := testBars(wave...)
	scfg := strategy.Config{Kind: strategy.KindCrossover}
	bcfg := backtest.DefaultConfig()

	best, all, err := Search(context.Background(), bars, scfg, bcfg, Options{
		Shorts:  []int{2, 3},
		Longs:   []int{4, 6},
		Workers: 2,
	})
	require.NoError(t, err)
	require.Len(t, all, 4)

	for _, r := range all {
		cfg := scfg
		cfg.ShortWindow, cfg.LongWindow = r.Short, r.Long
		res, err := strategy.Generate(bars, cfg)
		require.NoError(t, err)
		want := backtest.RunBars(bars, res.Signals, res.Indicator(strategy.IndATR), bcfg)
		assert.InDelta(t, want.FinalBalance, r.Report.FinalBalance, 1e-9, r.Candidate.String())
		assert.Equal(t, r.Report.FinalBalance, r.Score)
	}

	for _, r := range all {
		assert.LessOrEqual(t, r.Score, best.Score)
	}
}

func TestSearchTieKeepsFirst(t *testing.T) {
	// flat prices never cross, so every candidate ends at the initial balance
	bars := testBars(5, 5, 5, 5, 5, 5, 5, 5)
	best, all, err := Search(context.Background(), bars, strategy.Config{}, backtest.DefaultConfig(), Options{
		Shorts: []int{1, 2},
		Longs:  []int{3, 4},
		Metric: MetricSharpe,
	})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, Candidate{1, 3}, best.Candidate)
	assert.Equal(t, 0.0, best.Score)
}

func TestSearchEmptyGrid(t *testing.T) {
	_, _, err := Search(context.Background(), testBars(1, 2, 3), strategy.Config{}, backtest.DefaultConfig(), Options{
		Shorts: []int{10},
		Longs:  []int{5},
	})
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Search(ctx, testBars(wave...), strategy.Config{}, backtest.DefaultConfig(), Options{
		Shorts: []int{2},
		Longs:  []int{4},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchRejectsThreshold(t *testing.T) {
	_, _, err := Search(context.Background(), testBars(wave...), strategy.Config{Kind: strategy.KindThreshold}, backtest.DefaultConfig(), Options{
		Shorts: []int{2, 3},
		Longs:  []int{4, 6},
	})
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, all, err := Search(context.Background(), testBars(wave...), strategy.Config{Kind: strategy.KindTrend}, backtest.DefaultConfig(), Options{
		Shorts: []int{2},
		Longs:  []int{4},
	})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSearchUnknownMetric(t *testing.T) {
	_, _, err := Search(context.Background(), testBars(wave...), strategy.Config{}, backtest.DefaultConfig(), Options{
		Shorts: []int{2},
		Longs:  []int{4},
		Metric: "sortino",
	})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestParseMetric(t *testing.T) {
	for in, want := range map[string]Metric{"": MetricBalance, "balance": MetricBalance, "sharpe": MetricSharpe} {
		got, err := ParseMetric(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMetric("Sharpe")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
