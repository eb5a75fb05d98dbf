package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SkyTrader/internal/backtest"
	"SkyTrader/internal/collector"
	"SkyTrader/internal/metrics"
	"SkyTrader/internal/model"
	"SkyTrader/internal/optimize"
	"SkyTrader/internal/recorder"
	"SkyTrader/internal/strategy"
)

type captureNotifier struct {
	reports []*model.Report
	err     error
}

func (c *captureNotifier) Notify(_ context.Context, r *model.Report) error {
	c.reports = append(c.reports, r)
	return c.err
}

// waveBars crosses SMA(2)/SMA(4) up at index 7 and down at index 12.
func waveBars() []model.OHLCV {
	closes := []float64{10, 9, 8, 7, 6, 5, 6, 7, 8, 9, 10, 9, 8, 7, 6, 5}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c}
	}
	return bars
}

var req = Request{
	Symbol: "TEST",
	Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
}

func newRunner(t *testing.T, fetcher collector.Fetcher, n Notifier) (*Runner, *recorder.SQLiteRecorder, *metrics.Metrics) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	m := metrics.New()
	scfg := strategy.Config{Kind: strategy.KindCrossover, ShortWindow: 2, LongWindow: 4}
	r := New(collector.NewCollector(fetcher, m), rec, n, m, scfg, backtest.DefaultConfig())
	return r, rec, m
}

func TestRun(t *testing.T) {
	n := &captureNotifier{err: errors.New("telegram down")}
	r, rec, m := newRunner(t, &collector.MockFetcher{Bars: waveBars()}, n)

	out, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	rep := out.Report
	assert.Equal(t, "TEST", rep.Symbol)
	assert.Equal(t, "crossover", rep.Strategy)
	require.Len(t, rep.Trades, 2)
	assert.Equal(t, 7, rep.Trades[0].Index)
	assert.Equal(t, 12, rep.Trades[1].Index)
	// bought at 7, sold at 8
	assert.InDelta(t, 10000*8.0/7.0, rep.FinalBalance, 1e-6)

	// notifier failure does not fail the run
	require.Len(t, n.reports, 1)

	runs, err := rec.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Trades)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("crossover", "ok")))
	assert.Same(t, out, r.Last())
}

func TestRunNoData(t *testing.T) {
	r, rec, m := newRunner(t, &collector.MockFetcher{Err: errors.New("timeout")}, nil)

	_, err := r.Run(context.Background(), req)
	assert.ErrorIs(t, err, collector.ErrNoData)
	assert.Nil(t, r.Last())

	runs, err := rec.RecentRuns(5)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("crossover", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("mock")))
}

func TestOptimize(t *testing.T) {
	r, _, _ := newRunner(t, &collector.MockFetcher{Bars: waveBars()}, nil)
	best, all, err := r.Optimize(context.Background(), req, optimize.Options{Shorts: []int{2, 3}, Longs: []int{4, 5}})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "TEST", best.Report.Symbol)
}

func TestOptimizeNeedsWindowStrategy(t *testing.T) {
	r, _, _ := newRunner(t, &collector.MockFetcher{Bars: waveBars()}, nil)
	r.Strategy.Kind = strategy.KindThreshold
	_, _, err := r.Optimize(context.Background(), req, optimize.Options{Shorts: []int{2}, Longs: []int{4}})
	assert.ErrorIs(t, err, optimize.ErrUnsupportedKind)
}

func TestHandleCommand(t *testing.T) {
	r, _, _ := newRunner(t, &collector.MockFetcher{Bars: waveBars()}, nil)

	assert.Equal(t, "No run completed yet.", r.HandleCommand("/last"))
	assert.Equal(t, "No runs recorded yet.", r.HandleCommand("/runs"))
	assert.Empty(t, r.HandleCommand("hello"))
	assert.Empty(t, r.HandleCommand("  "))
	assert.Contains(t, r.HandleCommand("/help"), "/last")

	_, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, r.HandleCommand("/last"), "TEST crossover")
	assert.Contains(t, r.HandleCommand("/runs"), "TEST crossover")
}

func TestExportTrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := []model.TradeRecord{
		{Side: model.SideBuy, Index: 1, Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Price: 100, Shares: 100},
		{Side: model.SideSell, Index: 3, Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Price: 105, Shares: 100, ResultingBalance: 10500, Forced: true},
	}
	require.NoError(t, ExportTrades(path, trades))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "side,index,time,price,shares,resulting_balance,forced", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "SELL,3,2024-01-05T00:00:00Z,105,100,10500,true"))
}
