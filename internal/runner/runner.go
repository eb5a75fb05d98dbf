package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"SkyTrader/internal/backtest"
	"SkyTrader/internal/collector"
	"SkyTrader/internal/metrics"
	"SkyTrader/internal/model"
	"SkyTrader/internal/notifier"
	"SkyTrader/internal/optimize"
	"SkyTrader/internal/recorder"
	"SkyTrader/internal/strategy"
)

// Notifier delivers a finished report.
type Notifier interface {
	Notify(ctx context.Context, r *model.Report) error
}

// Request names the symbol and date range of one run.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// Outcome is everything one run produced.
type Outcome struct {
	RunID   string
	Series  *model.PriceSeries
	Signals *strategy.Result
	Report  *model.Report
}

// Runner wires the collector, the pure engine and the report sinks.
type Runner struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  Notifier
	Metrics   *metrics.Metrics
	Strategy  strategy.Config
	Backtest  backtest.Config

	mu   sync.Mutex
	last *Outcome
}

// New creates a Runner. rec, n and m may be nil.
func New(c *collector.Collector, rec recorder.Recorder, n Notifier, m *metrics.Metrics, scfg strategy.Config, bcfg backtest.Config) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Collector: c,
		Recorder:  rec,
		Notifier:  n,
		Metrics:   m,
		Strategy:  scfg.WithDefaults(),
		Backtest:  bcfg.WithDefaults(),
	}
}

// Signals fetches bars and derives indicators and signals without simulating.
func (r *Runner) Signals(ctx context.Context, req Request) (*model.PriceSeries, *strategy.Result, error) {
	series := r.Collector.Fetch(ctx, req.Symbol, req.Start, req.End)
	if series.Len() == 0 {
		return series, nil, fmt.Errorf("%s %s..%s: %w", req.Symbol,
			req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"), collector.ErrNoData)
	}
	res, err := strategy.Generate(series.Bars, r.Strategy)
	if err != nil {
		return series, nil, fmt.Errorf("generate signals: %w", err)
	}
	return series, res, nil
}

// Run performs one full backtest and hands the report to every sink. Sink
// failures are logged and do not fail the run.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	started := time.Now()
	series, res, err := r.Signals(ctx, req)
	if err != nil {
		r.Metrics.ObserveFailure(string(r.Strategy.Kind))
		return nil, err
	}

	report := backtest.RunBars(series.Bars, res.Signals, res.Indicator(strategy.IndATR), r.Backtest)
	report.Symbol = req.Symbol
	report.Strategy = string(r.Strategy.Kind)

	params, _ := json.Marshal(r.Strategy)
	run := recorder.NewRun(req.Symbol, report.Strategy, series.Source, req.Start, req.End, string(params), report)
	out := &Outcome{RunID: run.ID, Series: series, Signals: res, Report: report}

	log.WithFields(log.Fields{
		"run":      run.ID,
		"symbol":   req.Symbol,
		"strategy": report.Strategy,
		"bars":     report.Bars,
		"trades":   len(report.Trades),
	}).Infof("backtest finished: final balance %.2f (%+.2f%%)", report.FinalBalance, report.TotalReturnPct)

	if err := r.Recorder.RecordRun(run); err != nil {
		log.Errorf("record run %s: %v", run.ID, err)
	}
	if r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, report); err != nil {
			log.Errorf("notify run %s: %v", run.ID, err)
		}
	}
	r.Metrics.ObserveReport(report, time.Since(started))

	r.mu.Lock()
	r.last = out
	r.mu.Unlock()
	return out, nil
}

// Optimize fetches bars once and grid-searches crossover windows over them.
func (r *Runner) Optimize(ctx context.Context, req Request, opts optimize.Options) (*optimize.Result, []optimize.Result, error) {
	series := r.Collector.Fetch(ctx, req.Symbol, req.Start, req.End)
	if series.Len() == 0 {
		return nil, nil, fmt.Errorf("%s: %w", req.Symbol, collector.ErrNoData)
	}
	best, all, err := optimize.Search(ctx, series.Bars, r.Strategy, r.Backtest, opts)
	if err != nil {
		return nil, nil, err
	}
	for i := range all {
		all[i].Report.Symbol = req.Symbol
		all[i].Report.Strategy = string(r.Strategy.Kind)
	}
	log.Infof("grid search over %d candidates: best %s final balance %.2f", len(all), best.Candidate, best.Report.FinalBalance)
	return best, all, nil
}

// Last returns the most recent successful outcome, or nil.
func (r *Runner) Last() *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// HandleCommand answers chat commands: /last, /runs and /help.
func (r *Runner) HandleCommand(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/last":
		last := r.Last()
		if last == nil {
			return "No run completed yet."
		}
		return notifier.FormatReport(last.Report)
	case "/runs":
		runs, err := r.Recorder.RecentRuns(5)
		if err != nil {
			log.Errorf("load recent runs: %v", err)
			return "Failed to load runs."
		}
		return notifier.FormatRuns(runs)
	case "/help", "/start":
		return "/last - latest backtest report\n/runs - recent recorded runs"
	}
	return ""
}

// ExportTrades writes trade records to a CSV file.
func ExportTrades(path string, trades []model.TradeRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if trades == nil {
		trades = []model.TradeRecord{}
	}
	if err := gocsv.MarshalFile(&trades, file); err != nil {
		return fmt.Errorf("write trades csv: %w", err)
	}
	return nil
}
