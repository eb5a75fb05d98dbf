package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"SkyTrader/internal/model"
)

// Metrics holds the Prometheus collectors for backtest runs. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: strategy, status
	TradesTotal   *prometheus.CounterVec // labels: side
	FetchFailures *prometheus.CounterVec // labels: provider
	BarsFetched   prometheus.Counter
	FinalBalance  *prometheus.GaugeVec // labels: symbol
	SharpeRatio   *prometheus.GaugeVec // labels: symbol
	MaxDrawdown   *prometheus.GaugeVec // labels: symbol
	RunDuration   prometheus.Histogram

	registry *prometheus.Registry
	started  time.Time
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skytrader_runs_total",
			Help: "Backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skytrader_trades_total",
			Help: "Simulated trades by side",
		}, []string{"side"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skytrader_fetch_failures_total",
			Help: "Price fetches that failed or returned no bars",
		}, []string{"provider"}),
		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skytrader_bars_fetched_total",
			Help: "Price bars received from providers",
		}),
		FinalBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skytrader_final_balance",
			Help: "Final balance of the latest run",
		}, []string{"symbol"}),
		SharpeRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skytrader_sharpe_ratio",
			Help: "Annualised Sharpe ratio of the latest run",
		}, []string{"symbol"}),
		MaxDrawdown: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "skytrader_max_drawdown",
			Help: "Maximum drawdown of the latest run",
		}, []string{"symbol"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skytrader_run_duration_seconds",
			Help:    "End-to-end run latency including the fetch",
			Buckets: prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.TradesTotal,
		m.FetchFailures,
		m.BarsFetched,
		m.FinalBalance,
		m.SharpeRatio,
		m.MaxDrawdown,
		m.RunDuration,
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFetch records a fetch result.
func (m *Metrics) ObserveFetch(provider string, bars int, err error) {
	if m == nil {
		return
	}
	if err != nil || bars == 0 {
		m.FetchFailures.WithLabelValues(provider).Inc()
		return
	}
	m.BarsFetched.Add(float64(bars))
}

// ObserveReport records a finished run.
func (m *Metrics) ObserveReport(r *model.Report, elapsed time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.RunsTotal.WithLabelValues(r.Strategy, "ok").Inc()
	for _, t := range r.Trades {
		m.TradesTotal.WithLabelValues(string(t.Side)).Inc()
	}
	m.FinalBalance.WithLabelValues(r.Symbol).Set(r.FinalBalance)
	m.SharpeRatio.WithLabelValues(r.Symbol).Set(r.SharpeRatio)
	m.MaxDrawdown.WithLabelValues(r.Symbol).Set(r.MaxDrawdown)
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveFailure records a run that could not produce a report.
func (m *Metrics) ObserveFailure(strategy string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(strategy, "error").Inc()
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewServer creates the HTTP server for m on addr.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			Uptime string `json:"uptime"`
		}{
			Status: "ok",
			Uptime: time.Since(m.started).Round(time.Second).String(),
		})
	})
	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Handler returns the server mux.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Infof("metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
