package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"SkyTrader/internal/metrics"
	"SkyTrader/internal/model"
	"SkyTrader/internal/notifier"
	"SkyTrader/internal/optimize"
	"SkyTrader/internal/runner"
	"SkyTrader/internal/scheduler"
	"SkyTrader/internal/sentiment"
	"SkyTrader/internal/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one backtest over the configured period",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		notify, _ := cmd.Flags().GetBool("notify")
		a, err := newApp(cfg, notify)
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := a.request()
		if err != nil {
			return err
		}
		out, err := a.runner.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Print(notifier.ReportTable(out.Report))
		if len(out.Report.Trades) > 0 {
			fmt.Print(notifier.TradesTable(out.Report.Trades))
		}
		if path, _ := cmd.Flags().GetString("export"); path != "" {
			if err := runner.ExportTrades(path, out.Report.Trades); err != nil {
				return err
			}
			log.Infof("exported %d trades to %s", len(out.Report.Trades), path)
		}
		return nil
	},
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Print indicators and signals without simulating",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := a.request()
		if err != nil {
			return err
		}
		series, res, err := a.runner.Signals(cmd.Context(), req)
		if err != nil {
			return err
		}

		bars, signals := series.Bars, res.Signals
		indicators := res.Indicators
		if tail, _ := cmd.Flags().GetInt("tail"); tail > 0 && tail < len(bars) {
			from := len(bars) - tail
			bars, signals = bars[from:], signals[from:]
			indicators = make(map[string]model.Series, len(res.Indicators))
			for name, s := range res.Indicators {
				indicators[name] = s[from:]
			}
		}
		columns := signalColumns(res.Kind)
		fmt.Print(notifier.SignalsTable(bars, columns, indicators, signals))
		fmt.Println(notifier.FormatLatest(columns, res.Indicators))

		buys, sells := res.Counts()
		fmt.Printf("%d bars, %d buy and %d sell signals\n", len(res.Signals), buys, sells)
		return nil
	},
}

func signalColumns(kind strategy.Kind) []string {
	switch kind {
	case strategy.KindThreshold:
		return []string{strategy.IndSMA, strategy.IndRSI, strategy.IndMACD, strategy.IndMACDSignal}
	case strategy.KindTrend:
		return []string{strategy.IndShortMA, strategy.IndLongMA, strategy.IndRSI}
	default:
		return []string{strategy.IndShortMA, strategy.IndLongMA, strategy.IndBBUpper, strategy.IndBBLower}
	}
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search crossover windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := optimize.Options{
			Shorts:  cfg.Optimize.Shorts,
			Longs:   cfg.Optimize.Longs,
			Metric:  optimize.Metric(cfg.Optimize.Metric),
			Workers: cfg.Optimize.Workers,
		}
		if v, _ := cmd.Flags().GetIntSlice("short"); len(v) > 0 {
			opts.Shorts = v
		}
		if v, _ := cmd.Flags().GetIntSlice("long"); len(v) > 0 {
			opts.Longs = v
		}
		if v, _ := cmd.Flags().GetString("metric"); v != "" {
			m, err := optimize.ParseMetric(v)
			if err != nil {
				return err
			}
			opts.Metric = m
		}

		req, err := a.request()
		if err != nil {
			return err
		}
		best, all, err := a.runner.Optimize(cmd.Context(), req, opts)
		if err != nil {
			return err
		}

		rows := make([]notifier.GridRow, len(all))
		for i, r := range all {
			rows[i] = notifier.GridRow{
				Label:        r.Candidate.String(),
				FinalBalance: r.Report.FinalBalance,
				ReturnPct:    r.Report.TotalReturnPct,
				Sharpe:       r.Report.SharpeRatio,
				Trades:       len(r.Report.Trades),
				Best:         r.Candidate == best.Candidate,
			}
		}
		fmt.Print(notifier.GridTable(rows))
		fmt.Printf("best windows %s by %s\n", best.Candidate, opts.Metric)
		return nil
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment [text]",
	Short: "Classify the sentiment of a headline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Sentiment.APIKey == "" {
			return fmt.Errorf("sentiment.api_key or OPENAI_API_KEY is required")
		}
		an := sentiment.NewAnalyzer(cfg.Sentiment.BaseURL, cfg.Sentiment.APIKey, cfg.Sentiment.Model,
			time.Duration(cfg.Sentiment.TimeoutSeconds)*time.Second)
		fmt.Println(headlineSentiment(cmd.Context(), an, args))
		return nil
	},
}

// headlineSentiment joins the words into one headline. A failed call has
// already been logged and prints as an empty line.
func headlineSentiment(ctx context.Context, an *sentiment.Analyzer, words []string) string {
	return an.AnalyzeOrEmpty(ctx, strings.Join(words, " "))
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run backtests on a cron schedule and answer Telegram commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var sender scheduler.Sender
		if a.telegram != nil {
			sender = a.telegram
		}
		sched := scheduler.NewScheduler(ctx, a.runner, sender, cfg.Symbol, cfg.Schedule.LookbackDays)
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Schedule.MetricsAddr != "" {
			srv := metrics.NewServer(cfg.Schedule.MetricsAddr, a.metrics)
			srv.Start()
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warnf("metrics server shutdown: %v", err)
				}
			}()
		}

		if a.telegram != nil {
			go a.telegram.StartPolling(ctx, sched.HandleCommand)
			log.Info("Telegram polling started")
		}

		if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
			go func() {
				if _, err := sched.RunNow(); err != nil {
					log.Errorf("initial backtest: %v", err)
				}
			}()
		}

		log.Infof("SkyTrader is running (%s). Press Ctrl+C to stop.", cfg.Schedule.Cron)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			log.Info("shutdown signal received, stopping...")
		case <-ctx.Done():
		}
		cancel()
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded backtest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := a.recorder.RecentRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		fmt.Print(notifier.RunsTable(runs))
		return nil
	},
}

func init() {
	backtestCmd.Flags().String("export", "", "Write the trade log to this CSV file.")
	backtestCmd.Flags().Bool("notify", false, "Send the report to Telegram.")

	signalsCmd.Flags().Int("tail", 30, "Only print the last N bars (0 prints all).")

	optimizeCmd.Flags().IntSlice("short", nil, "Short window candidates.")
	optimizeCmd.Flags().IntSlice("long", nil, "Long window candidates.")
	optimizeCmd.Flags().String("metric", "", "Ranking metric: balance or sharpe.")

	scheduleCmd.Flags().Bool("run-now", false, "Run one backtest immediately on start.")

	historyCmd.Flags().Int("limit", 20, "Number of runs to list.")
}
