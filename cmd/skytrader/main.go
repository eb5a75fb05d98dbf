package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"SkyTrader/internal/collector"
	"SkyTrader/internal/config"
	"SkyTrader/internal/logger"
	"SkyTrader/internal/metrics"
	"SkyTrader/internal/notifier"
	"SkyTrader/internal/recorder"
	"SkyTrader/internal/runner"
	"SkyTrader/internal/strategy"
)

var rootCmd = &cobra.Command{
	Use:          "skytrader",
	Short:        "Indicator signals and single-asset backtests",
	SilenceUsage: true,
}

func main() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "configs/config.yaml", "Path to the YAML config (CONFIG_PATH overrides the default).")
	pf.String("symbol", "", "Ticker symbol.")
	pf.String("start", "", "First date, YYYY-MM-DD.")
	pf.String("end", "", "Last date, YYYY-MM-DD.")
	pf.String("strategy", "", "Strategy kind: crossover, threshold or trend.")
	pf.String("provider", "", "Data provider: yahoo, alpaca, polygon, csv or mock.")

	rootCmd.AddCommand(backtestCmd, signalsCmd, optimizeCmd, sentimentCmd, scheduleCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("symbol"); v != "" {
		cfg.Symbol = v
	}
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		cfg.Start = v
	}
	if v, _ := cmd.Flags().GetString("end"); v != "" {
		cfg.End = v
	}
	if v, _ := cmd.Flags().GetString("strategy"); v != "" {
		cfg.Strategy.Kind = strategy.Kind(v)
	}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.DataSource.Provider = v
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier
	metrics  *metrics.Metrics
	runner   *runner.Runner
}

func newApp(cfg *config.Config, notify bool) (*app, error) {
	fetcher, err := collector.New(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("data source: %s", fetcher.Name())

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	a := &app{cfg: cfg, fetcher: fetcher, recorder: rec, metrics: metrics.New()}

	var n runner.Notifier
	if notify && cfg.Telegram.BotToken != "" {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = a.telegram
	}

	col := collector.NewCollector(fetcher, a.metrics)
	a.runner = runner.New(col, rec, n, a.metrics, cfg.Strategy, cfg.Backtest)
	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warnf("close recorder: %v", err)
	}
	if err := a.fetcher.Close(); err != nil {
		log.Warnf("close fetcher: %v", err)
	}
}

func (a *app) request() (runner.Request, error) {
	start, end, err := a.cfg.Period()
	if err != nil {
		return runner.Request{}, err
	}
	return runner.Request{Symbol: a.cfg.Symbol, Start: start, End: end}, nil
}
