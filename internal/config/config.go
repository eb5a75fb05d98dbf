package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SkyTrader/internal/backtest"
	"SkyTrader/internal/optimize"
	"SkyTrader/internal/strategy"
)

// DateLayout is the layout of start/end dates in config and flags.
const DateLayout = "2006-01-02"

// Data providers.
const (
	ProviderYahoo   = "yahoo"
	ProviderAlpaca  = "alpaca"
	ProviderPolygon = "polygon"
	ProviderCSV     = "csv"
	ProviderMock    = "mock"
)

// DataSource selects and configures the bar provider.
type DataSource struct {
	Provider string `yaml:"provider"`
	CSVPath  string `yaml:"csv_path"`
	Alpaca   struct {
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
		DataURL   string `yaml:"data_url"`
	} `yaml:"alpaca"`
	Polygon struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"polygon"`
}

// Config holds all application configuration.
type Config struct {
	Symbol     string          `yaml:"symbol"`
	Start      string          `yaml:"start"`
	End        string          `yaml:"end"`
	DataSource DataSource      `yaml:"data_source"`
	Strategy   strategy.Config `yaml:"strategy"`
	Backtest   backtest.Config `yaml:"backtest"`
	Optimize   struct {
		Shorts  []int  `yaml:"shorts"`
		Longs   []int  `yaml:"longs"`
		Metric  string `yaml:"metric"`
		Workers int    `yaml:"workers"`
	} `yaml:"optimize"`
	Sentiment struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"sentiment"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron         string `yaml:"cron"`
		LookbackDays int    `yaml:"lookback_days"`
		MetricsAddr  string `yaml:"metrics_addr"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads .env if present, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SKYTRADER_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.DataSource.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.DataSource.Alpaca.SecretKey = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		c.DataSource.Alpaca.DataURL = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.DataSource.Polygon.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Sentiment.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Backtest.InitialBalance = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "AAPL"
	}
	if c.End == "" {
		c.End = time.Now().UTC().Format(DateLayout)
	}
	if c.Start == "" {
		if end, err := time.Parse(DateLayout, c.End); err == nil {
			c.Start = end.AddDate(-1, 0, 0).Format(DateLayout)
		}
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Alpaca.DataURL == "" {
		c.DataSource.Alpaca.DataURL = "https://data.alpaca.markets"
	}
	c.Strategy = c.Strategy.WithDefaults()
	c.Backtest = c.Backtest.WithDefaults()
	if len(c.Optimize.Shorts) == 0 {
		c.Optimize.Shorts = []int{5, 10, 20}
	}
	if len(c.Optimize.Longs) == 0 {
		c.Optimize.Longs = []int{30, 50, 100}
	}
	if c.Optimize.Metric == "" {
		c.Optimize.Metric = string(optimize.MetricBalance)
	}
	if c.Sentiment.BaseURL == "" {
		c.Sentiment.BaseURL = "https://api.openai.com/v1"
	}
	if c.Sentiment.Model == "" {
		c.Sentiment.Model = "gpt-3.5-turbo"
	}
	if c.Sentiment.TimeoutSeconds == 0 {
		c.Sentiment.TimeoutSeconds = 60
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 30 22 * * 1-5"
	}
	if c.Schedule.LookbackDays == 0 {
		c.Schedule.LookbackDays = 365
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/skytrader.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Period parses the configured start and end dates.
func (c *Config) Period() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.Start)
	if err != nil {
		return start, end, fmt.Errorf("parse start %q: %w", c.Start, err)
	}
	end, err = time.Parse(DateLayout, c.End)
	if err != nil {
		return start, end, fmt.Errorf("parse end %q: %w", c.End, err)
	}
	return start, end, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	start, end, err := c.Period()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start %s must be before end %s", c.Start, c.End)
	}

	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderAlpaca:
		if c.DataSource.Alpaca.APIKey == "" || c.DataSource.Alpaca.SecretKey == "" {
			return fmt.Errorf("data_source.alpaca.api_key and secret_key are required")
		}
	case ProviderPolygon:
		if c.DataSource.Polygon.APIKey == "" {
			return fmt.Errorf("data_source.polygon.api_key is required")
		}
	case ProviderCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for csv")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	switch optimize.Metric(c.Optimize.Metric) {
	case optimize.MetricBalance, optimize.MetricSharpe:
	default:
		return fmt.Errorf("unknown optimize.metric %q", c.Optimize.Metric)
	}
	return nil
}
