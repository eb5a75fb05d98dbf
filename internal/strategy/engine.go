package strategy

import (
	"errors"
	"fmt"

	"SkyTrader/internal/calculator"
	"SkyTrader/internal/model"
)

// Kind selects the signal rule set.
type Kind string

const (
	KindCrossover Kind = "crossover"
	KindThreshold Kind = "threshold"
	KindTrend     Kind = "trend"
)

// MAType selects the moving average used by the crossover and trend rules.
type MAType string

const (
	MASimple      MAType = "sma"
	MAExponential MAType = "ema"
)

// Indicator names in Result.Indicators.
const (
	IndShortMA    = "short_ma"
	IndLongMA     = "long_ma"
	IndSMA        = "sma"
	IndRSI        = "rsi"
	IndMACD       = "macd"
	IndMACDSignal = "macd_signal"
	IndMACDHist   = "macd_hist"
	IndBBUpper    = "bb_upper"
	IndBBMiddle   = "bb_middle"
	IndBBLower    = "bb_lower"
	IndATR        = "atr"
)

// ErrUnknownStrategy is returned for an unsupported Kind.
var ErrUnknownStrategy = errors.New("unknown strategy kind")

// Config holds indicator windows and thresholds for every rule set. Zero
// values are replaced by defaults in WithDefaults.
type Config struct {
	Kind            Kind    `yaml:"kind"`
	MAType          MAType  `yaml:"ma_type"`
	ShortWindow     int     `yaml:"short_window"`
	LongWindow      int     `yaml:"long_window"`
	SMAWindow       int     `yaml:"sma_window"`
	RSIWindow       int     `yaml:"rsi_window"`
	BuyThreshold    float64 `yaml:"buy_threshold"`
	SellThreshold   float64 `yaml:"sell_threshold"`
	RSIThreshold    float64 `yaml:"rsi_threshold"`
	MACDShort       int     `yaml:"macd_short"`
	MACDLong        int     `yaml:"macd_long"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerWindow int     `yaml:"bollinger_window"`
	BollingerDev    float64 `yaml:"bollinger_dev"`
	ATRWindow       int     `yaml:"atr_window"`
}

// DefaultConfig returns the crossover configuration with all defaults set.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Kind == "" {
		c.Kind = KindCrossover
	}
	if c.MAType == "" {
		c.MAType = MASimple
	}
	if c.ShortWindow == 0 {
		c.ShortWindow = 20
	}
	if c.LongWindow == 0 {
		c.LongWindow = 50
	}
	if c.SMAWindow == 0 {
		c.SMAWindow = 20
	}
	if c.RSIWindow == 0 {
		c.RSIWindow = calculator.DefaultRSIWindow
	}
	if c.BuyThreshold == 0 {
		c.BuyThreshold = 70
	}
	if c.SellThreshold == 0 {
		c.SellThreshold = 30
	}
	if c.RSIThreshold == 0 {
		c.RSIThreshold = 30
	}
	if c.MACDShort == 0 {
		c.MACDShort = calculator.DefaultMACDShort
	}
	if c.MACDLong == 0 {
		c.MACDLong = calculator.DefaultMACDLong
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = calculator.DefaultMACDSignal
	}
	if c.BollingerWindow == 0 {
		c.BollingerWindow = calculator.DefaultBollingerWindow
	}
	if c.BollingerDev == 0 {
		c.BollingerDev = calculator.DefaultBollingerDev
	}
	if c.ATRWindow == 0 {
		c.ATRWindow = calculator.DefaultATRWindow
	}
	return c
}

// Validate checks windows and the selected kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindCrossover, KindThreshold, KindTrend:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Kind)
	}
	switch c.MAType {
	case MASimple, MAExponential:
	default:
		return fmt.Errorf("unknown ma_type %q", c.MAType)
	}
	windows := map[string]int{
		"short_window":     c.ShortWindow,
		"long_window":      c.LongWindow,
		"sma_window":       c.SMAWindow,
		"rsi_window":       c.RSIWindow,
		"macd_short":       c.MACDShort,
		"macd_long":        c.MACDLong,
		"macd_signal":      c.MACDSignal,
		"bollinger_window": c.BollingerWindow,
		"atr_window":       c.ATRWindow,
	}
	for name, w := range windows {
		if w < 1 {
			return fmt.Errorf("strategy.%s must be positive, got %d", name, w)
		}
	}
	if c.ShortWindow >= c.LongWindow {
		return fmt.Errorf("strategy.short_window (%d) must be below long_window (%d)", c.ShortWindow, c.LongWindow)
	}
	if c.RSIThreshold < 0 || c.RSIThreshold > 100 {
		return fmt.Errorf("strategy.rsi_threshold must be within [0, 100], got %.2f", c.RSIThreshold)
	}
	return nil
}

// Result is the output of Generate: one signal per bar plus the indicator
// series that produced it, all index-aligned with the bars.
type Result struct {
	Kind       Kind
	Signals    []model.Signal
	Indicators map[string]model.Series
}

// Indicator returns the named series, or nil.
func (r *Result) Indicator(name string) model.Series {
	if r == nil {
		return nil
	}
	return r.Indicators[name]
}

// Counts returns how many Buy and Sell signals were emitted.
func (r *Result) Counts() (buys, sells int) {
	for _, s := range r.Signals {
		switch s {
		case model.Buy:
			buys++
		case model.Sell:
			sells++
		}
	}
	return buys, sells
}

// Generate computes indicators for the configured kind and derives signals.
// Bars with too little history simply produce Hold signals.
func Generate(bars []model.OHLCV, cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	closes := model.Closes(bars)
	res := &Result{Kind: cfg.Kind, Indicators: make(map[string]model.Series)}

	// ATR and Bollinger Bands are reported for every kind
	atr, err := calculator.ATRFromBars(bars, cfg.ATRWindow)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	res.Indicators[IndATR] = atr
	upper, middle, lower, err := calculator.BollingerBands(closes, cfg.BollingerWindow, cfg.BollingerDev, cfg.BollingerDev)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	res.Indicators[IndBBUpper] = upper
	res.Indicators[IndBBMiddle] = middle
	res.Indicators[IndBBLower] = lower

	switch cfg.Kind {
	case KindCrossover:
		short, long, err := movingAverages(closes, cfg)
		if err != nil {
			return nil, err
		}
		res.Indicators[IndShortMA] = short
		res.Indicators[IndLongMA] = long
		res.Signals = Crossover(short, long)

	case KindThreshold:
		sma, err := calculator.SMA(closes, cfg.SMAWindow)
		if err != nil {
			return nil, fmt.Errorf("sma: %w", err)
		}
		rsi, err := calculator.RSI(closes, cfg.RSIWindow)
		if err != nil {
			return nil, fmt.Errorf("rsi: %w", err)
		}
		macd, signal, hist := calculator.MACDSeries(closes, cfg.MACDShort, cfg.MACDLong, cfg.MACDSignal)
		res.Indicators[IndSMA] = sma
		res.Indicators[IndRSI] = rsi
		res.Indicators[IndMACD] = macd
		res.Indicators[IndMACDSignal] = signal
		res.Indicators[IndMACDHist] = hist
		res.Signals = Threshold(closes, sma, rsi, macd, signal, cfg.BuyThreshold, cfg.SellThreshold)

	case KindTrend:
		short, long, err := movingAverages(closes, cfg)
		if err != nil {
			return nil, err
		}
		rsi, err := calculator.RSI(closes, cfg.RSIWindow)
		if err != nil {
			return nil, fmt.Errorf("rsi: %w", err)
		}
		res.Indicators[IndShortMA] = short
		res.Indicators[IndLongMA] = long
		res.Indicators[IndRSI] = rsi
		res.Signals = Trend(short, long, rsi, cfg.RSIThreshold)
	}
	return res, nil
}

func movingAverages(closes []float64, cfg Config) (short, long model.Series, err error) {
	avg := calculator.SMA
	if cfg.MAType == MAExponential {
		avg = calculator.EMASeries
	}
	if short, err = avg(closes, cfg.ShortWindow); err != nil {
		return nil, nil, fmt.Errorf("short average: %w", err)
	}
	if long, err = avg(closes, cfg.LongWindow); err != nil {
		return nil, nil, fmt.Errorf("long average: %w", err)
	}
	return short, long, nil
}
