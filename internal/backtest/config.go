package backtest

import "fmt"

// SizingMode selects how many dollars a Buy commits.
type SizingMode string

const (
	// SizingFixed commits a fixed fraction of available cash.
	SizingFixed SizingMode = "fixed"
	// SizingATR commits MaxLossPerTrade / (ATR * StopLossFraction).
	SizingATR SizingMode = "atr"
)

// Config is the simulator configuration.
type Config struct {
	InitialBalance   float64    `yaml:"initial_balance"`
	Sizing           SizingMode `yaml:"sizing"`
	Fraction         float64    `yaml:"fraction"`
	MaxLossPerTrade  float64    `yaml:"max_loss_per_trade"`
	StopLossFraction float64    `yaml:"stop_loss_fraction"`
}

// DefaultConfig returns a 10k all-in fixed sizing configuration.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills unset fields. MaxLossPerTrade defaults to 2% of the
// initial balance.
func (c Config) WithDefaults() Config {
	if c.InitialBalance == 0 {
		c.InitialBalance = 10000
	}
	if c.Sizing == "" {
		c.Sizing = SizingFixed
	}
	if c.Fraction == 0 {
		c.Fraction = 1.0
	}
	if c.MaxLossPerTrade == 0 {
		c.MaxLossPerTrade = c.InitialBalance * 0.02
	}
	if c.StopLossFraction == 0 {
		c.StopLossFraction = 0.02
	}
	return c
}

func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive, got %.2f", c.InitialBalance)
	}
	switch c.Sizing {
	case SizingFixed:
		if c.Fraction <= 0 || c.Fraction > 1 {
			return fmt.Errorf("backtest.fraction must be within (0, 1], got %.4f", c.Fraction)
		}
	case SizingATR:
		if c.MaxLossPerTrade <= 0 {
			return fmt.Errorf("backtest.max_loss_per_trade must be positive, got %.2f", c.MaxLossPerTrade)
		}
		if c.StopLossFraction <= 0 {
			return fmt.Errorf("backtest.stop_loss_fraction must be positive, got %.4f", c.StopLossFraction)
		}
	default:
		return fmt.Errorf("unknown backtest.sizing %q", c.Sizing)
	}
	return nil
}
