package recorder

import (
	"time"

	"github.com/google/uuid"

	"SkyTrader/internal/model"
)

// Run is one finished backtest with its identifying metadata.
type Run struct {
	ID       string
	Symbol   string
	Strategy string
	Provider string
	Start    time.Time
	End      time.Time
	Params   string // strategy parameters as JSON
	Report   *model.Report
}

// NewRun stamps a run with a fresh ID.
func NewRun(symbol, strategy, provider string, start, end time.Time, params string, report *model.Report) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Strategy: strategy,
		Provider: provider,
		Start:    start,
		End:      end,
		Params:   params,
		Report:   report,
	}
}

// RunSummary is a stored run without its trades.
type RunSummary struct {
	ID             string
	RecordedAt     time.Time
	Symbol         string
	Strategy       string
	FinalBalance   float64
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdown    float64
	Trades         int
}

// Recorder persists backtest results for later analysis.
type Recorder interface {
	RecordRun(run *Run) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
