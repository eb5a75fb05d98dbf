package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"SkyTrader/internal/model"
	"SkyTrader/internal/recorder"
)

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// FormatReport formats a backtest report into a Telegram HTML message.
func FormatReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>SkyTrader backtest</b> | %s %s\n\n", r.Symbol, r.Strategy))
	b.WriteString(fmt.Sprintf("Bars: %d\n", r.Bars))
	b.WriteString(fmt.Sprintf("Initial balance: %s\n", money(r.InitialBalance)))
	b.WriteString(fmt.Sprintf("Final balance: %s (%+.2f%%)\n", money(r.FinalBalance), r.TotalReturnPct))
	b.WriteString(fmt.Sprintf("Trades: %d won / %d lost\n", r.WinningTrades, r.LosingTrades))
	b.WriteString(fmt.Sprintf("Sharpe: %.2f | Max drawdown: %.2f%%\n", r.SharpeRatio, r.MaxDrawdown*100))

	if n := len(r.Trades); n > 0 {
		last := r.Trades[n-1]
		b.WriteString(fmt.Sprintf("\nLast trade: %s %.4f @ %.2f on %s", last.Side, last.Shares, last.Price, last.Time.Format("2006-01-02")))
		if last.Forced {
			b.WriteString(" (closed at end of data)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ReportTable renders the report summary as a plain-text table.
func ReportTable(r *model.Report) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	table.Append([]string{"Symbol", r.Symbol})
	table.Append([]string{"Strategy", r.Strategy})
	table.Append([]string{"Bars", fmt.Sprint(r.Bars)})
	table.Append([]string{"Initial balance", money(r.InitialBalance)})
	table.Append([]string{"Final balance", money(r.FinalBalance)})
	table.Append([]string{"Total return", fmt.Sprintf("%.2f%%", r.TotalReturnPct)})
	table.Append([]string{"Closed trades", fmt.Sprint(r.ClosedTrades())})
	table.Append([]string{"Winning trades", fmt.Sprint(r.WinningTrades)})
	table.Append([]string{"Losing trades", fmt.Sprint(r.LosingTrades)})
	table.Append([]string{"Sharpe ratio", fmt.Sprintf("%.4f", r.SharpeRatio)})
	table.Append([]string{"Max drawdown", fmt.Sprintf("%.2f%%", r.MaxDrawdown*100)})
	table.Append([]string{"Peak value", money(r.PeakValue)})

	table.Render()
	return display.String()
}

// TradesTable renders trade records.
func TradesTable(trades []model.TradeRecord) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"#", "Date", "Side", "Price", "Shares", "Balance", "Note"})

	for _, t := range trades {
		note := ""
		if t.Forced {
			note = "forced close"
		}
		table.Append([]string{
			fmt.Sprint(t.Index),
			t.Time.Format("2006-01-02"),
			string(t.Side),
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%.4f", t.Shares),
			money(t.ResultingBalance),
			note,
		})
	}
	table.Render()
	return display.String()
}

// SignalsTable renders per-bar closes, the named indicator columns and the
// signal. Undefined indicator values print as "-".
func SignalsTable(bars []model.OHLCV, columns []string, indicators map[string]model.Series, signals []model.Signal) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	header := append([]string{"Date", "Close"}, columns...)
	table.SetHeader(append(header, "Signal"))

	for i, sig := range signals {
		if i >= len(bars) {
			break
		}
		row := []string{bars[i].Time.Format("2006-01-02"), fmt.Sprintf("%.2f", bars[i].Close)}
		for _, c := range columns {
			v := indicators[c].At(i)
			if !v.Valid {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", v.Float))
		}
		table.Append(append(row, sig.String()))
	}
	table.Render()
	return display.String()
}

// FormatLatest lists the most recent defined value of each named indicator.
func FormatLatest(columns []string, indicators map[string]model.Series) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		v := indicators[c].Last()
		if !v.Valid {
			parts = append(parts, c+"=-")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.2f", c, v.Float))
	}
	return "latest: " + strings.Join(parts, " ")
}

// GridRow is one line of an optimisation table.
type GridRow struct {
	Label        string
	FinalBalance float64
	ReturnPct    float64
	Sharpe       float64
	Trades       int
	Best         bool
}

// GridTable renders grid search results.
func GridTable(rows []GridRow) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Windows", "Final balance", "Return", "Sharpe", "Trades", ""})
	for _, r := range rows {
		mark := ""
		if r.Best {
			mark = "★"
		}
		table.Append([]string{
			r.Label,
			money(r.FinalBalance),
			fmt.Sprintf("%.2f%%", r.ReturnPct),
			fmt.Sprintf("%.4f", r.Sharpe),
			fmt.Sprint(r.Trades),
			mark,
		})
	}
	table.Render()
	return display.String()
}

// FormatRuns formats stored runs for a Telegram reply.
func FormatRuns(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s %s: %s (%+.2f%%), %d trades\n",
			r.RecordedAt.Format("2006-01-02 15:04"), r.Symbol, r.Strategy,
			money(r.FinalBalance), r.TotalReturnPct, r.Trades))
	}
	return b.String()
}

// RunsTable renders stored runs as a plain-text table.
func RunsTable(runs []recorder.RunSummary) string {
	display := &strings.Builder{}
	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Recorded", "ID", "Symbol", "Strategy", "Final balance", "Return", "Sharpe", "Trades"})
	for _, r := range runs {
		table.Append([]string{
			r.RecordedAt.Format(time.DateTime),
			r.ID[:min(8, len(r.ID))],
			r.Symbol,
			r.Strategy,
			money(r.FinalBalance),
			fmt.Sprintf("%.2f%%", r.TotalReturnPct),
			fmt.Sprintf("%.4f", r.SharpeRatio),
			fmt.Sprint(r.Trades),
		})
	}
	table.Render()
	return display.String()
}
