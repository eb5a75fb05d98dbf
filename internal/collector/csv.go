package collector

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"SkyTrader/internal/model"
)

// csvBar is one row of a price CSV file with a date,open,high,low,close,volume
// header. Dates are YYYY-MM-DD or RFC3339.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSVFetcher reads bars from a local CSV file. The symbol is ignored.
type CSVFetcher struct {
	Path string
}

// NewCSVFetcher creates a fetcher for path.
func NewCSVFetcher(path string) *CSVFetcher {
	return &CSVFetcher{Path: path}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) Close() error { return nil }

// FetchBars returns the rows whose date falls within [start, end].
func (f *CSVFetcher) FetchBars(_ context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	var rows []csvBar
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", f.Path, err)
	}

	var bars []model.OHLCV
	for _, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", f.Path, err)
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		bars = append(bars, model.OHLCV{Time: t, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("csv %s: %w", f.Path, ErrNoData)
	}
	return bars, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}
