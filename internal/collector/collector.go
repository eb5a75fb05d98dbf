package collector

import (
	"context"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"SkyTrader/internal/metrics"
	"SkyTrader/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Close() error { return nil }

// FetchBars returns Bars when set, otherwise one synthetic weekday bar per
// day in [start, end] oscillating around Price.
func (m *MockFetcher) FetchBars(_ context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.1*math.Sin(float64(i)/10) + float64(i)*0.0005)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector wraps a Fetcher with normalisation and failure handling.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, m *metrics.Metrics) *Collector {
	return &Collector{Fetcher: fetcher, Metrics: m}
}

// Fetch returns normalised bars for symbol over [start, end]. Provider errors
// are logged and reported as an empty result, which downstream code treats
// as insufficient data.
func (c *Collector) Fetch(ctx context.Context, symbol string, start, end time.Time) *model.PriceSeries {
	series := &model.PriceSeries{
		Symbol:    symbol,
		Start:     start,
		End:       end,
		Source:    c.Fetcher.Name(),
		FetchedAt: time.Now(),
	}

	bars, err := c.Fetcher.FetchBars(ctx, symbol, start, end)
	if err != nil {
		log.WithFields(log.Fields{
			"provider": c.Fetcher.Name(),
			"symbol":   symbol,
		}).Warnf("fetch bars failed: %v", err)
		c.Metrics.ObserveFetch(c.Fetcher.Name(), 0, err)
		return series
	}

	series.Bars = Normalize(bars)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), len(series.Bars), nil)
	log.Debugf("fetched %d bars for %s from %s", len(series.Bars), symbol, c.Fetcher.Name())
	return series
}

// Normalize sorts bars by time, drops bars without a positive close (holidays
// and partly null rows) and keeps the first bar of any duplicated timestamp.
func Normalize(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !(b.Close > 0) || math.IsInf(b.Close, 1) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for i, b := range out {
		if i > 0 && b.Time.Equal(deduped[len(deduped)-1].Time) {
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}
