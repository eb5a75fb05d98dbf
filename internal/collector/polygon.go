package collector

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"SkyTrader/internal/model"
)

// PolygonFetcher implements Fetcher using Polygon.io daily aggregates.
type PolygonFetcher struct {
	Client *polygon.Client
}

// NewPolygonFetcher creates a Polygon client routed through the optional proxy.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	return &PolygonFetcher{Client: polygon.NewWithClient(apiKey, newHTTPClient(proxyURL))}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func (f *PolygonFetcher) Close() error { return nil }

// FetchBars lists adjusted daily aggregates between start and end.
func (f *PolygonFetcher) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithAdjusted(true)

	iter := f.Client.ListAggs(ctx, params)
	var bars []model.OHLCV
	for iter.Next() {
		bars = append(bars, aggToBar(iter.Item()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon list aggs: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("polygon: %w", ErrNoData)
	}
	return bars, nil
}

func aggToBar(a models.Agg) model.OHLCV {
	return model.OHLCV{
		Time:   time.Time(a.Timestamp).UTC(),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: a.Volume,
	}
}
