package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"SkyTrader/internal/model"
)

// AlpacaFetcher implements Fetcher on the Alpaca market-data client.
type AlpacaFetcher struct {
	Client *marketdata.Client
}

// NewAlpacaFetcher creates a new fetcher with optional proxy support. An
// empty dataURL uses the client's default host.
func NewAlpacaFetcher(dataURL, apiKey, secretKey, proxyURL string) *AlpacaFetcher {
	return &AlpacaFetcher{
		Client: marketdata.NewClient(marketdata.ClientOpts{
			BaseURL:    dataURL,
			APIKey:     apiKey,
			APISecret:  secretKey,
			HTTPClient: newHTTPClient(proxyURL),
		}),
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

func (f *AlpacaFetcher) Close() error { return nil }

// FetchBars returns raw daily bars between start and end. The client pages
// through the results itself.
func (f *AlpacaFetcher) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := f.Client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Raw,
		Start:      start.UTC(),
		End:        end.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca fetch bars: %w", err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("alpaca: %w", ErrNoData)
	}

	bars := make([]model.OHLCV, len(resp))
	for i, b := range resp {
		bars[i] = barToOHLCV(b)
	}
	return bars, nil
}

func barToOHLCV(b marketdata.Bar) model.OHLCV {
	return model.OHLCV{
		Time:   b.Timestamp.UTC(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: float64(b.Volume),
	}
}
