package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SkyTrader/internal/config"
	"SkyTrader/internal/model"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown data provider")
	// ErrNoData is returned when a provider answers without any bars.
	ErrNoData = errors.New("no data returned")
)

// Fetcher defines the interface for fetching daily price bars.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
	Close() error
}

// New builds the Fetcher selected by cfg.DataSource.Provider.
func New(cfg *config.Config) (Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case config.ProviderYahoo, "":
		return NewYahooFetcher(cfg.Proxy), nil
	case config.ProviderAlpaca:
		return NewAlpacaFetcher(ds.Alpaca.DataURL, ds.Alpaca.APIKey, ds.Alpaca.SecretKey, cfg.Proxy), nil
	case config.ProviderPolygon:
		return NewPolygonFetcher(ds.Polygon.APIKey, cfg.Proxy), nil
	case config.ProviderCSV:
		return NewCSVFetcher(ds.CSVPath), nil
	case config.ProviderMock:
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, ds.Provider)
	}
}

// newHTTPClient returns a client with a 30s timeout and an optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
