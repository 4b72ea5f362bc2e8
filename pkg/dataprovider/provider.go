// Package dataprovider abstracts the upstream source of daily OHLCV bars.
// The backtest core only depends on the Provider interface, so a simulated
// source and live market data sources are interchangeable.
package dataprovider

import (
	"context"
	"time"

	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// Type defines the type of market data provider.
type Type string

const (
	TypePolygon   Type = "polygon"
	TypeBinance   Type = "binance"
	TypeSimulated Type = "simulated"
)

// AllTypes returns every supported provider type.
func AllTypes() []Type {
	return []Type{TypePolygon, TypeBinance, TypeSimulated}
}

// Config carries provider credentials. Only the fields for the selected
// provider are read.
type Config struct {
	PolygonAPIKey string
	BinanceAPIKey string
	BinanceSecret string
}

// Provider fetches daily OHLCV bars for a ticker between two dates.
type Provider interface {
	// FetchDailyBars returns the bars in [start, end], oldest first. An
	// empty series with a nil error means the upstream has no data for the
	// ticker/range; transport failures return an error.
	FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error)
}

// New creates a market data provider based on the provider type.
func New(providerType Type, config Config) (Provider, error) {
	switch providerType {
	case TypePolygon:
		return NewPolygonProvider(config.PolygonAPIKey)
	case TypeBinance:
		return NewBinanceProvider(config.BinanceAPIKey, config.BinanceSecret), nil
	case TypeSimulated:
		return NewSimulatedProvider(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
