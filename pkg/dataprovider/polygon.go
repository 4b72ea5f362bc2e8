package dataprovider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// PolygonProvider fetches daily aggregates from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a polygon-backed provider. An API key is
// required.
func NewPolygonProvider(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
	}

	return &PolygonProvider{
		client: polygon.New(apiKey),
	}, nil
}

// FetchDailyBars implements Provider.
func (p *PolygonProvider) FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error) {
	totalDays := int(end.Sub(start).Hours()/24) + 1

	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
	)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)

	var series types.PriceSeries

	for iter.Next() {
		agg := iter.Item()
		series = append(series, types.Bar{
			Date:   types.DateOf(time.Time(agg.Timestamp)),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})

		daysElapsed := int(time.Time(agg.Timestamp).Sub(start).Hours() / 24)
		bar.Set(daysElapsed)
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataFetchFailed, iter.Err(), "error iterating polygon aggregates for %s", ticker)
	}

	bar.Finish()

	return series, nil
}
