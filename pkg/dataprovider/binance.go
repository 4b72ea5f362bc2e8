package dataprovider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// binancePageSize is the kline page size the API returns per request.
const binancePageSize = 500

// BinanceProvider fetches daily klines from the Binance REST API. Daily
// crypto pairs trade every calendar day, so a series covers weekends too.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider creates a binance-backed provider. Credentials are
// optional for historical kline reads.
func NewBinanceProvider(apiKey, secretKey string) Provider {
	return &BinanceProvider{
		client: binance.NewClient(apiKey, secretKey),
	}
}

// FetchDailyBars implements Provider. Binance limits each kline request, so
// the range is paged using the close time of the last kline per page.
func (p *BinanceProvider) FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error) {
	startMillis := start.UnixMilli()
	endMillis := end.UnixMilli()

	var series types.PriceSeries

	currentStart := startMillis

	for {
		klines, err := p.client.NewKlinesService().
			Symbol(ticker).
			Interval("1d").
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataFetchFailed, err, "failed to fetch klines for %s", ticker)
		}

		series = append(series, klinesToBars(klines)...)

		if len(klines) < binancePageSize {
			break
		}

		// Advance past the close time of the last kline to avoid duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	return series, nil
}

func klinesToBars(klines []*binance.Kline) types.PriceSeries {
	bars := make(types.PriceSeries, 0, len(klines))

	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bars = append(bars, types.Bar{
			Date:   types.DateOf(time.UnixMilli(k.OpenTime).UTC()),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars
}
