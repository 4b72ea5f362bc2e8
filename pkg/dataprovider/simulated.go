package dataprovider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/quantdesk-lab/quantsim/internal/types"
)

// Simulation tuning constants.
const (
	// simulatedMinimumPrice is the price floor preventing the random walk
	// from reaching zero or negative prices.
	simulatedMinimumPrice = 1.0
	// simulatedBaseVolume is the base volume for generated bars.
	simulatedBaseVolume = 1000000.0
	// simulatedDailyVolatility is the standard deviation of the daily return.
	simulatedDailyVolatility = 0.02
	// simulatedDailyDrift is the mean daily return (slight upward bias).
	simulatedDailyDrift = 0.0003
)

// SimulatedProvider generates deterministic OHLCV series from a seeded
// random walk. The seed derives from the ticker, so the same ticker always
// produces the same history regardless of the requested window. It stands in
// for live integrations during development and keeps tests hermetic.
type SimulatedProvider struct{}

func NewSimulatedProvider() Provider {
	return &SimulatedProvider{}
}

// FetchDailyBars implements Provider. Bars are generated for every weekday
// in [start, end]; weekends are skipped like equity trading days.
func (p *SimulatedProvider) FetchDailyBars(_ context.Context, ticker string, start, end time.Time) (types.PriceSeries, error) {
	if end.Before(start) {
		return types.PriceSeries{}, nil
	}

	seed := tickerSeed(ticker)
	rng := rand.New(rand.NewSource(int64(seed)))

	// Base price between 20 and 520, stable per ticker.
	price := 20.0 + float64(seed%500)

	var series types.PriceSeries

	for day := types.DateOf(start).Time; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		open := price
		ret := simulatedDailyDrift + rng.NormFloat64()*simulatedDailyVolatility

		closePrice := open * (1 + ret)
		if closePrice < simulatedMinimumPrice {
			closePrice = simulatedMinimumPrice
		}

		high := open
		if closePrice > high {
			high = closePrice
		}

		low := open
		if closePrice < low {
			low = closePrice
		}

		// Intraday range extends a little beyond the open/close band.
		high *= 1 + rng.Float64()*0.005
		low *= 1 - rng.Float64()*0.005

		series = append(series, types.Bar{
			Date:   types.DateOf(day),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: simulatedBaseVolume * (0.5 + rng.Float64()),
		})

		price = closePrice
	}

	return series, nil
}

func tickerSeed(ticker string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))

	return h.Sum64()
}
