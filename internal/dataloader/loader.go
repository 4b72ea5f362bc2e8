// Package dataloader fetches and caches daily OHLCV series. The cache is a
// single CSV file per ticker holding the full downloaded history; requests
// slice the cached series to their date window, so repeat runs across
// overlapping windows reuse one download.
//
// The cache assumes at most one writer at a time. Concurrent runs against
// the same ticker can race on the cache file; this batch/offline workload
// accepts that limitation.
package dataloader

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/dataprovider"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
	"go.uber.org/zap"
)

// defaultHistoryYears is how far back GetData reaches when no start date is
// given.
const defaultHistoryYears = 5

// Loader loads historical market data from a provider, caching per ticker.
type Loader struct {
	provider dataprovider.Provider
	cacheDir string
	log      *logger.Logger
}

// NewLoader creates a loader writing its cache under cacheDir, creating the
// directory if needed.
func NewLoader(provider dataprovider.Provider, cacheDir string, log *logger.Logger) (*Loader, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to create cache directory %s", cacheDir)
	}

	log.Info("Data loader initialized", zap.String("cache_dir", cacheDir))

	return &Loader{
		provider: provider,
		cacheDir: cacheDir,
		log:      log,
	}, nil
}

// GetData returns the daily bars for ticker within [start, end]. The end
// date defaults to today and the start date to five years before the end.
// With useCache, a cached full-history file is sliced to the window instead
// of hitting the provider; on a cache miss the downloaded series is
// persisted before returning.
func (l *Loader) GetData(ctx context.Context, ticker string, start, end optional.Option[time.Time], useCache bool) (types.PriceSeries, error) {
	endDate := types.DateOf(end.TakeOr(time.Now())).Time
	startDate := types.DateOf(start.TakeOr(endDate.AddDate(-defaultHistoryYears, 0, 0))).Time

	if endDate.Before(startDate) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange,
			"end date %s is before start date %s",
			endDate.Format(types.DateLayout), startDate.Format(types.DateLayout))
	}

	if useCache {
		cached, err := l.loadCache(ticker)
		if err != nil {
			return nil, err
		}

		if cached != nil {
			l.log.Debug("Cache hit",
				zap.String("ticker", ticker),
				zap.Int("rows", len(cached)),
			)

			return cached.Slice(startDate, endDate), nil
		}
	}

	return l.download(ctx, ticker, startDate, endDate)
}

// GetPriceAtDate returns the closing price at the first available trading
// day on or after the requested date.
func (l *Loader) GetPriceAtDate(ctx context.Context, ticker string, date time.Time) (float64, error) {
	bar, err := l.GetOHLCVAtDate(ctx, ticker, date)
	if err != nil {
		return 0, err
	}

	return bar.Close, nil
}

// GetOHLCVAtDate returns the full bar at the first available trading day on
// or after the requested date.
func (l *Loader) GetOHLCVAtDate(ctx context.Context, ticker string, date time.Time) (types.Bar, error) {
	series, err := l.GetData(ctx, ticker, optional.None[time.Time](), optional.None[time.Time](), true)
	if err != nil {
		return types.Bar{}, err
	}

	idx, err := series.SearchDate(date)
	if err != nil {
		return types.Bar{}, err
	}

	return series[idx], nil
}

// CachePath returns the cache file location for a ticker.
func (l *Loader) CachePath(ticker string) string {
	return filepath.Join(l.cacheDir, ticker+".csv")
}

func (l *Loader) download(ctx context.Context, ticker string, start, end time.Time) (types.PriceSeries, error) {
	l.log.Info("Downloading data",
		zap.String("ticker", ticker),
		zap.String("start", start.Format(types.DateLayout)),
		zap.String("end", end.Format(types.DateLayout)),
	)

	series, err := l.provider.FetchDailyBars(ctx, ticker, start, end)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataFetchFailed, err, "failed to download data for %s", ticker)
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no data returned for %s", ticker)
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	if err := l.writeCache(ticker, series); err != nil {
		return nil, err
	}

	l.log.Info("Downloaded data",
		zap.String("ticker", ticker),
		zap.Int("rows", len(series)),
	)

	return series, nil
}

// loadCache returns the cached series for a ticker, or nil when no cache
// file exists. An unreadable or unparsable cache file is an error, not a
// silent miss, so a corrupt file never masquerades as missing data.
func (l *Loader) loadCache(ticker string) (types.PriceSeries, error) {
	path := l.CachePath(ticker)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeCacheReadFailed, err, "failed to open cache file for %s", ticker)
	}
	defer file.Close()

	var bars []types.Bar
	if err := gocsv.UnmarshalFile(file, &bars); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheReadFailed, err, "failed to parse cache file for %s", ticker)
	}

	series := types.PriceSeries(bars)
	if err := series.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheReadFailed, err, "cache file for %s is inconsistent", ticker)
	}

	return series, nil
}

func (l *Loader) writeCache(ticker string, series types.PriceSeries) error {
	path := l.CachePath(ticker)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeCacheWriteFailed, err, "failed to create cache file for %s", ticker)
	}
	defer file.Close()

	bars := []types.Bar(series)
	if err := gocsv.MarshalFile(&bars, file); err != nil {
		return errors.Wrapf(errors.ErrCodeCacheWriteFailed, err, "failed to write cache file for %s", ticker)
	}

	l.log.Debug("Cached data",
		zap.String("ticker", ticker),
		zap.String("path", path),
		zap.Int("rows", len(series)),
	)

	return nil
}
