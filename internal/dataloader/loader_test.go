package dataloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// stubProvider serves a fixed series and counts fetches so tests can assert
// cache behavior.
type stubProvider struct {
	series     types.PriceSeries
	err        error
	fetchCount int
}

func (s *stubProvider) FetchDailyBars(_ context.Context, _ string, start, end time.Time) (types.PriceSeries, error) {
	s.fetchCount++
	if s.err != nil {
		return nil, s.err
	}

	return s.series.Slice(start, end), nil
}

type LoaderTestSuite struct {
	suite.Suite
	cacheDir string
	provider *stubProvider
	loader   *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (s *LoaderTestSuite) SetupTest() {
	s.cacheDir = s.T().TempDir()
	s.provider = &stubProvider{series: dailySeries("2024-01-01", 30)}

	loader, err := NewLoader(s.provider, s.cacheDir, logger.NewNopLogger())
	s.Require().NoError(err)
	s.loader = loader
}

// dailySeries builds n consecutive calendar-day bars starting at the given
// date, closes rising by one each day from 100.
func dailySeries(start string, n int) types.PriceSeries {
	t, _ := time.Parse(types.DateLayout, start)

	series := make(types.PriceSeries, n)
	for i := range series {
		close := 100.0 + float64(i)
		series[i] = types.Bar{
			Date:   types.DateOf(t.AddDate(0, 0, i)),
			Open:   close - 0.5,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		}
	}

	return series
}

func date(s string) time.Time {
	t, _ := time.Parse(types.DateLayout, s)
	return t
}

func (s *LoaderTestSuite) TestDownloadAndCacheRoundTrip() {
	ctx := context.Background()
	start := optional.Some(date("2024-01-01"))
	end := optional.Some(date("2024-01-30"))

	first, err := s.loader.GetData(ctx, "AAPL", start, end, true)
	s.Require().NoError(err)
	s.Require().Len(first, 30)
	s.Equal(1, s.provider.fetchCount)
	s.FileExists(s.loader.CachePath("AAPL"))

	second, err := s.loader.GetData(ctx, "AAPL", start, end, true)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, s.provider.fetchCount, "second call should be served from cache")
}

func (s *LoaderTestSuite) TestCacheSlicedToWindow() {
	ctx := context.Background()

	_, err := s.loader.GetData(ctx, "AAPL",
		optional.Some(date("2024-01-01")), optional.Some(date("2024-01-30")), true)
	s.Require().NoError(err)

	window, err := s.loader.GetData(ctx, "AAPL",
		optional.Some(date("2024-01-10")), optional.Some(date("2024-01-12")), true)
	s.Require().NoError(err)
	s.Require().Len(window, 3)
	s.Equal("2024-01-10", window[0].Date.Format(types.DateLayout))
	s.Equal("2024-01-12", window[2].Date.Format(types.DateLayout))
	s.Equal(1, s.provider.fetchCount)
}

func (s *LoaderTestSuite) TestCacheDisabledAlwaysFetches() {
	ctx := context.Background()
	start := optional.Some(date("2024-01-01"))
	end := optional.Some(date("2024-01-30"))

	_, err := s.loader.GetData(ctx, "AAPL", start, end, false)
	s.Require().NoError(err)
	_, err = s.loader.GetData(ctx, "AAPL", start, end, false)
	s.Require().NoError(err)
	s.Equal(2, s.provider.fetchCount)
}

func (s *LoaderTestSuite) TestEmptyResultIsNoDataError() {
	s.provider.series = nil

	_, err := s.loader.GetData(context.Background(), "MISSING",
		optional.Some(date("2024-01-01")), optional.Some(date("2024-01-30")), true)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
	s.True(errors.IsDataFetchError(err))
}

func (s *LoaderTestSuite) TestProviderFailureIsWrapped() {
	s.provider.err = errors.New(errors.ErrCodeProviderUnavailable, "connection refused")

	_, err := s.loader.GetData(context.Background(), "AAPL",
		optional.Some(date("2024-01-01")), optional.Some(date("2024-01-30")), true)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDataFetchFailed))
	s.True(errors.IsDataFetchError(err))
}

func (s *LoaderTestSuite) TestInvalidDateRange() {
	_, err := s.loader.GetData(context.Background(), "AAPL",
		optional.Some(date("2024-06-01")), optional.Some(date("2024-01-01")), true)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidDateRange))
}

func (s *LoaderTestSuite) TestCorruptCacheIsAnError() {
	path := s.loader.CachePath("AAPL")
	s.Require().NoError(os.WriteFile(path, []byte("date,open\ngarbage"), 0644))

	_, err := s.loader.GetData(context.Background(), "AAPL",
		optional.Some(date("2024-01-01")), optional.Some(date("2024-01-30")), true)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeCacheReadFailed))
}

func (s *LoaderTestSuite) TestGetPriceAtDateForwardFills() {
	price, err := s.loader.GetPriceAtDate(context.Background(), "AAPL", date("2024-01-10"))
	s.Require().NoError(err)
	s.Equal(109.0, price)

	_, err = s.loader.GetPriceAtDate(context.Background(), "AAPL", date("2030-01-01"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDateOutOfRange))
}

func (s *LoaderTestSuite) TestGetOHLCVAtDate() {
	bar, err := s.loader.GetOHLCVAtDate(context.Background(), "AAPL", date("2024-01-05"))
	s.Require().NoError(err)
	s.Equal(104.0, bar.Close)
	s.Equal(105.0, bar.High)
	s.Equal(103.0, bar.Low)
}

func (s *LoaderTestSuite) TestNewLoaderCreatesCacheDir() {
	nested := filepath.Join(s.T().TempDir(), "a", "b", "cache")

	_, err := NewLoader(s.provider, nested, logger.NewNopLogger())
	s.Require().NoError(err)
	s.DirExists(nested)
}
