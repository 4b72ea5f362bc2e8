package strategy

import (
	"testing"
	"time"

	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/portfolio"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// seriesFromCloses builds a daily series with consecutive dates where every
// bar's OHLC collapses to the given close.
func seriesFromCloses(closes []float64) types.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(types.PriceSeries, len(closes))

	for i, c := range closes {
		series[i] = types.Bar{
			Date:   types.DateOf(start.AddDate(0, 0, i)),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}

	return series
}

type StrategyTestSuite struct {
	suite.Suite
	log *logger.Logger
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) SetupTest() {
	suite.log = logger.NewNopLogger()
}

func (suite *StrategyTestSuite) TestParse() {
	for _, name := range []string{"buy_and_hold", "rsi_strategy", "ma_crossover"} {
		s, err := Parse(name)
		suite.NoError(err)
		suite.Equal(Strategy(name), s)
	}
}

func (suite *StrategyTestSuite) TestParseUnknown() {
	_, err := Parse("momentum")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *StrategyTestSuite) TestNewExecutorCoversAllStrategies() {
	for _, s := range All() {
		executor, err := NewExecutor(s, suite.log)
		suite.NoError(err)
		suite.Equal(s, executor.Name())
	}
}

func (suite *StrategyTestSuite) TestBuyAndHoldTwoBarScenario() {
	series := seriesFromCloses([]float64{100, 120})
	p := portfolio.New(1000, suite.log)

	suite.NoError(NewBuyAndHold(suite.log).Run(series, p))

	trades := p.Trades()
	suite.Len(trades, 2)
	suite.Equal(types.TradeActionBuy, trades[0].Action)
	suite.Equal(int64(10), trades[0].Shares)
	suite.Equal(types.TradeActionSell, trades[1].Action)
	suite.Equal(int64(10), trades[1].Shares)

	suite.InDelta(1200.0, p.Cash(), 1e-9)
	suite.Equal(int64(0), p.Shares())
	suite.Equal([]float64{1000, 1200}, p.PortfolioValues())
	suite.InDelta(200.0, trades[1].Profit, 1e-9)
}

func (suite *StrategyTestSuite) TestBuyAndHoldEmptySeries() {
	p := portfolio.New(1000, suite.log)
	suite.NoError(NewBuyAndHold(suite.log).Run(types.PriceSeries{}, p))
	suite.Empty(p.Trades())
	suite.Equal([]float64{1000}, p.PortfolioValues())
}

func (suite *StrategyTestSuite) rsiCrossSeries() types.PriceSeries {
	// Three phases: a gentle climb so the first defined RSI values sit near
	// 100, a steep decline that drags RSI below 30 (entry), then a strong
	// recovery that pushes RSI above 70 (exit). Each threshold is crossed
	// exactly once.
	var closes []float64

	price := 100.0
	for i := 0; i < 15; i++ {
		closes = append(closes, price)
		price += 0.5
	}

	for i := 0; i < 15; i++ {
		price -= 3
		closes = append(closes, price)
	}

	for i := 0; i < 20; i++ {
		price += 4
		closes = append(closes, price)
	}

	return seriesFromCloses(closes)
}

func (suite *StrategyTestSuite) TestRSISingleRoundTrip() {
	series := suite.rsiCrossSeries()
	p := portfolio.New(10000, suite.log)

	suite.NoError(NewRSIReversion(suite.log).Run(series, p))

	trades := p.Trades()
	suite.Len(trades, 2)
	suite.Equal(types.TradeActionBuy, trades[0].Action)
	suite.Equal(types.TradeActionSell, trades[1].Action)
	suite.True(trades[1].Date.After(trades[0].Date.Time))

	expectedProfit := (trades[1].Price - trades[0].Price) * float64(trades[1].Shares)
	suite.InDelta(expectedProfit, trades[1].Profit, 1e-9)
	suite.Greater(trades[1].Profit, 0.0)

	suite.Equal(int64(0), p.Shares())
	suite.Len(p.DailyReturns(), len(p.PortfolioValues())-1)
}

func (suite *StrategyTestSuite) TestRSIShorterThanWarmUp() {
	series := seriesFromCloses([]float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105})
	p := portfolio.New(10000, suite.log)

	suite.NoError(NewRSIReversion(suite.log).Run(series, p))
	suite.Empty(p.Trades())
	suite.Equal([]float64{10000}, p.PortfolioValues())
}

func (suite *StrategyTestSuite) TestRSIExactWarmUpLength() {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	p := portfolio.New(10000, suite.log)
	suite.NoError(NewRSIReversion(suite.log).Run(seriesFromCloses(closes), p))
	suite.Empty(p.Trades())
}

func (suite *StrategyTestSuite) goldenCrossSeries() types.PriceSeries {
	// A long decline keeps the fast average under the slow one, then a
	// sustained rally lifts it back across (golden cross). Prices never
	// fall again, so the position is still open at the final bar.
	var closes []float64

	for i := 0; i < 250; i++ {
		closes = append(closes, 400-float64(i))
	}

	price := closes[len(closes)-1]
	for i := 0; i < 200; i++ {
		price += 2
		closes = append(closes, price)
	}

	return seriesFromCloses(closes)
}

func (suite *StrategyTestSuite) TestMACrossoverGoldenCrossThenForcedExit() {
	series := suite.goldenCrossSeries()
	p := portfolio.New(100000, suite.log)

	suite.NoError(NewMACrossover(suite.log).Run(series, p))

	trades := p.Trades()
	suite.Len(trades, 2)
	suite.Equal(types.TradeActionBuy, trades[0].Action)
	suite.Equal(types.TradeActionSell, trades[1].Action)

	// Entry happens during the recovery, exit is the forced close at the
	// final bar.
	suite.True(trades[1].Date.Equal(series[len(series)-1].Date.Time))
	suite.Greater(trades[1].Profit, 0.0)
	suite.Equal(int64(0), p.Shares())
}

func (suite *StrategyTestSuite) TestMACrossoverShorterThanWarmUp() {
	series := suite.goldenCrossSeries()[:10]
	p := portfolio.New(100000, suite.log)

	suite.NoError(NewMACrossover(suite.log).Run(series, p))
	suite.Empty(p.Trades())
	suite.Equal([]float64{100000}, p.PortfolioValues())
	suite.Empty(p.DailyReturns())
}

func (suite *StrategyTestSuite) TestMACrossoverSingleEvaluatedBar() {
	// Exactly 201 bars: one evaluated bar deep in the decline, where the
	// fast average sits well below the slow one. No cross fires.
	series := suite.goldenCrossSeries()[:201]
	p := portfolio.New(100000, suite.log)

	suite.NoError(NewMACrossover(suite.log).Run(series, p))
	suite.Empty(p.Trades())
	suite.Len(p.PortfolioValues(), 2)
}
