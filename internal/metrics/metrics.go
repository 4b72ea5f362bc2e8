// Package metrics computes risk-adjusted performance metrics from a
// portfolio's recorded value series, trade log, and daily-return series.
// All functions are pure; percentage results are rounded the way the report
// format expects (two decimals, win rates one decimal).
package metrics

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultRiskFreeRate is the annual risk-free rate used by the Sharpe
	// ratio when no other rate is configured.
	DefaultRiskFreeRate = 0.02

	tradingDaysPerYear = 252
)

// TotalReturn computes the percentage change across the value series.
// Returns 0 when fewer than 2 values were recorded.
func TotalReturn(portfolioValues []float64) float64 {
	if len(portfolioValues) < 2 {
		return 0.0
	}

	initial := portfolioValues[0]
	final := portfolioValues[len(portfolioValues)-1]

	return roundTo((final-initial)/initial*100, 2)
}

// SharpeRatio annualizes the mean and sample standard deviation of the
// daily-return series (x252 and xsqrt(252)) and returns
// (annualReturn - riskFreeRate) / annualVolatility. Returns 0 when the
// series is empty or has zero variance.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0.0
	}

	stdDev := stat.StdDev(returns, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0.0
	}

	annualReturn := stat.Mean(returns, nil) * tradingDaysPerYear
	annualVolatility := stdDev * math.Sqrt(tradingDaysPerYear)

	return roundTo((annualReturn-riskFreeRate)/annualVolatility, 2)
}

// MaxDrawdown computes the worst peak-to-trough percentage decline over the
// value series. The result is always <= 0, and exactly 0 only for a
// monotonically non-decreasing series.
func MaxDrawdown(portfolioValues []float64) float64 {
	if len(portfolioValues) == 0 {
		return 0.0
	}

	runningMax := portfolioValues[0]
	worst := 0.0

	for _, v := range portfolioValues {
		if v > runningMax {
			runningMax = v
		}

		drawdown := (v - runningMax) / runningMax * 100
		if drawdown < worst {
			worst = drawdown
		}
	}

	return roundTo(worst, 2)
}

// WinRate computes winning trades as a percentage of ALL trades, BUYs
// included. Only SELL trades can carry a profit, so paired buy/sell
// strategies report roughly half their per-round-trip rate here; the
// denominator is kept for compatibility with the historical report format.
// WinRatePerRoundTrip is the corrected metric.
func WinRate(trades []types.Trade) float64 {
	if len(trades) == 0 {
		return 0.0
	}

	return roundTo(float64(countWinning(trades))/float64(len(trades))*100, 1)
}

// WinRatePerRoundTrip computes winning trades as a percentage of SELL
// trades only (completed round-trips).
func WinRatePerRoundTrip(trades []types.Trade) float64 {
	sells := 0

	for _, t := range trades {
		if t.Action == types.TradeActionSell {
			sells++
		}
	}

	if sells == 0 {
		return 0.0
	}

	return roundTo(float64(countWinning(trades))/float64(sells)*100, 1)
}

// AverageGainLoss computes the mean positive profit, the mean absolute
// negative profit, and their ratio across trades with nonzero profit.
// ProfitFactor is 0 when there are no losing trades.
func AverageGainLoss(trades []types.Trade) (avgGain, avgLoss, profitFactor float64) {
	var gainSum, lossSum float64

	var gains, losses int

	for _, t := range trades {
		switch {
		case t.Profit > 0:
			gainSum += t.Profit
			gains++
		case t.Profit < 0:
			lossSum += -t.Profit
			losses++
		}
	}

	if gains > 0 {
		avgGain = roundTo(gainSum/float64(gains), 2)
	}

	if losses > 0 {
		avgLoss = roundTo(lossSum/float64(losses), 2)
	}

	if avgLoss > 0 {
		profitFactor = roundTo(avgGain/avgLoss, 2)
	}

	return avgGain, avgLoss, profitFactor
}

// CompareVsBuyHold computes absolute and relative outperformance of a
// strategy return over the buy-and-hold return for the same window.
// The relative figure is 0 when the buy-and-hold return is not positive.
func CompareVsBuyHold(strategyReturn, buyHoldReturn float64) types.BuyHoldComparison {
	outperformance := strategyReturn - buyHoldReturn

	outperformancePct := 0.0
	if buyHoldReturn > 0 {
		outperformancePct = outperformance / buyHoldReturn * 100
	}

	return types.BuyHoldComparison{
		StrategyReturn:    roundTo(strategyReturn, 2),
		BuyHoldReturn:     roundTo(buyHoldReturn, 2),
		Outperformance:    roundTo(outperformance, 2),
		OutperformancePct: roundTo(outperformancePct, 1),
		BeatsBuyHold:      outperformance > 0,
	}
}

// GenerateReport composes the full performance report. The buy-and-hold
// comparison is included when buyHoldReturn is Some.
func GenerateReport(portfolioValues []float64, trades []types.Trade, returns []float64, riskFreeRate float64, buyHoldReturn optional.Option[float64]) types.PerformanceReport {
	totalReturn := TotalReturn(portfolioValues)
	avgGain, avgLoss, profitFactor := AverageGainLoss(trades)

	report := types.PerformanceReport{
		TotalReturn:         totalReturn,
		SharpeRatio:         SharpeRatio(returns, riskFreeRate),
		MaxDrawdown:         MaxDrawdown(portfolioValues),
		WinRate:             WinRate(trades),
		WinRatePerRoundTrip: WinRatePerRoundTrip(trades),
		TotalTrades:         len(trades),
		AvgGain:             avgGain,
		AvgLoss:             avgLoss,
		ProfitFactor:        profitFactor,
		VsBuyHold:           nil,
	}

	if buyHoldReturn.IsSome() {
		comparison := CompareVsBuyHold(totalReturn, buyHoldReturn.Unwrap())
		report.VsBuyHold = &comparison
	}

	return report
}

func countWinning(trades []types.Trade) int {
	winning := 0

	for _, t := range trades {
		if t.Profit > 0 {
			winning++
		}
	}

	return winning
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))

	return math.Round(value*factor) / factor
}
