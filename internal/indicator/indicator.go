// Package indicator computes technical indicator series over closing prices.
//
// Every function returns a slice aligned index-for-index with the input
// closes. Positions inside the warm-up window, where the indicator is not yet
// defined, hold NaN. Comparisons against NaN are always false, so callers can
// test crossing conditions directly without special-casing the warm-up.
package indicator

import (
	"math"

	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// SMA computes the simple moving average of closes over the given period.
// values[i] is the mean of closes[i-period+1 .. i]; earlier positions are NaN.
func SMA(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	values := make([]float64, len(closes))
	for i := range values {
		values[i] = math.NaN()
	}

	var sum float64

	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}

		if i >= period-1 {
			values[i] = sum / float64(period)
		}
	}

	return values, nil
}

// RSI computes the Relative Strength Index over the given period using
// simple rolling means of gains and losses.
//
// The first defined value is at index == period: the indicator needs period
// price deltas, and the first delta exists at index 1. When the average loss
// is zero but the average gain is positive, RSI is 100; when both are zero,
// the value stays NaN (flat window, no signal).
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	values := make([]float64, len(closes))
	for i := range values {
		values[i] = math.NaN()
	}

	if len(closes) <= period {
		return values, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64

	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]

		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}

		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		switch {
		case avgLoss > 0:
			rs := avgGain / avgLoss
			values[i] = 100 - 100/(1+rs)
		case avgGain > 0:
			values[i] = 100
		}
	}

	return values, nil
}
