package types

import (
	"sort"
	"time"

	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// DateLayout is the on-disk and on-wire date format for daily bars.
const DateLayout = "2006-01-02"

// Date is a trading day. It marshals as an ISO date (YYYY-MM-DD) in CSV
// cache files and YAML reports.
type Date struct {
	time.Time
}

// NewDate creates a Date truncated to midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its trading day.
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalCSV implements the gocsv marshaller.
func (d Date) MarshalCSV() (string, error) {
	return d.Format(DateLayout), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (d *Date) UnmarshalCSV(value string) error {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return err
	}

	d.Time = t

	return nil
}

// MarshalYAML renders the date as YYYY-MM-DD.
func (d Date) MarshalYAML() (any, error) {
	return d.Format(DateLayout), nil
}

// UnmarshalYAML parses a YYYY-MM-DD date.
func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return err
	}

	d.Time = t

	return nil
}

// Bar is one daily OHLCV record for a single trading day.
type Bar struct {
	Date   Date    `csv:"date" yaml:"date" json:"date"`
	Open   float64 `csv:"open" yaml:"open" json:"open"`
	High   float64 `csv:"high" yaml:"high" json:"high"`
	Low    float64 `csv:"low" yaml:"low" json:"low"`
	Close  float64 `csv:"close" yaml:"close" json:"close"`
	Volume float64 `csv:"volume" yaml:"volume" json:"volume"`
}

// PriceSeries is an ordered-by-date sequence of daily bars for one ticker.
// Dates are strictly increasing with no duplicates. A series is immutable
// once handed to a backtest run.
type PriceSeries []Bar

// Validate checks the strictly-increasing-dates invariant.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date.Time) {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"bar dates must be strictly increasing: %s followed by %s",
				s[i-1].Date.Format(DateLayout), s[i].Date.Format(DateLayout))
		}
	}

	return nil
}

// Closes returns the closing price of every bar, in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}

	return closes
}

// Slice returns the bars within [start, end], inclusive on both ends.
// The underlying array is shared with the receiver.
func (s PriceSeries) Slice(start, end time.Time) PriceSeries {
	lo := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(start)
	})
	hi := sort.Search(len(s), func(i int) bool {
		return s[i].Date.After(end)
	})

	if lo >= hi {
		return PriceSeries{}
	}

	return s[lo:hi]
}

// SearchDate returns the index of the first bar whose date is >= the
// requested date (forward-fill semantics for non-trading days). Returns an
// error when the date is past the end of the series.
func (s PriceSeries) SearchDate(date time.Time) (int, error) {
	idx := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(date)
	})

	if idx == len(s) {
		return 0, errors.Newf(errors.ErrCodeDateOutOfRange,
			"no bar on or after %s", date.Format(DateLayout))
	}

	return idx, nil
}
