package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/indicator"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/portfolio"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"go.uber.org/zap"
)

const (
	rsiPeriod          = 14
	rsiOversoldLevel   = 30.0
	rsiOverboughtLevel = 70.0
)

// RSIReversion is a mean-reversion policy over the 14-period RSI: it enters
// a long position when RSI drops below 30 while flat and exits when RSI
// rises above 70 while long. A position still open at the final bar is
// force-closed at the last close.
type RSIReversion struct {
	log *logger.Logger
}

func NewRSIReversion(log *logger.Logger) *RSIReversion {
	return &RSIReversion{log: log}
}

func (s *RSIReversion) Name() Strategy {
	return StrategyRSI
}

func (s *RSIReversion) Run(series types.PriceSeries, p *portfolio.VirtualPortfolio) error {
	rsi, err := indicator.RSI(series.Closes(), rsiPeriod)
	if err != nil {
		return err
	}

	holding := false

	for i := rsiPeriod; i < len(series); i++ {
		price := series[i].Close
		value := rsi[i]

		// NaN warm-up values fail both comparisons, taking no action.
		if value < rsiOversoldLevel && !holding {
			if p.Buy(price, series[i].Date, optional.None[int64]()) {
				holding = true
			}
		} else if value > rsiOverboughtLevel && holding {
			if p.Sell(price, series[i].Date, optional.None[int64]()) {
				holding = false
			}
		}

		p.RecordValue(price)
	}

	if holding {
		last := series[len(series)-1]
		p.Sell(last.Close, last.Date, optional.None[int64]())
	}

	s.log.Debug("RSI replay complete",
		zap.Int("bars", len(series)),
		zap.Int("trades", len(p.Trades())),
	)

	return nil
}
