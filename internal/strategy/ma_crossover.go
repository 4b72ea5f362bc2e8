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
	maFastPeriod = 50
	maSlowPeriod = 200
)

// MACrossover trades the 50/200 simple moving average crossover: a golden
// cross (fast crossing above slow between the previous and current bar)
// enters a long position, a death cross exits it. Evaluation starts at the
// first bar where both averages are defined.
type MACrossover struct {
	log *logger.Logger
}

func NewMACrossover(log *logger.Logger) *MACrossover {
	return &MACrossover{log: log}
}

func (s *MACrossover) Name() Strategy {
	return StrategyMACrossover
}

func (s *MACrossover) Run(series types.PriceSeries, p *portfolio.VirtualPortfolio) error {
	closes := series.Closes()

	fast, err := indicator.SMA(closes, maFastPeriod)
	if err != nil {
		return err
	}

	slow, err := indicator.SMA(closes, maSlowPeriod)
	if err != nil {
		return err
	}

	holding := false

	for i := maSlowPeriod; i < len(series); i++ {
		price := series[i].Close

		goldenCross := fast[i-1] < slow[i-1] && fast[i] > slow[i]
		deathCross := fast[i-1] > slow[i-1] && fast[i] < slow[i]

		if goldenCross && !holding {
			if p.Buy(price, series[i].Date, optional.None[int64]()) {
				holding = true
			}
		} else if deathCross && holding {
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

	s.log.Debug("MA crossover replay complete",
		zap.Int("bars", len(series)),
		zap.Int("trades", len(p.Trades())),
	)

	return nil
}
